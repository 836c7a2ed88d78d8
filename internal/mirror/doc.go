/*
Package mirror implements a dokan.Handler that exposes a host directory as a
volume.

Every driver path is resolved under the mirror root; names that would leave
the root fail with INVALID_NAME. Open handles keep an *os.File in the handle
payload. Deletion follows the driver protocol: DeleteFile and DeleteDirectory
only check that the delete may proceed, and the entry is removed in Cleanup
once the handle carries DeleteOnClose.

# Usage

	fs, err := mirror.New(mirror.Config{Root: `C:\data`, Logger: logger})
	if err != nil {
		return err
	}
	volume, err := dokan.New(fs, dokan.Config{Options: opts, Logger: logger})

A read-only mirror answers ACCESS_DENIED to every operation that would
modify the host tree.

# Platform Notes

Attributes and timestamps come from the host. On Windows they are reported
unchanged; elsewhere directories are DIRECTORY, files without an owner write
bit are READONLY and everything else is ARCHIVE, with the modification time
used for all three timestamps. Byte range locks use LockFileEx on Windows and
fcntl record locks on Linux, macOS and FreeBSD.
*/
package mirror
