/*
Package fuse serves a cgofuse filesystem through a Dokan volume.

Bridge implements dokan.Handler on top of any fuse.FileSystemInterface from
github.com/winfsp/cgofuse, so a filesystem written once for FUSE can be
mounted with the Dokan driver:

	┌──────────────────────────────┐
	│        Dokan driver          │
	└──────────────────────────────┘
	               │ DOKAN_OPERATIONS
	┌──────────────────────────────┐
	│   dokan.Proxy (dispatcher)   │
	└──────────────────────────────┘
	               │ dokan.Handler
	┌──────────────────────────────┐
	│   fuse.Bridge                │  ← This Package
	└──────────────────────────────┘
	               │ FileSystemInterface
	┌──────────────────────────────┐
	│   cgofuse filesystem         │
	└──────────────────────────────┘

The bridge is compiled with the cgofuse build tag:

	go build -tags cgofuse ./...

# Translation

Driver names such as `\dir\file` become "/dir/file". FUSE results are zero or
a negated errno; errno values map to Win32 codes (ENOENT to FILE_NOT_FOUND,
ENOTEMPTY to DIR_NOT_EMPTY and so on) and unknown ones to a generic failure.

Open files keep the FUSE handle in the dokan handle payload and release it
on CloseFile, or on Cleanup when the handle is marked DeleteOnClose so the
filesystem sees no open file on unlink. Filesystems without Create fall back
to Mknod followed by Open.

READONLY maps onto the write permission bits, and with Config.Hidden names
starting with a dot are reported HIDDEN. Byte range locks are accepted
without being forwarded.

# Lifecycle

Init runs before the first create-style operation and Destroy when the
volume unmounts, each at most once.
*/
package fuse
