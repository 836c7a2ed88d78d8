/*
Package dokan serves a Go filesystem through the Dokan user-mode driver.

A Handler implements the filesystem. FileSystem mounts it, and Proxy adapts
every raw driver callback to a Handler call:

	┌─────────────────────────────────────────────┐
	│              Dokan kernel driver            │
	└─────────────────────────────────────────────┘
	                      │  DOKAN_OPERATIONS
	┌─────────────────────────────────────────────┐
	│      internal/driver (dokan.dll, callbacks) │
	└─────────────────────────────────────────────┘
	                      │  driver.Dispatcher
	┌─────────────────────────────────────────────┐
	│   Proxy: decode → context table → encode    │  ← This Package
	└─────────────────────────────────────────────┘
	                      │  Handler
	┌─────────────────────────────────────────────┐
	│      Filesystem implementation (mirror)     │
	└─────────────────────────────────────────────┘

# Open handles

CreateFile, OpenDirectory and CreateDirectory allocate a FileContext and
write its identifier into DOKAN_FILE_INFO.Context. Identifiers start at 1 and
are never reused. Every later call on the handle resolves the same context,
and CloseFile removes it whatever the handler returns. A call carrying an
unknown identifier gets a transient context that is not stored.

Handlers see a *FileInfo per call: the call's flags plus the payload shared
by every call on the handle (FileInfo.Context / FileInfo.SetContext).

# Statuses

Handlers return a Status. Win32 codes pass through to the driver unchanged.
Marshaling failures and panics are recovered at the driver boundary, logged
as *errors.DokanError, and reported as StatusGenericFailure. StatusFromError
converts Go errors for handler authors.

# Usage

	fs, err := dokan.New(handler, dokan.Config{
		Options: dokan.MountOptions{MountPoint: `M:\`},
		Logger:  logger,
	})
	if err != nil {
		return err
	}
	if err := fs.Mount(ctx); err != nil {
		return err
	}
	return fs.Wait()
*/
package dokan
