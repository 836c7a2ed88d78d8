package dokan

import (
	"errors"
	"io"
	"os"
	"syscall"
)

var errnoStatus = map[syscall.Errno]Status{
	syscall.ENOENT:       StatusFileNotFound,
	syscall.ENOTDIR:      StatusPathNotFound,
	syscall.EEXIST:       StatusFileExists,
	syscall.EACCES:       StatusAccessDenied,
	syscall.EPERM:        StatusAccessDenied,
	syscall.EISDIR:       StatusAccessDenied,
	syscall.EROFS:        StatusAccessDenied,
	syscall.EBADF:        StatusInvalidHandle,
	syscall.EINVAL:       StatusInvalidParameter,
	syscall.ENOSPC:       StatusDiskFull,
	syscall.ENOTEMPTY:    StatusDirNotEmpty,
	syscall.ENAMETOOLONG: StatusFilenameTooLong,
	syscall.ENOSYS:       StatusNotImplemented,
	syscall.ENOTSUP:      StatusNotSupported,
	syscall.EBUSY:        StatusSharingViolation,
}

// StatusFromError maps a Go error to the Status a Handler should return.
// nil is success; a Status inside err is returned as is; errno values and
// the os sentinel errors are translated; anything else is a generic failure.
func StatusFromError(err error) Status {
	if err == nil {
		return StatusSuccess
	}

	var status Status
	if errors.As(err, &status) {
		return status
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		if s, ok := errnoStatus[errno]; ok {
			return s
		}
		if s, ok := platformStatus(errno); ok {
			return s
		}
	}

	switch {
	case errors.Is(err, io.EOF):
		return StatusHandleEOF
	case errors.Is(err, os.ErrNotExist):
		return StatusFileNotFound
	case errors.Is(err, os.ErrExist):
		return StatusFileExists
	case errors.Is(err, os.ErrPermission):
		return StatusAccessDenied
	case errors.Is(err, os.ErrInvalid), errors.Is(err, os.ErrClosed):
		return StatusInvalidHandle
	}
	return StatusGenericFailure
}
