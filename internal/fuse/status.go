//go:build cgofuse
// +build cgofuse

package fuse

import (
	"github.com/winfsp/cgofuse/fuse"

	"github.com/dokan-dev/dokany-sub001/pkg/dokan"
)

var errnoStatus = map[int]dokan.Status{
	fuse.ENOENT:       dokan.StatusFileNotFound,
	fuse.ENOTDIR:      dokan.StatusPathNotFound,
	fuse.EEXIST:       dokan.StatusFileExists,
	fuse.EACCES:       dokan.StatusAccessDenied,
	fuse.EPERM:        dokan.StatusAccessDenied,
	fuse.EISDIR:       dokan.StatusAccessDenied,
	fuse.EROFS:        dokan.StatusAccessDenied,
	fuse.EBADF:        dokan.StatusInvalidHandle,
	fuse.EINVAL:       dokan.StatusInvalidParameter,
	fuse.ENOSPC:       dokan.StatusDiskFull,
	fuse.ENOTEMPTY:    dokan.StatusDirNotEmpty,
	fuse.ENAMETOOLONG: dokan.StatusFilenameTooLong,
	fuse.ENOSYS:       dokan.StatusNotImplemented,
	fuse.EBUSY:        dokan.StatusSharingViolation,
}

// statusOf maps a FUSE result, zero or a negated errno, to a Status.
func statusOf(errc int) dokan.Status {
	if errc >= 0 {
		return dokan.StatusSuccess
	}
	if status, ok := errnoStatus[-errc]; ok {
		return status
	}
	return dokan.StatusGenericFailure
}
