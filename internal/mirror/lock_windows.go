//go:build windows

package mirror

import (
	"errors"
	"os"

	"golang.org/x/sys/windows"

	"github.com/dokan-dev/dokany-sub001/pkg/dokan"
)

func lockRange(f *os.File, offset, length int64) error {
	ol := overlappedAt(offset)
	return windows.LockFileEx(windows.Handle(f.Fd()),
		windows.LOCKFILE_EXCLUSIVE_LOCK|windows.LOCKFILE_FAIL_IMMEDIATELY, 0,
		uint32(length), uint32(length>>32), ol)
}

func unlockRange(f *os.File, offset, length int64) error {
	ol := overlappedAt(offset)
	return windows.UnlockFileEx(windows.Handle(f.Fd()), 0, uint32(length), uint32(length>>32), ol)
}

func overlappedAt(offset int64) *windows.Overlapped {
	return &windows.Overlapped{
		Offset:     uint32(offset),
		OffsetHigh: uint32(offset >> 32),
	}
}

func lockStatus(err error) dokan.Status {
	if errors.Is(err, windows.ERROR_LOCK_VIOLATION) {
		return dokan.StatusLockViolation
	}
	return dokan.StatusFromError(err)
}
