//go:build linux || darwin || freebsd

package mirror

import (
	"errors"
	"io"
	"os"

	"golang.org/x/sys/unix"

	"github.com/dokan-dev/dokany-sub001/pkg/dokan"
)

func lockRange(f *os.File, offset, length int64) error {
	return fcntlLock(f, unix.F_WRLCK, offset, length)
}

func unlockRange(f *os.File, offset, length int64) error {
	return fcntlLock(f, unix.F_UNLCK, offset, length)
}

func fcntlLock(f *os.File, kind int16, offset, length int64) error {
	lk := unix.Flock_t{
		Type:   kind,
		Whence: io.SeekStart,
		Start:  offset,
		Len:    length,
	}
	return unix.FcntlFlock(f.Fd(), unix.F_SETLK, &lk)
}

func lockStatus(err error) dokan.Status {
	if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EACCES) {
		return dokan.StatusLockViolation
	}
	return dokan.StatusFromError(err)
}
