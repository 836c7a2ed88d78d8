package dokan

import "syscall"

// applicationError is the first errno value Go invents for POSIX names that
// have no Win32 equivalent.
const applicationError = 1 << 29

// platformStatus passes Win32 error codes through unchanged.
func platformStatus(errno syscall.Errno) (Status, bool) {
	if errno == 0 || errno >= applicationError {
		return 0, false
	}
	return Status(errno), true
}
