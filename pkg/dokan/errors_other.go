//go:build !windows

package dokan

import "syscall"

func platformStatus(syscall.Errno) (Status, bool) {
	return 0, false
}
