//go:build windows && (amd64 || arm64)

package driver

import (
	"fmt"
	"runtime"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/dokan-dev/dokany-sub001/internal/native"
)

var (
	dokanDLL = windows.NewLazySystemDLL("dokan.dll")

	procDokanMain             = dokanDLL.NewProc("DokanMain")
	procDokanUnmount          = dokanDLL.NewProc("DokanUnmount")
	procDokanRemoveMountPoint = dokanDLL.NewProc("DokanRemoveMountPoint")
	procDokanVersion          = dokanDLL.NewProc("DokanVersion")
	procDokanDriverVersion    = dokanDLL.NewProc("DokanDriverVersion")
	procDokanResetTimeout     = dokanDLL.NewProc("DokanResetTimeout")
)

type dokanDriver struct{}

// New loads dokan.dll and resolves its entry points.
func New() (Driver, error) {
	if err := dokanDLL.Load(); err != nil {
		return nil, fmt.Errorf("dokan: load %s: %w", dokanDLL.Name, err)
	}
	for _, proc := range []*windows.LazyProc{
		procDokanMain,
		procDokanUnmount,
		procDokanRemoveMountPoint,
		procDokanVersion,
		procDokanDriverVersion,
		procDokanResetTimeout,
	} {
		if err := proc.Find(); err != nil {
			return nil, fmt.Errorf("dokan: resolve %s: %w", proc.Name, err)
		}
	}
	return dokanDriver{}, nil
}

func (dokanDriver) Main(options *native.Options, dispatcher Dispatcher) int32 {
	key := register(dispatcher)
	defer unregister(key)

	options.GlobalContext = key
	r, _, _ := procDokanMain.Call(
		uintptr(unsafe.Pointer(options)),
		uintptr(unsafe.Pointer(callbackTable())),
	)
	runtime.KeepAlive(options)
	return int32(r)
}

func (dokanDriver) Unmount(letter rune) bool {
	r, _, _ := procDokanUnmount.Call(uintptr(letter))
	return r != 0
}

func (dokanDriver) RemoveMountPoint(mountPoint string) bool {
	p, err := windows.UTF16PtrFromString(mountPoint)
	if err != nil {
		return false
	}
	r, _, _ := procDokanRemoveMountPoint.Call(uintptr(unsafe.Pointer(p)))
	runtime.KeepAlive(p)
	return r != 0
}

func (dokanDriver) Version() uint32 {
	r, _, _ := procDokanVersion.Call()
	return uint32(r)
}

func (dokanDriver) DriverVersion() uint32 {
	r, _, _ := procDokanDriverVersion.Call()
	return uint32(r)
}

func (dokanDriver) ResetTimeout(timeout uint32, info *native.FileInfo) bool {
	r, _, _ := procDokanResetTimeout.Call(uintptr(timeout), uintptr(unsafe.Pointer(info)))
	return r != 0
}
