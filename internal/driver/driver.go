// Package driver is the boundary to the Dokan user-mode library. It defines
// the raw callback surface a dispatcher must implement and the handful of
// direct entry points the library exports.
package driver

import (
	"errors"

	"github.com/dokan-dev/dokany-sub001/internal/native"
)

// ErrUnsupportedPlatform is returned by New where no Dokan library exists.
var ErrUnsupportedPlatform = errors.New("dokan: driver is only available on 64-bit windows")

// Dispatcher receives every driver callback with its raw arguments. Pointers
// are only valid until the method returns. Every method may be called
// concurrently with every other, including for the same open handle.
type Dispatcher interface {
	CreateFile(name *uint16, access, share, disposition, flags uint32, info *native.FileInfo) int32
	OpenDirectory(name *uint16, info *native.FileInfo) int32
	CreateDirectory(name *uint16, info *native.FileInfo) int32
	Cleanup(name *uint16, info *native.FileInfo) int32
	CloseFile(name *uint16, info *native.FileInfo) int32
	ReadFile(name *uint16, buf *byte, length uint32, read *uint32, offset int64, info *native.FileInfo) int32
	WriteFile(name *uint16, buf *byte, length uint32, written *uint32, offset int64, info *native.FileInfo) int32
	FlushFileBuffers(name *uint16, info *native.FileInfo) int32
	GetFileInformation(name *uint16, out *native.ByHandleFileInformation, info *native.FileInfo) int32
	FindFiles(name *uint16, fill native.FillFindData, info *native.FileInfo) int32
	SetFileAttributes(name *uint16, attributes uint32, info *native.FileInfo) int32
	SetFileTime(name *uint16, creation, lastAccess, lastWrite *native.FileTime, info *native.FileInfo) int32
	DeleteFile(name *uint16, info *native.FileInfo) int32
	DeleteDirectory(name *uint16, info *native.FileInfo) int32
	MoveFile(name, newName *uint16, replace bool, info *native.FileInfo) int32
	SetEndOfFile(name *uint16, length int64, info *native.FileInfo) int32
	SetAllocationSize(name *uint16, length int64, info *native.FileInfo) int32
	LockFile(name *uint16, offset, length int64, info *native.FileInfo) int32
	UnlockFile(name *uint16, offset, length int64, info *native.FileInfo) int32
	GetDiskFreeSpace(freeBytesAvailable, totalBytes, totalFreeBytes *uint64, info *native.FileInfo) int32
	GetVolumeInformation(volumeName *uint16, volumeNameSize uint32, serial, maxComponentLength, fileSystemFlags *uint32, fileSystemName *uint16, fileSystemNameSize uint32, info *native.FileInfo) int32
	Unmount(info *native.FileInfo) int32
	GetFileSecurity(name *uint16, securityInformation *uint32, descriptor *byte, length uint32, lengthNeeded *uint32, info *native.FileInfo) int32
	SetFileSecurity(name *uint16, securityInformation *uint32, descriptor *byte, length uint32, info *native.FileInfo) int32
}

// Driver is the set of direct entry points exported by the library.
type Driver interface {
	// Main mounts and serves until the volume is unmounted. It returns one
	// of the native.Dokan* results.
	Main(options *native.Options, dispatcher Dispatcher) int32

	// Unmount removes the volume mounted on a drive letter.
	Unmount(letter rune) bool

	// RemoveMountPoint removes the volume mounted on a drive or directory path.
	RemoveMountPoint(mountPoint string) bool

	// Version is the user-mode library version, e.g. 600.
	Version() uint32

	// DriverVersion is the kernel driver version.
	DriverVersion() uint32

	// ResetTimeout extends the driver timeout of the call that carries info.
	ResetTimeout(timeout uint32, info *native.FileInfo) bool
}
