//go:build windows && (amd64 || arm64)

package driver

import (
	"sync"
	"sync/atomic"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/dokan-dev/dokany-sub001/internal/native"
)

// Callbacks created by NewCallback are never freed, so one table serves every
// mount in the process. Each callback finds its dispatcher through the
// GlobalContext of the DOKAN_OPTIONS the call belongs to.
var (
	dispatchers sync.Map // uint64 -> Dispatcher
	nextKey     atomic.Uint64

	tableOnce sync.Once
	table     native.Operations
)

// statusNoDispatcher is returned when a callback arrives for a mount that has
// already been torn down.
const statusNoDispatcher = -1

func register(d Dispatcher) uint64 {
	key := nextKey.Add(1)
	dispatchers.Store(key, d)
	return key
}

func unregister(key uint64) {
	dispatchers.Delete(key)
}

func lookup(info uintptr) (Dispatcher, *native.FileInfo) {
	fi := (*native.FileInfo)(unsafe.Pointer(info))
	if fi == nil || fi.DokanOptions == nil {
		return nil, nil
	}
	value, ok := dispatchers.Load(fi.DokanOptions.GlobalContext)
	if !ok {
		return nil, nil
	}
	return value.(Dispatcher), fi
}

func wstr(p uintptr) *uint16 {
	return (*uint16)(unsafe.Pointer(p))
}

func result(status int32) uintptr {
	return uintptr(status)
}

// fillFunc wraps the driver's PFillFindData for the duration of one call.
func fillFunc(fn uintptr) native.FillFindData {
	if fn == 0 {
		return nil
	}
	return func(data *native.FindData, info *native.FileInfo) int32 {
		r, _, _ := syscall.SyscallN(fn, uintptr(unsafe.Pointer(data)), uintptr(unsafe.Pointer(info)))
		return int32(r)
	}
}

func callbackTable() *native.Operations {
	tableOnce.Do(func() {
		table = native.Operations{
			CreateFile: windows.NewCallback(func(name, access, share, disposition, flags, info uintptr) uintptr {
				d, fi := lookup(info)
				if d == nil {
					return result(statusNoDispatcher)
				}
				return result(d.CreateFile(wstr(name), uint32(access), uint32(share), uint32(disposition), uint32(flags), fi))
			}),
			OpenDirectory: windows.NewCallback(func(name, info uintptr) uintptr {
				d, fi := lookup(info)
				if d == nil {
					return result(statusNoDispatcher)
				}
				return result(d.OpenDirectory(wstr(name), fi))
			}),
			CreateDirectory: windows.NewCallback(func(name, info uintptr) uintptr {
				d, fi := lookup(info)
				if d == nil {
					return result(statusNoDispatcher)
				}
				return result(d.CreateDirectory(wstr(name), fi))
			}),
			Cleanup: windows.NewCallback(func(name, info uintptr) uintptr {
				d, fi := lookup(info)
				if d == nil {
					return result(statusNoDispatcher)
				}
				return result(d.Cleanup(wstr(name), fi))
			}),
			CloseFile: windows.NewCallback(func(name, info uintptr) uintptr {
				d, fi := lookup(info)
				if d == nil {
					return result(statusNoDispatcher)
				}
				return result(d.CloseFile(wstr(name), fi))
			}),
			ReadFile: windows.NewCallback(func(name, buf, length, read, offset, info uintptr) uintptr {
				d, fi := lookup(info)
				if d == nil {
					return result(statusNoDispatcher)
				}
				return result(d.ReadFile(wstr(name), (*byte)(unsafe.Pointer(buf)), uint32(length),
					(*uint32)(unsafe.Pointer(read)), int64(offset), fi))
			}),
			WriteFile: windows.NewCallback(func(name, buf, length, written, offset, info uintptr) uintptr {
				d, fi := lookup(info)
				if d == nil {
					return result(statusNoDispatcher)
				}
				return result(d.WriteFile(wstr(name), (*byte)(unsafe.Pointer(buf)), uint32(length),
					(*uint32)(unsafe.Pointer(written)), int64(offset), fi))
			}),
			FlushFileBuffers: windows.NewCallback(func(name, info uintptr) uintptr {
				d, fi := lookup(info)
				if d == nil {
					return result(statusNoDispatcher)
				}
				return result(d.FlushFileBuffers(wstr(name), fi))
			}),
			GetFileInformation: windows.NewCallback(func(name, out, info uintptr) uintptr {
				d, fi := lookup(info)
				if d == nil {
					return result(statusNoDispatcher)
				}
				return result(d.GetFileInformation(wstr(name), (*native.ByHandleFileInformation)(unsafe.Pointer(out)), fi))
			}),
			FindFiles: windows.NewCallback(func(name, fill, info uintptr) uintptr {
				d, fi := lookup(info)
				if d == nil {
					return result(statusNoDispatcher)
				}
				return result(d.FindFiles(wstr(name), fillFunc(fill), fi))
			}),
			SetFileAttributes: windows.NewCallback(func(name, attributes, info uintptr) uintptr {
				d, fi := lookup(info)
				if d == nil {
					return result(statusNoDispatcher)
				}
				return result(d.SetFileAttributes(wstr(name), uint32(attributes), fi))
			}),
			SetFileTime: windows.NewCallback(func(name, creation, lastAccess, lastWrite, info uintptr) uintptr {
				d, fi := lookup(info)
				if d == nil {
					return result(statusNoDispatcher)
				}
				return result(d.SetFileTime(wstr(name),
					(*native.FileTime)(unsafe.Pointer(creation)),
					(*native.FileTime)(unsafe.Pointer(lastAccess)),
					(*native.FileTime)(unsafe.Pointer(lastWrite)), fi))
			}),
			DeleteFile: windows.NewCallback(func(name, info uintptr) uintptr {
				d, fi := lookup(info)
				if d == nil {
					return result(statusNoDispatcher)
				}
				return result(d.DeleteFile(wstr(name), fi))
			}),
			DeleteDirectory: windows.NewCallback(func(name, info uintptr) uintptr {
				d, fi := lookup(info)
				if d == nil {
					return result(statusNoDispatcher)
				}
				return result(d.DeleteDirectory(wstr(name), fi))
			}),
			MoveFile: windows.NewCallback(func(name, newName, replace, info uintptr) uintptr {
				d, fi := lookup(info)
				if d == nil {
					return result(statusNoDispatcher)
				}
				return result(d.MoveFile(wstr(name), wstr(newName), uint32(replace) != 0, fi))
			}),
			SetEndOfFile: windows.NewCallback(func(name, length, info uintptr) uintptr {
				d, fi := lookup(info)
				if d == nil {
					return result(statusNoDispatcher)
				}
				return result(d.SetEndOfFile(wstr(name), int64(length), fi))
			}),
			SetAllocationSize: windows.NewCallback(func(name, length, info uintptr) uintptr {
				d, fi := lookup(info)
				if d == nil {
					return result(statusNoDispatcher)
				}
				return result(d.SetAllocationSize(wstr(name), int64(length), fi))
			}),
			LockFile: windows.NewCallback(func(name, offset, length, info uintptr) uintptr {
				d, fi := lookup(info)
				if d == nil {
					return result(statusNoDispatcher)
				}
				return result(d.LockFile(wstr(name), int64(offset), int64(length), fi))
			}),
			UnlockFile: windows.NewCallback(func(name, offset, length, info uintptr) uintptr {
				d, fi := lookup(info)
				if d == nil {
					return result(statusNoDispatcher)
				}
				return result(d.UnlockFile(wstr(name), int64(offset), int64(length), fi))
			}),
			GetDiskFreeSpace: windows.NewCallback(func(freeBytesAvailable, totalBytes, totalFreeBytes, info uintptr) uintptr {
				d, fi := lookup(info)
				if d == nil {
					return result(statusNoDispatcher)
				}
				return result(d.GetDiskFreeSpace(
					(*uint64)(unsafe.Pointer(freeBytesAvailable)),
					(*uint64)(unsafe.Pointer(totalBytes)),
					(*uint64)(unsafe.Pointer(totalFreeBytes)), fi))
			}),
			GetVolumeInformation: windows.NewCallback(func(volumeName, volumeNameSize, serial, maxComponentLength, fileSystemFlags, fileSystemName, fileSystemNameSize, info uintptr) uintptr {
				d, fi := lookup(info)
				if d == nil {
					return result(statusNoDispatcher)
				}
				return result(d.GetVolumeInformation(
					wstr(volumeName), uint32(volumeNameSize),
					(*uint32)(unsafe.Pointer(serial)),
					(*uint32)(unsafe.Pointer(maxComponentLength)),
					(*uint32)(unsafe.Pointer(fileSystemFlags)),
					wstr(fileSystemName), uint32(fileSystemNameSize), fi))
			}),
			Unmount: windows.NewCallback(func(info uintptr) uintptr {
				d, fi := lookup(info)
				if d == nil {
					return result(statusNoDispatcher)
				}
				return result(d.Unmount(fi))
			}),
			GetFileSecurity: windows.NewCallback(func(name, securityInformation, descriptor, length, lengthNeeded, info uintptr) uintptr {
				d, fi := lookup(info)
				if d == nil {
					return result(statusNoDispatcher)
				}
				return result(d.GetFileSecurity(wstr(name),
					(*uint32)(unsafe.Pointer(securityInformation)),
					(*byte)(unsafe.Pointer(descriptor)), uint32(length),
					(*uint32)(unsafe.Pointer(lengthNeeded)), fi))
			}),
			SetFileSecurity: windows.NewCallback(func(name, securityInformation, descriptor, length, info uintptr) uintptr {
				d, fi := lookup(info)
				if d == nil {
					return result(statusNoDispatcher)
				}
				return result(d.SetFileSecurity(wstr(name),
					(*uint32)(unsafe.Pointer(securityInformation)),
					(*byte)(unsafe.Pointer(descriptor)), uint32(length), fi))
			}),
		}
	})
	return &table
}
