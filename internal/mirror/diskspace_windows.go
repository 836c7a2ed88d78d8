//go:build windows

package mirror

import (
	"golang.org/x/sys/windows"

	"github.com/dokan-dev/dokany-sub001/pkg/dokan"
)

func diskSpace(path string) (dokan.DiskSpace, error) {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return dokan.DiskSpace{}, err
	}
	var space dokan.DiskSpace
	if err := windows.GetDiskFreeSpaceEx(p, &space.FreeBytesAvailable, &space.TotalBytes, &space.TotalFreeBytes); err != nil {
		return dokan.DiskSpace{}, err
	}
	return space, nil
}
