//go:build linux || darwin || freebsd

package mirror

import (
	"golang.org/x/sys/unix"

	"github.com/dokan-dev/dokany-sub001/pkg/dokan"
)

func diskSpace(path string) (dokan.DiskSpace, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return dokan.DiskSpace{}, err
	}
	bsize := uint64(st.Bsize)
	return dokan.DiskSpace{
		FreeBytesAvailable: uint64(st.Bavail) * bsize,
		TotalBytes:         uint64(st.Blocks) * bsize,
		TotalFreeBytes:     uint64(st.Bfree) * bsize,
	}, nil
}
