//go:build !windows && !linux && !darwin && !freebsd

package mirror

import "github.com/dokan-dev/dokany-sub001/pkg/dokan"

func diskSpace(string) (dokan.DiskSpace, error) {
	return dokan.DiskSpace{}, dokan.StatusNotImplemented
}
