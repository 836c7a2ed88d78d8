//go:build !windows && !linux && !darwin && !freebsd

package mirror

import (
	"os"

	"github.com/dokan-dev/dokany-sub001/pkg/dokan"
)

func lockRange(*os.File, int64, int64) error   { return dokan.StatusNotSupported }
func unlockRange(*os.File, int64, int64) error { return dokan.StatusNotSupported }

func lockStatus(err error) dokan.Status { return dokan.StatusFromError(err) }
