//go:build !windows

package mirror

import (
	"os"

	"github.com/dokan-dev/dokany-sub001/pkg/dokan"
)

// recordOf describes a host file. Hosts without Windows attributes report
// the modification time for all three timestamps.
func recordOf(st os.FileInfo) dokan.FileRecord {
	var attrs dokan.FileAttribute
	switch {
	case st.IsDir():
		attrs = dokan.AttributeDirectory
	case st.Mode().Perm()&0o200 == 0:
		attrs = dokan.AttributeReadOnly
	default:
		attrs = dokan.AttributeArchive
	}

	length := st.Size()
	if st.IsDir() {
		length = 0
	}

	mod := st.ModTime()
	return dokan.FileRecord{
		Attributes:     attrs,
		CreationTime:   mod,
		LastAccessTime: mod,
		LastWriteTime:  mod,
		Length:         length,
		FileName:       st.Name(),
	}
}

// setAttributes maps the read-only bit onto the owner write permission.
// Other attribute bits have no host equivalent.
func setAttributes(path string, attrs dokan.FileAttribute) error {
	st, err := os.Stat(path)
	if err != nil {
		return err
	}
	mode := st.Mode().Perm()
	if attrs&dokan.AttributeReadOnly != 0 {
		mode &^= 0o222
	} else {
		mode |= 0o200
	}
	if mode == st.Mode().Perm() {
		return nil
	}
	return os.Chmod(path, mode)
}
