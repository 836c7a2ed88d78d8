//go:build windows

package mirror

import (
	"os"
	"syscall"
	"time"

	"golang.org/x/sys/windows"

	"github.com/dokan-dev/dokany-sub001/pkg/dokan"
)

func recordOf(st os.FileInfo) dokan.FileRecord {
	record := dokan.FileRecord{
		Length:        st.Size(),
		FileName:      st.Name(),
		LastWriteTime: st.ModTime(),
	}

	data, ok := st.Sys().(*syscall.Win32FileAttributeData)
	if !ok {
		record.Attributes = dokan.AttributeNormal
		if st.IsDir() {
			record.Attributes = dokan.AttributeDirectory
		}
		record.CreationTime = st.ModTime()
		record.LastAccessTime = st.ModTime()
		return record
	}

	record.Attributes = dokan.FileAttribute(data.FileAttributes)
	record.CreationTime = time.Unix(0, data.CreationTime.Nanoseconds())
	record.LastAccessTime = time.Unix(0, data.LastAccessTime.Nanoseconds())
	record.LastWriteTime = time.Unix(0, data.LastWriteTime.Nanoseconds())
	if st.IsDir() {
		record.Length = 0
	}
	return record
}

func setAttributes(path string, attrs dokan.FileAttribute) error {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return err
	}
	return windows.SetFileAttributes(p, uint32(attrs))
}
