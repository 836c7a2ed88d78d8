package dokan

import "time"

// Handler is implemented by a filesystem served through Dokan. Names are
// volume-relative and use backslashes, e.g. `\dir\file.txt`. Every method
// may be called concurrently. Buffers passed to ReadFile and WriteFile are
// only valid until the method returns.
type Handler interface {
	// CreateFile opens or creates a file. A handler that finds a directory
	// at name sets fi.IsDirectory.
	CreateFile(name string, access FileAccess, share FileShare, mode FileMode, options FileOptions, fi *FileInfo) Status
	OpenDirectory(name string, fi *FileInfo) Status
	CreateDirectory(name string, fi *FileInfo) Status

	// Cleanup runs when the last user handle closes; CloseFile runs when the
	// system releases the handle. DeleteOnClose is acted on in Cleanup.
	Cleanup(name string, fi *FileInfo) Status
	CloseFile(name string, fi *FileInfo) Status

	// ReadFile fills buf from offset and returns the bytes read.
	ReadFile(name string, buf []byte, offset int64, fi *FileInfo) (int, Status)
	// WriteFile writes data at offset and returns the bytes written. When
	// fi.WriteToEndOfFile is set the offset is to be ignored.
	WriteFile(name string, data []byte, offset int64, fi *FileInfo) (int, Status)
	FlushFileBuffers(name string, fi *FileInfo) Status

	GetFileInformation(name string, fi *FileInfo) (FileRecord, Status)
	// FindFiles lists a directory. Entries reach the driver in slice order.
	FindFiles(name string, fi *FileInfo) ([]FileRecord, Status)

	SetFileAttributes(name string, attributes FileAttribute, fi *FileInfo) Status
	// SetFileTime receives a zero time for each timestamp left unchanged.
	SetFileTime(name string, creation, lastAccess, lastWrite time.Time, fi *FileInfo) Status

	DeleteFile(name string, fi *FileInfo) Status
	DeleteDirectory(name string, fi *FileInfo) Status
	MoveFile(name, newName string, replace bool, fi *FileInfo) Status

	SetEndOfFile(name string, length int64, fi *FileInfo) Status
	SetAllocationSize(name string, length int64, fi *FileInfo) Status

	LockFile(name string, offset, length int64, fi *FileInfo) Status
	UnlockFile(name string, offset, length int64, fi *FileInfo) Status

	GetDiskFreeSpace(fi *FileInfo) (DiskSpace, Status)
	Unmount(fi *FileInfo) Status
}

// HandlerBase answers every operation with StatusNotImplemented. Embed it to
// implement only part of Handler.
type HandlerBase struct{}

var _ Handler = HandlerBase{}

func (HandlerBase) CreateFile(string, FileAccess, FileShare, FileMode, FileOptions, *FileInfo) Status {
	return StatusNotImplemented
}

func (HandlerBase) OpenDirectory(string, *FileInfo) Status   { return StatusNotImplemented }
func (HandlerBase) CreateDirectory(string, *FileInfo) Status { return StatusNotImplemented }
func (HandlerBase) Cleanup(string, *FileInfo) Status         { return StatusNotImplemented }
func (HandlerBase) CloseFile(string, *FileInfo) Status       { return StatusNotImplemented }

func (HandlerBase) ReadFile(string, []byte, int64, *FileInfo) (int, Status) {
	return 0, StatusNotImplemented
}

func (HandlerBase) WriteFile(string, []byte, int64, *FileInfo) (int, Status) {
	return 0, StatusNotImplemented
}

func (HandlerBase) FlushFileBuffers(string, *FileInfo) Status { return StatusNotImplemented }

func (HandlerBase) GetFileInformation(string, *FileInfo) (FileRecord, Status) {
	return FileRecord{}, StatusNotImplemented
}

func (HandlerBase) FindFiles(string, *FileInfo) ([]FileRecord, Status) {
	return nil, StatusNotImplemented
}

func (HandlerBase) SetFileAttributes(string, FileAttribute, *FileInfo) Status {
	return StatusNotImplemented
}

func (HandlerBase) SetFileTime(string, time.Time, time.Time, time.Time, *FileInfo) Status {
	return StatusNotImplemented
}

func (HandlerBase) DeleteFile(string, *FileInfo) Status           { return StatusNotImplemented }
func (HandlerBase) DeleteDirectory(string, *FileInfo) Status      { return StatusNotImplemented }
func (HandlerBase) MoveFile(string, string, bool, *FileInfo) Status { return StatusNotImplemented }
func (HandlerBase) SetEndOfFile(string, int64, *FileInfo) Status  { return StatusNotImplemented }
func (HandlerBase) SetAllocationSize(string, int64, *FileInfo) Status {
	return StatusNotImplemented
}
func (HandlerBase) LockFile(string, int64, int64, *FileInfo) Status   { return StatusNotImplemented }
func (HandlerBase) UnlockFile(string, int64, int64, *FileInfo) Status { return StatusNotImplemented }

func (HandlerBase) GetDiskFreeSpace(*FileInfo) (DiskSpace, Status) {
	return DiskSpace{}, StatusNotImplemented
}

func (HandlerBase) Unmount(*FileInfo) Status { return StatusNotImplemented }

// MetricsRecorder receives dispatcher measurements. internal/metrics
// provides the Prometheus implementation.
type MetricsRecorder interface {
	RecordOperation(operation string, status Status, duration time.Duration)
	RecordBytes(operation string, n int)
	RecordFailure(operation, code string)
	SetOpenHandles(n int)
}

type nopMetrics struct{}

func (nopMetrics) RecordOperation(string, Status, time.Duration) {}
func (nopMetrics) RecordBytes(string, int)                       {}
func (nopMetrics) RecordFailure(string, string)                  {}
func (nopMetrics) SetOpenHandles(int)                            {}
