package native

// MaxPath is the length of WIN32_FIND_DATAW.cFileName in UTF-16 units.
const MaxPath = 260

// AlternateNameLength is the length of WIN32_FIND_DATAW.cAlternateFileName.
const AlternateNameLength = 14

// DOKAN_OPTIONS bits.
const (
	OptionDebug     uint32 = 1
	OptionStderr    uint32 = 2
	OptionAltStream uint32 = 4
	OptionKeepAlive uint32 = 8
	OptionNetwork   uint32 = 16
	OptionRemovable uint32 = 32
)

// DokanMain results.
const (
	DokanSuccess            int32 = 0
	DokanError              int32 = -1
	DokanDriveLetterError   int32 = -2
	DokanDriverInstallError int32 = -3
	DokanStartError         int32 = -4
	DokanMountError         int32 = -5
	DokanMountPointError    int32 = -6
)

// Access mask bits inspected by the dispatcher.
const (
	FileReadData  uint32 = 0x0001
	FileWriteData uint32 = 0x0002
)

// Share mode bits.
const (
	FileShareRead   uint32 = 0x00000001
	FileShareWrite  uint32 = 0x00000002
	FileShareDelete uint32 = 0x00000004
)

// Creation dispositions.
const (
	CreateNew        uint32 = 1
	CreateAlways     uint32 = 2
	OpenExisting     uint32 = 3
	OpenAlways       uint32 = 4
	TruncateExisting uint32 = 5
)

// CreateFile flag bits.
const (
	FileFlagWriteThrough   uint32 = 0x80000000
	FileFlagOverlapped     uint32 = 0x40000000
	FileFlagRandomAccess   uint32 = 0x10000000
	FileFlagSequentialScan uint32 = 0x08000000
	FileFlagDeleteOnClose  uint32 = 0x04000000
)

// FileAttributeDirectory is the only attribute bit this layer branches on.
const FileAttributeDirectory uint32 = 0x00000010

// GetVolumeInformation file system flags.
const (
	FileCaseSensitiveSearch uint32 = 0x00000001
	FileCasePreservedNames  uint32 = 0x00000002
	FileUnicodeOnDisk       uint32 = 0x00000004
)

// FileTime is FILETIME: 100ns intervals since 1601-01-01 UTC, low half first.
type FileTime struct {
	LowDateTime  uint32
	HighDateTime uint32
}

// FileInfo is DOKAN_FILE_INFO. Context carries the open-file id assigned by
// the dispatcher; DokanContext belongs to the driver and is never interpreted.
type FileInfo struct {
	Context          uint64
	DokanContext     uint64
	DokanOptions     *Options
	ProcessID        uint32
	IsDirectory      uint8
	DeleteOnClose    uint8
	PagingIo         uint8
	SynchronousIo    uint8
	Nocache          uint8
	WriteToEndOfFile uint8
}

// Options is DOKAN_OPTIONS.
type Options struct {
	Version       uint16
	ThreadCount   uint16
	Options       uint32
	GlobalContext uint64
	MountPoint    *uint16
}

// ByHandleFileInformation is BY_HANDLE_FILE_INFORMATION.
type ByHandleFileInformation struct {
	FileAttributes     uint32
	CreationTime       FileTime
	LastAccessTime     FileTime
	LastWriteTime      FileTime
	VolumeSerialNumber uint32
	FileSizeHigh       uint32
	FileSizeLow        uint32
	NumberOfLinks      uint32
	FileIndexHigh      uint32
	FileIndexLow       uint32
}

// FindData is WIN32_FIND_DATAW.
type FindData struct {
	FileAttributes    uint32
	CreationTime      FileTime
	LastAccessTime    FileTime
	LastWriteTime     FileTime
	FileSizeHigh      uint32
	FileSizeLow       uint32
	Reserved0         uint32
	Reserved1         uint32
	FileName          [MaxPath]uint16
	AlternateFileName [AlternateNameLength]uint16
}

// FillFindData is the per-call directory fill routine handed to FindFiles.
// It must not be retained after the call that received it returns.
type FillFindData func(data *FindData, info *FileInfo) int32

// Operations is DOKAN_OPERATIONS: one callback pointer per operation, in
// driver order. A zero entry tells the driver the operation is unsupported.
type Operations struct {
	CreateFile           uintptr
	OpenDirectory        uintptr
	CreateDirectory      uintptr
	Cleanup              uintptr
	CloseFile            uintptr
	ReadFile             uintptr
	WriteFile            uintptr
	FlushFileBuffers     uintptr
	GetFileInformation   uintptr
	FindFiles            uintptr
	FindFilesWithPattern uintptr
	SetFileAttributes    uintptr
	SetFileTime          uintptr
	DeleteFile           uintptr
	DeleteDirectory      uintptr
	MoveFile             uintptr
	SetEndOfFile         uintptr
	SetAllocationSize    uintptr
	LockFile             uintptr
	UnlockFile           uintptr
	GetDiskFreeSpace     uintptr
	GetVolumeInformation uintptr
	Unmount              uintptr
	GetFileSecurity      uintptr
	SetFileSecurity      uintptr
}
