package dokan

import (
	"fmt"
	"time"
)

// Status is the numeric result of one operation: 0 for success, otherwise
// a Win32 error code. Handler statuses reach the driver unchanged.
type Status int32

const (
	StatusSuccess          Status = 0
	StatusGenericFailure   Status = -1
	StatusFileNotFound     Status = 2
	StatusPathNotFound     Status = 3
	StatusAccessDenied     Status = 5
	StatusInvalidHandle    Status = 6
	StatusSharingViolation Status = 32
	StatusLockViolation    Status = 33
	StatusHandleEOF        Status = 38
	StatusNotSupported     Status = 50
	StatusFileExists       Status = 80
	StatusInvalidParameter Status = 87
	StatusDiskFull         Status = 112
	StatusNotImplemented   Status = 120
	StatusInvalidName      Status = 123
	StatusDirNotEmpty      Status = 145
	StatusAlreadyExists    Status = 183
	StatusFilenameTooLong  Status = 206
	StatusDirectory        Status = 267
)

var statusNames = map[Status]string{
	StatusSuccess:          "SUCCESS",
	StatusGenericFailure:   "GENERIC_FAILURE",
	StatusFileNotFound:     "FILE_NOT_FOUND",
	StatusPathNotFound:     "PATH_NOT_FOUND",
	StatusAccessDenied:     "ACCESS_DENIED",
	StatusInvalidHandle:    "INVALID_HANDLE",
	StatusSharingViolation: "SHARING_VIOLATION",
	StatusLockViolation:    "LOCK_VIOLATION",
	StatusHandleEOF:        "HANDLE_EOF",
	StatusNotSupported:     "NOT_SUPPORTED",
	StatusFileExists:       "FILE_EXISTS",
	StatusInvalidParameter: "INVALID_PARAMETER",
	StatusDiskFull:         "DISK_FULL",
	StatusNotImplemented:   "CALL_NOT_IMPLEMENTED",
	StatusInvalidName:      "INVALID_NAME",
	StatusDirNotEmpty:      "DIR_NOT_EMPTY",
	StatusAlreadyExists:    "ALREADY_EXISTS",
	StatusFilenameTooLong:  "FILENAME_EXCED_RANGE",
	StatusDirectory:        "DIRECTORY",
}

// String returns the Win32 name of well known codes and the number otherwise.
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("STATUS(%d)", int32(s))
}

// Error makes a Status usable as an error value.
func (s Status) Error() string {
	return "dokan: " + s.String()
}

// IsSuccess reports whether s is StatusSuccess.
func (s Status) IsSuccess() bool {
	return s == StatusSuccess
}

// FileAccess is the decoded data access requested by CreateFile.
type FileAccess int

const (
	AccessRead FileAccess = iota + 1
	AccessWrite
	AccessReadWrite
)

func (a FileAccess) String() string {
	switch a {
	case AccessRead:
		return "Read"
	case AccessWrite:
		return "Write"
	case AccessReadWrite:
		return "ReadWrite"
	default:
		return fmt.Sprintf("FileAccess(%d)", int(a))
	}
}

// CanRead reports whether the access allows reading.
func (a FileAccess) CanRead() bool { return a == AccessRead || a == AccessReadWrite }

// CanWrite reports whether the access allows writing.
func (a FileAccess) CanWrite() bool { return a == AccessWrite || a == AccessReadWrite }

// FileShare is the decoded share mode. Bits combine freely.
type FileShare uint32

const (
	ShareNone   FileShare = 0
	ShareRead   FileShare = 1 << 0
	ShareWrite  FileShare = 1 << 1
	ShareDelete FileShare = 1 << 2
)

// Has reports whether every bit of flag is set.
func (s FileShare) Has(flag FileShare) bool { return s&flag == flag }

// FileMode is the decoded creation disposition.
type FileMode int

const (
	ModeCreateNew FileMode = iota + 1
	ModeCreate
	ModeOpen
	ModeOpenOrCreate
	ModeTruncate
)

func (m FileMode) String() string {
	switch m {
	case ModeCreateNew:
		return "CreateNew"
	case ModeCreate:
		return "Create"
	case ModeOpen:
		return "Open"
	case ModeOpenOrCreate:
		return "OpenOrCreate"
	case ModeTruncate:
		return "Truncate"
	default:
		return fmt.Sprintf("FileMode(%d)", int(m))
	}
}

// FileOptions are the decoded CreateFile flags. Bits combine freely.
type FileOptions uint32

const (
	OptionNone           FileOptions = 0
	OptionDeleteOnClose  FileOptions = 1 << 0
	OptionWriteThrough   FileOptions = 1 << 1
	OptionSequentialScan FileOptions = 1 << 2
	OptionRandomAccess   FileOptions = 1 << 3
	OptionAsynchronous   FileOptions = 1 << 4
)

// Has reports whether every bit of flag is set.
func (o FileOptions) Has(flag FileOptions) bool { return o&flag == flag }

// FileAttribute is the Windows attribute bit set, passed through unchanged.
type FileAttribute uint32

const (
	AttributeReadOnly  FileAttribute = 0x00000001
	AttributeHidden    FileAttribute = 0x00000002
	AttributeSystem    FileAttribute = 0x00000004
	AttributeDirectory FileAttribute = 0x00000010
	AttributeArchive   FileAttribute = 0x00000020
	AttributeNormal    FileAttribute = 0x00000080
	AttributeTemporary FileAttribute = 0x00000100
)

// IsDirectory reports whether the directory bit is set.
func (a FileAttribute) IsDirectory() bool { return a&AttributeDirectory != 0 }

// FileRecord describes one file as reported by a Handler. A zero time means
// "unset".
type FileRecord struct {
	Attributes     FileAttribute
	CreationTime   time.Time
	LastAccessTime time.Time
	LastWriteTime  time.Time
	Length         int64
	FileName       string
}

// DiskSpace is the result of GetDiskFreeSpace, in bytes.
type DiskSpace struct {
	FreeBytesAvailable uint64
	TotalBytes         uint64
	TotalFreeBytes     uint64
}
