package dokan

import (
	"github.com/cespare/xxhash/v2"

	"github.com/dokan-dev/dokany-sub001/internal/native"
)

// decodeAccess prefers read-write over write over read.
func decodeAccess(mask uint32) FileAccess {
	read := mask&native.FileReadData != 0
	write := mask&native.FileWriteData != 0
	switch {
	case read && write:
		return AccessReadWrite
	case write:
		return AccessWrite
	default:
		return AccessRead
	}
}

func decodeShare(mask uint32) FileShare {
	share := ShareNone
	if mask&native.FileShareRead != 0 {
		share |= ShareRead
	}
	if mask&native.FileShareWrite != 0 {
		share |= ShareWrite
	}
	if mask&native.FileShareDelete != 0 {
		share |= ShareDelete
	}
	return share
}

// decodeMode maps the five creation dispositions; anything else opens.
func decodeMode(disposition uint32) FileMode {
	switch disposition {
	case native.CreateNew:
		return ModeCreateNew
	case native.CreateAlways:
		return ModeCreate
	case native.OpenExisting:
		return ModeOpen
	case native.OpenAlways:
		return ModeOpenOrCreate
	case native.TruncateExisting:
		return ModeTruncate
	default:
		return ModeOpen
	}
}

func decodeOptions(flags uint32) FileOptions {
	options := OptionNone
	if flags&native.FileFlagDeleteOnClose != 0 {
		options |= OptionDeleteOnClose
	}
	if flags&native.FileFlagWriteThrough != 0 {
		options |= OptionWriteThrough
	}
	if flags&native.FileFlagSequentialScan != 0 {
		options |= OptionSequentialScan
	}
	if flags&native.FileFlagRandomAccess != 0 {
		options |= OptionRandomAccess
	}
	if flags&native.FileFlagOverlapped != 0 {
		options |= OptionAsynchronous
	}
	return options
}

// fileIndex derives a stable BY_HANDLE_FILE_INFORMATION index from a path.
func fileIndex(name string) (high, low uint32) {
	h := xxhash.Sum64String(name)
	return uint32(h >> 32), uint32(h)
}

func encodeHandleInformation(out *native.ByHandleFileInformation, rec *FileRecord, serial uint32, name string) {
	out.FileAttributes = uint32(rec.Attributes)
	out.CreationTime = native.EncodeFileTime(rec.CreationTime)
	out.LastAccessTime = native.EncodeFileTime(rec.LastAccessTime)
	out.LastWriteTime = native.EncodeFileTime(rec.LastWriteTime)
	out.VolumeSerialNumber = serial
	out.FileSizeHigh, out.FileSizeLow = native.SplitSize(rec.Length)
	out.NumberOfLinks = 1
	out.FileIndexHigh, out.FileIndexLow = fileIndex(name)
}

// encodeFindData fills one directory entry. The short name stays empty.
func encodeFindData(out *native.FindData, rec *FileRecord) {
	*out = native.FindData{}
	out.FileAttributes = uint32(rec.Attributes)
	out.CreationTime = native.EncodeFileTime(rec.CreationTime)
	out.LastAccessTime = native.EncodeFileTime(rec.LastAccessTime)
	out.LastWriteTime = native.EncodeFileTime(rec.LastWriteTime)
	out.FileSizeHigh, out.FileSizeLow = native.SplitSize(rec.Length)
	native.CopyUTF16(out.FileName[:], rec.FileName)
}
