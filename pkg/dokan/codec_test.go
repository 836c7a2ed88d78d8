package dokan

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dokan-dev/dokany-sub001/internal/native"
)

func TestDecodeMode(t *testing.T) {
	tests := []struct {
		disposition uint32
		want        FileMode
	}{
		{native.CreateNew, ModeCreateNew},
		{native.CreateAlways, ModeCreate},
		{native.OpenExisting, ModeOpen},
		{native.OpenAlways, ModeOpenOrCreate},
		{native.TruncateExisting, ModeTruncate},
		{0, ModeOpen},
		{6, ModeOpen},
		{0xffffffff, ModeOpen},
	}

	seen := map[FileMode]uint32{}
	for _, tt := range tests {
		got := decodeMode(tt.disposition)
		assert.Equal(t, tt.want, got, "disposition %d", tt.disposition)
		if tt.disposition >= native.CreateNew && tt.disposition <= native.TruncateExisting {
			prev, dup := seen[got]
			assert.False(t, dup, "dispositions %d and %d both decode to %v", prev, tt.disposition, got)
			seen[got] = tt.disposition
		}
	}
	assert.Len(t, seen, 5)
}

func TestDecodeAccessPriority(t *testing.T) {
	const other = 0x00120080 // SYNCHRONIZE | READ_CONTROL | FILE_READ_ATTRIBUTES

	tests := []struct {
		name string
		mask uint32
		want FileAccess
	}{
		{"none", 0, AccessRead},
		{"read", native.FileReadData, AccessRead},
		{"write", native.FileWriteData, AccessWrite},
		{"read write", native.FileReadData | native.FileWriteData, AccessReadWrite},
		{"read with other bits", native.FileReadData | other, AccessRead},
		{"write with other bits", native.FileWriteData | other, AccessWrite},
		{"read write with other bits", native.FileReadData | native.FileWriteData | other, AccessReadWrite},
		{"generic all", 0x10000000, AccessRead},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, decodeAccess(tt.mask))
		})
	}
}

func TestDecodeShare(t *testing.T) {
	assert.Equal(t, ShareNone, decodeShare(0))
	assert.Equal(t, ShareRead, decodeShare(native.FileShareRead))
	assert.Equal(t, ShareRead|ShareWrite|ShareDelete,
		decodeShare(native.FileShareRead|native.FileShareWrite|native.FileShareDelete))

	share := decodeShare(native.FileShareWrite | 0x80)
	assert.True(t, share.Has(ShareWrite))
	assert.False(t, share.Has(ShareRead))
	assert.False(t, share.Has(ShareDelete))
}

func TestDecodeOptions(t *testing.T) {
	flags := map[uint32]FileOptions{
		native.FileFlagDeleteOnClose:  OptionDeleteOnClose,
		native.FileFlagWriteThrough:   OptionWriteThrough,
		native.FileFlagSequentialScan: OptionSequentialScan,
		native.FileFlagRandomAccess:   OptionRandomAccess,
		native.FileFlagOverlapped:     OptionAsynchronous,
	}

	all := OptionNone
	var raw uint32
	for bit, want := range flags {
		assert.Equal(t, want, decodeOptions(bit))
		all |= want
		raw |= bit
	}
	assert.Equal(t, all, decodeOptions(raw))

	// FILE_ATTRIBUTE_NORMAL and FILE_FLAG_BACKUP_SEMANTICS are ignored.
	assert.Equal(t, OptionNone, decodeOptions(0x80|0x02000000))
}

func TestEncodeFindData(t *testing.T) {
	created := time.Date(2020, 1, 2, 3, 4, 5, 600, time.UTC)
	rec := FileRecord{
		Attributes:    AttributeArchive,
		CreationTime:  created,
		LastWriteTime: created.Add(time.Hour),
		Length:        5<<32 | 7,
		FileName:      "report.txt",
	}

	var data native.FindData
	data.AlternateFileName[0] = 'X'
	encodeFindData(&data, &rec)

	assert.Equal(t, uint32(AttributeArchive), data.FileAttributes)
	assert.Equal(t, created, native.DecodeFileTime(&data.CreationTime))
	assert.Equal(t, native.FileTime{}, data.LastAccessTime)
	assert.Equal(t, created.Add(time.Hour), native.DecodeFileTime(&data.LastWriteTime))
	assert.Equal(t, uint32(5), data.FileSizeHigh)
	assert.Equal(t, uint32(7), data.FileSizeLow)
	assert.Equal(t, "report.txt", native.UTF16ToString(data.FileName[:]))
	assert.Equal(t, "", native.UTF16ToString(data.AlternateFileName[:]))
}

func TestEncodeFindDataTruncatesName(t *testing.T) {
	rec := FileRecord{FileName: strings.Repeat("n", 400)}

	var data native.FindData
	encodeFindData(&data, &rec)

	name := native.UTF16ToString(data.FileName[:])
	assert.Len(t, name, native.MaxPath-1)
	assert.Zero(t, data.FileName[native.MaxPath-1])
}

func TestEncodeHandleInformation(t *testing.T) {
	rec := FileRecord{
		Attributes: AttributeDirectory,
		Length:     42,
	}

	var out native.ByHandleFileInformation
	encodeHandleInformation(&out, &rec, DefaultVolumeSerialNumber, `\dir`)

	assert.Equal(t, uint32(AttributeDirectory), out.FileAttributes)
	assert.Equal(t, DefaultVolumeSerialNumber, out.VolumeSerialNumber)
	assert.Equal(t, uint32(0), out.FileSizeHigh)
	assert.Equal(t, uint32(42), out.FileSizeLow)
	assert.Equal(t, uint32(1), out.NumberOfLinks)
	assert.Equal(t, native.FileTime{}, out.CreationTime)

	high, low := fileIndex(`\dir`)
	assert.Equal(t, high, out.FileIndexHigh)
	assert.Equal(t, low, out.FileIndexLow)

	otherHigh, otherLow := fileIndex(`\other`)
	require.False(t, high == otherHigh && low == otherLow)
}

func TestFileAttribute(t *testing.T) {
	assert.True(t, (AttributeDirectory | AttributeHidden).IsDirectory())
	assert.False(t, AttributeNormal.IsDirectory())
}

func TestFileAccess(t *testing.T) {
	assert.True(t, AccessRead.CanRead())
	assert.False(t, AccessRead.CanWrite())
	assert.True(t, AccessWrite.CanWrite())
	assert.False(t, AccessWrite.CanRead())
	assert.True(t, AccessReadWrite.CanRead())
	assert.True(t, AccessReadWrite.CanWrite())
	assert.Equal(t, "ReadWrite", AccessReadWrite.String())
	assert.Equal(t, "OpenOrCreate", ModeOpenOrCreate.String())
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "FILE_NOT_FOUND", StatusFileNotFound.String())
	assert.Equal(t, "STATUS(9999)", Status(9999).String())
	assert.Equal(t, "dokan: ACCESS_DENIED", StatusAccessDenied.Error())
	assert.True(t, StatusSuccess.IsSuccess())
	assert.False(t, StatusGenericFailure.IsSuccess())
}
