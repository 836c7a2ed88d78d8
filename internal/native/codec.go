package native

import (
	"errors"
	"time"
	"unicode/utf16"
	"unsafe"
)

// fileTimeEpochDelta is the number of 100ns intervals between 1601-01-01 and
// 1970-01-01.
const fileTimeEpochDelta = 116444736000000000

const ticksPerSecond = 10000000

// maxFileTime is the largest timestamp the driver's signed 64-bit
// LARGE_INTEGER can carry. Raw values above it saturate.
const maxFileTime = 1<<63 - 1

var (
	fileTimeEpoch = time.Date(1601, time.January, 1, 0, 0, 0, 0, time.UTC)
	fileTimeMax   = DecodeFileTime(&FileTime{LowDateTime: 0xFFFFFFFF, HighDateTime: 0x7FFFFFFF})
)

// ErrNulInString is returned when a Go string cannot be passed to the driver
// because it contains a NUL code unit.
var ErrNulInString = errors.New("native: string contains NUL")

// Ticks returns the combined 64-bit value of ft.
func (ft FileTime) Ticks() uint64 {
	return uint64(ft.HighDateTime)<<32 | uint64(ft.LowDateTime)
}

// DecodeFileTime converts a driver timestamp into an absolute UTC time.
// A nil pointer or a zero combined value yields the zero time.Time. Values
// with the top bit set decode as maxFileTime.
func DecodeFileTime(ft *FileTime) time.Time {
	if ft == nil {
		return time.Time{}
	}
	raw := ft.Ticks()
	if raw == 0 {
		return time.Time{}
	}
	if raw > maxFileTime {
		raw = maxFileTime
	}
	unixTicks := int64(raw) - fileTimeEpochDelta
	return time.Unix(unixTicks/ticksPerSecond, (unixTicks%ticksPerSecond)*100).UTC()
}

// EncodeFileTime converts t into a driver timestamp, truncated to 100ns.
// The zero time.Time encodes to 0; instants before 1601 clamp to 0 and
// instants past the last representable one clamp to maxFileTime.
func EncodeFileTime(t time.Time) FileTime {
	if t.IsZero() || t.Before(fileTimeEpoch) {
		return FileTime{}
	}
	if t.After(fileTimeMax) {
		return FileTime{LowDateTime: 0xFFFFFFFF, HighDateTime: 0x7FFFFFFF}
	}
	ticks := t.Unix()*ticksPerSecond + int64(t.Nanosecond()/100) + fileTimeEpochDelta
	if ticks <= 0 {
		return FileTime{}
	}
	return FileTime{
		LowDateTime:  uint32(uint64(ticks)),
		HighDateTime: uint32(uint64(ticks) >> 32),
	}
}

// SplitSize splits a length into the high and low halves used by the driver.
func SplitSize(n int64) (high, low uint32) {
	return uint32(uint64(n) >> 32), uint32(uint64(n))
}

// Bool reports whether a driver BOOLEAN/UCHAR flag is set.
func Bool(b uint8) bool {
	return b != 0
}

// Flag encodes a Go bool as a driver UCHAR flag.
func Flag(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

// UTF16PtrToString copies the NUL-terminated wide string at p. The pointer is
// only valid for the duration of a callback, so the result never aliases it.
func UTF16PtrToString(p *uint16) string {
	if p == nil {
		return ""
	}
	n := 0
	for ptr := unsafe.Pointer(p); *(*uint16)(ptr) != 0; n++ {
		ptr = unsafe.Add(ptr, 2)
	}
	return string(utf16.Decode(unsafe.Slice(p, n)))
}

// UTF16Len returns the number of code units before the first NUL in buf.
func UTF16Len(buf []uint16) int {
	for i, c := range buf {
		if c == 0 {
			return i
		}
	}
	return len(buf)
}

// UTF16ToString decodes a fixed inline buffer up to its first NUL.
func UTF16ToString(buf []uint16) string {
	return string(utf16.Decode(buf[:UTF16Len(buf)]))
}

// CopyUTF16 writes s into the fixed buffer dst, truncating to len(dst)-1
// code units and always terminating with NUL. A surrogate pair is never split.
// It returns the number of code units written, excluding the terminator.
func CopyUTF16(dst []uint16, s string) int {
	if len(dst) == 0 {
		return 0
	}
	encoded := utf16.Encode([]rune(s))
	n := copy(dst[:len(dst)-1], encoded)
	if n < len(encoded) && n > 0 && utf16.IsSurrogate(rune(dst[n-1])) && dst[n-1] < 0xdc00 {
		n--
	}
	clear(dst[n:])
	return n
}

// UTF16FromString returns s as a NUL-terminated UTF-16 buffer.
func UTF16FromString(s string) ([]uint16, error) {
	for i := 0; i < len(s); i++ {
		if s[i] == 0 {
			return nil, ErrNulInString
		}
	}
	return append(utf16.Encode([]rune(s)), 0), nil
}
