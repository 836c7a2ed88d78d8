package dokan

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dokan-dev/dokany-sub001/internal/native"
	"github.com/dokan-dev/dokany-sub001/pkg/errors"
)

func TestTranslateOptionsDefaults(t *testing.T) {
	translated, err := translateOptions(MountOptions{MountPoint: `M:\`})
	require.NoError(t, err)

	assert.Equal(t, "DOKAN", translated.VolumeLabel)
	assert.Equal(t, "Dokan", translated.FileSystemName)
	assert.Equal(t, uint16(600), translated.Options.Version)
	assert.Equal(t, uint16(0), translated.Options.ThreadCount)
	assert.Equal(t, uint32(0), translated.Options.Options)
	assert.Equal(t, uint32(0x19831116), translated.VolumeSerialNumber)
	assert.Equal(t, uint32(256), translated.MaximumComponentLength)
	assert.Equal(t, `M:\`, native.UTF16PtrToString(translated.Options.MountPoint))
}

func TestTranslateOptionsKeepsValues(t *testing.T) {
	translated, err := translateOptions(MountOptions{
		Version:        610,
		ThreadCount:    3,
		VolumeLabel:    "Data",
		FileSystemName: "NTFS",
		MountPoint:     `C:\mnt\data`,
	})
	require.NoError(t, err)

	assert.Equal(t, uint16(610), translated.Options.Version)
	assert.Equal(t, uint16(3), translated.Options.ThreadCount)
	assert.Equal(t, "Data", translated.VolumeLabel)
	assert.Equal(t, "NTFS", translated.FileSystemName)
	assert.Equal(t, `C:\mnt\data`, native.UTF16PtrToString(translated.Options.MountPoint))
}

func TestTranslateOptionsFlags(t *testing.T) {
	tests := []struct {
		name string
		opts MountOptions
		bit  uint32
	}{
		{"debug", MountOptions{DebugMode: true}, native.OptionDebug},
		{"stderr", MountOptions{UseStdErr: true}, native.OptionStderr},
		{"alt stream", MountOptions{UseAltStream: true}, native.OptionAltStream},
		{"keep alive", MountOptions{UseKeepAlive: true}, native.OptionKeepAlive},
		{"network", MountOptions{NetworkDrive: true}, native.OptionNetwork},
		{"removable", MountOptions{RemovableDrive: true}, native.OptionRemovable},
	}

	var all uint32
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.MountPoint = "M"
			translated, err := translateOptions(tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.bit, translated.Options.Options)
		})
		all |= tt.bit
	}

	translated, err := translateOptions(MountOptions{
		MountPoint:     "M",
		DebugMode:      true,
		UseStdErr:      true,
		UseAltStream:   true,
		UseKeepAlive:   true,
		NetworkDrive:   true,
		RemovableDrive: true,
	})
	require.NoError(t, err)
	assert.Equal(t, all, translated.Options.Options)
	assert.Equal(t, uint32(63), all)
}

func TestTranslateOptionsErrors(t *testing.T) {
	_, err := translateOptions(MountOptions{})
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.NewError(errors.ErrCodeMountPointInvalid, "")))

	_, err = translateOptions(MountOptions{MountPoint: "M\x00"})
	assert.True(t, stderrors.Is(err, errors.NewError(errors.ErrCodeMountPointInvalid, "")))

	_, err = translateOptions(MountOptions{MountPoint: "M", VolumeLabel: "a\x00b"})
	assert.True(t, stderrors.Is(err, errors.NewError(errors.ErrCodeInvalidConfig, "")))
}

func TestDriveLetter(t *testing.T) {
	tests := []struct {
		mountPoint string
		letter     rune
		ok         bool
	}{
		{"M", 'M', true},
		{"m:", 'm', true},
		{`M:\`, 'M', true},
		{`C:\mnt`, 0, false},
		{"", 0, false},
		{"1:", 0, false},
	}

	for _, tt := range tests {
		letter, ok := MountOptions{MountPoint: tt.mountPoint}.DriveLetter()
		assert.Equal(t, tt.ok, ok, tt.mountPoint)
		assert.Equal(t, tt.letter, letter, tt.mountPoint)
	}
}
