package dokan

import (
	"fmt"
	"strings"

	"github.com/dokan-dev/dokany-sub001/internal/native"
	"github.com/dokan-dev/dokany-sub001/pkg/errors"
)

// Defaults substituted for zero MountOptions fields.
const (
	DefaultVersion                uint16 = 600
	DefaultVolumeLabel                   = "DOKAN"
	DefaultFileSystemName                = "Dokan"
	DefaultVolumeSerialNumber     uint32 = 0x19831116
	DefaultMaximumComponentLength uint32 = 256
)

// MountOptions configures one mount.
type MountOptions struct {
	Version     uint16
	ThreadCount uint16

	DebugMode      bool
	UseStdErr      bool
	UseAltStream   bool
	UseKeepAlive   bool
	NetworkDrive   bool
	RemovableDrive bool

	VolumeLabel    string
	FileSystemName string
	// MountPoint is a drive letter ("M", "M:", `M:\`) or a directory path.
	MountPoint string

	VolumeSerialNumber     uint32
	MaximumComponentLength uint32
}

// WithDefaults returns o with every zero field replaced by its default.
func (o MountOptions) WithDefaults() MountOptions {
	if o.Version == 0 {
		o.Version = DefaultVersion
	}
	if o.VolumeLabel == "" {
		o.VolumeLabel = DefaultVolumeLabel
	}
	if o.FileSystemName == "" {
		o.FileSystemName = DefaultFileSystemName
	}
	if o.VolumeSerialNumber == 0 {
		o.VolumeSerialNumber = DefaultVolumeSerialNumber
	}
	if o.MaximumComponentLength == 0 {
		o.MaximumComponentLength = DefaultMaximumComponentLength
	}
	return o
}

// DriveLetter returns the letter of a drive-letter mount point.
func (o MountOptions) DriveLetter() (rune, bool) {
	mp := strings.TrimSuffix(strings.TrimSuffix(o.MountPoint, `\`), ":")
	if len(mp) != 1 {
		return 0, false
	}
	c := rune(mp[0])
	if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
		return c, true
	}
	return 0, false
}

// nativeOptions is the translated form of MountOptions. It owns the UTF-16
// mount point referenced by Options.MountPoint, and keeps the strings the
// driver queries through GetVolumeInformation.
type nativeOptions struct {
	Options                native.Options
	VolumeLabel            string
	FileSystemName         string
	VolumeSerialNumber     uint32
	MaximumComponentLength uint32

	mountPoint []uint16
}

// translateOptions applies defaults and maps every flag to its own bit.
func translateOptions(o MountOptions) (*nativeOptions, error) {
	o = o.WithDefaults()

	if o.MountPoint == "" {
		return nil, errors.NewError(errors.ErrCodeMountPointInvalid, "mount point is required").
			WithComponent("options")
	}
	mountPoint, err := native.UTF16FromString(o.MountPoint)
	if err != nil {
		return nil, errors.NewError(errors.ErrCodeMountPointInvalid, fmt.Sprintf("invalid mount point %q", o.MountPoint)).
			WithComponent("options").
			WithCause(err)
	}
	for field, value := range map[string]string{"volume label": o.VolumeLabel, "file system name": o.FileSystemName} {
		if strings.ContainsRune(value, 0) {
			return nil, errors.NewError(errors.ErrCodeInvalidConfig, fmt.Sprintf("%s contains NUL", field)).
				WithComponent("options")
		}
	}

	var bits uint32
	for _, flag := range []struct {
		set bool
		bit uint32
	}{
		{o.DebugMode, native.OptionDebug},
		{o.UseStdErr, native.OptionStderr},
		{o.UseAltStream, native.OptionAltStream},
		{o.UseKeepAlive, native.OptionKeepAlive},
		{o.NetworkDrive, native.OptionNetwork},
		{o.RemovableDrive, native.OptionRemovable},
	} {
		if flag.set {
			bits |= flag.bit
		}
	}

	return &nativeOptions{
		Options: native.Options{
			Version:     o.Version,
			ThreadCount: o.ThreadCount,
			Options:     bits,
			MountPoint:  &mountPoint[0],
		},
		VolumeLabel:            o.VolumeLabel,
		FileSystemName:         o.FileSystemName,
		VolumeSerialNumber:     o.VolumeSerialNumber,
		MaximumComponentLength: o.MaximumComponentLength,
		mountPoint:             mountPoint,
	}, nil
}
