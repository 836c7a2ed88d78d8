package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/dokan-dev/dokany-sub001/pkg/dokan"
	"github.com/dokan-dev/dokany-sub001/pkg/errors"
	"github.com/dokan-dev/dokany-sub001/pkg/utils"
)

// EnvPrefix prefixes every environment variable read by LoadFromEnv.
const EnvPrefix = "DOKAN_"

// Configuration represents the complete application configuration
type Configuration struct {
	Global     GlobalConfig     `yaml:"global"`
	Mount      MountConfig      `yaml:"mount"`
	Mirror     MirrorConfig     `yaml:"mirror"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
}

// GlobalConfig represents global application settings
type GlobalConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFile   string `yaml:"log_file"`
	LogFormat string `yaml:"log_format"`
}

// MountConfig mirrors dokan.MountOptions. Zero values take the library
// defaults.
type MountConfig struct {
	MountPoint     string `yaml:"mount_point"`
	ThreadCount    uint16 `yaml:"thread_count"`
	DebugMode      bool   `yaml:"debug"`
	UseStdErr      bool   `yaml:"stderr"`
	UseAltStream   bool   `yaml:"alt_stream"`
	UseKeepAlive   bool   `yaml:"keep_alive"`
	NetworkDrive   bool   `yaml:"network_drive"`
	RemovableDrive bool   `yaml:"removable_drive"`

	VolumeLabel            string `yaml:"volume_label"`
	FileSystemName         string `yaml:"file_system_name"`
	VolumeSerialNumber     uint32 `yaml:"volume_serial_number"`
	MaximumComponentLength uint32 `yaml:"maximum_component_length"`
}

// MirrorConfig configures the mirror filesystem served by dokanmirror.
type MirrorConfig struct {
	Root     string `yaml:"root"`
	ReadOnly bool   `yaml:"read_only"`
}

// MonitoringConfig represents monitoring settings
type MonitoringConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
}

// MetricsConfig represents metrics settings
type MetricsConfig struct {
	Enabled      bool              `yaml:"enabled"`
	Port         int               `yaml:"port"`
	Path         string            `yaml:"path"`
	Namespace    string            `yaml:"namespace"`
	CustomLabels map[string]string `yaml:"custom_labels"`
}

// NewDefault returns a configuration with sensible defaults
func NewDefault() *Configuration {
	return &Configuration{
		Global: GlobalConfig{
			LogLevel:  "INFO",
			LogFile:   "",
			LogFormat: "text",
		},
		Mount: MountConfig{
			VolumeLabel:            dokan.DefaultVolumeLabel,
			FileSystemName:         dokan.DefaultFileSystemName,
			VolumeSerialNumber:     dokan.DefaultVolumeSerialNumber,
			MaximumComponentLength: dokan.DefaultMaximumComponentLength,
		},
		Monitoring: MonitoringConfig{
			Metrics: MetricsConfig{
				Enabled:   false,
				Port:      9090,
				Path:      "/metrics",
				Namespace: "dokan",
				CustomLabels: map[string]string{
					"service": "dokanmirror",
				},
			},
		},
	}
}

// LoadFromFile loads configuration from a YAML file
func (c *Configuration) LoadFromFile(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeConfigLoad, "failed to read config file").
			WithContext("file", filename)
	}

	if err := yaml.UnmarshalStrict(data, c); err != nil {
		return errors.Wrap(err, errors.ErrCodeConfigLoad, "failed to parse config file").
			WithContext("file", filename)
	}

	return nil
}

// LoadFromEnv loads configuration from DOKAN_* environment variables. A
// malformed numeric or boolean value is an error.
func (c *Configuration) LoadFromEnv() error {
	env := envReader{}

	// Global settings
	env.str("LOG_LEVEL", &c.Global.LogLevel)
	env.str("LOG_FILE", &c.Global.LogFile)
	env.str("LOG_FORMAT", &c.Global.LogFormat)

	// Mount settings
	env.str("MOUNT_POINT", &c.Mount.MountPoint)
	env.number16("THREAD_COUNT", &c.Mount.ThreadCount)
	env.flag("DEBUG", &c.Mount.DebugMode)
	env.flag("STDERR", &c.Mount.UseStdErr)
	env.flag("ALT_STREAM", &c.Mount.UseAltStream)
	env.flag("KEEP_ALIVE", &c.Mount.UseKeepAlive)
	env.flag("NETWORK_DRIVE", &c.Mount.NetworkDrive)
	env.flag("REMOVABLE_DRIVE", &c.Mount.RemovableDrive)
	env.str("VOLUME_LABEL", &c.Mount.VolumeLabel)
	env.str("FILE_SYSTEM_NAME", &c.Mount.FileSystemName)

	// Mirror settings
	env.str("MIRROR_ROOT", &c.Mirror.Root)
	env.flag("MIRROR_READ_ONLY", &c.Mirror.ReadOnly)

	// Metrics
	env.flag("METRICS_ENABLED", &c.Monitoring.Metrics.Enabled)
	env.number("METRICS_PORT", &c.Monitoring.Metrics.Port)

	return env.err
}

// envReader applies DOKAN_* variables and remembers the first parse error.
type envReader struct {
	err error
}

func (r *envReader) lookup(name string) (string, bool) {
	val, ok := os.LookupEnv(EnvPrefix + name)
	if !ok || val == "" || r.err != nil {
		return "", false
	}
	return val, true
}

func (r *envReader) fail(name, val string, err error) {
	r.err = errors.Wrap(err, errors.ErrCodeConfigLoad, "invalid environment variable").
		WithContext("variable", EnvPrefix+name).
		WithContext("value", val)
}

func (r *envReader) str(name string, dst *string) {
	if val, ok := r.lookup(name); ok {
		*dst = val
	}
}

func (r *envReader) flag(name string, dst *bool) {
	if val, ok := r.lookup(name); ok {
		b, err := strconv.ParseBool(val)
		if err != nil {
			r.fail(name, val, err)
			return
		}
		*dst = b
	}
}

func (r *envReader) number(name string, dst *int) {
	if val, ok := r.lookup(name); ok {
		n, err := strconv.Atoi(val)
		if err != nil {
			r.fail(name, val, err)
			return
		}
		*dst = n
	}
}

func (r *envReader) number16(name string, dst *uint16) {
	if val, ok := r.lookup(name); ok {
		n, err := strconv.ParseUint(val, 10, 16)
		if err != nil {
			r.fail(name, val, err)
			return
		}
		*dst = uint16(n)
	}
}

// SaveToFile saves the configuration to a YAML file
func (c *Configuration) SaveToFile(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeConfigSave, "failed to marshal config")
	}

	if err := os.MkdirAll(filepath.Dir(filename), 0750); err != nil {
		return errors.Wrap(err, errors.ErrCodeConfigSave, "failed to create config directory")
	}

	if err := os.WriteFile(filename, data, 0600); err != nil {
		return errors.Wrap(err, errors.ErrCodeConfigSave, "failed to write config file").
			WithContext("file", filename)
	}

	return nil
}

// Validate validates the configuration
func (c *Configuration) Validate() error {
	if _, err := utils.ParseLogLevel(c.Global.LogLevel); err != nil {
		return invalid("log_level", err.Error())
	}
	if _, err := utils.ParseLogFormat(c.Global.LogFormat); err != nil {
		return invalid("log_format", err.Error())
	}

	if strings.ContainsRune(c.Mount.MountPoint, 0) {
		return invalid("mount.mount_point", "must not contain NUL")
	}
	if strings.ContainsRune(c.Mount.VolumeLabel, 0) {
		return invalid("mount.volume_label", "must not contain NUL")
	}
	if strings.ContainsRune(c.Mount.FileSystemName, 0) {
		return invalid("mount.file_system_name", "must not contain NUL")
	}

	metrics := c.Monitoring.Metrics
	if metrics.Enabled {
		if metrics.Port <= 0 || metrics.Port > 65535 {
			return invalid("monitoring.metrics.port", fmt.Sprintf("%d is not a valid port", metrics.Port))
		}
		if !strings.HasPrefix(metrics.Path, "/") {
			return invalid("monitoring.metrics.path", "must start with /")
		}
	}

	return nil
}

func invalid(field, reason string) error {
	return errors.NewError(errors.ErrCodeConfigValidation, fmt.Sprintf("invalid %s: %s", field, reason)).
		WithComponent("config").
		WithContext("field", field)
}

// MountOptions converts the mount section to library options.
func (c *Configuration) MountOptions() dokan.MountOptions {
	m := c.Mount
	return dokan.MountOptions{
		ThreadCount:            m.ThreadCount,
		DebugMode:              m.DebugMode,
		UseStdErr:              m.UseStdErr,
		UseAltStream:           m.UseAltStream,
		UseKeepAlive:           m.UseKeepAlive,
		NetworkDrive:           m.NetworkDrive,
		RemovableDrive:         m.RemovableDrive,
		VolumeLabel:            m.VolumeLabel,
		FileSystemName:         m.FileSystemName,
		MountPoint:             m.MountPoint,
		VolumeSerialNumber:     m.VolumeSerialNumber,
		MaximumComponentLength: m.MaximumComponentLength,
	}.WithDefaults()
}
