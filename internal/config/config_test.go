package config

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dokan-dev/dokany-sub001/pkg/dokan"
	"github.com/dokan-dev/dokany-sub001/pkg/errors"
)

// Test Constants
const (
	TestDebugLevel = "DEBUG"
	TestLabel      = "MIRROR"
)

func TestNewDefault(t *testing.T) {
	cfg := NewDefault()

	// Test global defaults
	if cfg.Global.LogLevel != "INFO" {
		t.Errorf("Expected LogLevel to be INFO, got %s", cfg.Global.LogLevel)
	}
	if cfg.Global.LogFormat != "text" {
		t.Errorf("Expected LogFormat to be text, got %s", cfg.Global.LogFormat)
	}

	// Test mount defaults
	if cfg.Mount.VolumeLabel != "DOKAN" {
		t.Errorf("Expected VolumeLabel to be DOKAN, got %s", cfg.Mount.VolumeLabel)
	}
	if cfg.Mount.FileSystemName != "Dokan" {
		t.Errorf("Expected FileSystemName to be Dokan, got %s", cfg.Mount.FileSystemName)
	}
	if cfg.Mount.DebugMode || cfg.Mount.NetworkDrive || cfg.Mount.RemovableDrive {
		t.Error("Expected mount flags to be off by default")
	}

	// Test metrics defaults
	if cfg.Monitoring.Metrics.Enabled {
		t.Error("Expected metrics to be disabled by default")
	}
	if cfg.Monitoring.Metrics.Port != 9090 {
		t.Errorf("Expected metrics port 9090, got %d", cfg.Monitoring.Metrics.Port)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Default configuration is invalid: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  func() *Configuration
		wantErr bool
		errMsg  string
	}{
		{
			name: "valid config",
			config: func() *Configuration {
				return NewDefault()
			},
			wantErr: false,
		},
		{
			name: "invalid log level",
			config: func() *Configuration {
				cfg := NewDefault()
				cfg.Global.LogLevel = "INVALID"
				return cfg
			},
			wantErr: true,
			errMsg:  "invalid log_level",
		},
		{
			name: "invalid log format",
			config: func() *Configuration {
				cfg := NewDefault()
				cfg.Global.LogFormat = "xml"
				return cfg
			},
			wantErr: true,
			errMsg:  "invalid log_format",
		},
		{
			name: "nul in volume label",
			config: func() *Configuration {
				cfg := NewDefault()
				cfg.Mount.VolumeLabel = "a\x00b"
				return cfg
			},
			wantErr: true,
			errMsg:  "invalid mount.volume_label",
		},
		{
			name: "nul in mount point",
			config: func() *Configuration {
				cfg := NewDefault()
				cfg.Mount.MountPoint = "M\x00"
				return cfg
			},
			wantErr: true,
			errMsg:  "invalid mount.mount_point",
		},
		{
			name: "metrics port out of range",
			config: func() *Configuration {
				cfg := NewDefault()
				cfg.Monitoring.Metrics.Enabled = true
				cfg.Monitoring.Metrics.Port = 70000
				return cfg
			},
			wantErr: true,
			errMsg:  "invalid monitoring.metrics.port",
		},
		{
			name: "metrics path without slash",
			config: func() *Configuration {
				cfg := NewDefault()
				cfg.Monitoring.Metrics.Enabled = true
				cfg.Monitoring.Metrics.Path = "metrics"
				return cfg
			},
			wantErr: true,
			errMsg:  "invalid monitoring.metrics.path",
		},
		{
			name: "disabled metrics are not checked",
			config: func() *Configuration {
				cfg := NewDefault()
				cfg.Monitoring.Metrics.Port = 0
				return cfg
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.config()
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if err != nil {
				if !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("Validate() error = %v, want error containing %v", err, tt.errMsg)
				}
				if !stderrors.Is(err, errors.NewError(errors.ErrCodeConfigValidation, "")) {
					t.Errorf("Validate() error code = %v, want %s", err, errors.ErrCodeConfigValidation)
				}
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	// Create a temporary config file
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "config.yaml")

	configContent := `
global:
  log_level: DEBUG
  log_format: json

mount:
  mount_point: 'M:\'
  thread_count: 7
  keep_alive: true
  removable_drive: true
  volume_label: MIRROR

mirror:
  root: /srv/data
  read_only: true

monitoring:
  metrics:
    enabled: true
    port: 9191
`

	err := os.WriteFile(configFile, []byte(configContent), 0600)
	if err != nil {
		t.Fatalf("Failed to write test config file: %v", err)
	}

	cfg := NewDefault()
	err = cfg.LoadFromFile(configFile)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	// Verify loaded values
	if cfg.Global.LogLevel != TestDebugLevel {
		t.Errorf("Expected LogLevel to be DEBUG, got %s", cfg.Global.LogLevel)
	}
	if cfg.Global.LogFormat != "json" {
		t.Errorf("Expected LogFormat to be json, got %s", cfg.Global.LogFormat)
	}
	if cfg.Mount.MountPoint != `M:\` {
		t.Errorf("Expected MountPoint to be M:\\, got %s", cfg.Mount.MountPoint)
	}
	if cfg.Mount.ThreadCount != 7 {
		t.Errorf("Expected ThreadCount to be 7, got %d", cfg.Mount.ThreadCount)
	}
	if !cfg.Mount.UseKeepAlive || !cfg.Mount.RemovableDrive {
		t.Error("Expected keep_alive and removable_drive to be set")
	}
	if cfg.Mount.VolumeLabel != TestLabel {
		t.Errorf("Expected VolumeLabel to be %s, got %s", TestLabel, cfg.Mount.VolumeLabel)
	}
	// Keys absent from the file keep their defaults.
	if cfg.Mount.FileSystemName != "Dokan" {
		t.Errorf("Expected FileSystemName to stay Dokan, got %s", cfg.Mount.FileSystemName)
	}
	if cfg.Mirror.Root != "/srv/data" || !cfg.Mirror.ReadOnly {
		t.Errorf("Unexpected mirror section: %+v", cfg.Mirror)
	}
	if !cfg.Monitoring.Metrics.Enabled || cfg.Monitoring.Metrics.Port != 9191 {
		t.Errorf("Unexpected metrics section: %+v", cfg.Monitoring.Metrics)
	}
	if cfg.Monitoring.Metrics.Path != "/metrics" {
		t.Errorf("Expected metrics path to stay /metrics, got %s", cfg.Monitoring.Metrics.Path)
	}
}

func TestLoadFromFileNonExistent(t *testing.T) {
	cfg := NewDefault()
	err := cfg.LoadFromFile("/nonexistent/config.yaml")
	if err == nil {
		t.Fatal("Expected error when loading non-existent config file")
	}
	if !stderrors.Is(err, errors.NewError(errors.ErrCodeConfigLoad, "")) {
		t.Errorf("Expected CONFIG_LOAD code, got %v", err)
	}
	if !stderrors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected the cause to be preserved, got %v", err)
	}
}

func TestLoadFromFileRejectsUnknownKeys(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configFile, []byte("mount:\n  cache_size: 4GB\n"), 0600); err != nil {
		t.Fatalf("Failed to write test config file: %v", err)
	}

	if err := NewDefault().LoadFromFile(configFile); err == nil {
		t.Error("Expected error for unknown key")
	}
}

func TestLoadFromEnv(t *testing.T) {
	// Set up environment variables
	testEnvVars := map[string]string{
		"DOKAN_LOG_LEVEL":       "ERROR",
		"DOKAN_MOUNT_POINT":     "Q",
		"DOKAN_THREAD_COUNT":    "12",
		"DOKAN_DEBUG":           "true",
		"DOKAN_NETWORK_DRIVE":   "1",
		"DOKAN_VOLUME_LABEL":    TestLabel,
		"DOKAN_MIRROR_ROOT":     "/mnt/source",
		"DOKAN_METRICS_ENABLED": "true",
		"DOKAN_METRICS_PORT":    "9300",
	}

	// Set environment variables
	for key, value := range testEnvVars {
		t.Setenv(key, value)
	}

	cfg := NewDefault()
	err := cfg.LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v", err)
	}

	// Verify loaded values
	if cfg.Global.LogLevel != "ERROR" {
		t.Errorf("Expected LogLevel to be ERROR, got %s", cfg.Global.LogLevel)
	}
	if cfg.Mount.MountPoint != "Q" {
		t.Errorf("Expected MountPoint to be Q, got %s", cfg.Mount.MountPoint)
	}
	if cfg.Mount.ThreadCount != 12 {
		t.Errorf("Expected ThreadCount to be 12, got %d", cfg.Mount.ThreadCount)
	}
	if !cfg.Mount.DebugMode || !cfg.Mount.NetworkDrive {
		t.Error("Expected debug and network_drive to be set")
	}
	if cfg.Mount.VolumeLabel != TestLabel {
		t.Errorf("Expected VolumeLabel to be %s, got %s", TestLabel, cfg.Mount.VolumeLabel)
	}
	if cfg.Mirror.Root != "/mnt/source" {
		t.Errorf("Expected mirror root /mnt/source, got %s", cfg.Mirror.Root)
	}
	if !cfg.Monitoring.Metrics.Enabled || cfg.Monitoring.Metrics.Port != 9300 {
		t.Errorf("Unexpected metrics section: %+v", cfg.Monitoring.Metrics)
	}
}

func TestLoadFromEnvMalformed(t *testing.T) {
	tests := map[string]string{
		"DOKAN_THREAD_COUNT": "70000",
		"DOKAN_DEBUG":        "sometimes",
		"DOKAN_METRICS_PORT": "ninety",
	}

	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			err := NewDefault().LoadFromEnv()
			if err == nil {
				t.Fatalf("Expected error for %s=%s", key, value)
			}
			if !strings.Contains(err.Error(), "invalid environment variable") {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}

func TestSaveToFile(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "saved_config.yaml")

	cfg := NewDefault()
	cfg.Global.LogLevel = TestDebugLevel
	cfg.Mount.VolumeLabel = TestLabel
	cfg.Mount.UseAltStream = true

	err := cfg.SaveToFile(configFile)
	if err != nil {
		t.Fatalf("SaveToFile() error = %v", err)
	}

	info, err := os.Stat(configFile)
	if err != nil {
		t.Fatalf("Config file was not created: %v", err)
	}
	if info.Mode().Perm()&0o077 != 0 && os.PathSeparator == '/' {
		t.Errorf("Config file permissions too broad: %v", info.Mode().Perm())
	}

	// Load the saved config and verify
	newCfg := NewDefault()
	err = newCfg.LoadFromFile(configFile)
	if err != nil {
		t.Fatalf("Failed to load saved config: %v", err)
	}

	if newCfg.Global.LogLevel != TestDebugLevel {
		t.Errorf("Expected LogLevel to be DEBUG, got %s", newCfg.Global.LogLevel)
	}
	if newCfg.Mount.VolumeLabel != TestLabel {
		t.Errorf("Expected VolumeLabel to be %s, got %s", TestLabel, newCfg.Mount.VolumeLabel)
	}
	if !newCfg.Mount.UseAltStream {
		t.Error("Expected alt_stream to survive the round trip")
	}
}

func TestSaveToFileCreateDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "subdir", "config.yaml")

	cfg := NewDefault()
	err := cfg.SaveToFile(configFile)
	if err != nil {
		t.Fatalf("SaveToFile() error = %v", err)
	}

	// Verify file exists
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		t.Error("Config file was not created")
	}
}

func TestMountOptions(t *testing.T) {
	cfg := NewDefault()
	cfg.Mount.MountPoint = `C:\mnt\mirror`
	cfg.Mount.ThreadCount = 4
	cfg.Mount.UseStdErr = true
	cfg.Mount.VolumeLabel = ""

	opts := cfg.MountOptions()
	want := dokan.MountOptions{
		Version:                dokan.DefaultVersion,
		ThreadCount:            4,
		UseStdErr:              true,
		VolumeLabel:            dokan.DefaultVolumeLabel,
		FileSystemName:         dokan.DefaultFileSystemName,
		MountPoint:             `C:\mnt\mirror`,
		VolumeSerialNumber:     dokan.DefaultVolumeSerialNumber,
		MaximumComponentLength: dokan.DefaultMaximumComponentLength,
	}
	if opts != want {
		t.Errorf("MountOptions() = %+v, want %+v", opts, want)
	}
}
