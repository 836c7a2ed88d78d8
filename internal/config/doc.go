/*
Package config loads the settings of a Dokan mount from defaults, a YAML file
and DOKAN_* environment variables.

# Configuration Sources

Sources are applied in order, each overriding the previous one:

	┌─────────────────────────────────────────────┐
	│          Command-line flags                 │ ← Highest Priority
	└─────────────────────────────────────────────┘
	                      │
	┌─────────────────────────────────────────────┐
	│        Environment Variables (DOKAN_*)      │
	└─────────────────────────────────────────────┘
	                      │
	┌─────────────────────────────────────────────┐
	│         Configuration File (YAML)           │
	└─────────────────────────────────────────────┘
	                      │
	┌─────────────────────────────────────────────┐
	│           Default Values                    │ ← Lowest Priority
	└─────────────────────────────────────────────┘

Flags are applied by cmd/dokanmirror after LoadFromEnv.

# Usage

	cfg := config.NewDefault()
	if err := cfg.LoadFromFile("dokan.yaml"); err != nil {
		return err
	}
	if err := cfg.LoadFromEnv(); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	fs, err := dokan.New(handler, dokan.Config{Options: cfg.MountOptions()})

# File Format

	global:
	  log_level: INFO
	  log_file: "C:\\ProgramData\\dokan\\mirror.log"
	  log_format: text

	mount:
	  mount_point: "M:\\"
	  thread_count: 5
	  debug: false
	  stderr: false
	  alt_stream: false
	  keep_alive: true
	  network_drive: false
	  removable_drive: false
	  volume_label: DOKAN
	  file_system_name: Dokan

	mirror:
	  root: "C:\\data"
	  read_only: false

	monitoring:
	  metrics:
	    enabled: true
	    port: 9090
	    path: /metrics
	    namespace: dokan

Unknown keys are rejected.

# Environment Variables

	DOKAN_LOG_LEVEL, DOKAN_LOG_FILE, DOKAN_LOG_FORMAT
	DOKAN_MOUNT_POINT, DOKAN_THREAD_COUNT
	DOKAN_DEBUG, DOKAN_STDERR, DOKAN_ALT_STREAM, DOKAN_KEEP_ALIVE
	DOKAN_NETWORK_DRIVE, DOKAN_REMOVABLE_DRIVE
	DOKAN_VOLUME_LABEL, DOKAN_FILE_SYSTEM_NAME
	DOKAN_MIRROR_ROOT, DOKAN_MIRROR_READ_ONLY
	DOKAN_METRICS_ENABLED, DOKAN_METRICS_PORT

Booleans accept the forms of strconv.ParseBool.
*/
package config
