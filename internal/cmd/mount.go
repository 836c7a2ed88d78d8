package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dokan-dev/dokany-sub001/internal/config"
	"github.com/dokan-dev/dokany-sub001/internal/driver"
	"github.com/dokan-dev/dokany-sub001/internal/metrics"
	"github.com/dokan-dev/dokany-sub001/internal/mirror"
	"github.com/dokan-dev/dokany-sub001/pkg/dokan"
	"github.com/dokan-dev/dokany-sub001/pkg/utils"
	"github.com/dokan-dev/dokany-sub001/version"
)

func newMountCmd(d driver.Driver) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mount ROOT MOUNTPOINT",
		Short: "Mirror a directory as a Dokan volume",
		Long: `Mirror a local directory at a Dokan mount point.

ROOT is the directory to expose.
MOUNTPOINT is a drive letter such as M or M:\, or an empty NTFS directory.

Settings are read from --config, then DOKAN_* environment variables, then
flags. The volume stays mounted until interrupted.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, args)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runMount(ctx, cfg, d)
		},
	}

	flags := cmd.Flags()
	flags.String("config", "", "YAML configuration file")
	flags.String("log-level", "", "log level (TRACE, DEBUG, INFO, WARN, ERROR)")
	flags.String("log-file", "", "write logs to a rotated file instead of stderr")
	flags.String("log-format", "", "log format (text or json)")
	flags.Int("metrics-port", 0, "serve Prometheus metrics on this port")
	flags.Bool("read-only", false, "refuse every modification")

	flags.Uint16("thread-count", 0, "driver worker threads (0 lets the library choose)")
	flags.Bool("debug", false, "enable driver debug output")
	flags.Bool("stderr", false, "send driver debug output to stderr")
	flags.Bool("alt-stream", false, "enable alternate data streams")
	flags.Bool("keep-alive", false, "unmount automatically if the process dies")
	flags.Bool("network", false, "mount as a network drive")
	flags.Bool("removable", false, "mount as a removable drive")
	flags.String("volume-label", "", "volume label")
	flags.String("fs-name", "", "file system name")
	flags.Uint32("serial", 0, "volume serial number")
	flags.Uint32("max-component-length", 0, "maximum file name component length")

	return cmd
}

// loadConfig layers defaults, the config file, the environment, flags and
// arguments, then validates the result.
func loadConfig(cmd *cobra.Command, args []string) (*config.Configuration, error) {
	cfg := config.NewDefault()
	flags := cmd.Flags()

	if path, _ := flags.GetString("config"); path != "" {
		if err := cfg.LoadFromFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.LoadFromEnv(); err != nil {
		return nil, err
	}

	str := func(name string, dst *string) {
		if flags.Changed(name) {
			*dst, _ = flags.GetString(name)
		}
	}
	flag := func(name string, dst *bool) {
		if flags.Changed(name) {
			*dst, _ = flags.GetBool(name)
		}
	}

	str("log-level", &cfg.Global.LogLevel)
	str("log-file", &cfg.Global.LogFile)
	str("log-format", &cfg.Global.LogFormat)
	flag("read-only", &cfg.Mirror.ReadOnly)
	flag("debug", &cfg.Mount.DebugMode)
	flag("stderr", &cfg.Mount.UseStdErr)
	flag("alt-stream", &cfg.Mount.UseAltStream)
	flag("keep-alive", &cfg.Mount.UseKeepAlive)
	flag("network", &cfg.Mount.NetworkDrive)
	flag("removable", &cfg.Mount.RemovableDrive)
	str("volume-label", &cfg.Mount.VolumeLabel)
	str("fs-name", &cfg.Mount.FileSystemName)

	if flags.Changed("thread-count") {
		cfg.Mount.ThreadCount, _ = flags.GetUint16("thread-count")
	}
	if flags.Changed("serial") {
		cfg.Mount.VolumeSerialNumber, _ = flags.GetUint32("serial")
	}
	if flags.Changed("max-component-length") {
		cfg.Mount.MaximumComponentLength, _ = flags.GetUint32("max-component-length")
	}
	if flags.Changed("metrics-port") {
		cfg.Monitoring.Metrics.Port, _ = flags.GetInt("metrics-port")
		cfg.Monitoring.Metrics.Enabled = cfg.Monitoring.Metrics.Port > 0
	}

	cfg.Mirror.Root = args[0]
	cfg.Mount.MountPoint = args[1]

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// runMount serves the mirror until ctx is cancelled or the volume is
// unmounted from outside.
func runMount(ctx context.Context, cfg *config.Configuration, d driver.Driver) error {
	logger, err := utils.SetupLogging(cfg.Global.LogLevel, cfg.Global.LogFile, cfg.Global.LogFormat)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer logger.Close()

	logger.Info("dokanmirror starting", map[string]interface{}{
		"version":     version.GetFullVersion(),
		"root":        cfg.Mirror.Root,
		"mount_point": cfg.Mount.MountPoint,
	})

	m := cfg.Monitoring.Metrics
	collector, err := metrics.NewCollector(&metrics.Config{
		Enabled:   m.Enabled,
		Port:      m.Port,
		Path:      m.Path,
		Namespace: m.Namespace,
		Labels:    m.CustomLabels,
		Logger:    logger,
	})
	if err != nil {
		return err
	}
	if err := collector.Start(ctx); err != nil {
		return err
	}
	defer func() { _ = collector.Stop(context.Background()) }()

	fs, err := mirror.New(mirror.Config{
		Root:     cfg.Mirror.Root,
		ReadOnly: cfg.Mirror.ReadOnly,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	volume, err := dokan.New(fs, dokan.Config{
		Options: cfg.MountOptions(),
		Driver:  d,
		Logger:  logger,
		Metrics: collector,
	})
	if err != nil {
		return err
	}

	if err := volume.Mount(ctx); err != nil {
		return err
	}
	logger.Info("Volume mounted", map[string]interface{}{"session": volume.SessionID()})

	if err := volume.Wait(); err != nil {
		return err
	}
	logger.Info("Shutdown complete")
	return nil
}
