package dokan

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dokan-dev/dokany-sub001/internal/buffer"
	"github.com/dokan-dev/dokany-sub001/internal/driver"
	"github.com/dokan-dev/dokany-sub001/pkg/errors"
	"github.com/dokan-dev/dokany-sub001/pkg/utils"
)

// Config configures a FileSystem.
type Config struct {
	Options MountOptions
	// Driver defaults to the Dokan library of the running platform.
	Driver  driver.Driver
	Logger  *utils.StructuredLogger
	Metrics MetricsRecorder
	Pool    *buffer.BytePool
}

// FileSystem mounts a Handler through the Dokan driver.
type FileSystem struct {
	handler   Handler
	options   MountOptions
	driver    driver.Driver
	logger    *utils.StructuredLogger
	metrics   MetricsRecorder
	pool      *buffer.BytePool
	sessionID string

	mu        sync.Mutex
	mounted   bool
	proxy     *Proxy
	done      chan struct{}
	result    error
	startTime time.Time
}

// New prepares a FileSystem. Nothing is mounted until Mount.
func New(handler Handler, config Config) (*FileSystem, error) {
	if handler == nil {
		return nil, errors.NewError(errors.ErrCodeHandlerMissing, "handler is nil").
			WithComponent("mount")
	}

	d := config.Driver
	if d == nil {
		var err error
		d, err = driver.New()
		if err != nil {
			code := errors.ErrCodeDriverUnavailable
			if stderrors.Is(err, driver.ErrUnsupportedPlatform) {
				code = errors.ErrCodeUnsupportedPlatform
			}
			return nil, errors.Wrap(err, code, "dokan driver is not available").
				WithComponent("mount")
		}
	}

	logger := config.Logger
	if logger == nil {
		logger = utils.NewDiscardLogger()
	}
	metrics := config.Metrics
	if metrics == nil {
		metrics = nopMetrics{}
	}
	pool := config.Pool
	if pool == nil {
		pool = buffer.NewBytePool()
	}

	sessionID := uuid.NewString()
	options := config.Options.WithDefaults()
	return &FileSystem{
		handler:   handler,
		options:   options,
		driver:    d,
		logger:    logger.WithFields(map[string]interface{}{"session": sessionID, "mount_point": options.MountPoint}),
		metrics:   metrics,
		pool:      pool,
		sessionID: sessionID,
	}, nil
}

// SessionID identifies this FileSystem in logs.
func (fs *FileSystem) SessionID() string { return fs.sessionID }

// Options returns the mount options with defaults applied.
func (fs *FileSystem) Options() MountOptions { return fs.options }

// Mount starts serving in the background. The volume is unmounted when ctx
// is cancelled or Unmount is called; Wait reports how serving ended.
func (fs *FileSystem) Mount(ctx context.Context) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if fs.mounted {
		return errors.NewError(errors.ErrCodeAlreadyMounted, "file system is already mounted").
			WithComponent("mount").
			WithContext("mount_point", fs.options.MountPoint)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	translated, err := translateOptions(fs.options)
	if err != nil {
		return err
	}
	fs.proxy = newProxy(fs.handler, translated, ProxyConfig{
		Logger:       fs.logger,
		Metrics:      fs.metrics,
		Pool:         fs.pool,
		ResetTimeout: fs.driver.ResetTimeout,
	})
	fs.mounted = true
	fs.result = nil
	fs.done = make(chan struct{})
	fs.startTime = time.Now()

	fs.logger.Info("Mounting file system", map[string]interface{}{
		"version":      translated.Options.Version,
		"thread_count": translated.Options.ThreadCount,
		"options":      translated.Options.Options,
		"volume_label": translated.VolumeLabel,
		"fs_name":      translated.FileSystemName,
	})

	go fs.serve(translated, fs.proxy, fs.done)
	go func(done <-chan struct{}) {
		select {
		case <-ctx.Done():
			if err := fs.Unmount(); err != nil {
				fs.logger.Warn("Unmount on context cancellation failed", map[string]interface{}{"error": err.Error()})
			}
		case <-done:
		}
	}(fs.done)

	return nil
}

func (fs *FileSystem) serve(options *nativeOptions, proxy *Proxy, done chan struct{}) {
	result := fs.driver.Main(&options.Options, proxy)

	var err error
	if derr := errors.MountError(result); derr != nil {
		err = derr.WithComponent("mount").WithContext("mount_point", fs.options.MountPoint)
		fs.logger.Error("Dokan main loop failed", map[string]interface{}{
			"result": result,
			"code":   string(derr.Code),
		})
	} else {
		fs.logger.Info("File system unmounted", map[string]interface{}{
			"uptime":       time.Since(fs.startTime).String(),
			"open_handles": proxy.OpenHandles(),
		})
	}

	fs.mu.Lock()
	fs.mounted = false
	fs.result = err
	fs.mu.Unlock()
	close(done)
}

// Wait blocks until serving ends and returns the mount error, if any. It
// returns immediately when the file system was never mounted.
func (fs *FileSystem) Wait() error {
	fs.mu.Lock()
	done := fs.done
	fs.mu.Unlock()
	if done == nil {
		return nil
	}
	<-done

	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.result
}

// Unmount asks the driver to remove the volume.
func (fs *FileSystem) Unmount() error {
	fs.mu.Lock()
	mounted := fs.mounted
	fs.mu.Unlock()
	if !mounted {
		return errors.NewError(errors.ErrCodeNotMounted, "file system is not mounted").
			WithComponent("mount")
	}

	fs.logger.Info("Unmounting file system")
	if fs.driver.RemoveMountPoint(fs.options.MountPoint) {
		return nil
	}
	if letter, ok := fs.options.DriveLetter(); ok && fs.driver.Unmount(letter) {
		return nil
	}
	return errors.NewError(errors.ErrCodeUnmountFailed, "driver refused to unmount").
		WithComponent("mount").
		WithContext("mount_point", fs.options.MountPoint)
}

// IsMounted reports whether the driver main loop is running.
func (fs *FileSystem) IsMounted() bool {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.mounted
}

// OpenHandles returns the number of open handles of the current mount.
func (fs *FileSystem) OpenHandles() int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.proxy == nil {
		return 0
	}
	return fs.proxy.OpenHandles()
}

// VersionInfo reports the Dokan library and driver versions.
type VersionInfo struct {
	Library uint32
	Driver  uint32
}

// Versions queries the driver for its versions.
func (fs *FileSystem) Versions() VersionInfo {
	return VersionInfo{Library: fs.driver.Version(), Driver: fs.driver.DriverVersion()}
}

// UnmountMountPoint removes a volume by mount point without a FileSystem,
// as "dokanctl /u" does.
func UnmountMountPoint(d driver.Driver, mountPoint string) error {
	if d == nil {
		var err error
		if d, err = driver.New(); err != nil {
			return errors.Wrap(err, errors.ErrCodeDriverUnavailable, "dokan driver is not available")
		}
	}
	if d.RemoveMountPoint(mountPoint) {
		return nil
	}
	if letter, ok := (MountOptions{MountPoint: mountPoint}).DriveLetter(); ok && d.Unmount(letter) {
		return nil
	}
	return errors.NewError(errors.ErrCodeUnmountFailed, "driver refused to unmount").
		WithContext("mount_point", mountPoint)
}

// DriverVersions queries library and driver versions without mounting.
func DriverVersions(d driver.Driver) (VersionInfo, error) {
	if d == nil {
		var err error
		if d, err = driver.New(); err != nil {
			return VersionInfo{}, errors.Wrap(err, errors.ErrCodeDriverUnavailable, "dokan driver is not available")
		}
	}
	return VersionInfo{Library: d.Version(), Driver: d.DriverVersion()}, nil
}
