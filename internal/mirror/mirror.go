package mirror

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dokan-dev/dokany-sub001/pkg/dokan"
	"github.com/dokan-dev/dokany-sub001/pkg/utils"
)

// Config configures a mirror filesystem.
type Config struct {
	// Root is the host directory exposed as the volume root.
	Root     string
	ReadOnly bool
	Logger   *utils.StructuredLogger
}

// FileSystem is a dokan.Handler that mirrors a host directory.
type FileSystem struct {
	root     string
	readOnly bool
	logger   *utils.StructuredLogger
}

var _ dokan.Handler = (*FileSystem)(nil)

// New creates a mirror of config.Root, which must be an existing directory.
func New(config Config) (*FileSystem, error) {
	if config.Root == "" {
		return nil, fmt.Errorf("mirror root is required")
	}
	root, err := filepath.Abs(config.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve mirror root: %w", err)
	}
	st, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat mirror root: %w", err)
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("mirror root %s is not a directory", root)
	}

	logger := config.Logger
	if logger == nil {
		logger = utils.NewDiscardLogger()
	}

	return &FileSystem{
		root:     root,
		readOnly: config.ReadOnly,
		logger:   logger.WithComponent("mirror").WithField("root", root),
	}, nil
}

// Root returns the absolute host directory being mirrored.
func (m *FileSystem) Root() string { return m.root }

// handle is the payload stored on every open dokan handle.
type handle struct {
	path          string
	isDir         bool
	deleteOnClose bool

	mu   sync.Mutex
	file *os.File
}

func (h *handle) current() *os.File {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.file
}

func (h *handle) closeFile() error {
	h.mu.Lock()
	file := h.file
	h.file = nil
	h.mu.Unlock()
	if file == nil {
		return nil
	}
	return file.Close()
}

func handleOf(fi *dokan.FileInfo) *handle {
	h, _ := fi.Context().(*handle)
	return h
}

func (m *FileSystem) resolve(name string) (string, dokan.Status) {
	p, err := utils.ResolveWithinBase(m.root, name)
	if err != nil {
		return "", dokan.StatusInvalidName
	}
	return p, dokan.StatusSuccess
}

// file returns the open file of h, or opens name for the duration of one call
// when the handle has none, as happens after Cleanup or MoveFile.
func (m *FileSystem) file(name string, h *handle, flag int) (*os.File, func(), dokan.Status) {
	if h != nil {
		if h.isDir {
			return nil, nil, dokan.StatusAccessDenied
		}
		if f := h.current(); f != nil {
			return f, func() {}, dokan.StatusSuccess
		}
	}
	p, status := m.resolve(name)
	if status != dokan.StatusSuccess {
		return nil, nil, status
	}
	f, err := os.OpenFile(p, flag, 0)
	if err != nil {
		return nil, nil, dokan.StatusFromError(err)
	}
	return f, func() { _ = f.Close() }, dokan.StatusSuccess
}

func openFlags(access dokan.FileAccess, mode dokan.FileMode) int {
	flag := os.O_RDONLY
	switch access {
	case dokan.AccessReadWrite:
		flag = os.O_RDWR
	case dokan.AccessWrite:
		flag = os.O_WRONLY
	}

	switch mode {
	case dokan.ModeCreateNew:
		flag |= os.O_CREATE | os.O_EXCL
	case dokan.ModeCreate:
		flag |= os.O_CREATE | os.O_TRUNC
	case dokan.ModeOpenOrCreate:
		flag |= os.O_CREATE
	case dokan.ModeTruncate:
		flag |= os.O_TRUNC
	}

	// Truncation needs write access whatever was asked for.
	if flag&os.O_TRUNC != 0 && flag&(os.O_WRONLY|os.O_RDWR) == 0 {
		flag |= os.O_RDWR
	}
	return flag
}

func (m *FileSystem) CreateFile(name string, access dokan.FileAccess, share dokan.FileShare, mode dokan.FileMode, options dokan.FileOptions, fi *dokan.FileInfo) dokan.Status {
	p, status := m.resolve(name)
	if status != dokan.StatusSuccess {
		return status
	}

	st, err := os.Stat(p)
	exists := err == nil
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return dokan.StatusFromError(err)
	}

	if exists && st.IsDir() {
		if mode == dokan.ModeCreateNew {
			return dokan.StatusFileExists
		}
		fi.IsDirectory = true
		fi.SetContext(&handle{path: p, isDir: true, deleteOnClose: options.Has(dokan.OptionDeleteOnClose)})
		return dokan.StatusSuccess
	}

	creates := mode == dokan.ModeCreateNew || mode == dokan.ModeCreate ||
		mode == dokan.ModeTruncate || (mode == dokan.ModeOpenOrCreate && !exists)
	if m.readOnly && (access.CanWrite() || creates) {
		return dokan.StatusAccessDenied
	}

	f, err := os.OpenFile(p, openFlags(access, mode), 0o666)
	if err != nil {
		return dokan.StatusFromError(err)
	}

	m.logger.Debug("Opened file", map[string]interface{}{
		"file":    name,
		"access":  access.String(),
		"mode":    mode.String(),
		"created": !exists,
	})
	fi.SetContext(&handle{path: p, file: f, deleteOnClose: options.Has(dokan.OptionDeleteOnClose)})
	return dokan.StatusSuccess
}

func (m *FileSystem) OpenDirectory(name string, fi *dokan.FileInfo) dokan.Status {
	p, status := m.resolve(name)
	if status != dokan.StatusSuccess {
		return status
	}
	st, err := os.Stat(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return dokan.StatusPathNotFound
		}
		return dokan.StatusFromError(err)
	}
	if !st.IsDir() {
		return dokan.StatusDirectory
	}
	fi.IsDirectory = true
	fi.SetContext(&handle{path: p, isDir: true})
	return dokan.StatusSuccess
}

func (m *FileSystem) CreateDirectory(name string, fi *dokan.FileInfo) dokan.Status {
	if m.readOnly {
		return dokan.StatusAccessDenied
	}
	p, status := m.resolve(name)
	if status != dokan.StatusSuccess {
		return status
	}
	if err := os.Mkdir(p, 0o777); err != nil {
		if errors.Is(err, os.ErrExist) {
			return dokan.StatusAlreadyExists
		}
		return dokan.StatusFromError(err)
	}
	m.logger.Debug("Created directory", map[string]interface{}{"file": name})
	fi.IsDirectory = true
	fi.SetContext(&handle{path: p, isDir: true})
	return dokan.StatusSuccess
}

// Cleanup closes the host file and performs a pending delete.
func (m *FileSystem) Cleanup(name string, fi *dokan.FileInfo) dokan.Status {
	h := handleOf(fi)
	if h != nil {
		if err := h.closeFile(); err != nil {
			m.logger.Warn("Close failed", map[string]interface{}{"file": name, "error": err.Error()})
		}
	}

	if !fi.DeleteOnClose && (h == nil || !h.deleteOnClose) {
		return dokan.StatusSuccess
	}
	if m.readOnly {
		return dokan.StatusAccessDenied
	}
	p, status := m.resolve(name)
	if status != dokan.StatusSuccess {
		return status
	}
	if err := os.Remove(p); err != nil {
		return dokan.StatusFromError(err)
	}
	m.logger.Debug("Deleted on close", map[string]interface{}{"file": name})
	return dokan.StatusSuccess
}

func (m *FileSystem) CloseFile(name string, fi *dokan.FileInfo) dokan.Status {
	if h := handleOf(fi); h != nil {
		if err := h.closeFile(); err != nil {
			return dokan.StatusFromError(err)
		}
	}
	return dokan.StatusSuccess
}

// ReadFile reads at offset. Reading past the end succeeds with fewer bytes.
func (m *FileSystem) ReadFile(name string, buf []byte, offset int64, fi *dokan.FileInfo) (int, dokan.Status) {
	f, release, status := m.file(name, handleOf(fi), os.O_RDONLY)
	if status != dokan.StatusSuccess {
		return 0, status
	}
	defer release()

	n, err := f.ReadAt(buf, offset)
	if err != nil && !errors.Is(err, io.EOF) {
		return 0, dokan.StatusFromError(err)
	}
	return n, dokan.StatusSuccess
}

func (m *FileSystem) WriteFile(name string, data []byte, offset int64, fi *dokan.FileInfo) (int, dokan.Status) {
	if m.readOnly {
		return 0, dokan.StatusAccessDenied
	}
	f, release, status := m.file(name, handleOf(fi), os.O_WRONLY)
	if status != dokan.StatusSuccess {
		return 0, status
	}
	defer release()

	if fi.WriteToEndOfFile {
		st, err := f.Stat()
		if err != nil {
			return 0, dokan.StatusFromError(err)
		}
		offset = st.Size()
	}

	n, err := f.WriteAt(data, offset)
	if err != nil {
		return n, dokan.StatusFromError(err)
	}
	return n, dokan.StatusSuccess
}

func (m *FileSystem) FlushFileBuffers(name string, fi *dokan.FileInfo) dokan.Status {
	h := handleOf(fi)
	if h == nil {
		return dokan.StatusSuccess
	}
	f := h.current()
	if f == nil {
		return dokan.StatusSuccess
	}
	return dokan.StatusFromError(f.Sync())
}

func (m *FileSystem) GetFileInformation(name string, fi *dokan.FileInfo) (dokan.FileRecord, dokan.Status) {
	var (
		st  os.FileInfo
		err error
	)
	if h := handleOf(fi); h != nil && h.current() != nil {
		st, err = h.current().Stat()
	} else {
		p, status := m.resolve(name)
		if status != dokan.StatusSuccess {
			return dokan.FileRecord{}, status
		}
		st, err = os.Stat(p)
	}
	if err != nil {
		return dokan.FileRecord{}, dokan.StatusFromError(err)
	}
	return recordOf(st), dokan.StatusSuccess
}

// FindFiles lists a directory in name order.
func (m *FileSystem) FindFiles(name string, fi *dokan.FileInfo) ([]dokan.FileRecord, dokan.Status) {
	p, status := m.resolve(name)
	if status != dokan.StatusSuccess {
		return nil, status
	}
	entries, err := os.ReadDir(p)
	if err != nil {
		return nil, dokan.StatusFromError(err)
	}

	records := make([]dokan.FileRecord, 0, len(entries))
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			// removed while listing
			continue
		}
		records = append(records, recordOf(info))
	}
	return records, dokan.StatusSuccess
}

func (m *FileSystem) SetFileAttributes(name string, attributes dokan.FileAttribute, fi *dokan.FileInfo) dokan.Status {
	if m.readOnly {
		return dokan.StatusAccessDenied
	}
	p, status := m.resolve(name)
	if status != dokan.StatusSuccess {
		return status
	}
	return dokan.StatusFromError(setAttributes(p, attributes))
}

// SetFileTime updates access and write times. The creation time is not
// settable through os.Chtimes and is ignored.
func (m *FileSystem) SetFileTime(name string, creation, lastAccess, lastWrite time.Time, fi *dokan.FileInfo) dokan.Status {
	if m.readOnly {
		return dokan.StatusAccessDenied
	}
	if lastAccess.IsZero() && lastWrite.IsZero() {
		return dokan.StatusSuccess
	}
	p, status := m.resolve(name)
	if status != dokan.StatusSuccess {
		return status
	}
	return dokan.StatusFromError(os.Chtimes(p, lastAccess, lastWrite))
}

// DeleteFile only checks that name can be deleted; the file is removed in
// Cleanup once the driver sets DeleteOnClose.
func (m *FileSystem) DeleteFile(name string, fi *dokan.FileInfo) dokan.Status {
	if m.readOnly {
		return dokan.StatusAccessDenied
	}
	p, status := m.resolve(name)
	if status != dokan.StatusSuccess {
		return status
	}
	st, err := os.Lstat(p)
	if err != nil {
		return dokan.StatusFromError(err)
	}
	if st.IsDir() {
		return dokan.StatusAccessDenied
	}
	return dokan.StatusSuccess
}

// DeleteDirectory checks that the directory is empty; removal happens in
// Cleanup.
func (m *FileSystem) DeleteDirectory(name string, fi *dokan.FileInfo) dokan.Status {
	if m.readOnly {
		return dokan.StatusAccessDenied
	}
	p, status := m.resolve(name)
	if status != dokan.StatusSuccess {
		return status
	}
	if p == m.root {
		return dokan.StatusAccessDenied
	}

	dir, err := os.Open(p)
	if err != nil {
		return dokan.StatusFromError(err)
	}
	defer dir.Close()

	names, err := dir.Readdirnames(1)
	if err != nil && !errors.Is(err, io.EOF) {
		return dokan.StatusFromError(err)
	}
	if len(names) > 0 {
		return dokan.StatusDirNotEmpty
	}
	return dokan.StatusSuccess
}

func (m *FileSystem) MoveFile(name, newName string, replace bool, fi *dokan.FileInfo) dokan.Status {
	if m.readOnly {
		return dokan.StatusAccessDenied
	}
	src, status := m.resolve(name)
	if status != dokan.StatusSuccess {
		return status
	}
	dst, status := m.resolve(newName)
	if status != dokan.StatusSuccess {
		return status
	}

	if !replace {
		if _, err := os.Lstat(dst); err == nil {
			return dokan.StatusAlreadyExists
		}
	}

	// An open host file would keep the rename from succeeding on Windows;
	// later calls on the handle reopen by name.
	if h := handleOf(fi); h != nil {
		_ = h.closeFile()
		h.path = dst
	}

	if err := os.Rename(src, dst); err != nil {
		return dokan.StatusFromError(err)
	}
	m.logger.Debug("Moved file", map[string]interface{}{"file": name, "new_name": newName})
	return dokan.StatusSuccess
}

func (m *FileSystem) SetEndOfFile(name string, length int64, fi *dokan.FileInfo) dokan.Status {
	if m.readOnly {
		return dokan.StatusAccessDenied
	}
	if h := handleOf(fi); h != nil {
		if f := h.current(); f != nil {
			return dokan.StatusFromError(f.Truncate(length))
		}
	}
	p, status := m.resolve(name)
	if status != dokan.StatusSuccess {
		return status
	}
	return dokan.StatusFromError(os.Truncate(p, length))
}

// SetAllocationSize shrinks the file when length is below its size. Growing
// the allocation is accepted without preallocating.
func (m *FileSystem) SetAllocationSize(name string, length int64, fi *dokan.FileInfo) dokan.Status {
	if m.readOnly {
		return dokan.StatusAccessDenied
	}
	p, status := m.resolve(name)
	if status != dokan.StatusSuccess {
		return status
	}
	st, err := os.Stat(p)
	if err != nil {
		return dokan.StatusFromError(err)
	}
	if length >= st.Size() {
		return dokan.StatusSuccess
	}
	return m.SetEndOfFile(name, length, fi)
}

func (m *FileSystem) LockFile(name string, offset, length int64, fi *dokan.FileInfo) dokan.Status {
	f := openFileOf(fi)
	if f == nil {
		return dokan.StatusInvalidHandle
	}
	return lockStatus(lockRange(f, offset, length))
}

func (m *FileSystem) UnlockFile(name string, offset, length int64, fi *dokan.FileInfo) dokan.Status {
	f := openFileOf(fi)
	if f == nil {
		return dokan.StatusInvalidHandle
	}
	return lockStatus(unlockRange(f, offset, length))
}

func openFileOf(fi *dokan.FileInfo) *os.File {
	h := handleOf(fi)
	if h == nil {
		return nil
	}
	return h.current()
}

func (m *FileSystem) GetDiskFreeSpace(fi *dokan.FileInfo) (dokan.DiskSpace, dokan.Status) {
	space, err := diskSpace(m.root)
	if err != nil {
		return dokan.DiskSpace{}, dokan.StatusFromError(err)
	}
	return space, dokan.StatusSuccess
}

func (m *FileSystem) Unmount(fi *dokan.FileInfo) dokan.Status {
	m.logger.Info("Volume unmounted")
	return dokan.StatusSuccess
}
