//go:build cgofuse
// +build cgofuse

package fuse

import (
	"path"
	"strings"
	"sync"
	"time"

	"github.com/winfsp/cgofuse/fuse"

	"github.com/dokan-dev/dokany-sub001/pkg/dokan"
	"github.com/dokan-dev/dokany-sub001/pkg/utils"
)

// noHandle is passed as fh when the call has no open FUSE handle.
const noHandle = ^uint64(0)

// Config configures a Bridge.
type Config struct {
	// Hidden marks names starting with a dot as HIDDEN.
	Hidden bool
	Logger *utils.StructuredLogger
}

// Bridge serves a cgofuse filesystem through dokan.Handler. The FUSE
// filesystem sees slash separated paths rooted at "/".
type Bridge struct {
	fs     fuse.FileSystemInterface
	hidden bool
	logger *utils.StructuredLogger

	initOnce    sync.Once
	destroyOnce sync.Once
}

var _ dokan.Handler = (*Bridge)(nil)

// NewBridge wraps fs. Init is called on fs before the first operation and
// Destroy when the volume unmounts.
func NewBridge(fs fuse.FileSystemInterface, config Config) *Bridge {
	logger := config.Logger
	if logger == nil {
		logger = utils.NewDiscardLogger()
	}
	return &Bridge{
		fs:     fs,
		hidden: config.Hidden,
		logger: logger.WithComponent("fuse"),
	}
}

func (b *Bridge) init() {
	b.initOnce.Do(b.fs.Init)
}

// openHandle is the payload stored on a dokan handle.
type openHandle struct {
	mu       sync.Mutex
	fh       uint64
	dir      bool
	released bool
}

func (h *openHandle) handle() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return noHandle
	}
	return h.fh
}

// release returns the handle to close, or false when already closed.
func (h *openHandle) release() (uint64, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return 0, false
	}
	h.released = true
	return h.fh, true
}

func handleOf(fi *dokan.FileInfo) *openHandle {
	h, _ := fi.Context().(*openHandle)
	return h
}

func fhOf(fi *dokan.FileInfo) uint64 {
	if h := handleOf(fi); h != nil {
		return h.handle()
	}
	return noHandle
}

// fusePath converts `\dir\file` to "/dir/file".
func fusePath(name string) string {
	p := strings.ReplaceAll(name, `\`, "/")
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

func (b *Bridge) stat(p string, fh uint64) (*fuse.Stat_t, int) {
	var st fuse.Stat_t
	if errc := b.fs.Getattr(p, &st, fh); errc != 0 {
		return nil, errc
	}
	return &st, 0
}

func isDir(st *fuse.Stat_t) bool {
	return st.Mode&fuse.S_IFMT == fuse.S_IFDIR
}

func accessFlags(access dokan.FileAccess) int {
	switch access {
	case dokan.AccessWrite:
		return fuse.O_WRONLY
	case dokan.AccessReadWrite:
		return fuse.O_RDWR
	default:
		return fuse.O_RDONLY
	}
}

func (b *Bridge) CreateFile(name string, access dokan.FileAccess, share dokan.FileShare, mode dokan.FileMode, options dokan.FileOptions, fi *dokan.FileInfo) dokan.Status {
	b.init()
	p := fusePath(name)

	st, errc := b.stat(p, noHandle)
	if errc != 0 && errc != -fuse.ENOENT {
		return statusOf(errc)
	}
	exists := st != nil

	if exists && isDir(st) {
		if mode == dokan.ModeCreateNew {
			return dokan.StatusFileExists
		}
		return b.openDir(p, fi)
	}

	flags := accessFlags(access)
	var fh uint64
	switch {
	case mode == dokan.ModeCreateNew && exists:
		return dokan.StatusFileExists
	case (mode == dokan.ModeOpen || mode == dokan.ModeTruncate) && !exists:
		return dokan.StatusFileNotFound
	case !exists:
		if fh, errc = b.create(p, flags|fuse.O_CREAT|fuse.O_EXCL); errc != 0 {
			return statusOf(errc)
		}
	default:
		if errc, fh = b.fs.Open(p, flags); errc != 0 {
			return statusOf(errc)
		}
		if mode == dokan.ModeCreate || mode == dokan.ModeTruncate {
			if errc = b.fs.Truncate(p, 0, fh); errc != 0 {
				b.fs.Release(p, fh)
				return statusOf(errc)
			}
		}
	}

	b.logger.Trace("Opened file", map[string]interface{}{
		"file": p,
		"mode": mode.String(),
		"fh":   fh,
	})
	fi.SetContext(&openHandle{fh: fh})
	return dokan.StatusSuccess
}

// create uses Create, falling back to Mknod and Open for filesystems that
// only implement the older calls.
func (b *Bridge) create(p string, flags int) (uint64, int) {
	errc, fh := b.fs.Create(p, flags, 0o644)
	if errc != -fuse.ENOSYS {
		return fh, errc
	}
	if errc = b.fs.Mknod(p, fuse.S_IFREG|0o644, 0); errc != 0 {
		return 0, errc
	}
	errc, fh = b.fs.Open(p, flags&^(fuse.O_CREAT|fuse.O_EXCL))
	return fh, errc
}

func (b *Bridge) openDir(p string, fi *dokan.FileInfo) dokan.Status {
	errc, fh := b.fs.Opendir(p)
	if errc != 0 {
		return statusOf(errc)
	}
	fi.IsDirectory = true
	fi.SetContext(&openHandle{fh: fh, dir: true})
	return dokan.StatusSuccess
}

func (b *Bridge) OpenDirectory(name string, fi *dokan.FileInfo) dokan.Status {
	b.init()
	p := fusePath(name)
	st, errc := b.stat(p, noHandle)
	if errc == -fuse.ENOENT {
		return dokan.StatusPathNotFound
	}
	if errc != 0 {
		return statusOf(errc)
	}
	if !isDir(st) {
		return dokan.StatusDirectory
	}
	return b.openDir(p, fi)
}

func (b *Bridge) CreateDirectory(name string, fi *dokan.FileInfo) dokan.Status {
	b.init()
	p := fusePath(name)
	if errc := b.fs.Mkdir(p, 0o755); errc != 0 {
		if errc == -fuse.EEXIST {
			return dokan.StatusAlreadyExists
		}
		return statusOf(errc)
	}
	return b.openDir(p, fi)
}

func (b *Bridge) closeHandle(p string, h *openHandle) int {
	fh, ok := h.release()
	if !ok {
		return 0
	}
	if h.dir {
		return b.fs.Releasedir(p, fh)
	}
	return b.fs.Release(p, fh)
}

// Cleanup flushes the handle and performs a pending delete. The FUSE handle
// is released first so the filesystem sees no open file on unlink.
func (b *Bridge) Cleanup(name string, fi *dokan.FileInfo) dokan.Status {
	p := fusePath(name)
	h := handleOf(fi)
	if h != nil && !h.dir {
		if fh := h.handle(); fh != noHandle {
			if errc := b.fs.Flush(p, fh); errc != 0 && errc != -fuse.ENOSYS {
				b.logger.Warn("Flush failed", map[string]interface{}{"file": p, "errc": errc})
			}
		}
	}

	if !fi.DeleteOnClose {
		return dokan.StatusSuccess
	}
	if h != nil {
		b.closeHandle(p, h)
	}
	var errc int
	if fi.IsDirectory {
		errc = b.fs.Rmdir(p)
	} else {
		errc = b.fs.Unlink(p)
	}
	return statusOf(errc)
}

func (b *Bridge) CloseFile(name string, fi *dokan.FileInfo) dokan.Status {
	if h := handleOf(fi); h != nil {
		return statusOf(b.closeHandle(fusePath(name), h))
	}
	return dokan.StatusSuccess
}

func (b *Bridge) ReadFile(name string, buf []byte, offset int64, fi *dokan.FileInfo) (int, dokan.Status) {
	n := b.fs.Read(fusePath(name), buf, offset, fhOf(fi))
	if n < 0 {
		return 0, statusOf(n)
	}
	return n, dokan.StatusSuccess
}

func (b *Bridge) WriteFile(name string, data []byte, offset int64, fi *dokan.FileInfo) (int, dokan.Status) {
	p := fusePath(name)
	fh := fhOf(fi)
	if fi.WriteToEndOfFile {
		st, errc := b.stat(p, fh)
		if errc != 0 {
			return 0, statusOf(errc)
		}
		offset = st.Size
	}
	n := b.fs.Write(p, data, offset, fh)
	if n < 0 {
		return 0, statusOf(n)
	}
	return n, dokan.StatusSuccess
}

func (b *Bridge) FlushFileBuffers(name string, fi *dokan.FileInfo) dokan.Status {
	h := handleOf(fi)
	if h == nil || h.dir {
		return dokan.StatusSuccess
	}
	errc := b.fs.Fsync(fusePath(name), false, h.handle())
	if errc == -fuse.ENOSYS {
		return dokan.StatusSuccess
	}
	return statusOf(errc)
}

func (b *Bridge) GetFileInformation(name string, fi *dokan.FileInfo) (dokan.FileRecord, dokan.Status) {
	p := fusePath(name)
	st, errc := b.stat(p, fhOf(fi))
	if errc != 0 {
		return dokan.FileRecord{}, statusOf(errc)
	}
	return b.record(path.Base(p), st), dokan.StatusSuccess
}

// FindFiles lists a directory in the order the filesystem fills it. Entries
// filled without attributes are looked up with Getattr.
func (b *Bridge) FindFiles(name string, fi *dokan.FileInfo) ([]dokan.FileRecord, dokan.Status) {
	p := fusePath(name)

	fh := noHandle
	if h := handleOf(fi); h != nil && h.dir {
		fh = h.handle()
	}
	if fh == noHandle {
		errc, opened := b.fs.Opendir(p)
		if errc != 0 {
			return nil, statusOf(errc)
		}
		defer b.fs.Releasedir(p, opened)
		fh = opened
	}

	var records []dokan.FileRecord
	fill := func(entry string, st *fuse.Stat_t, _ int64) bool {
		if entry == "." || entry == ".." {
			return true
		}
		if st == nil {
			var errc int
			if st, errc = b.stat(path.Join(p, entry), noHandle); errc != 0 {
				// removed while listing
				return true
			}
		}
		records = append(records, b.record(entry, st))
		return true
	}

	if errc := b.fs.Readdir(p, fill, 0, fh); errc != 0 {
		return nil, statusOf(errc)
	}
	return records, dokan.StatusSuccess
}

// SetFileAttributes maps READONLY onto the write permission bits. Other
// attributes have no FUSE equivalent.
func (b *Bridge) SetFileAttributes(name string, attributes dokan.FileAttribute, fi *dokan.FileInfo) dokan.Status {
	p := fusePath(name)
	st, errc := b.stat(p, fhOf(fi))
	if errc != 0 {
		return statusOf(errc)
	}

	perm := st.Mode & 0o7777
	next := perm | 0o200
	if attributes&dokan.AttributeReadOnly != 0 {
		next = perm &^ 0o222
	}
	if next == perm {
		return dokan.StatusSuccess
	}
	errc = b.fs.Chmod(p, st.Mode&fuse.S_IFMT|next)
	if errc == -fuse.ENOSYS {
		return dokan.StatusSuccess
	}
	return statusOf(errc)
}

// SetFileTime forwards access and write times through Utimens, keeping the
// current value of any time left zero.
func (b *Bridge) SetFileTime(name string, creation, lastAccess, lastWrite time.Time, fi *dokan.FileInfo) dokan.Status {
	if lastAccess.IsZero() && lastWrite.IsZero() {
		return dokan.StatusSuccess
	}
	p := fusePath(name)
	st, errc := b.stat(p, fhOf(fi))
	if errc != 0 {
		return statusOf(errc)
	}

	times := []fuse.Timespec{st.Atim, st.Mtim}
	if !lastAccess.IsZero() {
		times[0] = timespec(lastAccess)
	}
	if !lastWrite.IsZero() {
		times[1] = timespec(lastWrite)
	}
	return statusOf(b.fs.Utimens(p, times))
}

// DeleteFile checks that name is a file; Cleanup unlinks it.
func (b *Bridge) DeleteFile(name string, fi *dokan.FileInfo) dokan.Status {
	st, errc := b.stat(fusePath(name), fhOf(fi))
	if errc != 0 {
		return statusOf(errc)
	}
	if isDir(st) {
		return dokan.StatusAccessDenied
	}
	return dokan.StatusSuccess
}

// DeleteDirectory checks that the directory is empty; Cleanup removes it.
func (b *Bridge) DeleteDirectory(name string, fi *dokan.FileInfo) dokan.Status {
	p := fusePath(name)
	if p == "/" {
		return dokan.StatusAccessDenied
	}
	records, status := b.FindFiles(name, fi)
	if status != dokan.StatusSuccess {
		return status
	}
	if len(records) > 0 {
		return dokan.StatusDirNotEmpty
	}
	return dokan.StatusSuccess
}

func (b *Bridge) MoveFile(name, newName string, replace bool, fi *dokan.FileInfo) dokan.Status {
	from, to := fusePath(name), fusePath(newName)
	if !replace {
		if _, errc := b.stat(to, noHandle); errc == 0 {
			return dokan.StatusAlreadyExists
		}
	}
	return statusOf(b.fs.Rename(from, to))
}

func (b *Bridge) SetEndOfFile(name string, length int64, fi *dokan.FileInfo) dokan.Status {
	return statusOf(b.fs.Truncate(fusePath(name), length, fhOf(fi)))
}

// SetAllocationSize shrinks the file when length is below its size.
func (b *Bridge) SetAllocationSize(name string, length int64, fi *dokan.FileInfo) dokan.Status {
	p := fusePath(name)
	fh := fhOf(fi)
	st, errc := b.stat(p, fh)
	if errc != 0 {
		return statusOf(errc)
	}
	if length >= st.Size {
		return dokan.StatusSuccess
	}
	return statusOf(b.fs.Truncate(p, length, fh))
}

// LockFile accepts every lock; FUSE has no byte range locking call.
func (b *Bridge) LockFile(name string, offset, length int64, fi *dokan.FileInfo) dokan.Status {
	return dokan.StatusSuccess
}

func (b *Bridge) UnlockFile(name string, offset, length int64, fi *dokan.FileInfo) dokan.Status {
	return dokan.StatusSuccess
}

func (b *Bridge) GetDiskFreeSpace(fi *dokan.FileInfo) (dokan.DiskSpace, dokan.Status) {
	b.init()
	var st fuse.Statfs_t
	if errc := b.fs.Statfs("/", &st); errc != 0 {
		return dokan.DiskSpace{}, statusOf(errc)
	}
	unit := st.Frsize
	if unit == 0 {
		unit = st.Bsize
	}
	return dokan.DiskSpace{
		FreeBytesAvailable: st.Bavail * unit,
		TotalBytes:         st.Blocks * unit,
		TotalFreeBytes:     st.Bfree * unit,
	}, dokan.StatusSuccess
}

func (b *Bridge) Unmount(fi *dokan.FileInfo) dokan.Status {
	b.destroyOnce.Do(b.fs.Destroy)
	b.logger.Info("FUSE filesystem destroyed")
	return dokan.StatusSuccess
}

func (b *Bridge) record(name string, st *fuse.Stat_t) dokan.FileRecord {
	var attrs dokan.FileAttribute
	switch {
	case isDir(st):
		attrs = dokan.AttributeDirectory
	case st.Mode&0o222 == 0:
		attrs = dokan.AttributeReadOnly
	default:
		attrs = dokan.AttributeArchive
	}
	if b.hidden && strings.HasPrefix(name, ".") {
		attrs |= dokan.AttributeHidden
	}

	created := st.Birthtim
	if created.Sec == 0 && created.Nsec == 0 {
		created = st.Ctim
	}

	record := dokan.FileRecord{
		Attributes:     attrs,
		CreationTime:   fromTimespec(created),
		LastAccessTime: fromTimespec(st.Atim),
		LastWriteTime:  fromTimespec(st.Mtim),
		FileName:       name,
	}
	if !isDir(st) {
		record.Length = st.Size
	}
	return record
}

func timespec(t time.Time) fuse.Timespec {
	return fuse.Timespec{Sec: t.Unix(), Nsec: int64(t.Nanosecond())}
}

// fromTimespec maps the zero Timespec to the zero time.
func fromTimespec(ts fuse.Timespec) time.Time {
	if ts.Sec == 0 && ts.Nsec == 0 {
		return time.Time{}
	}
	return time.Unix(ts.Sec, ts.Nsec)
}
