package dokan

import (
	"sync"
	"time"

	"github.com/dokan-dev/dokany-sub001/internal/native"
)

// FileContext is the state of one open handle, from the create-style call
// that opened it until CloseFile.
type FileContext struct {
	id        uint64
	transient bool

	mu               sync.Mutex
	payload          any
	dokanContext     uint64
	processID        uint32
	isDirectory      bool
	deleteOnClose    bool
	pagingIo         bool
	synchronousIo    bool
	nocache          bool
	writeToEndOfFile bool
}

func newFileContext(id uint64, rec *native.FileInfo) *FileContext {
	ctx := &FileContext{id: id}
	ctx.refresh(rec)
	return ctx
}

// ID returns the identifier written into DOKAN_FILE_INFO.Context. Transient
// contexts report the identifier they were looked up with.
func (c *FileContext) ID() uint64 { return c.id }

// Transient reports whether the context was synthesized for a call whose
// identifier was not in the table.
func (c *FileContext) Transient() bool { return c.transient }

// refresh records the flags of rec as the last seen state of the handle.
func (c *FileContext) refresh(rec *native.FileInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dokanContext = rec.DokanContext
	c.processID = rec.ProcessID
	c.isDirectory = native.Bool(rec.IsDirectory)
	c.deleteOnClose = native.Bool(rec.DeleteOnClose)
	c.pagingIo = native.Bool(rec.PagingIo)
	c.synchronousIo = native.Bool(rec.SynchronousIo)
	c.nocache = native.Bool(rec.Nocache)
	c.writeToEndOfFile = native.Bool(rec.WriteToEndOfFile)
}

func (c *FileContext) markDirectory() {
	c.mu.Lock()
	c.isDirectory = true
	c.mu.Unlock()
}

// lastSeen returns the flags of the most recent call on the handle.
func (c *FileContext) lastSeen() FileInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return FileInfo{
		IsDirectory:      c.isDirectory,
		DeleteOnClose:    c.deleteOnClose,
		PagingIo:         c.pagingIo,
		SynchronousIo:    c.synchronousIo,
		Nocache:          c.nocache,
		WriteToEndOfFile: c.writeToEndOfFile,
		ProcessID:        c.processID,
		ctx:              c,
	}
}

// DokanContext returns the driver's back-reference token, verbatim.
func (c *FileContext) DokanContext() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dokanContext
}

// FileInfo is the per-call view of an open handle handed to a Handler. The
// flags are a snapshot of the call; the payload is shared by every call on
// the handle. A FileInfo must not be used after the handler returns.
type FileInfo struct {
	IsDirectory      bool
	DeleteOnClose    bool
	PagingIo         bool
	SynchronousIo    bool
	Nocache          bool
	WriteToEndOfFile bool
	ProcessID        uint32

	ctx   *FileContext
	raw   *native.FileInfo
	reset func(timeout uint32, info *native.FileInfo) bool
}

// newFileInfo takes the flags from raw, the record of this call, so that
// concurrent calls on one handle never observe each other's flags.
func newFileInfo(ctx *FileContext, raw *native.FileInfo, reset func(uint32, *native.FileInfo) bool) *FileInfo {
	fi := &FileInfo{ctx: ctx, raw: raw, reset: reset}
	if raw != nil {
		fi.IsDirectory = native.Bool(raw.IsDirectory)
		fi.DeleteOnClose = native.Bool(raw.DeleteOnClose)
		fi.PagingIo = native.Bool(raw.PagingIo)
		fi.SynchronousIo = native.Bool(raw.SynchronousIo)
		fi.Nocache = native.Bool(raw.Nocache)
		fi.WriteToEndOfFile = native.Bool(raw.WriteToEndOfFile)
		fi.ProcessID = raw.ProcessID
	}
	return fi
}

// ID returns the handle identifier.
func (fi *FileInfo) ID() uint64 { return fi.ctx.id }

// Context returns the handler payload stored on the handle.
func (fi *FileInfo) Context() any {
	fi.ctx.mu.Lock()
	defer fi.ctx.mu.Unlock()
	return fi.ctx.payload
}

// SetContext stores a handler payload on the handle. Payloads set on a
// transient context are dropped with it.
func (fi *FileInfo) SetContext(v any) {
	fi.ctx.mu.Lock()
	fi.ctx.payload = v
	fi.ctx.mu.Unlock()
}

// ResetTimeout asks the driver to extend the timeout of the current call.
func (fi *FileInfo) ResetTimeout(d time.Duration) bool {
	if fi.reset == nil || fi.raw == nil {
		return false
	}
	return fi.reset(uint32(d/time.Millisecond), fi.raw)
}
