package dokan

import (
	"sync"

	"github.com/dokan-dev/dokany-sub001/internal/native"
)

// contextTable maps the identifier stored in DOKAN_FILE_INFO.Context to the
// open FileContext. Identifiers start at 1 and are never reused; 0 means the
// handle has none yet. The lock covers map access only.
type contextTable struct {
	mu     sync.Mutex
	nextID uint64
	open   map[uint64]*FileContext
}

func newContextTable() *contextTable {
	return &contextTable{open: make(map[uint64]*FileContext)}
}

// create registers a context for a new handle and writes its identifier
// into rec.
func (t *contextTable) create(rec *native.FileInfo) *FileContext {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.nextID++
	ctx := newFileContext(t.nextID, rec)
	t.open[ctx.id] = ctx
	rec.Context = ctx.id
	return ctx
}

// resolve returns the context named by rec.Context, or a transient one that
// is not stored when the identifier is unknown. Flags are refreshed from rec
// either way.
func (t *contextTable) resolve(rec *native.FileInfo) *FileContext {
	t.mu.Lock()
	ctx, ok := t.open[rec.Context]
	t.mu.Unlock()

	if !ok {
		ctx = &FileContext{id: rec.Context, transient: true}
	}
	ctx.refresh(rec)
	return ctx
}

// remove drops ctx from the table. Removing twice, or removing a transient
// context, does nothing.
func (t *contextTable) remove(ctx *FileContext) {
	if ctx == nil || ctx.transient {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.open[ctx.id] == ctx {
		delete(t.open, ctx.id)
	}
}

func (t *contextTable) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.open)
}
