package dokan

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dokan-dev/dokany-sub001/internal/native"
)

func TestContextTableCreateResolveRemove(t *testing.T) {
	table := newContextTable()

	rec := &native.FileInfo{DokanContext: 0xfeed, ProcessID: 77}
	ctx := table.create(rec)
	require.NotNil(t, ctx)
	assert.Equal(t, uint64(1), rec.Context)
	assert.Equal(t, uint64(1), ctx.ID())
	assert.False(t, ctx.Transient())
	assert.Equal(t, 1, table.len())

	again := &native.FileInfo{Context: rec.Context, DokanContext: 0xbeef}
	resolved := table.resolve(again)
	assert.Same(t, ctx, resolved)
	assert.Equal(t, uint64(0xbeef), resolved.DokanContext())

	table.remove(ctx)
	assert.Equal(t, 0, table.len())
	table.remove(ctx)
	assert.Equal(t, 0, table.len())

	after := table.resolve(again)
	assert.NotSame(t, ctx, after)
	assert.True(t, after.Transient())
}

func TestContextTableIdentifiersNeverReused(t *testing.T) {
	table := newContextTable()

	first := table.create(&native.FileInfo{})
	table.remove(first)
	second := table.create(&native.FileInfo{})

	assert.Equal(t, uint64(1), first.ID())
	assert.Equal(t, uint64(2), second.ID())
}

func TestContextTableResolveUnknown(t *testing.T) {
	table := newContextTable()

	for _, id := range []uint64{0, 42} {
		rec := &native.FileInfo{
			Context:          id,
			DokanContext:     0x1234,
			ProcessID:        9,
			IsDirectory:      1,
			DeleteOnClose:    1,
			PagingIo:         1,
			SynchronousIo:    1,
			Nocache:          1,
			WriteToEndOfFile: 1,
		}
		ctx := table.resolve(rec)
		require.NotNil(t, ctx)
		assert.True(t, ctx.Transient())
		assert.Equal(t, id, ctx.ID())
		assert.Equal(t, uint64(0x1234), ctx.DokanContext())

		fi := newFileInfo(ctx, rec, nil)
		assert.True(t, fi.IsDirectory)
		assert.True(t, fi.DeleteOnClose)
		assert.True(t, fi.PagingIo)
		assert.True(t, fi.SynchronousIo)
		assert.True(t, fi.Nocache)
		assert.True(t, fi.WriteToEndOfFile)
		assert.Equal(t, uint32(9), fi.ProcessID)

		assert.Equal(t, id, rec.Context)
	}
	assert.Equal(t, 0, table.len())

	// Removing a transient context never touches a stored one.
	stored := table.create(&native.FileInfo{})
	transient := table.resolve(&native.FileInfo{Context: 99})
	table.remove(transient)
	assert.Equal(t, 1, table.len())
	assert.Same(t, stored, table.resolve(&native.FileInfo{Context: stored.ID()}))
}

func TestContextTableRefreshesFlags(t *testing.T) {
	table := newContextTable()

	rec := &native.FileInfo{PagingIo: 1}
	ctx := table.create(rec)
	fi := newFileInfo(ctx, rec, nil)
	fi.SetContext("payload")
	assert.True(t, fi.PagingIo)

	next := &native.FileInfo{Context: rec.Context, WriteToEndOfFile: 1}
	again := table.resolve(next)
	fi2 := newFileInfo(again, next, nil)
	assert.False(t, fi2.PagingIo)
	assert.True(t, fi2.WriteToEndOfFile)
	assert.Equal(t, "payload", fi2.Context())

	// The per-call view keeps its own flags; the context tracks the latest call.
	assert.True(t, fi.PagingIo)
	seen := again.lastSeen()
	assert.False(t, seen.PagingIo)
	assert.True(t, seen.WriteToEndOfFile)
}

func TestContextTableConcurrent(t *testing.T) {
	table := newContextTable()

	const workers = 16
	const perWorker = 200

	var wg sync.WaitGroup
	ids := make(chan uint64, workers*perWorker)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				rec := &native.FileInfo{}
				ctx := table.create(rec)
				ids <- rec.Context

				got := table.resolve(&native.FileInfo{Context: rec.Context, SynchronousIo: 1})
				if got != ctx {
					t.Errorf("resolve(%d) returned a different context", rec.Context)
				}
				if i%2 == 0 {
					table.remove(ctx)
				}
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[uint64]bool)
	for id := range ids {
		assert.False(t, seen[id], "identifier %d issued twice", id)
		seen[id] = true
	}
	assert.Len(t, seen, workers*perWorker)
	assert.Equal(t, workers*perWorker/2, table.len())
}

func TestFileInfoResetTimeout(t *testing.T) {
	table := newContextTable()
	rec := &native.FileInfo{}
	ctx := table.create(rec)

	var gotTimeout uint32
	var gotInfo *native.FileInfo
	fi := newFileInfo(ctx, rec, func(timeout uint32, info *native.FileInfo) bool {
		gotTimeout, gotInfo = timeout, info
		return true
	})

	assert.True(t, fi.ResetTimeout(30*time.Second))
	assert.Equal(t, uint32(30000), gotTimeout)
	assert.Same(t, rec, gotInfo)

	assert.False(t, newFileInfo(ctx, rec, nil).ResetTimeout(time.Second))
}
