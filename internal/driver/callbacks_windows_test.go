//go:build windows && (amd64 || arm64)

package driver

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dokan-dev/dokany-sub001/internal/native"
)

type stubDispatcher struct{ Dispatcher }

func TestRegistryRoutesByGlobalContext(t *testing.T) {
	first := &stubDispatcher{}
	second := &stubDispatcher{}

	k1 := register(first)
	k2 := register(second)
	defer unregister(k1)
	defer unregister(k2)
	require.NotEqual(t, k1, k2)

	opts := native.Options{GlobalContext: k2}
	info := native.FileInfo{DokanOptions: &opts}

	d, fi := lookup(uintptr(unsafe.Pointer(&info)))
	assert.Same(t, second, d)
	assert.Same(t, &info, fi)

	unregister(k2)
	d, _ = lookup(uintptr(unsafe.Pointer(&info)))
	assert.Nil(t, d)
}

func TestLookupWithoutOptions(t *testing.T) {
	d, fi := lookup(0)
	assert.Nil(t, d)
	assert.Nil(t, fi)

	info := native.FileInfo{}
	d, _ = lookup(uintptr(unsafe.Pointer(&info)))
	assert.Nil(t, d)
}

func TestCallbackTableComplete(t *testing.T) {
	ops := callbackTable()
	assert.Same(t, ops, callbackTable())

	assert.NotZero(t, ops.CreateFile)
	assert.NotZero(t, ops.FindFiles)
	assert.NotZero(t, ops.GetVolumeInformation)
	assert.NotZero(t, ops.SetFileSecurity)
	assert.Zero(t, ops.FindFilesWithPattern)
}
