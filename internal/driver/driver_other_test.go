//go:build !(windows && (amd64 || arm64))

package driver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUnsupported(t *testing.T) {
	d, err := New()
	require.ErrorIs(t, err, ErrUnsupportedPlatform)
	assert.Nil(t, d)
}
