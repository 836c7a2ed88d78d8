//go:build !(windows && (amd64 || arm64))

package driver

// New reports ErrUnsupportedPlatform: the Dokan library only ships for
// 64-bit Windows.
func New() (Driver, error) {
	return nil, ErrUnsupportedPlatform
}
