//go:build !linux

package alsa

// ListCards returns an error on unsupported platforms.
func ListCards() ([]Card, error) {
	return nil, ErrUnsupported
}

// ListPlaybackDevices returns an error on unsupported platforms.
func ListPlaybackDevices() ([]Device, error) {
	return nil, ErrUnsupported
}
