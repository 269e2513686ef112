//go:build !linux

package hotplug

import (
	"context"
	"errors"
)

// ErrUnsupported is returned on platforms without netlink uevent sockets.
var ErrUnsupported = errors.New("hotplug: not supported on this platform")

// Monitor is a stub on unsupported platforms.
type Monitor struct{}

// NewMonitor returns an error on unsupported platforms.
func NewMonitor() (*Monitor, error) {
	return nil, ErrUnsupported
}

// AddSubsystemFilter is a no-op on unsupported platforms.
func (m *Monitor) AddSubsystemFilter(string) {}

// Close is a no-op on unsupported platforms.
func (m *Monitor) Close() error { return nil }

// Run returns an error on unsupported platforms.
func (m *Monitor) Run(context.Context, chan<- Event) error {
	return ErrUnsupported
}
