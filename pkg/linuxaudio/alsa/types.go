package alsa

import (
	"bytes"
	"errors"
	"strconv"
	"strings"
)

// ErrUnsupported is returned on platforms without the ALSA control interface.
var ErrUnsupported = errors.New("alsa: not supported on this platform")

// Card describes one sound card as reported by the ALSA control interface.
type Card struct {
	Number     int
	ID         string
	Name       string
	LongName   string
	Driver     string
	MixerName  string
	Components string
	IsUSB      bool
}

// Device describes one PCM playback device on a card.
type Device struct {
	CardNumber   int
	CardID       string
	CardName     string
	DeviceNumber int
	DeviceName   string
	ALSADevice   string // ALSA device string (e.g., "hw:0,0")
}

// Stream types.
const (
	StreamPlayback = 0
	StreamCapture  = 1
)

// FormatALSADevice creates an ALSA device string from card and device numbers.
func FormatALSADevice(cardNum, deviceNum int) string {
	return "hw:" + strconv.Itoa(cardNum) + "," + strconv.Itoa(deviceNum)
}

// isUSBCard reports whether a card is USB-attached, based on the driver name
// and the components string the kernel fills in for USB audio interfaces
// (e.g. "USB0d8c:0014").
func isUSBCard(driver, components string) bool {
	if driver == "USB-Audio" {
		return true
	}
	return strings.Contains(components, "USB")
}

// cstr converts a NUL-terminated byte array from a kernel struct to a string.
func cstr(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return string(b[:i])
	}
	return string(b)
}
