// Package hotplug provides pure Go sound-device hotplug monitoring using
// netlink.
//
// The kernel broadcasts a uevent whenever a sound card appears or goes away;
// this package listens for those messages directly on a netlink socket, so no
// cgo and no udev daemon round trip is needed.
package hotplug

import (
	"bytes"
	"strings"
)

// Action constants for device events.
const (
	ActionAdd    = "add"
	ActionRemove = "remove"
	ActionChange = "change"
	ActionBind   = "bind"
	ActionUnbind = "unbind"
)

// Subsystem names relevant to audio hotplug.
const (
	SubsystemSound = "sound"
	SubsystemUSB   = "usb"
)

// Event represents a kernel device event.
type Event struct {
	Action    string            // "add", "remove", "change", etc.
	KObj      string            // Kernel object path: /devices/platform/soc/...
	Subsystem string            // "sound", "usb", etc.
	DevType   string            // Device type if available
	DevName   string            // Device name (e.g., "controlC1")
	DevPath   string            // Device path within sysfs
	Env       map[string]string // All environment variables from the event
}

// CardName returns the sound card name ("cardN") an event refers to, or ""
// when the event is not a card-level event. Card-level events mark the point
// where a card has been registered or unregistered; the per-PCM and
// per-control node events that surround them are noise for topology purposes.
func (e *Event) CardName() string {
	if e.Subsystem != SubsystemSound {
		return ""
	}
	last := e.KObj[strings.LastIndexByte(e.KObj, '/')+1:]
	if strings.HasPrefix(last, "card") && len(last) > 4 {
		for _, c := range last[4:] {
			if c < '0' || c > '9' {
				return ""
			}
		}
		return last
	}
	return ""
}

// ParseUEvent parses a kernel uevent message.
// Format: "ACTION@KOBJ\0KEY=VALUE\0KEY=VALUE\0..."
// Exported for testing.
func ParseUEvent(data []byte) *Event {
	if len(data) == 0 {
		return nil
	}

	// Skip libudev header if present (starts with "libudev").
	// libudev adds a binary header before the actual uevent.
	if bytes.HasPrefix(data, []byte("libudev")) {
		for i := 0; i < len(data)-1; i++ {
			if data[i] == 0 {
				rest := data[i+1:]
				if idx := bytes.IndexByte(rest, '@'); idx > 0 && idx < 20 {
					data = rest
					break
				}
			}
		}
	}

	parts := bytes.Split(data, []byte{0})
	if len(parts) < 1 || len(parts[0]) == 0 {
		return nil
	}

	// First part is "ACTION@KOBJ"
	header := string(parts[0])
	atIdx := strings.Index(header, "@")
	if atIdx < 1 {
		return nil
	}

	event := &Event{
		Action: header[:atIdx],
		KObj:   header[atIdx+1:],
		Env:    make(map[string]string),
	}

	for _, part := range parts[1:] {
		if len(part) == 0 {
			continue
		}

		kv := string(part)
		eqIdx := strings.Index(kv, "=")
		if eqIdx < 1 {
			continue
		}

		key := kv[:eqIdx]
		value := kv[eqIdx+1:]
		event.Env[key] = value

		switch key {
		case "SUBSYSTEM":
			event.Subsystem = value
		case "DEVTYPE":
			event.DevType = value
		case "DEVNAME":
			event.DevName = value
		case "DEVPATH":
			event.DevPath = value
		}
	}

	return event
}
