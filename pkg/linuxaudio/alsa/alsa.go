// Package alsa provides pure Go bindings to the ALSA control interface for
// sound card and playback device enumeration.
//
// This package does not use cgo, enabling simple cross-compilation for the
// Linux architectures appliance images are built for (amd64, arm64, arm).
//
// # Card Enumeration
//
// Use ListCards to discover sound cards and check which ones are USB:
//
//	cards, err := alsa.ListCards()
//	for _, card := range cards {
//	    fmt.Printf("card %d: %s (usb=%v)\n", card.Number, card.Name, card.IsUSB)
//	}
package alsa
