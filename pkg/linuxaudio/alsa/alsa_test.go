package alsa

import "testing"

func TestFormatALSADevice(t *testing.T) {
	tests := []struct {
		card, device int
		want         string
	}{
		{0, 0, "hw:0,0"},
		{1, 3, "hw:1,3"},
		{10, 0, "hw:10,0"},
	}

	for _, tt := range tests {
		if got := FormatALSADevice(tt.card, tt.device); got != tt.want {
			t.Errorf("FormatALSADevice(%d, %d) = %q, want %q", tt.card, tt.device, got, tt.want)
		}
	}
}

func TestIsUSBCard(t *testing.T) {
	tests := []struct {
		name       string
		driver     string
		components string
		want       bool
	}{
		{"usb audio driver", "USB-Audio", "USB0d8c:0014", true},
		{"usb components only", "snd_usb_audio", "USB046d:0825", true},
		{"onboard hdmi", "HDA-Intel", "HDA:80862809,80860101,00100000", false},
		{"bcm soc dac", "bcm2835_audio", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isUSBCard(tt.driver, tt.components); got != tt.want {
				t.Errorf("isUSBCard(%q, %q) = %v, want %v", tt.driver, tt.components, got, tt.want)
			}
		})
	}
}

func TestCstr(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  string
	}{
		{"nul terminated", []byte{'U', 'S', 'B', 0, 'x', 'x'}, "USB"},
		{"no terminator", []byte{'a', 'b', 'c'}, "abc"},
		{"empty", []byte{0}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cstr(tt.input); got != tt.want {
				t.Errorf("cstr(%v) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestListCardsDoesNotPanic(t *testing.T) {
	// Hardware-dependent; just verify the enumeration path is safe to
	// call on any machine, with or without sound cards.
	cards, err := ListCards()
	if err != nil && err != ErrUnsupported {
		t.Fatalf("ListCards failed: %v", err)
	}
	for _, card := range cards {
		if card.Number < 0 {
			t.Errorf("Card with negative number: %+v", card)
		}
	}
}
