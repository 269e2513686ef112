package volume

import (
	"context"
	"errors"
	"testing"

	"github.com/smazurov/audionode/pkg/linuxaudio/alsa"
)

type setCall struct {
	card    int
	control string
	percent int
}

type fakeMixer struct {
	controls map[int][]string
	listErr  map[int]error
	setErr   error
	sets     []setCall
}

func (f *fakeMixer) ListControls(_ context.Context, card int) ([]string, error) {
	if err := f.listErr[card]; err != nil {
		return nil, err
	}
	return f.controls[card], nil
}

func (f *fakeMixer) SetControlLevel(_ context.Context, card int, control string, percent int) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.sets = append(f.sets, setCall{card, control, percent})
	return nil
}

func staticCards(cards ...alsa.Card) CardLister {
	return func() ([]alsa.Card, error) { return cards, nil }
}

func TestRunAdjustsOnlyUSBCards(t *testing.T) {
	mixer := &fakeMixer{controls: map[int][]string{
		0: {"HDMI"},
		1: {"PCM", "Headphone"},
	}}
	adjuster := New(mixer,
		WithCardLister(staticCards(
			alsa.Card{Number: 0, Name: "bcm2835 HDMI", IsUSB: false},
			alsa.Card{Number: 1, Name: "USB Audio Device", IsUSB: true},
		)),
		WithPercent(70))

	if err := adjuster.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := []setCall{
		{1, "PCM", 70},
		{1, "Headphone", 70},
	}
	if len(mixer.sets) != len(want) {
		t.Fatalf("Set calls = %v, want %v", mixer.sets, want)
	}
	for i, call := range want {
		if mixer.sets[i] != call {
			t.Errorf("Set call %d = %v, want %v", i, mixer.sets[i], call)
		}
	}
}

func TestRunNoUSBCards(t *testing.T) {
	mixer := &fakeMixer{}
	adjuster := New(mixer, WithCardLister(staticCards(
		alsa.Card{Number: 0, Name: "bcm2835 HDMI", IsUSB: false},
	)))

	if err := adjuster.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(mixer.sets) != 0 {
		t.Errorf("Unexpected set calls: %v", mixer.sets)
	}
}

func TestRunSkipsCardWhenListingFails(t *testing.T) {
	mixer := &fakeMixer{
		controls: map[int][]string{2: {"PCM"}},
		listErr:  map[int]error{1: errors.New("card busy")},
	}
	adjuster := New(mixer, WithCardLister(staticCards(
		alsa.Card{Number: 1, Name: "Flaky USB", IsUSB: true},
		alsa.Card{Number: 2, Name: "USB Speaker", IsUSB: true},
	)))

	if err := adjuster.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(mixer.sets) != 1 || mixer.sets[0].card != 2 {
		t.Errorf("Set calls = %v, want only card 2", mixer.sets)
	}
}

func TestRunSetFailureAborts(t *testing.T) {
	mixer := &fakeMixer{
		controls: map[int][]string{1: {"PCM"}},
		setErr:   errors.New("control gone"),
	}
	adjuster := New(mixer, WithCardLister(staticCards(
		alsa.Card{Number: 1, Name: "USB Audio", IsUSB: true},
	)))

	if err := adjuster.Run(context.Background()); err == nil {
		t.Fatal("Expected failure when a control cannot be set")
	}
}

func TestRunCardListFailure(t *testing.T) {
	adjuster := New(&fakeMixer{}, WithCardLister(func() ([]alsa.Card, error) {
		return nil, errors.New("no /dev/snd")
	}))

	if err := adjuster.Run(context.Background()); err == nil {
		t.Fatal("Expected card enumeration failure to propagate")
	}
}

func TestDefaultPercent(t *testing.T) {
	mixer := &fakeMixer{controls: map[int][]string{0: {"PCM"}}}
	adjuster := New(mixer, WithCardLister(staticCards(
		alsa.Card{Number: 0, Name: "USB Audio", IsUSB: true},
	)))

	if err := adjuster.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if mixer.sets[0].percent != DefaultPercent {
		t.Errorf("Percent = %d, want %d", mixer.sets[0].percent, DefaultPercent)
	}
}
