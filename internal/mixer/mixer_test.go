package mixer

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
)

type fakeRunner struct {
	output []byte
	err    error
	calls  [][]string
}

func (f *fakeRunner) run(_ context.Context, args ...string) ([]byte, error) {
	f.calls = append(f.calls, args)
	if f.err != nil {
		return nil, f.err
	}
	return f.output, nil
}

func TestListControls(t *testing.T) {
	fake := &fakeRunner{output: []byte(
		"Simple mixer control 'Master',0\n" +
			"Simple mixer control 'PCM',0\n" +
			"Simple mixer control 'Mic',0\n"),
	}
	client := &Client{runner: fake}

	controls, err := client.ListControls(context.Background(), 1)
	if err != nil {
		t.Fatalf("ListControls failed: %v", err)
	}

	want := []string{"Master", "PCM", "Mic"}
	if !slices.Equal(controls, want) {
		t.Errorf("Controls = %v, want %v", controls, want)
	}
	if args := fake.calls[0]; args[0] != "-c" || args[1] != "1" || args[2] != "scontrols" {
		t.Errorf("Unexpected amixer args: %v", args)
	}
}

func TestListControlsEmptyOutput(t *testing.T) {
	client := &Client{runner: &fakeRunner{output: []byte("")}}

	controls, err := client.ListControls(context.Background(), 0)
	if err != nil {
		t.Fatalf("ListControls failed: %v", err)
	}
	if len(controls) != 0 {
		t.Errorf("Controls = %v, want empty", controls)
	}
}

func TestSetControlLevel(t *testing.T) {
	fake := &fakeRunner{output: []byte("ok")}
	client := &Client{runner: fake}

	if err := client.SetControlLevel(context.Background(), 2, "PCM", 85); err != nil {
		t.Fatalf("SetControlLevel failed: %v", err)
	}

	args := strings.Join(fake.calls[0], " ")
	if args != "-c 2 sset PCM 85% unmute" {
		t.Errorf("Unexpected amixer args: %q", args)
	}
}

func TestSetControlLevelRejectsOutOfRange(t *testing.T) {
	client := &Client{runner: &fakeRunner{}}

	for _, percent := range []int{-1, 101} {
		if err := client.SetControlLevel(context.Background(), 0, "PCM", percent); err == nil {
			t.Errorf("Expected error for level %d%%", percent)
		}
	}
}

func TestSetControlLevelCommandFailure(t *testing.T) {
	fake := &fakeRunner{err: errors.New("invalid card")}
	client := &Client{runner: fake}

	err := client.SetControlLevel(context.Background(), 9, "PCM", 50)
	if err == nil {
		t.Fatal("Expected command failure to propagate")
	}
	if !strings.Contains(err.Error(), "card 9") {
		t.Errorf("Error lacks card context: %v", err)
	}
}
