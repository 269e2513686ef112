package watcher

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/smazurov/audionode/internal/reconciler"
	"github.com/smazurov/audionode/pkg/linuxaudio/hotplug"
)

type countingReconciler struct {
	runs atomic.Int32
}

func (c *countingReconciler) Run(_ context.Context) (*reconciler.Result, error) {
	c.runs.Add(1)
	return &reconciler.Result{}, nil
}

type countingVolume struct {
	runs atomic.Int32
}

func (c *countingVolume) Run(_ context.Context) error {
	c.runs.Add(1)
	return nil
}

func cardEvent(action, card string) hotplug.Event {
	return hotplug.Event{
		Action:    action,
		Subsystem: hotplug.SubsystemSound,
		KObj:      "/devices/platform/soc/usb/1-1/sound/" + card,
	}
}

// runLoop feeds events through the watcher loop and waits for quiet.
func runLoop(t *testing.T, w *Watcher, evs []hotplug.Event) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	eventCh := make(chan hotplug.Event, len(evs))
	for _, ev := range evs {
		eventCh <- ev
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.loop(ctx, eventCh)
	}()

	// Wait past the debounce window, then shut down.
	time.Sleep(20 * w.debounce)
	cancel()
	wg.Wait()
}

func TestLoopDebouncesBurstIntoOnePass(t *testing.T) {
	rec := &countingReconciler{}
	w := New(rec, WithDebounce(10*time.Millisecond))

	runLoop(t, w, []hotplug.Event{
		cardEvent(hotplug.ActionAdd, "card1"),
		cardEvent(hotplug.ActionAdd, "card1"),
		cardEvent(hotplug.ActionAdd, "card2"),
	})

	if got := rec.runs.Load(); got != 1 {
		t.Errorf("Reconcile runs = %d, want 1", got)
	}
}

func TestLoopRunsVolumeAdjusterOnAdd(t *testing.T) {
	rec := &countingReconciler{}
	vol := &countingVolume{}
	w := New(rec, WithDebounce(10*time.Millisecond), WithVolumeRunner(vol))

	runLoop(t, w, []hotplug.Event{cardEvent(hotplug.ActionAdd, "card1")})

	if got := vol.runs.Load(); got != 1 {
		t.Errorf("Volume runs = %d, want 1", got)
	}
	if got := rec.runs.Load(); got != 1 {
		t.Errorf("Reconcile runs = %d, want 1", got)
	}
}

func TestLoopSkipsVolumeAdjusterOnRemove(t *testing.T) {
	rec := &countingReconciler{}
	vol := &countingVolume{}
	w := New(rec, WithDebounce(10*time.Millisecond), WithVolumeRunner(vol))

	runLoop(t, w, []hotplug.Event{cardEvent(hotplug.ActionRemove, "card1")})

	if got := vol.runs.Load(); got != 0 {
		t.Errorf("Volume runs = %d, want 0", got)
	}
	if got := rec.runs.Load(); got != 1 {
		t.Errorf("Reconcile runs = %d, want 1", got)
	}
}

func TestLoopIgnoresNonCardEvents(t *testing.T) {
	rec := &countingReconciler{}
	w := New(rec, WithDebounce(10*time.Millisecond))

	runLoop(t, w, []hotplug.Event{
		{
			Action:    hotplug.ActionAdd,
			Subsystem: hotplug.SubsystemSound,
			KObj:      "/devices/platform/soc/sound/card0/controlC0",
		},
		{
			Action:    hotplug.ActionChange,
			Subsystem: hotplug.SubsystemSound,
			KObj:      "/devices/platform/soc/sound/card0",
		},
	})

	if got := rec.runs.Load(); got != 0 {
		t.Errorf("Reconcile runs = %d, want 0", got)
	}
}

func TestLoopSeparateBurstsSeparatePasses(t *testing.T) {
	rec := &countingReconciler{}
	w := New(rec, WithDebounce(10*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	eventCh := make(chan hotplug.Event)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.loop(ctx, eventCh)
	}()

	eventCh <- cardEvent(hotplug.ActionAdd, "card1")
	time.Sleep(20 * w.debounce)
	eventCh <- cardEvent(hotplug.ActionRemove, "card1")
	time.Sleep(20 * w.debounce)

	cancel()
	wg.Wait()

	if got := rec.runs.Load(); got != 2 {
		t.Errorf("Reconcile runs = %d, want 2", got)
	}
}
