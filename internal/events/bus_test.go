package events

import (
	"testing"
	"time"
)

func TestBus_PublishSubscribe(t *testing.T) {
	bus := New()
	received := make(chan ReconcileCompletedEvent, 1)

	unsub := bus.Subscribe(func(e ReconcileCompletedEvent) {
		received <- e
	})
	defer unsub()

	ev := ReconcileCompletedEvent{
		Generation: 7,
		Before:     []string{"alsa_output.hdmi", "alsa_output.usb"},
		After:      []string{"alsa_output.hdmi", "alsa_output.usb", "auto_combined"},
		Members:    []string{"alsa_output.hdmi", "alsa_output.usb"},
		Combined:   true,
	}
	bus.Publish(ev)

	got := <-received
	if got.Generation != ev.Generation {
		t.Errorf("Generation = %d, want %d", got.Generation, ev.Generation)
	}
	if !got.Combined {
		t.Error("Combined = false, want true")
	}
}

func TestBus_MultipleSubscribers(_ *testing.T) {
	bus := New()
	received1 := make(chan TopologyChangedEvent, 1)
	received2 := make(chan TopologyChangedEvent, 1)

	unsub1 := bus.Subscribe(func(e TopologyChangedEvent) {
		received1 <- e
	})
	defer unsub1()

	unsub2 := bus.Subscribe(func(e TopologyChangedEvent) {
		received2 <- e
	})
	defer unsub2()

	bus.Publish(TopologyChangedEvent{Action: "add", Card: "card1"})

	<-received1
	<-received2
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := New()
	received := make(chan VolumeAdjustedEvent, 1)

	unsub := bus.Subscribe(func(e VolumeAdjustedEvent) {
		received <- e
	})
	unsub()

	bus.Publish(VolumeAdjustedEvent{CardIndex: 1, Control: "PCM", Percent: 85})

	select {
	case <-received:
		t.Error("received event after unsubscribe")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSubscribeToChannel_DropsWhenFull(t *testing.T) {
	bus := New()
	ch := make(chan any, 1)

	unsub := SubscribeToChannel[ReconcileFailedEvent](bus, ch)
	defer unsub()

	bus.Publish(ReconcileFailedEvent{Step: "create", Error: "boom"})
	bus.Publish(ReconcileFailedEvent{Step: "verify", Error: "missing"})

	// Channel has capacity 1; second event is dropped, not blocked.
	time.Sleep(50 * time.Millisecond)
	select {
	case ev := <-ch:
		if _, ok := ev.(ReconcileFailedEvent); !ok {
			t.Errorf("unexpected event type %T", ev)
		}
	default:
		t.Fatal("expected at least one event")
	}
}
