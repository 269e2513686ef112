// Package watcher turns kernel sound-card hotplug events into reconciliation
// passes. It listens on the netlink uevent socket, keeps only card-level
// events, debounces the burst of uevents a single plug/unplug produces, and
// then runs one reconciliation pass (plus the USB volume adjuster when a
// card arrived).
package watcher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/smazurov/audionode/internal/events"
	"github.com/smazurov/audionode/internal/logging"
	"github.com/smazurov/audionode/internal/reconciler"
	"github.com/smazurov/audionode/pkg/linuxaudio/hotplug"
)

// DefaultDebounce is how long the watcher waits for the uevent burst of a
// plug/unplug to quiet down before reconciling.
const DefaultDebounce = 2 * time.Second

// ReconcileRunner runs one reconciliation pass. *reconciler.Reconciler
// satisfies it.
type ReconcileRunner interface {
	Run(ctx context.Context) (*reconciler.Result, error)
}

// VolumeRunner adjusts USB card volumes. *volume.Adjuster satisfies it.
type VolumeRunner interface {
	Run(ctx context.Context) error
}

// Watcher triggers reconciliation on sound card topology changes.
type Watcher struct {
	rec      ReconcileRunner
	vol      VolumeRunner
	bus      *events.Bus
	debounce time.Duration
	logger   *slog.Logger

	monitor *hotplug.Monitor
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce overrides the hotplug debounce interval.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithBus attaches an event bus for topology change events.
func WithBus(bus *events.Bus) Option {
	return func(w *Watcher) { w.bus = bus }
}

// WithVolumeRunner attaches the USB volume adjuster run on card arrival.
func WithVolumeRunner(vol VolumeRunner) Option {
	return func(w *Watcher) { w.vol = vol }
}

// New creates a Watcher that runs rec on every topology change.
func New(rec ReconcileRunner, opts ...Option) *Watcher {
	w := &Watcher{
		rec:      rec,
		debounce: DefaultDebounce,
		logger:   logging.GetLogger("watcher"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins monitoring for sound card events. It returns after the
// monitor goroutines are running; call Stop to shut them down.
func (w *Watcher) Start(ctx context.Context) error {
	monitor, err := hotplug.NewMonitor()
	if err != nil {
		return err
	}
	monitor.AddSubsystemFilter(hotplug.SubsystemSound)
	w.monitor = monitor

	ctx, w.cancel = context.WithCancel(ctx)

	eventCh := make(chan hotplug.Event, 16)
	w.wg.Add(2)
	go func() {
		defer w.wg.Done()
		if err := monitor.Run(ctx, eventCh); err != nil && ctx.Err() == nil {
			w.logger.Error("Hotplug monitor stopped", "error", err)
		}
	}()
	go func() {
		defer w.wg.Done()
		w.loop(ctx, eventCh)
	}()

	w.logger.Info("Watching for sound card hotplug events", "debounce", w.debounce)
	return nil
}

// Stop shuts the watcher down and waits for its goroutines to exit.
func (w *Watcher) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	if w.monitor != nil {
		w.monitor.Close()
	}
	w.wg.Wait()
}

// loop consumes card-level events and debounces them into reconcile runs.
// Separated from Start so tests can feed events directly.
func (w *Watcher) loop(ctx context.Context, eventCh <-chan hotplug.Event) {
	var timer *time.Timer
	var timerCh <-chan time.Time
	sawAdd := false

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case event, ok := <-eventCh:
			if !ok {
				return
			}
			card := event.CardName()
			if card == "" {
				continue
			}
			if event.Action != hotplug.ActionAdd && event.Action != hotplug.ActionRemove {
				continue
			}

			w.logger.Info("Sound card topology changed", "action", event.Action, "card", card)
			if event.Action == hotplug.ActionAdd {
				sawAdd = true
			}
			if w.bus != nil {
				w.bus.Publish(events.TopologyChangedEvent{
					Action:    event.Action,
					Card:      card,
					DevPath:   event.DevPath,
					Timestamp: time.Now().Format(time.RFC3339),
				})
			}

			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerCh = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}

		case <-timerCh:
			timer = nil
			timerCh = nil
			w.handleBurst(ctx, sawAdd)
			sawAdd = false
		}
	}
}

// handleBurst runs the volume adjuster (when a card arrived) and one
// reconciliation pass. Failures are logged, not fatal: the daemon keeps
// watching and the next topology change gets a fresh pass.
func (w *Watcher) handleBurst(ctx context.Context, sawAdd bool) {
	if sawAdd && w.vol != nil {
		if err := w.vol.Run(ctx); err != nil {
			w.logger.Warn("USB volume adjustment failed", "error", err)
		}
	}
	if _, err := w.rec.Run(ctx); err != nil {
		w.logger.Error("Reconciliation failed after topology change", "error", err)
	}
}
