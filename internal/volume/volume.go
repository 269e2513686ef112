// Package volume sets the playback volume of USB sound cards to a configured
// level when they appear. Freshly plugged USB audio devices often come up
// with their mixer near zero or muted; normalizing the level here means a
// voice assistant is audible immediately after hotplug.
package volume

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/smazurov/audionode/internal/events"
	"github.com/smazurov/audionode/internal/logging"
	"github.com/smazurov/audionode/internal/metrics"
	"github.com/smazurov/audionode/pkg/linuxaudio/alsa"
)

// DefaultPercent is the level USB playback controls are set to unless
// configured otherwise.
const DefaultPercent = 85

// Mixer is the mixer-control surface the adjuster needs.
// *mixer.Client satisfies it.
type Mixer interface {
	ListControls(ctx context.Context, card int) ([]string, error)
	SetControlLevel(ctx context.Context, card int, control string, percent int) error
}

// CardLister enumerates sound cards. alsa.ListCards satisfies it.
type CardLister func() ([]alsa.Card, error)

// Adjuster applies the configured volume to every control of every USB card.
type Adjuster struct {
	cards   CardLister
	mixer   Mixer
	percent atomic.Int32
	bus     *events.Bus
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// Option configures an Adjuster.
type Option func(*Adjuster)

// WithPercent overrides the target volume percentage.
func WithPercent(percent int) Option {
	return func(a *Adjuster) { a.percent.Store(int32(percent)) }
}

// WithBus attaches an event bus for volume adjustment events.
func WithBus(bus *events.Bus) Option {
	return func(a *Adjuster) { a.bus = bus }
}

// WithMetrics attaches adjustment metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Adjuster) { a.metrics = m }
}

// WithCardLister overrides card enumeration, for tests.
func WithCardLister(lister CardLister) Option {
	return func(a *Adjuster) { a.cards = lister }
}

// New creates an Adjuster using the given mixer client.
func New(m Mixer, opts ...Option) *Adjuster {
	a := &Adjuster{
		cards:  alsa.ListCards,
		mixer:  m,
		logger: logging.GetLogger("volume"),
	}
	a.percent.Store(DefaultPercent)
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// SetPercent changes the target level for future runs. Used by config reload,
// which may fire while a hotplug-triggered run is in flight.
func (a *Adjuster) SetPercent(percent int) {
	a.percent.Store(int32(percent))
}

// Run enumerates sound cards and sets every mixer control of every USB card
// to the configured level. Cards whose controls cannot be listed are skipped
// with a warning; a failing control set aborts the run.
func (a *Adjuster) Run(ctx context.Context) error {
	cards, err := a.cards()
	if err != nil {
		return fmt.Errorf("list sound cards: %w", err)
	}

	percent := int(a.percent.Load())
	adjusted := 0
	for _, card := range cards {
		if !card.IsUSB {
			continue
		}

		controls, err := a.mixer.ListControls(ctx, card.Number)
		if err != nil {
			a.logger.Warn("Failed to list mixer controls, skipping card",
				"card", card.Number, "name", card.Name, "error", err)
			continue
		}

		for _, control := range controls {
			if err := a.mixer.SetControlLevel(ctx, card.Number, control, percent); err != nil {
				return fmt.Errorf("card %d (%s): %w", card.Number, card.Name, err)
			}
			adjusted++
			a.logger.Info("Set USB card volume",
				"card", card.Number, "name", card.Name, "control", control, "percent", percent)
			if a.metrics != nil {
				a.metrics.IncVolumeAdjustments()
			}
			if a.bus != nil {
				a.bus.Publish(events.VolumeAdjustedEvent{
					CardIndex: card.Number,
					CardName:  card.Name,
					Control:   control,
					Percent:   percent,
					Timestamp: time.Now().Format(time.RFC3339),
				})
			}
		}
	}

	if adjusted == 0 {
		a.logger.Debug("No USB sound cards to adjust")
	}
	return nil
}
