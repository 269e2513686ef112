// Package reconciler rebuilds the combined output sink from the set of real
// sinks currently visible on the sound server.
//
// A reconciliation pass is triggered at startup and whenever the sound card
// topology changes. Each pass tears down any previously created combined sink
// and, when two or more real sinks exist, creates a fresh one spanning all of
// them and makes it the default output. Passes are idempotent: running twice
// against an unchanged topology ends in the same state as running once.
package reconciler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync/atomic"
	"time"

	"github.com/smazurov/audionode/internal/events"
	"github.com/smazurov/audionode/internal/logging"
	"github.com/smazurov/audionode/internal/metrics"
)

// Reserved sink names. CombinedSinkName is the name the reconciler creates
// its combined sink under; FallbackSinkName is the placeholder the sound
// server loads when no real hardware is configured yet.
const (
	CombinedSinkName = "auto_combined"
	FallbackSinkName = "auto_null"
)

// SoundServer is the subset of sound-server operations a pass needs.
// *pulse.Client satisfies it.
type SoundServer interface {
	ListEndpoints(ctx context.Context) ([]string, error)
	CreateCombined(ctx context.Context, name string, members []string) error
	DestroyCombined(ctx context.Context, name string) error
	SetDefault(ctx context.Context, name string) error
}

// RetryPolicy bounds the delays a pass may incur. Zero durations make a
// pass run without sleeping, which tests rely on.
type RetryPolicy struct {
	// MaxAttempts is the number of extra enumeration attempts performed
	// when the sink list comes back empty. Exhaustion is not fatal.
	MaxAttempts int
	// RetryInterval is the delay between enumeration attempts.
	RetryInterval time.Duration
	// SettleDelay is the single delay applied when the fallback
	// placeholder is present on the first listing, giving the sound
	// server time to finish enumerating hardware during boot.
	SettleDelay time.Duration
}

// DefaultRetryPolicy matches the timing of the original udev-triggered flow.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:   5,
		RetryInterval: time.Second,
		SettleDelay:   3 * time.Second,
	}
}

// ErrCombinedNotVisible is returned when the combined sink does not show up
// in the sink list after a successful create request.
var ErrCombinedNotVisible = errors.New("combined sink not visible after creation")

// StepError wraps a fatal failure with the pass step it occurred at.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string { return e.Step + ": " + e.Err.Error() }

// Unwrap returns the underlying error.
func (e *StepError) Unwrap() error { return e.Err }

// Result describes the outcome of one reconciliation pass.
type Result struct {
	Generation uint64
	Before     []string
	After      []string
	Members    []string
	Combined   bool
	// Stale is true when a newer pass started while this one was
	// enumerating; the stale pass skips its rebuild and the newest
	// pass determines the final state.
	Stale bool
}

// Reconciler runs reconciliation passes against a sound server.
// Overlapping passes are tolerated: each pass stamps a generation number
// and a pass that has been superseded skips its rebuild, making "last
// writer wins" the explicit contract rather than an accident of timing.
type Reconciler struct {
	server       SoundServer
	policy       RetryPolicy
	combinedName string
	fallbackName string
	generation   atomic.Uint64
	bus          *events.Bus
	metrics      *metrics.Metrics
	logger       *slog.Logger
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithPolicy overrides the default retry policy.
func WithPolicy(p RetryPolicy) Option {
	return func(r *Reconciler) { r.policy = p }
}

// WithCombinedName overrides the reserved combined sink name.
func WithCombinedName(name string) Option {
	return func(r *Reconciler) { r.combinedName = name }
}

// WithFallbackName overrides the fallback placeholder sink name.
func WithFallbackName(name string) Option {
	return func(r *Reconciler) { r.fallbackName = name }
}

// WithBus attaches an event bus for pass completion/failure events.
func WithBus(bus *events.Bus) Option {
	return func(r *Reconciler) { r.bus = bus }
}

// WithMetrics attaches pass metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Reconciler) { r.metrics = m }
}

// New creates a Reconciler for the given sound server.
func New(server SoundServer, opts ...Option) *Reconciler {
	r := &Reconciler{
		server:       server,
		policy:       DefaultRetryPolicy(),
		combinedName: CombinedSinkName,
		fallbackName: FallbackSinkName,
		logger:       logging.GetLogger("reconciler"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// CombinedName returns the reserved name combined sinks are created under.
func (r *Reconciler) CombinedName() string { return r.combinedName }

// Run performs one reconciliation pass. It returns a fatal error when the
// combined sink cannot be created or does not become visible; enumeration
// coming up empty is not fatal and yields a pass with no combined sink.
func (r *Reconciler) Run(ctx context.Context) (*Result, error) {
	gen := r.generation.Add(1)
	start := time.Now()

	res, err := r.run(ctx, gen)
	if err != nil {
		var stepErr *StepError
		step := "unknown"
		if errors.As(err, &stepErr) {
			step = stepErr.Step
		}
		r.logger.Error("Reconciliation pass failed", "generation", gen, "step", step, "error", err)
		if r.metrics != nil {
			r.metrics.ObservePass("error", time.Since(start))
		}
		if r.bus != nil {
			r.bus.Publish(events.ReconcileFailedEvent{
				Generation: gen,
				Step:       step,
				Error:      err.Error(),
				Timestamp:  time.Now().Format(time.RFC3339),
			})
		}
		return nil, err
	}

	r.logger.Info("Reconciliation pass completed",
		"generation", gen,
		"before", res.Before,
		"after", res.After,
		"combined", res.Combined,
		"stale", res.Stale)

	if r.metrics != nil {
		r.metrics.ObservePass(outcome(res), time.Since(start))
		r.metrics.SetEndpointCount(len(res.Members))
		r.metrics.SetCombinedActive(res.Combined)
	}
	if r.bus != nil {
		r.bus.Publish(events.ReconcileCompletedEvent{
			Generation: gen,
			Before:     res.Before,
			After:      res.After,
			Members:    res.Members,
			Combined:   res.Combined,
			Stale:      res.Stale,
			Timestamp:  time.Now().Format(time.RFC3339),
		})
	}
	return res, nil
}

func (r *Reconciler) run(ctx context.Context, gen uint64) (*Result, error) {
	// Boot-race guard: a visible fallback placeholder means the sound
	// server is likely still bringing up hardware. Wait once, best
	// effort, without re-checking.
	first, err := r.server.ListEndpoints(ctx)
	if err != nil {
		return nil, &StepError{Step: "enumerate", Err: err}
	}
	if slices.Contains(first, r.fallbackName) {
		r.logger.Debug("Fallback sink present, waiting for sound server to settle",
			"delay", r.policy.SettleDelay)
		if err := sleep(ctx, r.policy.SettleDelay); err != nil {
			return nil, &StepError{Step: "settle", Err: err}
		}
	}

	before, candidates, err := r.enumerate(ctx)
	if err != nil {
		return nil, &StepError{Step: "enumerate", Err: err}
	}

	// Tear down unconditionally before deciding whether to rebuild.
	// A missing combined sink is not an error.
	if err := r.server.DestroyCombined(ctx, r.combinedName); err != nil {
		return nil, &StepError{Step: "teardown", Err: err}
	}

	res := &Result{
		Generation: gen,
		Before:     before,
		Members:    candidates,
	}

	if len(candidates) < 2 {
		r.logger.Debug("Nothing to combine", "candidates", candidates)
		after, err := r.server.ListEndpoints(ctx)
		if err != nil {
			return nil, &StepError{Step: "enumerate", Err: err}
		}
		res.After = after
		return res, nil
	}

	// A later pass will tear this rebuild down anyway; skip it.
	if r.generation.Load() != gen {
		res.Stale = true
		res.After = before
		return res, nil
	}

	if err := r.server.CreateCombined(ctx, r.combinedName, candidates); err != nil {
		return nil, &StepError{Step: "create", Err: err}
	}

	after, err := r.server.ListEndpoints(ctx)
	if err != nil {
		return nil, &StepError{Step: "verify", Err: err}
	}
	if !slices.Contains(after, r.combinedName) {
		return nil, &StepError{
			Step: "verify",
			Err:  fmt.Errorf("%w: %q", ErrCombinedNotVisible, r.combinedName),
		}
	}

	if err := r.server.SetDefault(ctx, r.combinedName); err != nil {
		return nil, &StepError{Step: "set-default", Err: err}
	}

	res.After = after
	res.Combined = true
	return res, nil
}

// enumerate lists sinks and filters out the reserved names, retrying a
// bounded number of times while the candidate list is empty. Exhausting
// the retries yields an empty candidate list, not an error.
func (r *Reconciler) enumerate(ctx context.Context) (raw, candidates []string, err error) {
	attempts := r.policy.MaxAttempts
	for {
		raw, err = r.server.ListEndpoints(ctx)
		if err != nil {
			return nil, nil, err
		}

		candidates = candidates[:0]
		for _, name := range raw {
			if name == r.combinedName || name == r.fallbackName {
				continue
			}
			candidates = append(candidates, name)
		}

		if len(candidates) > 0 || attempts <= 0 {
			return raw, candidates, nil
		}

		attempts--
		r.logger.Debug("No sinks enumerated yet, retrying", "remaining", attempts)
		if r.metrics != nil {
			r.metrics.IncRetries()
		}
		if err := sleep(ctx, r.policy.RetryInterval); err != nil {
			return nil, nil, err
		}
	}
}

func outcome(res *Result) string {
	switch {
	case res.Stale:
		return "stale"
	case res.Combined:
		return "combined"
	case len(res.Members) == 1:
		return "single"
	default:
		return "empty"
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
