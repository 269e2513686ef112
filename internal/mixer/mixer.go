// Package mixer drives ALSA simple mixer controls through amixer. Volume
// levels are expressed as percentages so callers do not deal with the raw
// ranges individual codecs expose.
package mixer

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// runner abstracts amixer invocation so tests can substitute canned output.
type runner interface {
	run(ctx context.Context, args ...string) ([]byte, error)
}

type execRunner struct {
	binary  string
	timeout time.Duration
}

func (r *execRunner) run(ctx context.Context, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, r.binary, args...).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("%s %s: %w: %s", r.binary, strings.Join(args, " "),
				err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, fmt.Errorf("%s %s: %w", r.binary, strings.Join(args, " "), err)
	}
	return out, nil
}

// Client sets and lists simple mixer controls on a sound card.
type Client struct {
	runner runner
}

// Option configures a Client.
type Option func(*Client)

// WithBinary overrides the amixer binary path.
func WithBinary(path string) Option {
	return func(c *Client) {
		if r, ok := c.runner.(*execRunner); ok {
			r.binary = path
		}
	}
}

// NewClient creates an amixer-backed mixer client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		runner: &execRunner{binary: "amixer", timeout: 5 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListControls returns the simple mixer control names of the given card,
// in amixer order.
func (c *Client) ListControls(ctx context.Context, card int) ([]string, error) {
	out, err := c.runner.run(ctx, "-c", strconv.Itoa(card), "scontrols")
	if err != nil {
		return nil, err
	}
	return parseControls(string(out)), nil
}

// SetControlLevel sets a simple mixer control to the given percentage and
// unmutes it.
func (c *Client) SetControlLevel(ctx context.Context, card int, control string, percent int) error {
	if percent < 0 || percent > 100 {
		return fmt.Errorf("level %d%% out of range for control %q", percent, control)
	}
	_, err := c.runner.run(ctx, "-c", strconv.Itoa(card),
		"sset", control, strconv.Itoa(percent)+"%", "unmute")
	if err != nil {
		return fmt.Errorf("set %q on card %d: %w", control, card, err)
	}
	return nil
}

// parseControls extracts control names from amixer scontrols output.
// Lines look like:
//
//	Simple mixer control 'PCM',0
func parseControls(out string) []string {
	var controls []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		start := strings.IndexByte(line, '\'')
		if start < 0 {
			continue
		}
		end := strings.IndexByte(line[start+1:], '\'')
		if end < 0 {
			continue
		}
		controls = append(controls, line[start+1:start+1+end])
	}
	return controls
}
