// Package pulse is a thin typed client for the PulseAudio/PipeWire command
// line control interface. It shells out to pactl with JSON output instead of
// scraping human-oriented text, and exposes only the operations the sink
// reconciler and the status API need.
package pulse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Sink is one audio output endpoint known to the sound server.
type Sink struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	State string `json:"state"`
}

// Module is a loaded sound-server module.
type Module struct {
	Index    int    `json:"index"`
	Name     string `json:"name"`
	Argument string `json:"argument"`
}

// ServerInfo holds the subset of server state the status API reports.
type ServerInfo struct {
	ServerName      string `json:"server_name"`
	DefaultSinkName string `json:"default_sink_name"`
}

const combineModule = "module-combine-sink"

// runner abstracts pactl invocation so tests can substitute canned output.
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

// Client talks to the sound server via pactl.
type Client struct {
	runner runner
}

// Option configures a Client.
type Option func(*Client)

// WithBinary overrides the pactl binary path.
func WithBinary(path string) Option {
	return func(c *Client) {
		if r, ok := c.runner.(*execRunner); ok {
			r.binary = path
		}
	}
}

// WithCommandTimeout bounds each pactl invocation. Default is 10s.
func WithCommandTimeout(d time.Duration) Option {
	return func(c *Client) {
		if r, ok := c.runner.(*execRunner); ok {
			r.timeout = d
		}
	}
}

// NewClient creates a pactl-backed sound server client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		runner: &execRunner{binary: "pactl", timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListSinks returns all sinks currently known to the sound server,
// in server order.
func (c *Client) ListSinks(ctx context.Context) ([]Sink, error) {
	out, err := c.runner.run(ctx, "--format=json", "list", "sinks")
	if err != nil {
		return nil, err
	}

	var sinks []Sink
	if err := json.Unmarshal(out, &sinks); err != nil {
		return nil, fmt.Errorf("parse sink list: %w", err)
	}
	return sinks, nil
}

// ListEndpoints returns the names of all sinks, in server order.
func (c *Client) ListEndpoints(ctx context.Context) ([]string, error) {
	sinks, err := c.ListSinks(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(sinks))
	for i, s := range sinks {
		names[i] = s.Name
	}
	return names, nil
}

// listModules returns all loaded modules.
func (c *Client) listModules(ctx context.Context) ([]Module, error) {
	out, err := c.runner.run(ctx, "--format=json", "list", "modules")
	if err != nil {
		return nil, err
	}

	var modules []Module
	if err := json.Unmarshal(out, &modules); err != nil {
		return nil, fmt.Errorf("parse module list: %w", err)
	}
	return modules, nil
}

// CreateCombined loads a combine-sink module named name that fans audio out
// to the given member sinks.
func (c *Client) CreateCombined(ctx context.Context, name string, members []string) error {
	if len(members) == 0 {
		return fmt.Errorf("create combined sink %q: no members", name)
	}

	args := []string{
		"load-module", combineModule,
		"sink_name=" + name,
		"slaves=" + strings.Join(members, ","),
	}
	out, err := c.runner.run(ctx, args...)
	if err != nil {
		return fmt.Errorf("load %s: %w", combineModule, err)
	}
	if _, convErr := strconv.Atoi(strings.TrimSpace(string(out))); convErr != nil {
		return fmt.Errorf("load %s: unexpected output %q", combineModule, strings.TrimSpace(string(out)))
	}
	return nil
}

// DestroyCombined unloads the combine-sink module owning the sink named name.
// A missing combined sink is not an error; it simply may not exist yet.
func (c *Client) DestroyCombined(ctx context.Context, name string) error {
	modules, err := c.listModules(ctx)
	if err != nil {
		return err
	}

	needle := "sink_name=" + name
	for _, m := range modules {
		if m.Name != combineModule {
			continue
		}
		if !moduleArgHasSinkName(m.Argument, needle) {
			continue
		}
		if _, err := c.runner.run(ctx, "unload-module", strconv.Itoa(m.Index)); err != nil {
			return fmt.Errorf("unload module %d: %w", m.Index, err)
		}
	}
	return nil
}

// moduleArgHasSinkName reports whether the module argument string contains
// the exact sink_name=... assignment, not merely a prefix match.
func moduleArgHasSinkName(arg, needle string) bool {
	for _, field := range strings.Fields(arg) {
		if field == needle {
			return true
		}
	}
	return false
}

// SetDefault makes the named sink the server's default output.
func (c *Client) SetDefault(ctx context.Context, name string) error {
	if _, err := c.runner.run(ctx, "set-default-sink", name); err != nil {
		return fmt.Errorf("set default sink %q: %w", name, err)
	}
	return nil
}

// Info returns the server name and current default sink.
func (c *Client) Info(ctx context.Context) (ServerInfo, error) {
	out, err := c.runner.run(ctx, "--format=json", "info")
	if err != nil {
		return ServerInfo{}, err
	}

	var info ServerInfo
	if err := json.Unmarshal(out, &info); err != nil {
		return ServerInfo{}, fmt.Errorf("parse server info: %w", err)
	}
	return info, nil
}
