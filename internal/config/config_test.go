package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

// testOptions mirrors the flat options structs used by the CLI.
type testOptions struct {
	Config string `help:"Config file path"`

	CombinedSinkName string   `toml:"reconcile.combined_sink" env:"COMBINED_SINK"`
	EnumRetries      int      `toml:"reconcile.enum_retries" env:"ENUM_RETRIES"`
	VolumeEnabled    bool     `toml:"volume.enabled" env:"VOLUME_ENABLED"`
	IgnoreSinks      []string `toml:"reconcile.ignore_sinks" env:"IGNORE_SINKS"`
}

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audionode.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigFromTOML(t *testing.T) {
	path := writeTempConfig(t, `
[reconcile]
combined_sink = "auto_combined"
enum_retries = 5
ignore_sinks = ["auto_null", "echo_cancel"]

[volume]
enabled = true
`)

	opts := &testOptions{Config: path}
	if err := LoadConfig(opts, nil); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if opts.CombinedSinkName != "auto_combined" {
		t.Errorf("CombinedSinkName = %q, want auto_combined", opts.CombinedSinkName)
	}
	if opts.EnumRetries != 5 {
		t.Errorf("EnumRetries = %d, want 5", opts.EnumRetries)
	}
	if !opts.VolumeEnabled {
		t.Error("VolumeEnabled = false, want true")
	}
	if want := []string{"auto_null", "echo_cancel"}; !reflect.DeepEqual(opts.IgnoreSinks, want) {
		t.Errorf("IgnoreSinks = %v, want %v", opts.IgnoreSinks, want)
	}
}

func TestEnvOverridesTOML(t *testing.T) {
	path := writeTempConfig(t, `
[reconcile]
enum_retries = 5
`)

	t.Setenv("AUDIONODE_ENUM_RETRIES", "2")
	t.Setenv("AUDIONODE_IGNORE_SINKS", "a, b")

	opts := &testOptions{Config: path}
	if err := LoadConfig(opts, nil); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if opts.EnumRetries != 2 {
		t.Errorf("EnumRetries = %d, want env override 2", opts.EnumRetries)
	}
	if want := []string{"a", "b"}; !reflect.DeepEqual(opts.IgnoreSinks, want) {
		t.Errorf("IgnoreSinks = %v, want %v", opts.IgnoreSinks, want)
	}
}

func TestMissingConfigFileIsNotAnError(t *testing.T) {
	opts := &testOptions{Config: "/nonexistent/audionode.toml", EnumRetries: 5}
	if err := LoadConfig(opts, nil); err != nil {
		t.Fatalf("LoadConfig with missing file: %v", err)
	}
	if opts.EnumRetries != 5 {
		t.Errorf("defaults modified: EnumRetries = %d", opts.EnumRetries)
	}
}

func TestLoadLoggingConfig(t *testing.T) {
	path := writeTempConfig(t, `
[logging]
level = "debug"
format = "json"
file = "/var/log/audionode.log"

[logging.modules]
reconciler = "debug"
api = "warn"
`)

	cfg := LoadLoggingConfig(path)
	if cfg.Level != "debug" || cfg.Format != "json" {
		t.Errorf("got level=%q format=%q", cfg.Level, cfg.Format)
	}
	if cfg.File != "/var/log/audionode.log" {
		t.Errorf("File = %q", cfg.File)
	}
	if cfg.Modules["reconciler"] != "debug" || cfg.Modules["api"] != "warn" {
		t.Errorf("Modules = %v", cfg.Modules)
	}
}

func TestFieldNameToFlag(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Port", "port"},
		{"LoggingLevel", "logging-level"},
		{"CombinedSinkName", "combined-sink-name"},
	}
	for _, tt := range tests {
		if got := fieldNameToFlag(tt.in); got != tt.want {
			t.Errorf("fieldNameToFlag(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
