package logging

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func resetState() {
	mutex.Lock()
	moduleLoggers = make(map[string]*slog.Logger)
	moduleLevelVars = make(map[string]*slog.LevelVar)
	logFile = nil
	isInitialized = false
	mutex.Unlock()
}

func TestModuleLevelOverride(t *testing.T) {
	resetState()

	Initialize(Config{
		Level:  "info",
		Format: "text",
		Modules: map[string]string{
			"reconciler": "debug",
			"api":        "warn",
		},
	})

	tests := []struct {
		module    string
		wantDebug bool
		wantInfo  bool
		wantWarn  bool
	}{
		{"reconciler", true, true, true},
		{"api", false, false, true},
		{"other", false, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.module, func(t *testing.T) {
			handler := GetLogger(tt.module).Handler()

			gotDebug := handler.Enabled(context.Background(), slog.LevelDebug)
			gotInfo := handler.Enabled(context.Background(), slog.LevelInfo)
			gotWarn := handler.Enabled(context.Background(), slog.LevelWarn)

			if gotDebug != tt.wantDebug {
				t.Errorf("module %q: Debug enabled = %v, want %v", tt.module, gotDebug, tt.wantDebug)
			}
			if gotInfo != tt.wantInfo {
				t.Errorf("module %q: Info enabled = %v, want %v", tt.module, gotInfo, tt.wantInfo)
			}
			if gotWarn != tt.wantWarn {
				t.Errorf("module %q: Warn enabled = %v, want %v", tt.module, gotWarn, tt.wantWarn)
			}
		})
	}
}

func TestRingBuffer(t *testing.T) {
	rb := NewRingBuffer(3)

	for i, msg := range []string{"one", "two", "three", "four"} {
		rb.Write(LogEntry{
			Timestamp: time.Now(),
			Level:     "info",
			Module:    "test",
			Message:   msg,
		})
		want := i + 1
		if want > 3 {
			want = 3
		}
		if rb.Count() != want {
			t.Fatalf("after %d writes: Count() = %d, want %d", i+1, rb.Count(), want)
		}
	}

	entries := rb.ReadAll()
	if len(entries) != 3 {
		t.Fatalf("ReadAll() returned %d entries, want 3", len(entries))
	}
	// Oldest entry ("one") must have been overwritten
	if entries[0].Message != "two" || entries[2].Message != "four" {
		t.Errorf("unexpected order: %q .. %q", entries[0].Message, entries[2].Message)
	}
}

func TestFileHandlerAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "diag", "audionode.log")

	levelVar := &slog.LevelVar{}
	fh, err := NewFileHandler(path, levelVar)
	if err != nil {
		t.Fatalf("NewFileHandler: %v", err)
	}
	defer fh.Close()

	logger := slog.New(fh).With("module", "reconciler")
	logger.Info("pass complete", "endpoints", 2)
	logger.Info("pass complete", "endpoints", 3)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if !strings.Contains(lines[0], "[reconciler]") || !strings.Contains(lines[0], "endpoints=2") {
		t.Errorf("unexpected first line: %q", lines[0])
	}
}

func TestFormatLogLine(t *testing.T) {
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	line := FormatLogLine(LogEntry{
		Timestamp:  ts,
		Level:      "warn",
		Module:     "watcher",
		Message:    "card removed",
		Attributes: map[string]any{"card": 1, "action": "remove"},
	})

	for _, want := range []string{"[WARN]", "[watcher]", "card removed", "action=remove", "card=1"} {
		if !strings.Contains(line, want) {
			t.Errorf("line %q missing %q", line, want)
		}
	}
}
