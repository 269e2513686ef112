// Package logging provides structured logging with per-module log level configuration.
//
// The logging system uses Go's slog package with automatic output routing:
//   - systemd journal when available (journald systems)
//   - stdout when a terminal, pipe, or file is connected
//   - an in-memory ring buffer serving the logs API and SSE stream
//   - an optional append-only diagnostic log file
//
// Initialize once at startup:
//
//	logging.Initialize(logging.Config{
//		Level:  "info",
//		Format: "text",
//		File:   "/var/log/audionode.log",
//		Modules: map[string]string{
//			"reconciler": "debug",
//			"api":        "warn",
//		},
//	})
//
// Get a logger for your module:
//
//	logger := logging.GetLogger("reconciler")
//	logger.Info("Pass complete", "endpoints", 2)
//
// When running under systemd:
//
//	journalctl -t audionode -f
//	journalctl -t audionode MODULE=reconciler
//
// Example TOML configuration:
//
//	[logging]
//	level = "info"
//	format = "text"
//	file = "/var/log/audionode.log"
//
//	[logging.modules]
//	reconciler = "debug"
//	api = "warn"
package logging
