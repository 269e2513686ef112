package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/pelletier/go-toml/v2"
	"github.com/smazurov/audionode/cmd"
	"github.com/smazurov/audionode/internal/api"
	"github.com/smazurov/audionode/internal/config"
	"github.com/smazurov/audionode/internal/events"
	"github.com/smazurov/audionode/internal/logging"
	"github.com/smazurov/audionode/internal/metrics"
	"github.com/smazurov/audionode/internal/mixer"
	"github.com/smazurov/audionode/internal/pulse"
	"github.com/smazurov/audionode/internal/reconciler"
	"github.com/smazurov/audionode/internal/systemd"
	"github.com/smazurov/audionode/internal/updater"
	"github.com/smazurov/audionode/internal/volume"
	"github.com/smazurov/audionode/internal/watcher"
	"github.com/smazurov/audionode/pkg/linuxaudio/alsa"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"config.toml"`

	// Server settings
	Port string `help:"Port to listen on" short:"p" default:":8090" toml:"server.port" env:"SERVER_PORT"`

	// Audio settings
	CombinedSinkName string `help:"Name for the combined sink" default:"auto_combined" toml:"audio.combined_sink" env:"AUDIO_COMBINED_SINK"`
	ReconcileRetries int    `help:"Extra enumeration attempts when no sinks are found" default:"5" toml:"audio.reconcile_retries" env:"AUDIO_RECONCILE_RETRIES"`
	RetryInterval    string `help:"Delay between enumeration attempts" default:"1s" toml:"audio.retry_interval" env:"AUDIO_RETRY_INTERVAL"`
	SettleDelay      string `help:"Boot settle delay when only the fallback sink is present" default:"3s" toml:"audio.settle_delay" env:"AUDIO_SETTLE_DELAY"`
	VolumePercent    int    `help:"Volume level for USB card mixer controls" default:"85" toml:"audio.volume_percent" env:"AUDIO_VOLUME_PERCENT"`
	HotplugDebounce  string `help:"Quiet period after a hotplug burst before reconciling" default:"2s" toml:"audio.hotplug_debounce" env:"AUDIO_HOTPLUG_DEBOUNCE"`
	SoundServiceName string `help:"Sound server systemd unit controlled via the API" default:"pipewire-pulse.service" toml:"audio.sound_service" env:"AUDIO_SOUND_SERVICE"`

	// Auth settings
	AuthUsername string `help:"Basic auth username" default:"admin" toml:"auth.username" env:"AUTH_USERNAME"`
	AuthPassword string `help:"Basic auth password" default:"password" toml:"auth.password" env:"AUTH_PASSWORD"`

	// Update settings
	UpdateRepository string `help:"GitHub repository slug for self-update" default:"smazurov/audionode" toml:"update.repository" env:"UPDATE_REPOSITORY"`
	UpdatePrerelease bool   `help:"Include prerelease versions in update checks" default:"false" toml:"update.prerelease" env:"UPDATE_PRERELEASE"`

	// Logging settings
	LoggingLevel      string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat     string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingFile       string `help:"Append diagnostic log to this file" default:"" toml:"logging.file" env:"LOGGING_FILE"`
	LoggingReconciler string `help:"Reconciler logging level" default:"info" toml:"logging.reconciler" env:"LOGGING_RECONCILER"`
	LoggingPulse      string `help:"Sound server client logging level" default:"info" toml:"logging.pulse" env:"LOGGING_PULSE"`
	LoggingVolume     string `help:"Volume adjuster logging level" default:"info" toml:"logging.volume" env:"LOGGING_VOLUME"`
	LoggingWatcher    string `help:"Hotplug watcher logging level" default:"info" toml:"logging.watcher" env:"LOGGING_WATCHER"`
	LoggingAPI        string `help:"API logging level" default:"info" toml:"logging.api" env:"LOGGING_API"`
}

// audioSettings is the subset of config reloaded while the daemon runs.
type audioSettings struct {
	Audio struct {
		VolumePercent int `toml:"volume_percent"`
	} `toml:"audio"`
}

func parseDurationOr(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

func main() {
	// Create Huma CLI
	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		// Load configuration automatically
		if loadErr := config.LoadConfig(opts, nil); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		// Initialize logging system
		loggingConfig := logging.Config{
			Level:  opts.LoggingLevel,
			Format: opts.LoggingFormat,
			File:   opts.LoggingFile,
			Modules: map[string]string{
				"reconciler": opts.LoggingReconciler,
				"pulse":      opts.LoggingPulse,
				"volume":     opts.LoggingVolume,
				"watcher":    opts.LoggingWatcher,
				"api":        opts.LoggingAPI,
			},
		}
		logging.Initialize(loggingConfig)

		logger := logging.GetLogger("main")

		// Create event bus for in-process event handling
		eventBus := events.New()
		m := metrics.New()

		// Feed new log entries to the bus for the SSE log stream
		logging.SetLogCallback(func(entry logging.LogEntry) {
			eventBus.Publish(events.LogEntryEvent{
				Timestamp:  entry.Timestamp.Format(time.RFC3339Nano),
				Level:      entry.Level,
				Module:     entry.Module,
				Message:    entry.Message,
				Attributes: entry.Attributes,
			})
		})

		defaults := reconciler.DefaultRetryPolicy()
		policy := reconciler.RetryPolicy{
			MaxAttempts:   opts.ReconcileRetries,
			RetryInterval: parseDurationOr(opts.RetryInterval, defaults.RetryInterval),
			SettleDelay:   parseDurationOr(opts.SettleDelay, defaults.SettleDelay),
		}

		pulseClient := pulse.NewClient()
		rec := reconciler.New(pulseClient,
			reconciler.WithPolicy(policy),
			reconciler.WithCombinedName(opts.CombinedSinkName),
			reconciler.WithBus(eventBus),
			reconciler.WithMetrics(m))

		adjuster := volume.New(mixer.NewClient(),
			volume.WithPercent(opts.VolumePercent),
			volume.WithBus(eventBus),
			volume.WithMetrics(m))

		hotplugWatcher := watcher.New(rec,
			watcher.WithDebounce(parseDurationOr(opts.HotplugDebounce, watcher.DefaultDebounce)),
			watcher.WithBus(eventBus),
			watcher.WithVolumeRunner(adjuster))

		// Systemd manager is optional; the API degrades gracefully without it
		systemdManager, sdErr := systemd.NewManager(context.Background())
		if sdErr != nil {
			logger.Warn("Systemd unavailable, service control disabled", "error", sdErr)
		}

		updateService, updErr := updater.NewService(&updater.Options{
			Repository: opts.UpdateRepository,
			Prerelease: opts.UpdatePrerelease,
		})
		if updErr != nil {
			logger.Warn("Update service unavailable", "error", updErr)
		}

		apiOpts := &api.Options{
			AuthUsername:     opts.AuthUsername,
			AuthPassword:     opts.AuthPassword,
			SoundServer:      pulseClient,
			Reconciler:       rec,
			VolumeAdjuster:   adjuster,
			CardLister:       alsa.ListCards,
			SystemdManager:   systemdManager,
			SoundServiceName: opts.SoundServiceName,
			UpdateService:    updateService,
			EventBus:         eventBus,
			MetricsHandler:   m.Handler(),
		}

		server := api.NewServer(apiOpts)

		// Reload the USB volume target when the config file changes
		var configWatcher *config.Watcher[audioSettings]
		if opts.Config != "" {
			configWatcher = config.NewConfigWatcher(
				opts.Config,
				func(path string) (audioSettings, error) {
					var settings audioSettings
					data, err := os.ReadFile(path)
					if err != nil {
						return settings, err
					}
					err = toml.Unmarshal(data, &settings)
					return settings, err
				},
				logger,
			)
			configWatcher.OnReload(func(settings audioSettings) {
				if settings.Audio.VolumePercent > 0 {
					logger.Info("Volume target reloaded", "percent", settings.Audio.VolumePercent)
					adjuster.SetPercent(settings.Audio.VolumePercent)
				}
			})
		}

		hooks.OnStart(func() {
			ctx := context.Background()

			if startErr := hotplugWatcher.Start(ctx); startErr != nil {
				logger.Warn("Hotplug monitoring unavailable", "error", startErr)
			}

			if configWatcher != nil {
				if startErr := configWatcher.Start(); startErr != nil {
					logger.Warn("Config watching unavailable", "error", startErr)
				}
			}

			// Bring routing into shape before serving requests
			if _, recErr := rec.Run(ctx); recErr != nil {
				logger.Error("Initial reconciliation failed", "error", recErr)
			}
			if volErr := adjuster.Run(ctx); volErr != nil {
				logger.Warn("Initial volume adjustment failed", "error", volErr)
			}

			logger.Info("Starting HTTP server", "port", opts.Port)
			if startErr := server.Start(opts.Port); startErr != nil && !errors.Is(startErr, http.ErrServerClosed) {
				logger.Error("Failed to start HTTP server", "error", startErr)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down server")
			if stopErr := server.Stop(); stopErr != nil {
				logger.Error("Error stopping HTTP server", "error", stopErr)
			}

			hotplugWatcher.Stop()

			if configWatcher != nil {
				if stopErr := configWatcher.Stop(); stopErr != nil {
					logger.Error("Error stopping config watcher", "error", stopErr)
				}
			}

			if systemdManager != nil {
				systemdManager.Close()
			}
		})
	})

	cli.Root().AddCommand(cmd.CreateReconcileCmd())
	cli.Root().AddCommand(cmd.CreateCardsCmd())
	cli.Root().AddCommand(cmd.CreateUSBVolumeCmd())
	cli.Root().AddCommand(cmd.CreateUpdateCmd())

	// Run the CLI
	cli.Run()
}
