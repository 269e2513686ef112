package config

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"
)

type reloadConfig struct {
	VolumePercent int `toml:"volume_percent"`
	EnumRetries   int `toml:"enum_retries"`
}

func loadReloadConfig(path string) (reloadConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return reloadConfig{}, err
	}
	var cfg reloadConfig
	err = toml.Unmarshal(data, &cfg)
	return cfg, err
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestConfigWatcherReload(t *testing.T) {
	tmpFile, err := os.CreateTemp(t.TempDir(), "audionode_*.toml")
	if err != nil {
		t.Fatal(err)
	}
	tmpFile.WriteString("volume_percent = 85\nenum_retries = 5\n")
	tmpFile.Close()

	received := make(chan reloadConfig, 1)
	watcher := NewConfigWatcher(
		tmpFile.Name(),
		loadReloadConfig,
		newTestLogger(),
		WithDebounce[reloadConfig](50*time.Millisecond),
	)

	watcher.OnReload(func(cfg reloadConfig) {
		select {
		case received <- cfg:
		default:
		}
	})

	if startErr := watcher.Start(); startErr != nil {
		t.Fatal(startErr)
	}
	defer watcher.Stop()

	// Wait for watcher to initialize
	time.Sleep(100 * time.Millisecond)

	if writeErr := os.WriteFile(tmpFile.Name(), []byte("volume_percent = 60\nenum_retries = 3\n"), 0o644); writeErr != nil {
		t.Fatal(writeErr)
	}

	select {
	case cfg := <-received:
		if cfg.VolumePercent != 60 || cfg.EnumRetries != 3 {
			t.Errorf("got %+v, want volume_percent=60 enum_retries=3", cfg)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for reload notification")
	}
}

func TestConfigWatcherUnsubscribe(t *testing.T) {
	tmpFile, err := os.CreateTemp(t.TempDir(), "audionode_*.toml")
	if err != nil {
		t.Fatal(err)
	}
	tmpFile.WriteString("volume_percent = 85\n")
	tmpFile.Close()

	watcher := NewConfigWatcher(
		tmpFile.Name(),
		loadReloadConfig,
		newTestLogger(),
		WithDebounce[reloadConfig](20*time.Millisecond),
	)

	called := make(chan struct{}, 4)
	unsub := watcher.OnReload(func(reloadConfig) {
		called <- struct{}{}
	})
	unsub()

	if startErr := watcher.Start(); startErr != nil {
		t.Fatal(startErr)
	}
	defer watcher.Stop()

	time.Sleep(50 * time.Millisecond)
	os.WriteFile(tmpFile.Name(), []byte("volume_percent = 10\n"), 0o644)

	select {
	case <-called:
		t.Error("handler called after unsubscribe")
	case <-time.After(300 * time.Millisecond):
	}
}
