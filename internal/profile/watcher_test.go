package profile

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/char5742/tabletctl/internal/config"
	"github.com/char5742/tabletctl/internal/wacom/wacomtest"
)

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func writeConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	// 一時ファイルに書いてからrenameする
	tmp := path + ".tmp"
	if err := config.SaveConfig(tmp, cfg); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatal(err)
	}
}

func TestWatcher_ReappliesOnConfigChangeAndHotplug(t *testing.T) {
	dir := t.TempDir()
	inputDir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")

	cfg := config.DefaultConfig()
	cfg.Watch.Debounce = 20 * time.Millisecond
	cfg.Watch.InputDir = inputDir
	cfg.Profiles = []config.Profile{{Match: "Pen stylus", Threshold: intPtr(11)}}
	writeConfig(t, configPath, cfg)

	fake := wacomtest.New()
	fake.AddDevice("Wacom Intuos Pro M Pen stylus", 9, "STYLUS")

	w := NewWatcher(fake, configPath, cfg, log.New(io.Discard, "", 0))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Watch(ctx) }()
	defer func() {
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Watch returned error: %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Error("Watch did not stop after cancel")
		}
	}()

	waitFor(t, "initial apply", func() bool {
		d, _ := fake.Device(9)
		return d.Threshold == 11
	})

	updated := config.DefaultConfig()
	updated.Watch = cfg.Watch
	updated.Profiles = []config.Profile{{Match: "Pen stylus", Threshold: intPtr(42)}}
	writeConfig(t, configPath, updated)

	waitFor(t, "reapply after config change", func() bool {
		d, _ := fake.Device(9)
		return d.Threshold == 42
	})
	if got := w.Config().Profiles[0].Threshold; got == nil || *got != 42 {
		t.Fatalf("watcher config not reloaded: %v", got)
	}

	// 新しいタブレットの接続
	fake.AddDevice("Wacom Cintiq 16 Pen stylus", 21, "STYLUS")
	if err := os.WriteFile(filepath.Join(inputDir, "event21"), nil, 0644); err != nil {
		t.Fatal(err)
	}

	waitFor(t, "apply to hot-plugged device", func() bool {
		d, _ := fake.Device(21)
		return d.Threshold == 42
	})
}

func TestWatcher_KeepsConfigOnInvalidReload(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")

	cfg := config.DefaultConfig()
	cfg.Watch.Debounce = 10 * time.Millisecond
	cfg.Watch.InputDir = ""
	cfg.Profiles = []config.Profile{{Match: "Pen", Threshold: intPtr(3)}}
	writeConfig(t, configPath, cfg)

	fake := wacomtest.New()
	w := NewWatcher(fake, configPath, cfg, log.New(io.Discard, "", 0))

	if err := os.WriteFile(configPath, []byte("[tool\n"), 0644); err != nil {
		t.Fatal(err)
	}
	w.reload()

	if w.Config() != cfg {
		t.Fatal("invalid config should not replace the current one")
	}
}
