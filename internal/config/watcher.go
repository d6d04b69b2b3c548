package config

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher holds the live config snapshot and reloads it when the file
// changes. Only safe-to-swap sections (pipeline prompts, geo bounds)
// take effect at runtime; transport and database settings require a
// restart and are read once at startup.
type Watcher struct {
	path    string
	current atomic.Pointer[Config]
}

// NewWatcher creates a watcher seeded with cfg.
func NewWatcher(path string, cfg *Config) *Watcher {
	w := &Watcher{path: path}
	w.current.Store(cfg)
	return w
}

// Snapshot returns the current config. The returned value must not be
// mutated.
func (w *Watcher) Snapshot() *Config {
	return w.current.Load()
}

// Watch blocks until ctx is done, reloading the config on file writes.
// Editors often replace files via rename, so the parent directory is
// watched rather than the file itself.
func (w *Watcher) Watch(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		return err
	}

	// Debounce rapid write bursts from editors.
	var pending *time.Timer
	reload := func() {
		cfg, err := Load(w.path)
		if err != nil {
			slog.Warn("config reload failed, keeping previous config", "error", err)
			return
		}
		if err := cfg.Validate(); err != nil {
			slog.Warn("reloaded config invalid, keeping previous config", "error", err)
			return
		}
		w.current.Store(cfg)
		slog.Info("config reloaded", "path", w.path)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != filepath.Clean(w.path) {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if pending != nil {
				pending.Stop()
			}
			pending = time.AfterFunc(200*time.Millisecond, reload)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("config watcher error", "error", err)
		}
	}
}
