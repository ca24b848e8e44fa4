package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads the configuration whenever the modes file changes
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
	log     *slog.Logger
	updates chan *Config
}

// Watch starts watching the directory of cfg's modes file.
// The directory is created if it does not exist yet.
func Watch(cfg *Config, log *slog.Logger) (*Watcher, error) {
	dir := filepath.Dir(cfg.ModesFile)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// Watch the directory
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, err
	}

	return &Watcher{
		path:    cfg.ModesFile,
		watcher: watcher,
		log:     log.With("component", "config"),
		updates: make(chan *Config, 1),
	}, nil
}

// Updates delivers every successfully reloaded configuration
func (w *Watcher) Updates() <-chan *Config {
	return w.updates
}

// Run forwards reloads until ctx is done, then closes the watcher
func (w *Watcher) Run(ctx context.Context) {
	defer w.watcher.Close()
	defer close(w.updates)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Name != w.path || !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) {
				continue
			}

			cfg, err := Load()
			if err != nil {
				w.log.Warn("failed to reload config", "path", w.path, "error", err)
				continue
			}
			w.log.Info("config reloaded", "path", w.path, "modes", len(cfg.Modes))

			select {
			case w.updates <- cfg:
			case <-ctx.Done():
				return
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("config watcher error", "error", err)
		}
	}
}
