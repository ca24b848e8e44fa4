// Package app wires the launcher components for the command binaries.
package app

import (
	"context"
	"log/slog"

	"github.com/0xADE/ade-run/internal/catalog"
	"github.com/0xADE/ade-run/internal/config"
	"github.com/0xADE/ade-run/internal/indexer"
	"github.com/0xADE/ade-run/internal/launch"
	"github.com/0xADE/ade-run/internal/logging"
	"github.com/0xADE/ade-run/internal/session"
	"github.com/0xADE/ade-run/internal/usage"
)

// App is a running launcher core
type App struct {
	Config  *config.Config
	Log     *slog.Logger
	Store   *usage.Store // nil when the database could not be opened
	Feed    *indexer.Feed
	Session *session.Session

	closeLog func()
}

// Options adjusts Start
type Options struct {
	LogToStderr bool
	Mode        string // Mode to activate first, empty for the desktop mode
}

// Start sets up logging, opens the usage store and begins the desktop
// scan. Only logging errors and an unknown first mode are fatal.
func Start(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	log, closeLog, err := logging.Setup(logging.Config{
		Level:         cfg.LogLevel,
		FilePath:      cfg.LogFile,
		WriteToStderr: opts.LogToStderr,
	})
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:   cfg,
		Log:      log,
		closeLog: closeLog,
	}

	var weights session.WeightStore
	a.Store, err = usage.Open(cfg.DBPath)
	if err != nil {
		log.Warn("usage store unavailable, launches will not be learned", "path", cfg.DBPath, "error", err)
	} else {
		weights = a.Store
	}

	a.Feed = indexer.NewFeed(ctx, log)
	a.Feed.StartDesktop(cfg.AppsDirs)
	log.Info("scanning desktop entries", "dirs", cfg.AppsDirs)

	a.Session = session.New(cfg, catalog.New(), weights, launch.Detached{}, a.Feed, log)
	if opts.Mode != "" {
		if res := a.Session.Handle(session.SetMode{Name: opts.Mode}); res.Err != nil {
			a.Close()
			return nil, res.Err
		}
	}

	return a, nil
}

// Close stops the sources and releases the store
func (a *App) Close() {
	a.Feed.Stop()
	if err := a.Store.Close(); err != nil {
		a.Log.Warn("failed to close usage store", "error", err)
	}
	a.closeLog()
}
