package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/0xADE/ade-run/internal/app"
	"github.com/0xADE/ade-run/internal/config"
	"github.com/0xADE/ade-run/internal/session"
	"github.com/0xADE/ade-run/server"
)

func main() {
	// Initialize configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize config: %v\n", err)
		os.Exit(1)
	}

	// Create context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Start(ctx, cfg, app.Options{LogToStderr: true})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	requests := make(chan session.Request)

	// Create server
	srv, err := server.NewServer(cfg.UnixSocket, requests, a.Log)
	if err != nil {
		a.Log.Error("failed to create server", "socket", cfg.UnixSocket, "error", err)
		a.Close()
		os.Exit(1)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.Session.Run(gctx, a.Feed.Events(), requests)
	})

	g.Go(func() error {
		return srv.Start(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		return srv.Stop()
	})

	// Start config watcher
	watcher, err := config.Watch(cfg, a.Log)
	if err != nil {
		a.Log.Warn("config watcher unavailable", "error", err)
	} else {
		g.Go(func() error {
			watcher.Run(gctx)
			return nil
		})
		g.Go(func() error {
			return forwardConfigs(gctx, watcher.Updates(), requests)
		})
	}

	a.Log.Info("ade-run-ctld started", "socket", cfg.UnixSocket)

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		a.Log.Error("stopped", "error", err)
		a.Close()
		os.Exit(1)
	}

	a.Log.Info("ade-run-ctld stopped")
}

// forwardConfigs hands every reloaded configuration to the session loop
func forwardConfigs(ctx context.Context, updates <-chan *config.Config, requests chan<- session.Request) error {
	for cfg := range updates {
		select {
		case requests <- session.Request{Input: session.ConfigReloaded{Config: cfg}}:
		case <-ctx.Done():
			return nil
		}
	}
	return nil
}
