package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/0xADE/ade-run/internal/app"
	"github.com/0xADE/ade-run/internal/config"
	"github.com/0xADE/ade-run/internal/instance"
	"github.com/0xADE/ade-run/internal/tui"
)

// errCancelled ends the process with a failure status without printing anything
var errCancelled = errors.New("cancelled")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "ade-run",
		Short: "Type-to-filter application launcher",
		Long: `ade-run lists installed desktop applications and the lines of
user-defined modes, filters them while you type and launches the selection.

Tab switches modes, Enter launches, Esc quits.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := run(cmd.Context(), mode)
			if errors.Is(err, errCancelled) {
				cmd.SilenceErrors = true
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", "", "Mode to open first (default: desktop applications)")

	return cmd
}

func run(ctx context.Context, mode string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	lock := instance.New(filepath.Join(filepath.Dir(cfg.UnixSocket), "run.lock"))
	if err := lock.TryLock(); err != nil {
		if errors.Is(err, instance.ErrRunning) {
			fmt.Fprintln(os.Stderr, "ade-run is already open")
		}
		return err
	}
	defer lock.Unlock()

	a, err := app.Start(ctx, cfg, app.Options{Mode: mode})
	if err != nil {
		return err
	}
	defer a.Close()

	var configs <-chan *config.Config
	watcher, err := config.Watch(a.Config, a.Log)
	if err != nil {
		a.Log.Warn("config watcher unavailable", "error", err)
	} else {
		go watcher.Run(ctx)
		configs = watcher.Updates()
	}

	p := tea.NewProgram(tui.New(a.Session, a.Feed.Events(), configs), tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("failed to run interface: %w", err)
	}

	m := final.(tui.Model)
	if l := m.Launched(); l != nil {
		a.Log.Info("session finished", "mode", l.Mode, "entry", l.Entry, "pid", l.Pid)
	}
	if m.Cancelled() {
		return errCancelled
	}
	return nil
}
