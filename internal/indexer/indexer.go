package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/0xADE/ade-run/internal/entry"
	"github.com/0xADE/ade-run/internal/indexer/custom"
	"github.com/0xADE/ade-run/internal/indexer/desktop"
)

const eventBuffer = 100

// Feed runs the acquisition producers and funnels their discoveries into
// one channel. Producers never touch the catalog; the consumer does.
type Feed struct {
	log    *slog.Logger
	events chan Event

	ctx    context.Context
	cancel context.CancelFunc
	group  *errgroup.Group

	mu      sync.Mutex
	sources map[string]bool
	running int
	closed  bool
}

// NewFeed creates a feed whose producers stop when ctx is cancelled
func NewFeed(ctx context.Context, log *slog.Logger) *Feed {
	ctx, cancel := context.WithCancel(ctx)
	group, gctx := errgroup.WithContext(ctx)

	return &Feed{
		log:     log.With("component", "feed"),
		events:  make(chan Event, eventBuffer),
		ctx:     gctx,
		cancel:  cancel,
		group:   group,
		sources: make(map[string]bool),
	}
}

// Events returns the channel all producers deliver to.
// It is closed by Stop once every producer has returned.
func (f *Feed) Events() <-chan Event {
	return f.events
}

// StartDesktop walks dirs for desktop entries in the background
func (f *Feed) StartDesktop(dirs []string) {
	f.spawn("desktop", func(ctx context.Context) error {
		results := make(chan desktop.Result, eventBuffer)
		go func() {
			if err := desktop.Scan(ctx, dirs, results); err != nil && !errors.Is(err, context.Canceled) {
				f.log.Warn("desktop scan stopped", "error", err)
			}
		}()

		count := 0
		for res := range results {
			var ev Event
			switch {
			case errors.Is(res.Err, desktop.ErrHidden):
				continue
			case res.Err != nil:
				ev.Err = fmt.Errorf("%w: %s: %w", ErrAcquisition, res.Path, res.Err)
			default:
				ev.Desktop = res.Entry
				count++
			}
			if !f.send(ctx, ev) {
				return nil
			}
		}

		f.log.Debug("desktop scan finished", "entries", count)
		return nil
	})
}

// StartCustom starts the source command of a custom mode unless it is
// already running or has run. It reports whether a new source was started.
func (f *Feed) StartCustom(mode, command string) bool {
	f.mu.Lock()
	if f.sources[mode] || f.closed {
		f.mu.Unlock()
		return false
	}
	f.sources[mode] = true
	f.mu.Unlock()

	f.spawn("custom:"+mode, func(ctx context.Context) error {
		lines := make(chan string, eventBuffer)
		done := make(chan error, 1)
		go func() {
			done <- custom.Stream(ctx, command, lines)
			close(lines)
		}()

		for text := range lines {
			if !f.send(ctx, Event{Custom: &entry.CustomEntry{Mode: mode, Text: text}}) {
				break
			}
		}

		if err := <-done; err != nil && !errors.Is(err, context.Canceled) {
			f.send(ctx, Event{Err: fmt.Errorf("%w: mode %s: %w", ErrAcquisition, mode, err)})
		}
		return nil
	})
	return true
}

// Running returns the number of producers that have not finished
func (f *Feed) Running() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

// Stop cancels all producers, waits for them and closes the events channel.
func (f *Feed) Stop() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	f.mu.Unlock()

	f.cancel()
	_ = f.group.Wait()
	close(f.events)
}

func (f *Feed) spawn(name string, fn func(ctx context.Context) error) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	defer f.mu.Unlock()
	f.running++

	f.log.Debug("producer started", "producer", name)
	f.group.Go(func() error {
		defer func() {
			f.mu.Lock()
			f.running--
			f.mu.Unlock()
			f.log.Debug("producer finished", "producer", name)
		}()
		return fn(f.ctx)
	})
}

func (f *Feed) send(ctx context.Context, ev Event) bool {
	select {
	case f.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
