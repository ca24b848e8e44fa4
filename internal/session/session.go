package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/0xADE/ade-run/internal/catalog"
	"github.com/0xADE/ade-run/internal/config"
	"github.com/0xADE/ade-run/internal/entry"
	"github.com/0xADE/ade-run/internal/indexer"
	"github.com/0xADE/ade-run/internal/launch"
	"github.com/0xADE/ade-run/internal/usage"
)

const maxBatch = 256

var (
	// ErrNothingSelected is returned when executing with an empty view
	ErrNothingSelected = errors.New("nothing selected")
	// ErrUnknownMode is returned when activating a mode that is not configured
	ErrUnknownMode = errors.New("unknown mode")
)

// WeightStore persists desktop entry usage
type WeightStore interface {
	Weights(collection string) (map[string]uint8, error)
	RecordLaunch(e entry.DesktopEntry) (usage.Record, error)
}

// SourceStarter starts the source command of a custom mode
type SourceStarter interface {
	StartCustom(mode, command string) bool
}

// View is what a front-end renders
type View struct {
	Modes    []entry.Mode
	Active   int
	Query    string
	Selected int
	Matches  catalog.View
}

// Mode returns the active mode
func (v View) Mode() entry.Mode {
	return v.Modes[v.Active]
}

// Rows returns the display text of every row
func (v View) Rows() []string {
	if v.Matches.Mode.IsDesktop() {
		rows := make([]string, len(v.Matches.Desktop))
		for i, e := range v.Matches.Desktop {
			rows[i] = e.Name
		}
		return rows
	}
	return append([]string{}, v.Matches.Custom...)
}

// Session is the launcher state machine. All of its methods must be called
// from one goroutine; Run provides such a loop.
type Session struct {
	cfg    *config.Config
	cat    *catalog.Catalog
	store  WeightStore
	sink   launch.Sink
	source SourceStarter
	log    *slog.Logger

	modes    []entry.Mode
	active   int
	query    string
	selected int
	matches  catalog.View
}

// New creates a session over cat. store may be nil, which disables weight learning.
func New(cfg *config.Config, cat *catalog.Catalog, store WeightStore, sink launch.Sink, source SourceStarter, log *slog.Logger) *Session {
	s := &Session{
		cfg:    cfg,
		cat:    cat,
		store:  store,
		sink:   sink,
		source: source,
		log:    log.With("component", "session"),
		modes:  cfg.ModeList(),
	}
	s.activate()
	return s
}

// Run is the session event loop. It applies feed events and answers
// requests until ctx is done or requests is closed.
func (s *Session) Run(ctx context.Context, events <-chan indexer.Event, requests <-chan Request) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			s.Apply(Drain(events, ev)...)
		case req, ok := <-requests:
			if !ok {
				return nil
			}
			res := s.Handle(req.Input)
			if req.Reply != nil {
				select {
				case req.Reply <- res:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
	}
}

// Drain collects events that are already waiting so they are applied at once
func Drain(events <-chan indexer.Event, first indexer.Event) []indexer.Event {
	batch := []indexer.Event{first}
	for len(batch) < maxBatch {
		select {
		case ev, ok := <-events:
			if !ok {
				return batch
			}
			batch = append(batch, ev)
		default:
			return batch
		}
	}
	return batch
}

// View returns the current state for rendering
func (s *Session) View() View {
	return View{
		Modes:    append([]entry.Mode{}, s.modes...),
		Active:   s.active,
		Query:    s.query,
		Selected: s.selected,
		Matches:  s.matches,
	}
}

// Apply adds discovered entries to the catalog. The view is recomputed
// once when any of them belongs to the active mode.
func (s *Session) Apply(events ...indexer.Event) {
	current := s.modes[s.active]
	touched := false

	for _, ev := range events {
		switch {
		case ev.Err != nil:
			s.log.Debug("skipped source item", "error", ev.Err)
		case ev.Desktop != nil:
			s.cat.AddDesktop(*ev.Desktop)
			touched = touched || current.IsDesktop()
		case ev.Custom != nil:
			s.cat.AddCustom(ev.Custom.Mode, ev.Custom.Text)
			touched = touched || (!current.IsDesktop() && current.Name == ev.Custom.Mode)
		}
	}

	if touched {
		s.rematch(true)
	}
}

// Handle applies one input and reports the outcome
func (s *Session) Handle(in Input) Result {
	var res Result

	switch in := in.(type) {
	case QueryChanged:
		s.query = in.Text
		s.rematch(false)
	case CycleMode:
		s.active = (s.active + 1) % len(s.modes)
		s.activate()
	case SetMode:
		idx := s.modeIndex(in.Name)
		if idx < 0 {
			res.Err = fmt.Errorf("%w: %s", ErrUnknownMode, in.Name)
			break
		}
		s.active = idx
		s.activate()
	case MoveUp:
		if s.selected > 0 {
			s.selected--
		}
	case MoveDown:
		if n := s.matches.Len(); n != 0 && s.selected < n-1 {
			s.selected++
		}
	case Select:
		res.Err = s.selectRow(in.Index)
	case Execute:
		res.Launched, res.Err = s.execute()
		res.Exit = res.Err == nil && s.cfg.ExitAfterLaunch
	case ExecuteRow:
		if res.Err = s.selectRow(in.Index); res.Err != nil {
			break
		}
		res.Launched, res.Err = s.execute()
		res.Exit = res.Err == nil && s.cfg.ExitAfterLaunch
	case Cancel:
		res.Exit = true
		res.Cancelled = true
	case Reset:
		s.query = ""
		s.active = 0
		s.activate()
	case ConfigReloaded:
		s.reload(in.Config)
	case Refresh:
	}

	res.View = s.View()
	return res
}

// activate prepares the active mode: weights are loaded for the desktop
// mode and the source command is started for a custom mode.
func (s *Session) activate() {
	mode := s.modes[s.active]

	if mode.IsDesktop() {
		s.loadWeights()
	} else {
		s.cat.AddMode(mode.Name)
		if m, ok := s.cfg.Mode(mode.Name); ok && s.source != nil {
			if s.source.StartCustom(m.Name, m.Source) {
				s.log.Info("started mode source", "mode", m.Name, "command", m.Source)
			}
		}
	}

	s.rematch(false)
}

func (s *Session) loadWeights() {
	if s.store == nil {
		return
	}
	weights, err := s.store.Weights(usage.DesktopEntryCollection)
	if err != nil {
		s.log.Warn("failed to load usage weights", "error", err)
		return
	}
	s.cat.SetWeights(weights)
}

// rematch recomputes the view of the active mode. With keepSelection the
// selection follows the selected row to its new position, otherwise or when
// the row left the view it goes back to the first row.
func (s *Session) rematch(keepSelection bool) {
	rows := View{Matches: s.matches}.Rows()
	keep := ""
	if keepSelection && s.selected < len(rows) {
		keep = rows[s.selected]
	} else {
		keepSelection = false
	}

	s.matches = s.cat.Match(s.modes[s.active], s.query, s.cfg.EmptyLimit, s.cfg.CustomLimit)
	s.selected = 0

	if keepSelection {
		if i := slices.Index(View{Matches: s.matches}.Rows(), keep); i >= 0 {
			s.selected = i
		}
	}
}

func (s *Session) selectRow(i int) error {
	if i < 0 || i >= s.matches.Len() {
		return fmt.Errorf("%w: row %d of %d", ErrNothingSelected, i, s.matches.Len())
	}
	s.selected = i
	return nil
}

func (s *Session) execute() (*Launched, error) {
	if s.selected >= s.matches.Len() {
		return nil, ErrNothingSelected
	}

	mode := s.modes[s.active]
	if mode.IsDesktop() {
		return s.executeDesktop(s.matches.Desktop[s.selected])
	}
	return s.executeCustom(mode.Name, s.matches.Custom[s.selected])
}

func (s *Session) executeDesktop(e entry.DesktopEntry) (*Launched, error) {
	argv, err := launch.DesktopArgv(e, s.cfg.Terminal)
	if err != nil {
		return nil, err
	}

	pid, err := s.sink.Launch(argv)
	if err != nil {
		s.log.Error("failed to launch", "entry", e.Name, "argv", argv, "error", err)
		return nil, err
	}
	s.log.Info("launched", "entry", e.Name, "pid", pid)

	if s.store != nil {
		rec, err := s.store.RecordLaunch(e)
		if err != nil {
			s.log.Warn("failed to record usage", "entry", e.Name, "error", err)
		} else {
			s.cat.SetWeight(rec.Name, rec.Weight)
		}
	}

	return &Launched{Mode: entry.DesktopModeName, Entry: e.Name, Argv: argv, Pid: pid}, nil
}

func (s *Session) executeCustom(mode, text string) (*Launched, error) {
	m, ok := s.cfg.Mode(mode)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMode, mode)
	}

	argv, err := launch.CustomArgv(m.Target, text)
	if err != nil {
		return nil, err
	}

	pid, err := s.sink.Launch(argv)
	if err != nil {
		s.log.Error("failed to launch", "mode", mode, "argv", argv, "error", err)
		return nil, err
	}
	s.log.Info("launched", "mode", mode, "entry", text, "pid", pid)

	return &Launched{Mode: mode, Entry: text, Argv: argv, Pid: pid}, nil
}

// reload adopts a new configuration. Modes are only ever added: a mode
// that disappeared from the file keeps its old definition and its pool.
func (s *Session) reload(cfg *config.Config) {
	merged := *cfg
	merged.Modes = append([]config.Mode{}, cfg.Modes...)
	for _, old := range s.cfg.Modes {
		if _, ok := cfg.Mode(old.Name); !ok {
			merged.Modes = append(merged.Modes, old)
		}
	}
	s.cfg = &merged

	for _, m := range merged.Modes {
		if s.modeIndex(m.Name) < 0 {
			s.modes = append(s.modes, entry.Custom(m.Name))
			s.log.Info("mode added", "mode", m.Name)
		}
	}

	s.rematch(true)
}

func (s *Session) modeIndex(name string) int {
	for i, m := range s.modes {
		if m.String() == name {
			return i
		}
	}
	return -1
}
