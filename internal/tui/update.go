package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/0xADE/ade-run/internal/config"
	"github.com/0xADE/ade-run/internal/indexer"
	"github.com/0xADE/ade-run/internal/session"
)

// MsgEntries carries a batch of feed events
type MsgEntries []indexer.Event

// MsgConfig carries a reloaded configuration
type MsgConfig struct{ Config *config.Config }

func waitForEvents(events <-chan indexer.Event) tea.Cmd {
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return MsgEntries(session.Drain(events, ev))
	}
}

func waitForConfig(configs <-chan *config.Config) tea.Cmd {
	if configs == nil {
		return nil
	}
	return func() tea.Msg {
		cfg, ok := <-configs
		if !ok {
			return nil
		}
		return MsgConfig{Config: cfg}
	}
}

// Update handles events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.height = msg.Height
		m.input.Width = msg.Width - len(m.view.Mode().String()) - 4
		return m, nil

	case MsgEntries:
		m.sess.Apply(msg...)
		m.view = m.sess.View()
		return m, waitForEvents(m.events)

	case MsgConfig:
		m = m.handle(session.ConfigReloaded{Config: msg.Config})
		return m, waitForConfig(m.configs)

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m = m.handle(session.Cancel{})
		case tea.KeyTab:
			m = m.handle(session.CycleMode{})
		case tea.KeyUp, tea.KeyCtrlP:
			m = m.handle(session.MoveUp{})
		case tea.KeyDown, tea.KeyCtrlN:
			m = m.handle(session.MoveDown{})
		case tea.KeyEnter:
			m = m.handle(session.Execute{})
		default:
			var cmd tea.Cmd
			before := m.input.Value()
			m.input, cmd = m.input.Update(msg)
			if m.input.Value() != before {
				m = m.handle(session.QueryChanged{Text: m.input.Value()})
			}
			return m, cmd
		}

		if m.quitting {
			return m, tea.Quit
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handle(in session.Input) Model {
	res := m.sess.Handle(in)

	m.view = res.View
	m.err = res.Err
	if res.Launched != nil {
		m.launched = res.Launched
	}
	if res.Exit {
		m.quitting = true
		m.cancelled = res.Cancelled
	}
	return m
}
