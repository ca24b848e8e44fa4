// Package tui is the terminal front-end of the launcher. It renders a
// session and turns key presses into session inputs.
package tui

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/0xADE/ade-run/internal/config"
	"github.com/0xADE/ade-run/internal/indexer"
	"github.com/0xADE/ade-run/internal/session"
)

// Model holds the TUI state. The session is only touched from Update.
type Model struct {
	sess    *session.Session
	events  <-chan indexer.Event
	configs <-chan *config.Config

	input     textinput.Model
	view      session.View
	launched  *session.Launched
	err       error
	height    int
	quitting  bool
	cancelled bool
}

// New creates the model. events and configs may be nil.
func New(sess *session.Session, events <-chan indexer.Event, configs <-chan *config.Config) Model {
	ti := textinput.New()
	ti.Placeholder = "Search..."
	ti.CharLimit = 256
	ti.Prompt = ""
	ti.Focus()

	view := sess.View()
	ti.SetValue(view.Query)

	return Model{
		sess:    sess,
		events:  events,
		configs: configs,
		input:   ti,
		view:    view,
	}
}

// Launched returns the command started before the program quit, if any
func (m Model) Launched() *session.Launched {
	return m.launched
}

// Cancelled reports whether the user quit without launching
func (m Model) Cancelled() bool {
	return m.cancelled
}

// Init starts listening to the feed and config reloads.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, waitForEvents(m.events), waitForConfig(m.configs))
}
