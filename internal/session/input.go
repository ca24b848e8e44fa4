package session

import (
	"github.com/0xADE/ade-run/internal/config"
)

// Input is a user action fed to the session
type Input interface {
	input()
}

type (
	// QueryChanged replaces the query text
	QueryChanged struct{ Text string }
	// CycleMode activates the next mode, wrapping after the last one
	CycleMode struct{}
	// SetMode activates the mode with the given display name
	SetMode struct{ Name string }
	// MoveUp moves the selection one row up
	MoveUp struct{}
	// MoveDown moves the selection one row down
	MoveDown struct{}
	// Select moves the selection to a row of the current view
	Select struct{ Index int }
	// Execute launches the selected row
	Execute struct{}
	// ExecuteRow selects a row of the current view and launches it in one step
	ExecuteRow struct{ Index int }
	// Cancel ends the session without launching anything
	Cancel struct{}
	// Reset clears the query and returns to the first mode
	Reset struct{}
	// Refresh reports the current view without changing it
	Refresh struct{}
	// ConfigReloaded carries a configuration read after a file change
	ConfigReloaded struct{ Config *config.Config }
)

func (QueryChanged) input()   {}
func (CycleMode) input()      {}
func (SetMode) input()        {}
func (MoveUp) input()         {}
func (MoveDown) input()       {}
func (Select) input()         {}
func (Execute) input()        {}
func (ExecuteRow) input()     {}
func (Cancel) input()         {}
func (Reset) input()          {}
func (Refresh) input()        {}
func (ConfigReloaded) input() {}

// Request pairs an input with the channel its result is sent to
type Request struct {
	Input Input
	Reply chan<- Result
}

// Launched describes a started command
type Launched struct {
	Mode  string
	Entry string
	Argv  []string
	Pid   int
}

// Result is the outcome of one input
type Result struct {
	View      View
	Launched  *Launched
	Err       error
	Exit      bool // The front-end should close
	Cancelled bool
}
