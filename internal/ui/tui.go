// ABOUTME: TUI initialization and control
// ABOUTME: Wraps the bubbletea program and its channels back to main
package ui

import (
	"github.com/Sendspin/filterplay/pkg/biquad"
	"github.com/Sendspin/filterplay/pkg/tap"
	tea "github.com/charmbracelet/bubbletea"
)

// FilterControl holds channels for filter control communication
type FilterControl struct {
	Changes chan FilterChangeMsg
	Quit    chan QuitMsg
}

// FilterChangeMsg carries the full tuple after a key press
type FilterChangeMsg struct {
	Params tap.Params
}

// QuitMsg signals that the user asked to quit
type QuitMsg struct{}

// NewFilterControl creates a new filter control handler
func NewFilterControl() *FilterControl {
	return &FilterControl{
		Changes: make(chan FilterChangeMsg, 10),
		Quit:    make(chan QuitMsg, 1),
	}
}

// NewModel creates a new TUI model
func NewModel(ctrl *FilterControl, params tap.Params, filterType biquad.Type) Model {
	return Model{
		params:     params,
		filterType: filterType,
		ctrl:       ctrl,
	}
}

// Run creates the TUI program; the caller starts it with Run
func Run(ctrl *FilterControl, params tap.Params, filterType biquad.Type) *tea.Program {
	return tea.NewProgram(NewModel(ctrl, params, filterType), tea.WithAltScreen())
}
