// ABOUTME: TUI initialization and control
// ABOUTME: Wraps the bubbletea program for the daemon's meter display
package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// TUI runs the meter display
type TUI struct {
	program  *tea.Program
	quitChan chan struct{}
}

// New creates a TUI polling poll and driving controls
func New(poll StatusFunc, controls Controls) *TUI {
	t := &TUI{quitChan: make(chan struct{}, 1)}
	t.program = tea.NewProgram(NewModel(poll, controls, t.quitChan), tea.WithAltScreen())
	return t
}

// Run blocks until the TUI exits
func (t *TUI) Run() error {
	_, err := t.program.Run()
	return err
}

// Stop asks the TUI to exit
func (t *TUI) Stop() {
	t.program.Quit()
}

// QuitChan signals when the user quits from the TUI
func (t *TUI) QuitChan() <-chan struct{} {
	return t.quitChan
}
