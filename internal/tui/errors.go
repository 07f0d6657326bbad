package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// wrapErr formats an error with a contextual prefix.
func wrapErr(context string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", context, err)
}

// errorCmd reports err to the status bar under context.
func errorCmd(context string, err error) tea.Cmd {
	return func() tea.Msg {
		return errorMsg{err: wrapErr(context, err)}
	}
}
