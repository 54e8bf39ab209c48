package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Run starts an interactive session and blocks until the user quits or ctx
// is cancelled.
func Run(ctx context.Context, asker Asker, opts ...Option) error {
	if asker == nil {
		return fmt.Errorf("asker is required")
	}

	m := New(ctx, asker, opts...)

	programOpts := []tea.ProgramOption{tea.WithContext(ctx)}
	if m.config.Input != nil {
		programOpts = append(programOpts, tea.WithInput(m.config.Input))
	}
	if m.config.Output != nil {
		programOpts = append(programOpts, tea.WithOutput(m.config.Output))
	}

	if _, err := tea.NewProgram(m, programOpts...).Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("chat session failed: %w", err)
	}
	return nil
}
