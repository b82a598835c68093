package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/ytq/internal/shared"
	"github.com/desertthunder/ytq/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive download queue.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadConfig(cmd); err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	logPath := r.config.ResolveLogPath()
	fileLogger, err := shared.NewFileLogger(logPath)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)
	r.logger.Info("starting TUI", "output", r.config.ResolveOutputDir(), "max_concurrent", r.config.Downloads.MaxConcurrent)

	s := r.newSession(ctx)
	defer s.Close()

	model := ui.NewModel(ctx, ui.Opts{
		Orchestrator: s.orch,
		Logger:       r.logger,
		Tick:         r.config.TickInterval(),
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
