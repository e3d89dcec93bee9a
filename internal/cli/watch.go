package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rileyhilliard/nasmon/internal/errors"
	"github.com/rileyhilliard/nasmon/internal/monitor"
	"github.com/rileyhilliard/nasmon/internal/ui"
)

// watchCommand runs the poller behind the dashboard until the user quits.
func watchCommand(ctx context.Context) error {
	if !ui.IsTerminal(os.Stdout) {
		return errors.New(errors.ErrConfig,
			"watch needs an interactive terminal",
			"Use 'nasmon status' or 'nasmon serve' when output is redirected")
	}

	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ag := newAgent(cfg)
	defer ag.Close()

	updates, unsubscribe := monitor.Feed(ag.Subscribe)
	defer unsubscribe()

	runCtx, cancelRun := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = ag.Run(runCtx)
	}()

	model := monitor.NewModel(cfg.Host, ag.Current(), updates, func(ctx context.Context) {
		ag.Refresh(ctx)
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, runErr := p.Run()

	// The poller has to stop before the agent closes underneath it.
	cancelRun()
	<-done

	if runErr != nil && ctx.Err() == nil {
		return errors.WrapWithCode(runErr, errors.ErrConfig,
			"Dashboard error",
			"Check terminal compatibility or use 'nasmon status'")
	}
	return nil
}
