package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/sandeepkv93/remindd/internal/app"
	"github.com/sandeepkv93/remindd/internal/update"
	"github.com/sandeepkv93/remindd/internal/wake"
)

type TuiCmd struct {
	flags *Flags
	env   *Env
}

func NewTuiCmd(flags *Flags, env *Env) *TuiCmd {
	return &TuiCmd{flags: flags, env: env}
}

// Run opens the interactive task list. Exported for use as the default
// command.
func (cmd *TuiCmd) Run(ctx context.Context, c *cli.Command) error {
	return cmd.run(ctx, c)
}

func (cmd *TuiCmd) run(ctx context.Context, _ *cli.Command) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	waker, err := wake.NewFileRegistrar(cmd.env.Config.WakeDir())
	if err != nil {
		return fmt.Errorf("wake registrar: %w", err)
	}

	a, err := app.New(*cmd.env.Config, cmd.env.Deps(waker))
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	if _, err := a.Start(ctx); err != nil {
		return err
	}
	go func() {
		if err := a.Run(ctx); err != nil {
			cmd.env.Logger.Error().Err(err).Msg("app loop stopped")
		}
	}()

	m := update.NewModel(ctx, update.NewAppBackend(a), update.Options{
		SnoozeMinutes: cmd.env.Config.Notifications.SnoozeMinutes,
	})
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}
