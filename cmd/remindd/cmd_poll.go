package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/sandeepkv93/remindd/internal/app"
	"github.com/sandeepkv93/remindd/internal/logging"
	"github.com/sandeepkv93/remindd/internal/wake"
)

type PollCmd struct {
	flags *Flags
	env   *Env

	once bool
}

func NewPollCmd(flags *Flags, env *Env) *PollCmd {
	return &PollCmd{flags: flags, env: env}
}

func (cmd *PollCmd) Register(root *cli.Command) *cli.Command {
	root.Commands = append(root.Commands, &cli.Command{
		Name:      "poll",
		Usage:     "Deliver due reminders in the background",
		UsageText: "remindd poll [--once]",
		Description: `Scans the reminder ledger every few seconds and whenever the task list
requests a wake-up, showing a desktop notification for each reminder that
just became due. Answers are queued for the task list.

Use --once to scan a single time, wait for answers and exit.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "once",
				Usage:       "scan once and exit",
				Destination: &cmd.once,
			},
		},
		Action: cmd.run,
	})
	return root
}

func (cmd *PollCmd) run(ctx context.Context, c *cli.Command) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	worker := app.NewWorker(*cmd.env.Config, cmd.env.Deps(nil))
	defer worker.Close()

	if cmd.once {
		res, err := worker.PollOnce(ctx)
		if err != nil {
			return fmt.Errorf("poll: %w", err)
		}
		worker.Wait()
		_, _ = fmt.Fprintf(c.Root().Writer, "delivered %d, failed %d, stale %d\n", res.Delivered, res.Failed, res.Stale)
		return nil
	}

	watcher, err := wake.NewWatcher(cmd.env.Config.WakeDir(), logging.Component(cmd.env.Logger, "wake"))
	if err != nil {
		return fmt.Errorf("watch wake dir: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	return worker.Run(ctx, watcher.C())
}
