package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/sandeepkv93/remindd/internal/app"
	"github.com/sandeepkv93/remindd/internal/wake"
)

type RunCmd struct {
	flags *Flags
	env   *Env
}

func NewRunCmd(flags *Flags, env *Env) *RunCmd {
	return &RunCmd{flags: flags, env: env}
}

func (cmd *RunCmd) Register(root *cli.Command) *cli.Command {
	root.Commands = append(root.Commands, &cli.Command{
		Name:      "run",
		Usage:     "Run the reminder page and the background poller without a UI",
		UsageText: "remindd run",
		Description: `Runs foreground timers and the background poller in one process and
prints each reminder as it fires. Stop it with Ctrl-C.`,
		Action: cmd.run,
	})
	return root
}

func (cmd *RunCmd) run(ctx context.Context, c *cli.Command) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	waker := wake.NewChanRegistrar()
	a, err := app.New(*cmd.env.Config, cmd.env.Deps(waker))
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	rep, err := a.Start(ctx)
	if err != nil {
		return err
	}
	out := c.Root().Writer
	_, _ = fmt.Fprintf(out, "remindd running: %d task(s), %d armed, %d queued action(s) applied\n",
		len(a.Router().Tasks()), rep.Armed, rep.Drained)

	poller := a.NewPoller()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.Run(ctx) })
	g.Go(func() error { return poller.Run(ctx, waker.C()) })
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case ev := <-a.Events():
				if ev.Kind == app.EventAlert {
					_, _ = fmt.Fprintf(out, "%s ⏰ REMINDER: %s\n", ev.Task.Time.Format("15:04"), ev.Task.Name)
				}
			}
		}
	})
	return g.Wait()
}
