package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/sandeepkv93/remindd/internal/app"
	"github.com/sandeepkv93/remindd/internal/commands"
	"github.com/sandeepkv93/remindd/internal/model"
	"github.com/sandeepkv93/remindd/internal/wake"
)

type AddCmd struct {
	flags *Flags
	env   *Env

	at     string
	repeat string
}

func NewAddCmd(flags *Flags, env *Env) *AddCmd {
	return &AddCmd{flags: flags, env: env}
}

func (cmd *AddCmd) Register(root *cli.Command) *cli.Command {
	root.Commands = append(root.Commands, &cli.Command{
		Name:      "add",
		Usage:     "Add a task",
		UsageText: "remindd add --at <when> [--repeat daily] <name>",
		Description: `Adds a task and its reminder. <when> accepts 15:04, "2006-01-02 15:04",
RFC3339 or a relative offset such as +10m.

A running 'remindd poll' delivers the reminder if the task list is closed.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "at",
				Usage:       "when the reminder is due",
				Required:    true,
				Destination: &cmd.at,
			},
			&cli.StringFlag{
				Name:        "repeat",
				Usage:       "never, daily, weekly or monthly",
				Value:       string(model.RepeatNever),
				Destination: &cmd.repeat,
			},
		},
		Action: cmd.run,
	})
	return root
}

func (cmd *AddCmd) run(ctx context.Context, c *cli.Command) error {
	name := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if name == "" {
		return fmt.Errorf("add requires a task name")
	}
	at, err := commands.ParseWhen(cmd.at, time.Now())
	if err != nil {
		return err
	}
	repeat, err := model.ParseRepeat(cmd.repeat)
	if err != nil {
		return err
	}

	waker, err := wake.NewFileRegistrar(cmd.env.Config.WakeDir())
	if err != nil {
		return fmt.Errorf("wake registrar: %w", err)
	}
	a, err := app.New(*cmd.env.Config, cmd.env.Deps(waker))
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	if err := a.Router().Load(ctx); err != nil {
		return fmt.Errorf("load tasks: %w", err)
	}
	task, err := a.Router().Create(ctx, name, at, repeat)
	if err != nil {
		return fmt.Errorf("add task: %w", err)
	}
	_, _ = fmt.Fprintf(c.Root().Writer, "added #%d %s @ %s\n", task.ID, task.Name, task.Time.Format("2006-01-02 15:04"))
	return nil
}
