package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/sandeepkv93/remindd/internal/model"
	"github.com/sandeepkv93/remindd/internal/storage"
)

type LsCmd struct {
	flags *Flags
	env   *Env

	pending    bool
	jsonOutput bool
}

func NewLsCmd(flags *Flags, env *Env) *LsCmd {
	return &LsCmd{flags: flags, env: env}
}

func (cmd *LsCmd) Register(root *cli.Command) *cli.Command {
	root.Commands = append(root.Commands, &cli.Command{
		Name:      "ls",
		Usage:     "List tasks",
		UsageText: "remindd ls [--pending] [--json]",
		Description: `Displays every task ordered by due time together with the delivery state
recorded in the reminder ledger.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "pending",
				Usage:       "only tasks that are not done",
				Destination: &cmd.pending,
			},
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output as JSON lines",
				Destination: &cmd.jsonOutput,
			},
		},
		Action: cmd.run,
	})
	return root
}

type taskLine struct {
	model.Task
	Notified bool `json:"notified"`
}

func (cmd *LsCmd) run(ctx context.Context, c *cli.Command) error {
	tasks, err := cmd.env.Repo.LoadTasks(ctx)
	if err != nil {
		return fmt.Errorf("load tasks: %w", err)
	}
	records, err := cmd.env.Repo.ListReminders(ctx, storage.ReminderFilter{})
	if err != nil {
		return fmt.Errorf("list reminders: %w", err)
	}
	notified := make(map[int64]bool, len(records))
	for _, r := range records {
		notified[r.ID] = r.Notified
	}

	slices.SortStableFunc(tasks, func(a, b model.Task) int { return a.Time.Compare(b.Time) })
	if cmd.pending {
		tasks = slices.DeleteFunc(tasks, func(t model.Task) bool { return t.Done })
	}

	out := c.Root().Writer
	if len(tasks) == 0 {
		if !cmd.jsonOutput {
			fmt.Fprintf(os.Stderr, "No tasks found\n")
		}
		return nil
	}

	if cmd.jsonOutput {
		enc := json.NewEncoder(out)
		for _, t := range tasks {
			if err := enc.Encode(taskLine{Task: t, Notified: notified[t.ID]}); err != nil {
				return fmt.Errorf("encode task: %w", err)
			}
		}
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tDUE\tREPEAT\tSTATE")
	for _, t := range tasks {
		state := "pending"
		switch {
		case t.Done:
			state = "done"
		case notified[t.ID]:
			state = "notified"
		}
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", t.ID, t.Name, t.Time.Format("2006-01-02 15:04"), t.Repeat, state)
	}
	return w.Flush()
}
