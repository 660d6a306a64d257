package main

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/sandeepkv93/remindd/internal/app"
	"github.com/sandeepkv93/remindd/internal/bridge"
	"github.com/sandeepkv93/remindd/internal/config"
	"github.com/sandeepkv93/remindd/internal/logging"
	"github.com/sandeepkv93/remindd/internal/notify"
	"github.com/sandeepkv93/remindd/internal/scheduler"
	"github.com/sandeepkv93/remindd/internal/storage"
)

// Populated at build-time via -ldflags.
var (
	version = "dev"
	commit  = "HEAD"
)

func build() string {
	v, c := version, commit
	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := info.Main.Version; mv != "" && mv != "(devel)" {
				v = mv
			}
			for _, s := range info.Settings {
				if s.Key == "vcs.revision" {
					c = s.Value
				}
			}
		}
	}
	if len(c) > 7 {
		c = c[:7]
	}
	return fmt.Sprintf("%s (%s)", v, c)
}

// Flags are the global flags shared by every command.
type Flags struct {
	LogLevel   string
	LogFile    string
	ConfigPath string
	DataDir    string
}

// Env holds what Before opened for the command being run.
type Env struct {
	Config  *config.Config
	Repo    *storage.SQLiteRepository
	Mailbox *bridge.Mailbox
	Logger  zerolog.Logger
}

// Deps builds app dependencies using the desktop notifier and speech.
func (e *Env) Deps(waker scheduler.Waker) app.Deps {
	return app.Deps{
		Repo:     e.Repo,
		Mailbox:  e.Mailbox,
		Notifier: notify.NewExecNotifier(),
		Speaker:  notify.NewExecSpeaker(),
		Waker:    waker,
		Logger:   e.Logger,
	}
}

func main() {
	ctx := context.Background()

	var (
		logCloser func()
		flags     = &Flags{}
		env       = &Env{}
	)

	root := &cli.Command{
		Name:      "remindd",
		Usage:     "Task reminders with timed desktop notifications",
		UsageText: "remindd [global options] command [command options]",
		Description: `remindd keeps a list of timed tasks and reminds you when they are due.

Run 'remindd' with no arguments to open the interactive task list.
Run 'remindd poll' alongside it to deliver reminders while the list is closed,
or 'remindd run' for both in one headless process.`,
		Version: build(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (trace, debug, info, warn, error)",
				Sources:     cli.EnvVars("REMINDD_LOG_LEVEL"),
				Value:       "info",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file (defaults to <data-dir>/remindd.log)",
				Sources:     cli.EnvVars("REMINDD_LOG_FILE"),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("REMINDD_CONFIG"),
				Value:       config.DefaultConfigPath(),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "data-dir",
				Usage:       "path to data directory",
				Sources:     cli.EnvVars("REMINDD_DATA_DIR"),
				Destination: &flags.DataDir,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			cfg, err := config.Load(flags.ConfigPath, flags.DataDir)
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}

			logFile := flags.LogFile
			if logFile == "" {
				logFile = cfg.LogFile()
			}
			logger, closer, err := logging.New(flags.LogLevel, logFile)
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			log.Logger = logger
			logCloser = closer

			repo, err := storage.OpenSQLite(cfg.DatabasePath())
			if err != nil {
				return ctx, fmt.Errorf("open database: %w", err)
			}
			mailbox, err := bridge.NewMailbox(cfg.MailboxDir(), nil, logging.Component(logger, "mailbox"))
			if err != nil {
				_ = repo.Close()
				return ctx, fmt.Errorf("open mailbox: %w", err)
			}

			*env = Env{Config: cfg, Repo: repo, Mailbox: mailbox, Logger: logger}
			logger.Debug().Str("data_dir", cfg.DataDir).Str("cmd", c.Name).Msg("startup")
			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if env.Repo != nil {
				if err := env.Repo.Close(); err != nil {
					log.Error().Err(err).Msg("failed to close database")
					return err
				}
			}
			if logCloser != nil {
				logCloser()
			}
			return nil
		},
	}

	tuiCmd := NewTuiCmd(flags, env)

	root = NewRunCmd(flags, env).Register(root)
	root = NewPollCmd(flags, env).Register(root)
	root = NewAddCmd(flags, env).Register(root)
	root = NewLsCmd(flags, env).Register(root)

	root.Action = func(ctx context.Context, c *cli.Command) error {
		if c.Args().Len() > 0 {
			return fmt.Errorf("unknown command %q. Run 'remindd --help' for usage", c.Args().First())
		}
		return tuiCmd.Run(ctx, c)
	}

	exitCode := 0
	if err := root.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		exitCode = 1
	}
	os.Exit(exitCode)
}
