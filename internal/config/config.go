// Package config loads remindd settings from defaults, an optional YAML
// file and REMINDD_* environment variables, in that order.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const appName = "remindd"

type Config struct {
	AppURL        string              `yaml:"app_url"`
	DataDir       string              `yaml:"data_dir"`
	Schedule      ScheduleConfig      `yaml:"schedule"`
	Poll          PollConfig          `yaml:"poll"`
	Notifications NotificationsConfig `yaml:"notifications"`
}

type ScheduleConfig struct {
	// RecentWindow is how late a foreground timer may still fire.
	RecentWindow time.Duration `yaml:"recent_window"`
	WakeTag      string        `yaml:"wake_tag"`
	EngineBuffer int           `yaml:"engine_buffer"`
}

type PollConfig struct {
	Interval time.Duration `yaml:"interval"`
	// AcceptanceWindow is how late the background poller may still deliver.
	AcceptanceWindow time.Duration `yaml:"acceptance_window"`
	ActionTimeout    time.Duration `yaml:"action_timeout"`
}

type NotificationsConfig struct {
	Enabled       bool `yaml:"enabled"`
	Speech        bool `yaml:"speech"`
	SnoozeMinutes int  `yaml:"snooze_minutes"`
}

func DefaultConfig() Config {
	return Config{
		Schedule: ScheduleConfig{
			RecentWindow: 60 * time.Second,
			WakeTag:      "task-reminder-sync",
			EngineBuffer: 64,
		},
		Poll: PollConfig{
			Interval:         5 * time.Second,
			AcceptanceWindow: 10 * time.Second,
			ActionTimeout:    2 * time.Minute,
		},
		Notifications: NotificationsConfig{
			Enabled:       true,
			Speech:        true,
			SnoozeMinutes: 5,
		},
	}
}

// Load builds the configuration. A missing file at configPath is not an
// error. A non-empty dataDir overrides every other source.
func Load(configPath, dataDir string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	cfg = FromEnv(cfg)
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	cfg.applyDefaults()

	if err := cfg.Validate(configPath); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.DataDir == "" {
		c.DataDir = DefaultDataDir()
	}
	if c.Schedule.RecentWindow == 0 {
		c.Schedule.RecentWindow = defaults.Schedule.RecentWindow
	}
	if c.Schedule.WakeTag == "" {
		c.Schedule.WakeTag = defaults.Schedule.WakeTag
	}
	if c.Schedule.EngineBuffer == 0 {
		c.Schedule.EngineBuffer = defaults.Schedule.EngineBuffer
	}
	if c.Poll.Interval == 0 {
		c.Poll.Interval = defaults.Poll.Interval
	}
	if c.Poll.AcceptanceWindow == 0 {
		c.Poll.AcceptanceWindow = defaults.Poll.AcceptanceWindow
	}
	if c.Poll.ActionTimeout == 0 {
		c.Poll.ActionTimeout = defaults.Poll.ActionTimeout
	}
	if c.Notifications.SnoozeMinutes == 0 {
		c.Notifications.SnoozeMinutes = defaults.Notifications.SnoozeMinutes
	}
}

func (c Config) DatabasePath() string { return filepath.Join(c.DataDir, appName+".db") }
func (c Config) MailboxDir() string   { return filepath.Join(c.DataDir, "mailbox") }
func (c Config) WakeDir() string      { return filepath.Join(c.DataDir, "wake") }
func (c Config) LogFile() string      { return filepath.Join(c.DataDir, appName+".log") }

// DefaultDataDir is $XDG_DATA_HOME/remindd, falling back to
// ~/.local/share/remindd.
func DefaultDataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share", appName)
	}
	return filepath.Join(os.TempDir(), appName)
}

// DefaultConfigPath is $XDG_CONFIG_HOME/remindd/config.yaml.
func DefaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, appName, "config.yaml")
}
