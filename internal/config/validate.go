package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/hay-kot/criterio"
)

// Validate checks field ranges and, when configPath is set, that it is a file.
func (c *Config) Validate(configPath string) error {
	return criterio.ValidateStruct(
		validateConfigFile(configPath),
		criterio.Run("data_dir", c.DataDir, isDirectoryOrNotExist),
		criterio.Run("app_url", c.AppURL, isURLOrEmpty),
		criterio.Run("schedule.wake_tag", c.Schedule.WakeTag, isWakeTag),
		c.validateRanges(),
	)
}

func (c *Config) validateRanges() error {
	var errs criterio.FieldErrorsBuilder
	if c.Schedule.RecentWindow < 0 {
		errs = errs.Append("schedule.recent_window", fmt.Errorf("must not be negative"))
	}
	if c.Schedule.EngineBuffer < 1 {
		errs = errs.Append("schedule.engine_buffer", fmt.Errorf("must be at least 1"))
	}
	if c.Poll.Interval <= 0 {
		errs = errs.Append("poll.interval", fmt.Errorf("must be positive"))
	}
	if c.Poll.AcceptanceWindow <= 0 {
		errs = errs.Append("poll.acceptance_window", fmt.Errorf("must be positive"))
	}
	if c.Poll.ActionTimeout <= 0 {
		errs = errs.Append("poll.action_timeout", fmt.Errorf("must be positive"))
	}
	if c.Notifications.SnoozeMinutes < 1 {
		errs = errs.Append("notifications.snooze_minutes", fmt.Errorf("must be at least 1"))
	}
	return errs.ToError()
}

func validateConfigFile(configPath string) error {
	if configPath == "" {
		return nil
	}
	info, err := os.Stat(configPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("cannot access: %w", err))
	}
	if info.IsDir() {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("%s is a directory, not a file", configPath))
	}
	return nil
}

func isDirectoryOrNotExist(path string) error {
	if path == "" {
		return fmt.Errorf("cannot be empty")
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("cannot access: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("exists but is not a directory")
	}
	return nil
}

func isURLOrEmpty(raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("url %q must be absolute", raw)
	}
	return nil
}

func isWakeTag(tag string) error {
	if tag == "" || strings.ContainsAny(tag, `/\`) || strings.HasPrefix(tag, ".") {
		return fmt.Errorf("invalid wake tag %q", tag)
	}
	return nil
}
