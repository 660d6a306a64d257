package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// FromEnv applies REMINDD_* overrides on top of base. Unparseable values
// are ignored.
func FromEnv(base Config) Config {
	cfg := base
	if v, ok := getEnvString("REMINDD_APP_URL"); ok {
		cfg.AppURL = v
	}
	if v, ok := getEnvString("REMINDD_DATA_DIR"); ok {
		cfg.DataDir = v
	}
	if v, ok := getEnvDuration("REMINDD_RECENT_WINDOW"); ok && v > 0 {
		cfg.Schedule.RecentWindow = v
	}
	if v, ok := getEnvString("REMINDD_WAKE_TAG"); ok {
		cfg.Schedule.WakeTag = v
	}
	if v, ok := getEnvInt("REMINDD_ENGINE_BUFFER"); ok && v > 0 {
		cfg.Schedule.EngineBuffer = v
	}
	if v, ok := getEnvDuration("REMINDD_POLL_INTERVAL"); ok && v > 0 {
		cfg.Poll.Interval = v
	}
	if v, ok := getEnvDuration("REMINDD_ACCEPTANCE_WINDOW"); ok && v > 0 {
		cfg.Poll.AcceptanceWindow = v
	}
	if v, ok := getEnvDuration("REMINDD_ACTION_TIMEOUT"); ok && v > 0 {
		cfg.Poll.ActionTimeout = v
	}
	if v, ok := getEnvBool("REMINDD_NOTIFICATIONS"); ok {
		cfg.Notifications.Enabled = v
	}
	if v, ok := getEnvBool("REMINDD_SPEECH"); ok {
		cfg.Notifications.Speech = v
	}
	if v, ok := getEnvInt("REMINDD_SNOOZE_MINUTES"); ok && v > 0 {
		cfg.Notifications.SnoozeMinutes = v
	}
	return cfg
}

func getEnvString(name string) (string, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	return raw, raw != ""
}

func getEnvInt(name string) (int, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

func getEnvDuration(name string) (time.Duration, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return 0, false
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

func getEnvBool(name string) (bool, bool) {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return false, false
	}
	switch raw {
	case "1", "true", "yes", "y", "on":
		return true, true
	case "0", "false", "no", "n", "off":
		return false, true
	default:
		return false, false
	}
}
