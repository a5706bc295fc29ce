package config

import (
	"errors"
	"strings"
	"time"
)

type Config struct {
	Telegram  TelegramConfig  `json:"telegram"`
	Logging   LoggingConfig   `json:"logging"`
	Storage   StorageConfig   `json:"storage,omitempty"`
	Retention RetentionConfig `json:"retention,omitempty"`
	Notify    NotifyConfig    `json:"notify,omitempty"`
}

type TelegramConfig struct {
	Token string `json:"token"`
	// PollTimeout is a Go duration string (e.g. "10s", "2m").
	PollTimeout string `json:"poll_timeout,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// StorageConfig selects the task store backend.
//
// Example:
//
//	"storage": { "driver": "sqlite", "path": "./remindbot.db" }
type StorageConfig struct {
	Driver      string `json:"driver,omitempty"`
	Path        string `json:"path,omitempty"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

// RetentionConfig controls pruning of completed tasks.
// An empty schedule disables the janitor.
type RetentionConfig struct {
	// PruneSchedule is a cron spec or descriptor (e.g. "@hourly").
	PruneSchedule string `json:"prune_schedule,omitempty"`
	// Horizon is how long completed tasks are kept, a Go duration string.
	Horizon string `json:"horizon,omitempty"`
}

// NotifyConfig throttles outbound Telegram sends.
type NotifyConfig struct {
	RatePerSec int `json:"rate_per_sec,omitempty"`
}

// Validate rejects configs the app cannot start with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Telegram.Token) == "" {
		return errors.New("telegram.token is required")
	}
	if _, err := ParseDuration(c.Telegram.PollTimeout, 0); err != nil {
		return errors.New("telegram.poll_timeout: " + err.Error())
	}
	if _, err := ParseDuration(c.Storage.BusyTimeout, 0); err != nil {
		return errors.New("storage.busy_timeout: " + err.Error())
	}
	if _, err := ParseDuration(c.Retention.Horizon, 0); err != nil {
		return errors.New("retention.horizon: " + err.Error())
	}
	return nil
}

// ParseDuration parses a Go duration string, returning def for empty input.
func ParseDuration(s string, def time.Duration) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return def, nil
	}
	return time.ParseDuration(s)
}
