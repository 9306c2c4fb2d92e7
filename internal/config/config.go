// Package config loads and validates the bot's YAML configuration.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	yaml "go.yaml.in/yaml/v3"
)

type Config struct {
	Telegram TelegramConfig `yaml:"telegram"`
	Storage  StorageConfig  `yaml:"storage"`
	Corpus   CorpusConfig   `yaml:"corpus"`
	Dispatch DispatchConfig `yaml:"dispatch"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type TelegramConfig struct {
	Token string `yaml:"token"`
	// AdminIDs is the privileged allow-list (operators + moderator).
	AdminIDs []int64 `yaml:"admin_ids"`
	// ModeratorChat receives proposal notifications.
	// Defaults to the first admin id.
	ModeratorChat int64 `yaml:"moderator_chat"`
	// PollTimeout is a Go duration string (e.g. "10s").
	PollTimeout string `yaml:"poll_timeout"`
}

type StorageConfig struct {
	Path string `yaml:"path"`
	// BusyTimeout is a Go duration string (sqlite busy_timeout pragma).
	BusyTimeout string `yaml:"busy_timeout"`
}

type CorpusConfig struct {
	// Path to the line-oriented quote seed file ("<text> - <author>" lines).
	Path string `yaml:"path"`
	// Similarity is the near-duplicate threshold in (0,1]; 0 selects the default.
	Similarity float64 `yaml:"similarity"`
}

type DispatchConfig struct {
	// Timezone is the IANA zone delivery times are interpreted in.
	Timezone string `yaml:"timezone"`
	// RatePerSec caps outbound sends per second.
	RatePerSec int `yaml:"rate_per_sec"`
	// DefaultTime is the delivery time new users start with ("HH:MM").
	DefaultTime string `yaml:"default_time"`
}

type LoggingConfig struct {
	Level   string      `yaml:"level"`
	Console bool        `yaml:"console"`
	File    LoggingFile `yaml:"file"`
}

type LoggingFile struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Load reads, strictly decodes and validates the config file.
// Unknown keys are rejected so typos surface at startup, not in production.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate %s: %w", path, err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Storage.Path == "" {
		c.Storage.Path = "./data/bot.db"
	}
	if c.Corpus.Path == "" {
		c.Corpus.Path = "./quotes.txt"
	}
	if c.Dispatch.DefaultTime == "" {
		c.Dispatch.DefaultTime = "09:00"
	}
	if c.Dispatch.RatePerSec <= 0 {
		c.Dispatch.RatePerSec = 25
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Telegram.ModeratorChat == 0 && len(c.Telegram.AdminIDs) > 0 {
		c.Telegram.ModeratorChat = c.Telegram.AdminIDs[0]
	}
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Telegram.Token) == "" {
		return errors.New("telegram.token is required")
	}
	if len(c.Telegram.AdminIDs) == 0 {
		return errors.New("telegram.admin_ids must not be empty")
	}
	if _, err := c.PollTimeout(); err != nil {
		return err
	}
	if _, err := c.BusyTimeout(); err != nil {
		return err
	}
	if c.Corpus.Similarity < 0 || c.Corpus.Similarity > 1 {
		return fmt.Errorf("corpus.similarity must be in [0,1], got %v", c.Corpus.Similarity)
	}
	if !validHHMM(c.Dispatch.DefaultTime) {
		return fmt.Errorf("dispatch.default_time must be HH:MM, got %q", c.Dispatch.DefaultTime)
	}
	if c.Dispatch.Timezone != "" {
		if _, err := time.LoadLocation(c.Dispatch.Timezone); err != nil {
			return fmt.Errorf("dispatch.timezone: %w", err)
		}
	}
	return nil
}

func (c *Config) PollTimeout() (time.Duration, error) {
	return parseDurationField("telegram.poll_timeout", c.Telegram.PollTimeout)
}

func (c *Config) BusyTimeout() (time.Duration, error) {
	return parseDurationField("storage.busy_timeout", c.Storage.BusyTimeout)
}

func parseDurationField(path, raw string) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", path, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: duration must be >= 0", path)
	}
	return d, nil
}

func validHHMM(s string) bool {
	t, err := time.Parse("15:04", s)
	return err == nil && t.Format("15:04") == s
}
