// Package config loads the bot settings.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Token       string        `yaml:"token"`
	DBPath      string        `yaml:"db_path"`
	PollTimeout time.Duration `yaml:"poll_timeout"`
	LogLevel    string        `yaml:"log_level"`
}

func Default() *Config {
	return &Config{
		DBPath:      "./notes.db",
		PollTimeout: 10 * time.Second,
		LogLevel:    "info",
	}
}

// Load builds the configuration from defaults, the optional YAML file at
// path, a .env file in the working directory and the environment, each
// overriding the previous one. Load does not validate.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	// .env never overrides variables already set in the environment.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("TELEGRAM_TOKEN"); v != "" {
		c.Token = v
	} else if v := os.Getenv("TOKEN"); v != "" {
		c.Token = v
	}
	if v := os.Getenv("NOTEBOT_DB"); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv("NOTEBOT_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("NOTEBOT_POLL_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("NOTEBOT_POLL_TIMEOUT: %w", err)
		}
		c.PollTimeout = d
	}
	return nil
}

// Validate checks the settings needed to run the bot.
func (c *Config) Validate() error {
	if c.Token == "" {
		return errors.New("no telegram token: set TELEGRAM_TOKEN")
	}
	if c.DBPath == "" {
		return errors.New("db path is empty")
	}
	if c.PollTimeout <= 0 {
		return fmt.Errorf("poll timeout must be positive, got %s", c.PollTimeout)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return slog.LevelInfo, fmt.Errorf("log level %q: %w", c.LogLevel, err)
	}
	return lvl, nil
}
