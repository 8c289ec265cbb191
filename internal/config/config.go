// Package config loads client and mock-server settings from a YAML file,
// then the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/smartstocks/pvp-tui/internal/mock"
)

type Config struct {
	API     APIConfig     `yaml:"api"`
	Auth    AuthConfig    `yaml:"auth"`
	Session SessionConfig `yaml:"session"`
	Log     LogConfig     `yaml:"log"`
	Mock    MockConfig    `yaml:"mock"`
}

type APIConfig struct {
	BaseURL string `yaml:"base_url" env:"PVP_API_URL"`
	// WSURL defaults to BaseURL with the scheme switched to ws/wss.
	WSURL string `yaml:"ws_url" env:"PVP_WS_URL"`
}

type AuthConfig struct {
	Token    string `yaml:"token" env:"PVP_TOKEN"`
	Email    string `yaml:"email" env:"PVP_EMAIL"`
	Password string `yaml:"password" env:"PVP_PASSWORD"`
}

type SessionConfig struct {
	PingInterval time.Duration `yaml:"ping_interval" env:"PVP_PING_INTERVAL"`
	HistoryLimit int           `yaml:"history_limit" env:"PVP_HISTORY_LIMIT"`
}

type LogConfig struct {
	Level string `yaml:"level" env:"PVP_LOG_LEVEL"`
	// File receives the TUI log. The mock server logs to stderr when empty.
	File string `yaml:"file" env:"PVP_LOG_FILE"`
}

type MockConfig struct {
	Addr  string      `yaml:"addr" env:"PVP_MOCK_ADDR"`
	Token string      `yaml:"token" env:"PVP_MOCK_TOKEN"`
	User  string      `yaml:"user" env:"PVP_MOCK_USER"`
	Match mock.Config `yaml:"match" envPrefix:"PVP_MOCK_"`
}

// Default returns the settings used when no file is present.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: "http://127.0.0.1:8081",
		},
		Session: SessionConfig{
			PingInterval: 30 * time.Second,
			HistoryLimit: 20,
		},
		Log: LogConfig{
			Level: "info",
			File:  "pvp-tui.log",
		},
		Mock: MockConfig{
			Addr:  "127.0.0.1:8081",
			Token: "dev-token",
			User:  "trader",
			Match: mock.DefaultConfig(),
		},
	}
}

// Load reads path over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault is Load, except a missing file yields the defaults.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// ApplyEnv overlays PVP_* environment variables. Unset variables leave the
// current value alone.
func (c *Config) ApplyEnv() error {
	if err := env.Parse(c); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate checks URLs, durations and the log level.
func (c *Config) Validate() error {
	var errs []error
	if _, err := parseURL(c.API.BaseURL, "http", "https"); err != nil {
		errs = append(errs, fmt.Errorf("api.base_url: %w", err))
	}
	if c.Log.Level != "" {
		if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
			errs = append(errs, fmt.Errorf("log.level: %w", err))
		}
	}
	if c.API.WSURL != "" {
		if _, err := parseURL(c.API.WSURL, "ws", "wss"); err != nil {
			errs = append(errs, fmt.Errorf("api.ws_url: %w", err))
		}
	}
	if c.Session.PingInterval < 0 {
		errs = append(errs, errors.New("session.ping_interval must not be negative"))
	}
	if c.Session.HistoryLimit <= 0 {
		errs = append(errs, errors.New("session.history_limit must be positive"))
	}
	m := c.Mock.Match
	if m.Rounds <= 0 {
		errs = append(errs, errors.New("mock.match.rounds must be positive"))
	}
	if m.TimeLimit <= 0 {
		errs = append(errs, errors.New("mock.match.time_limit_seconds must be positive"))
	}
	if m.BotAccuracy < 0 || m.BotAccuracy > 1 {
		errs = append(errs, errors.New("mock.match.bot_accuracy must be within [0, 1]"))
	}
	if m.MatchDelay < 0 || m.Grace < 0 || m.BotMinThink < 0 || m.BotMaxThink < 0 {
		errs = append(errs, errors.New("mock.match durations must not be negative"))
	}
	return errors.Join(errs...)
}

// WSBase returns the WebSocket base URL, derived from the REST base when not
// set explicitly: http://host:port becomes ws://host:port.
func (c *Config) WSBase() string {
	if c.API.WSURL != "" {
		return c.API.WSURL
	}
	u, err := url.Parse(c.API.BaseURL)
	if err != nil {
		return "ws://127.0.0.1:8081"
	}
	scheme := "ws"
	if u.Scheme == "https" {
		scheme = "wss"
	}
	return fmt.Sprintf("%s://%s%s", scheme, u.Host, strings.TrimRight(u.Path, "/"))
}

func parseURL(raw string, schemes ...string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%q has no host", raw)
	}
	for _, s := range schemes {
		if u.Scheme == s {
			return u, nil
		}
	}
	return nil, fmt.Errorf("%q: scheme must be one of %s", raw, strings.Join(schemes, ", "))
}
