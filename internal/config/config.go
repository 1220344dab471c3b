// Package config handles the XDG configuration directory, config file and environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// AppName is the application directory name.
	AppName = "taskchat"

	// TokenFile is the stored bearer token filename.
	TokenFile = "token.json"

	// SettingsFile is the optional YAML settings filename.
	SettingsFile = "config.yaml"

	// StateFile remembers the selected conversation between runs.
	StateFile = "state.yaml"

	// DefaultBaseURL is used when no API base URL is configured.
	DefaultBaseURL = "http://localhost:8000"

	// DefaultTimeout is the per-request deadline.
	DefaultTimeout = 10 * time.Second
)

// Environment variables read by New.
const (
	EnvBaseURL = "TASKCHAT_API_BASE"
	EnvTimeout = "TASKCHAT_TIMEOUT"
	EnvDebug   = "TASKCHAT_DEBUG"
	EnvToken   = "TASKCHAT_TOKEN"
)

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// BaseURL is the backend API base URL.
	BaseURL string

	// Timeout bounds every backend request.
	Timeout time.Duration

	// Debug enables debug logging.
	Debug bool

	// Token is a bearer token from the environment. When set it is used
	// instead of token.json.
	Token string

	// Quiet suppresses informational output.
	Quiet bool

	// Logger receives diagnostics. It is set by the dispatcher.
	Logger *slog.Logger
}

// Log returns the configured logger, or one that discards everything.
func (c *Config) Log() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.Logger
}

// settings mirrors config.yaml.
type settings struct {
	BaseURL string `yaml:"base_url"`
	Timeout string `yaml:"timeout"`
	Debug   bool   `yaml:"debug"`
}

// New creates a new Config with the default or specified config directory.
// If configDir is empty, uses XDG_CONFIG_HOME/taskchat or $HOME/.config/taskchat.
// Values come from config.yaml, then environment variables.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	cfg := &Config{
		Dir:     dir,
		BaseURL: DefaultBaseURL,
		Timeout: DefaultTimeout,
	}

	if err := cfg.loadSettings(); err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return cfg, nil
}

// LoadDotEnv loads a .env file from the working directory into the process
// environment. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func (c *Config) loadSettings() error {
	data, err := os.ReadFile(c.SettingsPath())
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", SettingsFile, err)
	}

	var s settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("invalid %s: %w", SettingsFile, err)
	}
	if s.BaseURL != "" {
		c.BaseURL = s.BaseURL
	}
	if s.Timeout != "" {
		d, err := time.ParseDuration(s.Timeout)
		if err != nil || d <= 0 {
			return fmt.Errorf("invalid %s: timeout: %q", SettingsFile, s.Timeout)
		}
		c.Timeout = d
	}
	c.Debug = s.Debug
	return nil
}

func (c *Config) applyEnv() error {
	if v := strings.TrimSpace(os.Getenv(EnvBaseURL)); v != "" {
		c.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvTimeout)); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return fmt.Errorf("invalid %s: %q", EnvTimeout, v)
		}
		c.Timeout = d
	}
	if v := strings.TrimSpace(os.Getenv(EnvToken)); v != "" {
		c.Token = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvDebug)); v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %q", EnvDebug, v)
		}
		c.Debug = debug
	}
	return nil
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// TokenPath returns the path to the stored token file.
func (c *Config) TokenPath() string {
	return filepath.Join(c.Dir, TokenFile)
}

// SettingsPath returns the path to config.yaml.
func (c *Config) SettingsPath() string {
	return filepath.Join(c.Dir, SettingsFile)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}

// HasToken checks if the token file exists.
func (c *Config) HasToken() bool {
	_, err := os.Stat(c.TokenPath())
	return err == nil
}

// RemoveToken deletes the token file.
func (c *Config) RemoveToken() error {
	return os.Remove(c.TokenPath())
}

// State is the client state kept between runs.
type State struct {
	// Conversation is the selected conversation id, 0 for none.
	Conversation int64 `yaml:"conversation,omitempty"`
}

// StatePath returns the path to state.yaml.
func (c *Config) StatePath() string {
	return filepath.Join(c.Dir, StateFile)
}

// LoadState reads state.yaml. A missing file yields the zero State.
func (c *Config) LoadState() (State, error) {
	var st State
	data, err := os.ReadFile(c.StatePath())
	if errors.Is(err, fs.ErrNotExist) {
		return st, nil
	}
	if err != nil {
		return st, fmt.Errorf("failed to read %s: %w", StateFile, err)
	}
	if err := yaml.Unmarshal(data, &st); err != nil {
		return State{}, fmt.Errorf("invalid %s: %w", StateFile, err)
	}
	return st, nil
}

// SaveState writes state.yaml, creating the config directory if needed.
func (c *Config) SaveState(st State) error {
	if err := c.EnsureDir(); err != nil {
		return err
	}
	data, err := yaml.Marshal(st)
	if err != nil {
		return err
	}
	return os.WriteFile(c.StatePath(), data, 0600)
}
