// Package config loads the client and relay settings from an optional YAML
// file, .env files and the process environment, in that order of
// precedence (environment wins).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables read by Load.
const (
	EnvOpenAIKey     = "OPENAI_API_KEY"
	EnvOpenAIBaseURL = "OPENAI_BASE_URL"
	EnvGeminiKey     = "GEMINI_API_KEY"
	EnvPort          = "PORT"
	EnvCORSOrigin    = "CORS_ORIGIN"
	EnvRelayURL      = "DEVTIMER_RELAY_URL"
)

// DefaultFile is the config file looked up in the working directory when
// no path is given.
const DefaultFile = "devtimer.yaml"

// Config is the full application configuration.
type Config struct {
	Client ClientConfig `yaml:"client"`
	Relay  RelayConfig  `yaml:"relay"`
}

// ClientConfig drives the timer app.
type ClientConfig struct {
	RelayURL        string        `yaml:"relay_url"`
	SettingsPath    string        `yaml:"settings_path"` // empty = user config dir
	CacheDir        string        `yaml:"cache_dir"`
	DiskCache       bool          `yaml:"disk_cache"`
	LogFile         string        `yaml:"log_file"`
	LogLevel        string        `yaml:"log_level"`
	TickInterval    time.Duration `yaml:"tick_interval"`
	RestartDelay    time.Duration `yaml:"restart_delay"`
	FeedbackTimeout time.Duration `yaml:"feedback_timeout"`
	SaveDebounce    time.Duration `yaml:"save_debounce"`
}

// RelayConfig drives the relay server.
type RelayConfig struct {
	Port          int           `yaml:"port"`
	CORSOrigin    string        `yaml:"cors_origin"` // comma-separated, empty = any
	OpenAIKey     string        `yaml:"openai_api_key"`
	OpenAIBaseURL string        `yaml:"openai_base_url"`
	GeminiKey     string        `yaml:"gemini_api_key"`
	RateLimit     int           `yaml:"rate_limit"`
	RateWindow    time.Duration `yaml:"rate_window"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Client: ClientConfig{
			RelayURL:        "http://localhost:8787",
			CacheDir:        ".devtimer-cache",
			DiskCache:       true,
			LogFile:         ".devtimer-logs/devtimer.log",
			LogLevel:        "normal",
			TickInterval:    time.Second,
			RestartDelay:    100 * time.Millisecond,
			FeedbackTimeout: 30 * time.Second,
			SaveDebounce:    500 * time.Millisecond,
		},
		Relay: RelayConfig{
			Port:       8787,
			RateLimit:  20,
			RateWindow: time.Minute,
		},
	}
}

// LoadEnv reads .env files into the environment. Missing files are
// ignored; variables already set are kept.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("config: load %s: %w", f, err)
		}
	}
	return nil
}

// Load builds the configuration from defaults, the YAML file at path and
// the environment. An empty path tries DefaultFile and skips it when
// absent; an explicit path must exist.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := cfg.applyEnv(os.Getenv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// applyEnv overlays non-empty environment variables.
func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv(EnvOpenAIKey); v != "" {
		c.Relay.OpenAIKey = v
	}
	if v := getenv(EnvOpenAIBaseURL); v != "" {
		c.Relay.OpenAIBaseURL = v
	}
	if v := getenv(EnvGeminiKey); v != "" {
		c.Relay.GeminiKey = v
	}
	if v := getenv(EnvCORSOrigin); v != "" {
		c.Relay.CORSOrigin = v
	}
	if v := getenv(EnvRelayURL); v != "" {
		c.Client.RelayURL = v
	}
	if v := getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("config: %s=%q is not a number", EnvPort, v)
		}
		c.Relay.Port = port
	}
	return nil
}

// Validate checks values that would otherwise fail much later.
func (c Config) Validate() error {
	var errs []error
	if c.Relay.Port < 1 || c.Relay.Port > 65535 {
		errs = append(errs, fmt.Errorf("relay.port %d out of range", c.Relay.Port))
	}
	if c.Relay.RateLimit < 1 {
		errs = append(errs, fmt.Errorf("relay.rate_limit must be positive"))
	}
	if c.Relay.RateWindow <= 0 {
		errs = append(errs, fmt.Errorf("relay.rate_window must be positive"))
	}
	if c.Client.TickInterval <= 0 {
		errs = append(errs, fmt.Errorf("client.tick_interval must be positive"))
	}
	if c.Client.RestartDelay < 0 {
		errs = append(errs, fmt.Errorf("client.restart_delay must not be negative"))
	}
	if c.Client.FeedbackTimeout <= 0 {
		errs = append(errs, fmt.Errorf("client.feedback_timeout must be positive"))
	}
	if c.Client.RelayURL != "" &&
		!strings.HasPrefix(c.Client.RelayURL, "http://") && !strings.HasPrefix(c.Client.RelayURL, "https://") {
		errs = append(errs, fmt.Errorf("client.relay_url %q must be http(s)", c.Client.RelayURL))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// Addr returns the relay listen address.
func (r RelayConfig) Addr() string {
	return fmt.Sprintf(":%d", r.Port)
}
