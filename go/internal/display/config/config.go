package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is returned by Validate for unusable settings
var ErrInvalid = errors.New("invalid configuration")

const (
	RendererTUI = "tui"
	RendererLog = "log"
)

// Config holds the display client settings.
// Precedence is defaults, then the YAML file, then the environment.
type Config struct {
	Endpoint          string        `yaml:"endpoint"`
	ReconnectInterval time.Duration `yaml:"reconnect_interval"`
	Renderer          string        `yaml:"renderer"`
	LogLevel          string        `yaml:"log_level"`
	// LogFile receives logs while the TUI owns the terminal
	LogFile     string `yaml:"log_file"`
	NATSSubject string `yaml:"nats_subject"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		Endpoint:          "ws://localhost:8080/ws",
		ReconnectInterval: 3 * time.Second,
		Renderer:          RendererTUI,
		LogLevel:          "info",
		LogFile:           "racewall.log",
		NATSSubject:       "race.state",
	}
}

// Load builds the configuration. An empty path skips the YAML file.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Endpoint = getEnv("RACEWALL_ENDPOINT", c.Endpoint)
	c.ReconnectInterval = getEnvAsDuration("RACEWALL_RECONNECT_INTERVAL", c.ReconnectInterval)
	c.Renderer = getEnv("RACEWALL_RENDERER", c.Renderer)
	c.LogLevel = getEnv("RACEWALL_LOG_LEVEL", c.LogLevel)
	c.LogFile = getEnv("RACEWALL_LOG_FILE", c.LogFile)
	c.NATSSubject = getEnv("RACEWALL_NATS_SUBJECT", c.NATSSubject)
}

// Validate reports the first unusable setting
func (c Config) Validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("%w: endpoint is required", ErrInvalid)
	}
	if c.ReconnectInterval <= 0 {
		return fmt.Errorf("%w: reconnect_interval must be positive, got %s", ErrInvalid, c.ReconnectInterval)
	}
	switch c.Renderer {
	case RendererTUI, RendererLog:
	default:
		return fmt.Errorf("%w: unknown renderer %q", ErrInvalid, c.Renderer)
	}
	if _, err := c.Level(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// Level parses LogLevel
func (c Config) Level() (zerolog.Level, error) {
	return zerolog.ParseLevel(c.LogLevel)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsDuration accepts a Go duration ("3s") or a bare number of milliseconds
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(value); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return defaultValue
}
