// Package config provides YAML configuration loading for the workflow
// service.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the structure of the workflow service configuration file. CLI
// flags and environment variables override file values at wiring time.
type Config struct {
	Port        int    `yaml:"port"`
	LogLevel    string `yaml:"log_level"`
	DatabaseURL string `yaml:"database_url"`

	EventBus  EventBusConfig  `yaml:"event_bus"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	HTTP      HTTPConfig      `yaml:"http"`
}

// EventBusConfig selects and configures the record-change event channel.
type EventBusConfig struct {
	// Provider is "kafka" or "gochannel". The in-process gochannel provider
	// is for development and tests only.
	Provider string   `yaml:"provider"`
	Brokers  []string `yaml:"brokers"`
}

// SchedulerConfig controls the scheduled-rule poll loop.
type SchedulerConfig struct {
	Enabled      bool          `yaml:"enabled"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

// HTTPConfig controls outbound HTTP made by workflow actions.
type HTTPConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Port:     8087,
		LogLevel: "info",
		EventBus: EventBusConfig{
			Provider: "gochannel",
		},
		Scheduler: SchedulerConfig{
			Enabled:      true,
			PollInterval: time.Minute,
		},
		HTTP: HTTPConfig{
			Timeout: 30 * time.Second,
		},
	}
}

// Load reads and parses a configuration file, filling unset values from
// Default.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	config := Default()

	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return Config{}, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	return config.withDefaults(), nil
}

// LoadOrDefault loads the file when the path is set, otherwise returns the
// default configuration.
func LoadOrDefault(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}

	return Load(path)
}

// Validate checks the configuration for values the service cannot start
// without.
func (c Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("database_url is required")
	}

	switch c.EventBus.Provider {
	case "gochannel":
	case "kafka":
		if len(c.EventBus.Brokers) == 0 {
			return fmt.Errorf("event_bus: kafka provider requires brokers")
		}
	default:
		return fmt.Errorf("event_bus: unknown provider %q", c.EventBus.Provider)
	}

	return nil
}

func (c Config) withDefaults() Config {
	defaults := Default()

	if c.Port == 0 {
		c.Port = defaults.Port
	}

	if c.LogLevel == "" {
		c.LogLevel = defaults.LogLevel
	}

	if c.EventBus.Provider == "" {
		c.EventBus.Provider = defaults.EventBus.Provider
	}

	if c.Scheduler.PollInterval <= 0 {
		c.Scheduler.PollInterval = defaults.Scheduler.PollInterval
	}

	if c.HTTP.Timeout <= 0 {
		c.HTTP.Timeout = defaults.HTTP.Timeout
	}

	return c
}
