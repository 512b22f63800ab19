package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the configuration for a tab watch.
type Config struct {
	// Polling schedule
	Watch WatchConfig `yaml:"watch" json:"watch"`

	// Session-store decoding limits
	Decoder DecoderConfig `yaml:"decoder" json:"decoder"`

	// Browser launch options
	Browser BrowserConfig `yaml:"browser" json:"browser"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`

	// End-of-run artifacts
	Report ReportConfig `yaml:"report" json:"report"`
}

// Policy selects how the scheduler waits between checks while the tab is open.
type Policy string

const (
	// PolicyFixed sleeps a constant interval between checks.
	PolicyFixed Policy = "fixed"
	// PolicyEvent wakes on directory changes, bounded by a maximum interval.
	PolicyEvent Policy = "event"
)

// WatchConfig defines the scheduler's delays and retry budget.
type WatchConfig struct {
	InitialDelay time.Duration `yaml:"initial_delay" json:"initial_delay"` // Before the first check, while the browser starts
	ClosedDelay  time.Duration `yaml:"closed_delay" json:"closed_delay"`   // Before confirming an absent tab

	Policy       Policy        `yaml:"policy" json:"policy"`
	PollInterval time.Duration `yaml:"poll_interval" json:"poll_interval"` // fixed policy
	MaxInterval  time.Duration `yaml:"max_interval" json:"max_interval"`   // event policy ceiling
	Settle       time.Duration `yaml:"settle" json:"settle"`               // event policy quiet time after a change

	// Consecutive decode/parse failures tolerated before giving up (default: 0)
	MaxUnreadable int `yaml:"max_unreadable" json:"max_unreadable"`
}

// DecoderConfig limits what the container decoder will allocate.
type DecoderConfig struct {
	MaxDecompressedSize int `yaml:"max_decompressed_size" json:"max_decompressed_size"`
}

// BrowserConfig defines extra browser arguments placed before the URL.
type BrowserConfig struct {
	Args []string `yaml:"args" json:"args"`
}

// LoggingConfig defines logging configuration
type LoggingConfig struct {
	// Verbosity controls logging level: quiet, normal, verbose, debug
	Verbosity string `yaml:"verbosity" json:"verbosity"`
	// File mirrors the log to ~/.tabwatch/logs
	File bool `yaml:"file" json:"file"`
}

// ReportConfig defines where run artifacts go. An empty OutputDir disables them.
type ReportConfig struct {
	OutputDir string `yaml:"output_dir" json:"output_dir"`
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Watch.InitialDelay < 0 {
		return fmt.Errorf("initial_delay cannot be negative")
	}

	if c.Watch.ClosedDelay < 0 {
		return fmt.Errorf("closed_delay cannot be negative")
	}

	if c.Watch.Settle < 0 {
		return fmt.Errorf("settle cannot be negative")
	}

	if c.Watch.MaxUnreadable < 0 {
		return fmt.Errorf("max_unreadable cannot be negative")
	}

	switch c.Watch.Policy {
	case PolicyFixed:
		if c.Watch.PollInterval <= 0 {
			return fmt.Errorf("poll_interval must be positive for the fixed policy")
		}
	case PolicyEvent:
		if c.Watch.MaxInterval <= 0 {
			return fmt.Errorf("max_interval must be positive for the event policy")
		}
		// Fallback when the directory cannot be watched.
		if c.Watch.PollInterval <= 0 {
			c.Watch.PollInterval = c.Watch.MaxInterval
		}
	default:
		return fmt.Errorf("invalid policy: %s (must be 'fixed' or 'event')", c.Watch.Policy)
	}

	if c.Decoder.MaxDecompressedSize < 0 {
		return fmt.Errorf("max_decompressed_size cannot be negative")
	}

	// Set default verbosity if not specified
	if c.Logging.Verbosity == "" {
		c.Logging.Verbosity = "normal"
	}

	validLevels := map[string]bool{
		"quiet":   true,
		"normal":  true,
		"verbose": true,
		"debug":   true,
	}
	if !validLevels[c.Logging.Verbosity] {
		return fmt.Errorf("invalid logging verbosity: %s (must be 'quiet', 'normal', 'verbose', or 'debug')", c.Logging.Verbosity)
	}

	return nil
}

// DefaultConfig returns a default configuration suitable for most use cases
func DefaultConfig() *Config {
	return &Config{
		Watch: WatchConfig{
			InitialDelay:  5 * time.Second,
			ClosedDelay:   2 * time.Second,
			Policy:        PolicyEvent,
			PollInterval:  2 * time.Second,
			MaxInterval:   10 * time.Second,
			Settle:        250 * time.Millisecond,
			MaxUnreadable: 0,
		},
		Decoder: DecoderConfig{
			MaxDecompressedSize: 256 << 20,
		},
		Logging: LoggingConfig{
			Verbosity: "normal",
		},
	}
}

// DefaultPath returns ~/.tabwatch/config.yaml.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".tabwatch", "config.yaml"), nil
}

// Load reads path over the defaults. When path is empty the default location
// is tried and a missing file there is not an error.
func Load(path string) (*Config, error) {
	if path != "" {
		return LoadFile(path)
	}

	defaultPath, err := DefaultPath()
	if err != nil {
		return DefaultConfig(), nil
	}

	cfg, err := LoadFile(defaultPath)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	return cfg, err
}

// LoadFile loads configuration from a YAML file. Unset fields keep their
// defaults; unknown fields are rejected.
func LoadFile(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	defer file.Close()

	cfg := DefaultConfig()
	dec := yaml.NewDecoder(file)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return cfg, nil
}
