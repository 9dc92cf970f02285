// Package config loads the rolodex configuration from a YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/entrhq/rolodex/pkg/logging"
)

const (
	DefaultDataFile = "contacts.txt"
	DefaultLogLevel = "info"
	DefaultLocation = "Local"
	DefaultFileMode = "0600"
)

var validate = validator.New()

// Config holds the settings a directory store is opened with.
type Config struct {
	// Data file holding contacts and meetings
	DataFile string `yaml:"data_file" json:"data_file" validate:"required"`

	// Directory for log files; empty means ~/.rolodex/logs
	LogDir string `yaml:"log_dir" json:"log_dir"`

	// Minimum log level: debug, info, warn, error
	LogLevel string `yaml:"log_level" json:"log_level" validate:"omitempty,oneof=debug info warn error"`

	// IANA zone name used to break meeting dates into calendar fields
	Location string `yaml:"location" json:"location" validate:"required"`

	// Octal permission of the data file, e.g. "0600"
	FileMode string `yaml:"file_mode" json:"file_mode" validate:"required,numeric"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		DataFile: DefaultDataFile,
		LogLevel: DefaultLogLevel,
		Location: DefaultLocation,
		FileMode: DefaultFileMode,
	}
}

// DefaultPath returns ~/.rolodex/config.yaml.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".rolodex", "config.yaml"), nil
}

// Load reads the configuration at path, overlaying it on DefaultConfig. If
// path is empty, DefaultPath is used. A missing file is not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	// Relative data paths are resolved against the config file's directory
	if cfg.DataFile != "" && !filepath.IsAbs(cfg.DataFile) {
		cfg.DataFile = filepath.Join(filepath.Dir(path), cfg.DataFile)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks field constraints and that derived values parse.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if _, err := c.Loc(); err != nil {
		return err
	}
	if _, err := c.Mode(); err != nil {
		return err
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Loc resolves Location.
func (c *Config) Loc() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Location)
	if err != nil {
		return nil, fmt.Errorf("invalid location %q: %w", c.Location, err)
	}
	return loc, nil
}

// Mode parses FileMode as an octal permission.
func (c *Config) Mode() (os.FileMode, error) {
	v, err := strconv.ParseUint(c.FileMode, 8, 32)
	if err != nil || v > 0o777 {
		return 0, fmt.Errorf("invalid file_mode %q (must be an octal permission such as 0600)", c.FileMode)
	}
	return os.FileMode(v), nil
}

// Level parses LogLevel.
func (c *Config) Level() (logging.Level, error) {
	return logging.ParseLevel(c.LogLevel)
}

// Save writes the configuration as YAML to path.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
