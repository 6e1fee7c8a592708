// Package config loads the run settings from the environment and an optional
// TOML or YAML file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

const (
	DefaultTaskTimeout       = 30 * time.Minute
	DefaultDensityCommand    = "iris-density"
	DefaultCovarianceCommand = "iris-covariance"
	DefaultDistpredFormat    = "rosettanpz"
	DefaultLogLevel          = "info"
)

type Config struct {
	// Acquisition
	Concurrent  bool          `toml:"concurrent" yaml:"concurrent"`
	MaxWorkers  int           `toml:"max_workers" yaml:"max_workers"`
	TaskTimeout time.Duration `toml:"task_timeout" yaml:"task_timeout"`

	// External programs
	RunMolProbity     bool   `toml:"run_molprobity" yaml:"run_molprobity"`
	RunCovariance     bool   `toml:"run_covariance" yaml:"run_covariance"`
	MolProbityDir     string `toml:"molprobity_dir" yaml:"molprobity_dir"`
	DensityCommand    string `toml:"density_command" yaml:"density_command"`
	CovarianceCommand string `toml:"covariance_command" yaml:"covariance_command"`
	DistpredFormat    string `toml:"distpred_format" yaml:"distpred_format"`

	// Metrics
	HeaderResolution bool `toml:"header_resolution" yaml:"header_resolution"`

	LogLevel string `toml:"log_level" yaml:"log_level"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Concurrent:        true,
		MaxWorkers:        runtime.NumCPU(),
		TaskTimeout:       DefaultTaskTimeout,
		RunMolProbity:     true,
		RunCovariance:     true,
		DensityCommand:    DefaultDensityCommand,
		CovarianceCommand: DefaultCovarianceCommand,
		DistpredFormat:    DefaultDistpredFormat,
		LogLevel:          DefaultLogLevel,
	}
}

// Load reads the settings from the environment.
func Load() Config {
	cfg := Default()
	cfg.applyEnv()
	cfg.clamp()
	return cfg
}

// LoadFile reads the settings from a TOML or YAML file, chosen by extension.
// Environment variables still take precedence over the file.
func LoadFile(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return cfg, fmt.Errorf("decode %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("decode %s: %w", path, err)
		}
	default:
		return cfg, fmt.Errorf("unsupported config format %q", ext)
	}

	cfg.applyEnv()
	cfg.clamp()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Concurrent = envBool("IRIS_CONCURRENT", c.Concurrent)
	c.MaxWorkers = envInt("IRIS_MAX_WORKERS", c.MaxWorkers)
	c.TaskTimeout = envDuration("IRIS_TASK_TIMEOUT", c.TaskTimeout)

	c.RunMolProbity = envBool("IRIS_RUN_MOLPROBITY", c.RunMolProbity)
	c.RunCovariance = envBool("IRIS_RUN_COVARIANCE", c.RunCovariance)
	c.MolProbityDir = envOr("IRIS_MOLPROBITY_DIR", c.MolProbityDir)
	c.DensityCommand = envOr("IRIS_DENSITY_COMMAND", c.DensityCommand)
	c.CovarianceCommand = envOr("IRIS_COVARIANCE_COMMAND", c.CovarianceCommand)
	c.DistpredFormat = envOr("IRIS_DISTPRED_FORMAT", c.DistpredFormat)

	c.HeaderResolution = envBool("IRIS_HEADER_RESOLUTION", c.HeaderResolution)
	c.LogLevel = envOr("IRIS_LOG_LEVEL", c.LogLevel)
}

func (c *Config) clamp() {
	if c.MaxWorkers <= 0 {
		c.MaxWorkers = runtime.NumCPU()
	}
	if c.TaskTimeout < 0 {
		c.TaskTimeout = DefaultTaskTimeout
	}
	if c.DensityCommand == "" {
		c.DensityCommand = DefaultDensityCommand
	}
	if c.CovarianceCommand == "" {
		c.CovarianceCommand = DefaultCovarianceCommand
	}
	if c.DistpredFormat == "" {
		c.DistpredFormat = DefaultDistpredFormat
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
}

// Level returns the configured log level.
func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log level: %w", err)
	}
	return l, nil
}

func (c Config) Validate() error {
	if _, err := c.Level(); err != nil {
		return err
	}
	if c.MolProbityDir != "" {
		info, err := os.Stat(c.MolProbityDir)
		if err != nil {
			return fmt.Errorf("molprobity dir: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("molprobity dir %s is not a directory", c.MolProbityDir)
		}
	}
	if strings.ContainsAny(c.DistpredFormat, " \t/") {
		return fmt.Errorf("invalid distance prediction format %q", c.DistpredFormat)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
