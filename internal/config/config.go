// Package config loads detector settings for the mosaic-mcp server and CLI.
//
// Settings come from three layers, later ones winning: built-in defaults
// matching the reference detector, an optional YAML file, and environment
// variables.
//
// # File Format
//
//	low_range: 2
//	high_range: 25
//	canny_low: 8
//	canny_high: 30
//	blur_kernel: 5
//	detection_threshold: 0.29
//	workers: 0
//	log_level: info
//
// Keys left out of the file keep their defaults. Unknown keys are rejected.
//
// # Environment Variables
//
//   - MOSAIC_MCP_LOG_LEVEL: overrides log_level ("debug" enables verbose
//     detector output)
//   - MOSAIC_MCP_WORKERS: overrides workers
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ironsheep/mosaic-mcp/internal/mosaic"
)

// Environment variable names.
const (
	EnvLogLevel = "MOSAIC_MCP_LOG_LEVEL"
	EnvWorkers  = "MOSAIC_MCP_WORKERS"
)

// Log levels understood by the server and CLI.
const (
	LogLevelInfo  = "info"
	LogLevelDebug = "debug"
)

// Config holds detector tunables and logging settings.
type Config struct {
	LowRange           int     `yaml:"low_range"`
	HighRange          int     `yaml:"high_range"`
	CannyLow           float64 `yaml:"canny_low"`
	CannyHigh          float64 `yaml:"canny_high"`
	BlurKernel         int     `yaml:"blur_kernel"`
	DetectionThreshold float64 `yaml:"detection_threshold"`

	// Workers bounds concurrent template matching. Zero means one per CPU.
	Workers int `yaml:"workers"`

	LogLevel string `yaml:"log_level"`
}

// Default returns the reference configuration.
func Default() *Config {
	p := mosaic.DefaultParams()
	return &Config{
		LowRange:           p.LowRange,
		HighRange:          p.HighRange,
		CannyLow:           p.CannyLow,
		CannyHigh:          p.CannyHigh,
		BlurKernel:         p.BlurKernelSize,
		DetectionThreshold: p.DetectionThreshold,
		Workers:            p.Workers,
		LogLevel:           LogLevelInfo,
	}
}

// Load reads a YAML file over the defaults and validates the result.
// Environment overrides are not applied; call ApplyEnv for that.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer f.Close()

	cfg, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML from r over the defaults and validates the result.
func Parse(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	if len(bytes.TrimSpace(data)) > 0 {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides settings from the environment.
func (c *Config) ApplyEnv() error {
	return c.applyEnv(os.Getenv)
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv(EnvLogLevel); v != "" {
		c.LogLevel = strings.ToLower(strings.TrimSpace(v))
	}
	if v := getenv(EnvWorkers); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvWorkers, v, err)
		}
		c.Workers = n
	}
	return c.Validate()
}

var (
	errRange     = errors.New("invalid block size range")
	errCanny     = errors.New("invalid canny thresholds")
	errKernel    = errors.New("invalid blur kernel")
	errThreshold = errors.New("invalid detection threshold")
	errWorkers   = errors.New("invalid worker count")
	errLogLevel  = errors.New("invalid log level")
)

// Validate reports the first inconsistent setting.
func (c *Config) Validate() error {
	switch {
	case c.LowRange < 0:
		return fmt.Errorf("%w: low_range %d is negative", errRange, c.LowRange)
	case c.HighRange < c.LowRange:
		return fmt.Errorf("%w: high_range %d below low_range %d", errRange, c.HighRange, c.LowRange)
	case c.CannyLow < 0 || c.CannyHigh < 0:
		return fmt.Errorf("%w: %v, %v", errCanny, c.CannyLow, c.CannyHigh)
	case c.BlurKernel <= 0 || c.BlurKernel%2 == 0:
		return fmt.Errorf("%w: %d must be positive and odd", errKernel, c.BlurKernel)
	case c.DetectionThreshold <= -1 || c.DetectionThreshold > 1:
		return fmt.Errorf("%w: %v outside (-1, 1]", errThreshold, c.DetectionThreshold)
	case c.Workers < 0:
		return fmt.Errorf("%w: %d", errWorkers, c.Workers)
	}

	switch c.LogLevel {
	case LogLevelInfo, LogLevelDebug:
	default:
		return fmt.Errorf("%w: %q", errLogLevel, c.LogLevel)
	}
	return nil
}

// Debug reports whether verbose logging is enabled.
func (c *Config) Debug() bool {
	return c.LogLevel == LogLevelDebug
}

// Params converts the configuration into detector parameters.
func (c *Config) Params() mosaic.Params {
	return mosaic.Params{
		LowRange:           c.LowRange,
		HighRange:          c.HighRange,
		CannyLow:           c.CannyLow,
		CannyHigh:          c.CannyHigh,
		BlurKernelSize:     c.BlurKernel,
		DetectionThreshold: c.DetectionThreshold,
		Workers:            c.Workers,
	}
}
