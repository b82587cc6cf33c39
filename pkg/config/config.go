// Package config loads docfang settings from .docfang.yaml, DOCFANG_*
// environment variables and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Sentinel validation errors.
var (
	ErrInvalidPort           = errors.New("invalid server port")
	ErrInvalidWorkers        = errors.New("scan workers must not be negative")
	ErrInvalidWrapWidth      = errors.New("javadoc wrap width must not be negative")
	ErrInvalidConflictPolicy = errors.New("unknown conflict policy")
	ErrInvalidFormat         = errors.New("unknown output format")
	ErrInvalidLogLevel       = errors.New("unknown log level")
	ErrInvalidSize           = errors.New("invalid size")
	ErrInvalidGlob           = errors.New("empty glob pattern")
)

const maxPort = 65535

var (
	conflictPolicies = []string{"error", "merge", "overwrite"}
	outputFormats    = []string{"text", "json", "yaml"}
	logLevels        = []string{"debug", "info", "warn", "error"}
)

// Config holds all docfang configuration.
type Config struct {
	Scan    ScanConfig    `mapstructure:"scan"`
	Javadoc JavadocConfig `mapstructure:"javadoc"`
	Output  OutputConfig  `mapstructure:"output"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ScanConfig controls source tree discovery.
type ScanConfig struct {
	Include     []string `mapstructure:"include"`
	Exclude     []string `mapstructure:"exclude"`
	Workers     int      `mapstructure:"workers"`
	MaxFileSize string   `mapstructure:"max_file_size"`
}

// JavadocConfig controls comment generation.
type JavadocConfig struct {
	WrapWidth      int    `mapstructure:"wrap_width"`
	ConflictPolicy string `mapstructure:"conflict_policy"`
	HeaderFile     string `mapstructure:"header_file"`
}

// OutputConfig controls where stubs and reports go.
type OutputConfig struct {
	Dir     string `mapstructure:"dir"`
	InPlace bool   `mapstructure:"in_place"`
	Format  string `mapstructure:"format"`
}

// CacheConfig controls the comment cache.
type CacheConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Dir        string `mapstructure:"dir"`
	MemorySize string `mapstructure:"memory_size"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxBodySize     string        `mapstructure:"max_body_size"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// MaxFileSizeBytes parses scan.max_file_size. Empty or "0" disables the limit.
func (s ScanConfig) MaxFileSizeBytes() (int64, error) {
	return parseSize("scan.max_file_size", s.MaxFileSize)
}

// MemorySizeBytes parses cache.memory_size.
func (c CacheConfig) MemorySizeBytes() (int64, error) {
	return parseSize("cache.memory_size", c.MemorySize)
}

// MaxBodySizeBytes parses server.max_body_size.
func (s ServerConfig) MaxBodySizeBytes() (int64, error) {
	return parseSize("server.max_body_size", s.MaxBodySize)
}

func parseSize(key, value string) (int64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}

	size, err := humanize.ParseBytes(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q: %w", ErrInvalidSize, key, value, err)
	}

	return int64(size), nil //nolint:gosec // configured sizes are far below MaxInt64
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	if c.Scan.Workers < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidWorkers, c.Scan.Workers)
	}

	for _, pattern := range slices.Concat(c.Scan.Include, c.Scan.Exclude) {
		if strings.TrimSpace(pattern) == "" {
			return ErrInvalidGlob
		}
	}

	if c.Javadoc.WrapWidth < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidWrapWidth, c.Javadoc.WrapWidth)
	}

	if !slices.Contains(conflictPolicies, c.Javadoc.ConflictPolicy) {
		return fmt.Errorf("%w: %q", ErrInvalidConflictPolicy, c.Javadoc.ConflictPolicy)
	}

	if !slices.Contains(outputFormats, c.Output.Format) {
		return fmt.Errorf("%w: %q", ErrInvalidFormat, c.Output.Format)
	}

	if !slices.Contains(logLevels, strings.ToLower(c.Logging.Level)) {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Logging.Level)
	}

	if c.Server.Port <= 0 || c.Server.Port > maxPort {
		return fmt.Errorf("%w: %d", ErrInvalidPort, c.Server.Port)
	}

	for _, parse := range []func() (int64, error){
		c.Scan.MaxFileSizeBytes,
		c.Cache.MemorySizeBytes,
		c.Server.MaxBodySizeBytes,
	} {
		if _, err := parse(); err != nil {
			return err
		}
	}

	return nil
}
