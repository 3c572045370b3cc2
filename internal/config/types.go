package config

import (
	"fmt"
	"time"

	"github.com/nibzard/gantt-go/internal/plan"
)

// ConfigSource represents where a configuration value came from.
type ConfigSource string

const (
	SourceDefault  ConfigSource = "default"
	SourceUserFile ConfigSource = "user file"
	SourceProjFile ConfigSource = "project file"
	SourceDotEnv   ConfigSource = ".env"
	SourceEnv      ConfigSource = "environment"
	SourceFlag     ConfigSource = "flag"
)

// ConfigWithSources holds configuration along with source information for each field.
type ConfigWithSources struct {
	Config  *Config
	Sources map[string]ConfigSource
	Files   []string // config files that were read, in load order
}

// Default values.
const (
	DefaultSchemaFile = ""
	DefaultChartWidth = 60
	MinChartWidth     = 10
	DefaultLogLevel   = "info"
	DefaultLogFormat  = "text"
)

// Config holds the full configuration for gantt.
type Config struct {
	// Paths
	PlanFile   string `toml:"plan_file"`
	SchemaFile string `toml:"schema_file"`

	// Seed the sample project when no plan file is given
	Samples bool `toml:"samples"`

	// Chart display window (YYYY-MM-DD or RFC 3339); empty means derive
	// from the tasks
	RangeStart string `toml:"range_start"`
	RangeEnd   string `toml:"range_end"`

	// Width of the bar area in terminal cells
	ChartWidth int `toml:"chart_width"`

	// Logging configuration
	LogLevel      string `toml:"log_level"`
	LogFormat     string `toml:"log_format"`
	LogTimestamps bool   `toml:"log_timestamps"`
	LogCaller     bool   `toml:"log_caller"`

	// Prometheus listen address, e.g. ":9090"; empty disables metrics
	MetricsAddr string `toml:"metrics_addr"`

	// Project root (computed)
	ProjectRoot string `toml:"-"`
}

// DisplayRange returns the configured chart window. ok is false when
// neither bound is set.
func (c *Config) DisplayRange() (start, end time.Time, ok bool, err error) {
	if c.RangeStart == "" && c.RangeEnd == "" {
		return time.Time{}, time.Time{}, false, nil
	}
	if c.RangeStart == "" || c.RangeEnd == "" {
		return time.Time{}, time.Time{}, false, fmt.Errorf("range_start and range_end must be set together")
	}
	s, err := plan.ParseDate(c.RangeStart)
	if err != nil {
		return time.Time{}, time.Time{}, false, fmt.Errorf("range_start: %w", err)
	}
	e, err := plan.ParseDate(c.RangeEnd)
	if err != nil {
		return time.Time{}, time.Time{}, false, fmt.Errorf("range_end: %w", err)
	}
	if !e.After(s.Time) {
		return time.Time{}, time.Time{}, false, fmt.Errorf("range_end must be after range_start")
	}
	return s.Time, e.Time, true, nil
}

func setDefaults(cfg *Config) {
	cfg.SchemaFile = DefaultSchemaFile
	cfg.ChartWidth = DefaultChartWidth
	cfg.LogLevel = DefaultLogLevel
	cfg.LogFormat = DefaultLogFormat
}

// configFields returns the list of configurable field names for source tracking.
func configFields() []string {
	return []string{
		"plan_file",
		"schema_file",
		"samples",
		"range_start",
		"range_end",
		"chart_width",
		"log_level",
		"log_format",
		"log_timestamps",
		"log_caller",
		"metrics_addr",
	}
}
