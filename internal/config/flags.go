package config

import (
	"flag"
)

// flagFields maps flag names to config field names for source tracking.
var flagFields = map[string]string{
	"plan":           "plan_file",
	"schema":         "schema_file",
	"samples":        "samples",
	"range-start":    "range_start",
	"range-end":      "range_end",
	"width":          "chart_width",
	"log-level":      "log_level",
	"log-format":     "log_format",
	"log-timestamps": "log_timestamps",
	"log-caller":     "log_caller",
	"metrics-addr":   "metrics_addr",
}

// parseFlags defines the global flags on fs, parses args and records the
// flags that were set explicitly.
func parseFlags(cfg *Config, fs *flag.FlagSet, args []string, sources map[string]ConfigSource) error {
	if fs == nil {
		fs = flag.NewFlagSet("gantt", flag.ContinueOnError)
	}

	// Paths
	fs.StringVar(&cfg.PlanFile, "plan", cfg.PlanFile, "Path to plan file (JSON or YAML)")
	fs.StringVar(&cfg.SchemaFile, "schema", cfg.SchemaFile, "Path to plan JSON Schema (default: built-in)")
	fs.BoolVar(&cfg.Samples, "samples", cfg.Samples, "Seed the sample project when no plan file is given")

	// Chart
	fs.StringVar(&cfg.RangeStart, "range-start", cfg.RangeStart, "Chart start date (YYYY-MM-DD)")
	fs.StringVar(&cfg.RangeEnd, "range-end", cfg.RangeEnd, "Chart end date (YYYY-MM-DD)")
	fs.IntVar(&cfg.ChartWidth, "width", cfg.ChartWidth, "Chart width in columns")

	// Logging
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format (text, json, logfmt)")
	fs.BoolVar(&cfg.LogTimestamps, "log-timestamps", cfg.LogTimestamps, "Include timestamps in logs")
	fs.BoolVar(&cfg.LogCaller, "log-caller", cfg.LogCaller, "Include caller in logs")

	// Metrics
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "Serve Prometheus metrics on this address")

	if err := fs.Parse(args); err != nil {
		return err
	}

	fs.Visit(func(f *flag.Flag) {
		if field, ok := flagFields[f.Name]; ok {
			sources[field] = SourceFlag
		}
	})
	return nil
}
