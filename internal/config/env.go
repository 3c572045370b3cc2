package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// lookupFunc returns an environment value and where it came from.
type lookupFunc func(key string) (string, ConfigSource, bool)

// envLookup consults the process environment first, then the .env values.
func envLookup(dotenv map[string]string) lookupFunc {
	return func(key string) (string, ConfigSource, bool) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			return v, SourceEnv, true
		}
		if v, ok := dotenv[key]; ok && v != "" {
			return v, SourceDotEnv, true
		}
		return "", "", false
	}
}

// loadFromEnv overrides config from GANTT_* variables.
func loadFromEnv(cfg *Config, lookup lookupFunc, sources map[string]ConfigSource) error {
	strVars := []struct {
		key   string
		field string
		dst   *string
	}{
		{"GANTT_PLAN", "plan_file", &cfg.PlanFile},
		{"GANTT_SCHEMA", "schema_file", &cfg.SchemaFile},
		{"GANTT_RANGE_START", "range_start", &cfg.RangeStart},
		{"GANTT_RANGE_END", "range_end", &cfg.RangeEnd},
		{"GANTT_LOG_LEVEL", "log_level", &cfg.LogLevel},
		{"GANTT_LOG_FORMAT", "log_format", &cfg.LogFormat},
		{"GANTT_METRICS_ADDR", "metrics_addr", &cfg.MetricsAddr},
	}
	for _, v := range strVars {
		if val, src, ok := lookup(v.key); ok {
			*v.dst = val
			sources[v.field] = src
		}
	}

	boolVars := []struct {
		key   string
		field string
		dst   *bool
	}{
		{"GANTT_SAMPLES", "samples", &cfg.Samples},
		{"GANTT_LOG_TIMESTAMPS", "log_timestamps", &cfg.LogTimestamps},
		{"GANTT_LOG_CALLER", "log_caller", &cfg.LogCaller},
	}
	for _, v := range boolVars {
		if val, src, ok := lookup(v.key); ok {
			b, err := parseBool(val)
			if err != nil {
				return fmt.Errorf("%s: %w", v.key, err)
			}
			*v.dst = b
			sources[v.field] = src
		}
	}

	if val, src, ok := lookup("GANTT_CHART_WIDTH"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return fmt.Errorf("GANTT_CHART_WIDTH: invalid integer %q", val)
		}
		cfg.ChartWidth = n
		sources["chart_width"] = src
	}

	return nil
}

// parseBool accepts the usual spellings of true and false.
func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", s)
}
