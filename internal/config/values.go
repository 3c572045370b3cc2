package config

import "strconv"

// FieldValue is one configuration setting rendered as text.
type FieldValue struct {
	Name  string
	Value string
}

// Values returns every configurable field with its current value, in the
// order of configFields.
func (c *Config) Values() []FieldValue {
	values := map[string]string{
		"plan_file":      c.PlanFile,
		"schema_file":    c.SchemaFile,
		"samples":        strconv.FormatBool(c.Samples),
		"range_start":    c.RangeStart,
		"range_end":      c.RangeEnd,
		"chart_width":    strconv.Itoa(c.ChartWidth),
		"log_level":      c.LogLevel,
		"log_format":     c.LogFormat,
		"log_timestamps": strconv.FormatBool(c.LogTimestamps),
		"log_caller":     strconv.FormatBool(c.LogCaller),
		"metrics_addr":   c.MetricsAddr,
	}

	fields := configFields()
	out := make([]FieldValue, len(fields))
	for i, name := range fields {
		out[i] = FieldValue{Name: name, Value: values[name]}
	}
	return out
}
