package config

// ExampleConfig returns an example configuration showing all available options.
func ExampleConfig() string {
	return `# Gantt configuration file
# Values can be overridden by .env, GANTT_* environment variables or CLI flags

# Plan file, JSON or YAML (relative to project root)
# plan_file = "plan.yaml"

# JSON Schema for plan files (default: built-in schema)
# schema_file = "plan.schema.json"

# Seed the sample project when no plan file is given
samples = false

# Fixed chart window; leave unset to fit the tasks
# range_start = "2024-01-01"
# range_end = "2024-02-01"

# Width of the bar area in terminal cells (minimum 10)
chart_width = 60

# Logging: debug, info, warn, error / text, json, logfmt
log_level = "info"
log_format = "text"
log_timestamps = false
log_caller = false

# Serve Prometheus metrics while the viewer runs
# metrics_addr = ":9090"
`
}
