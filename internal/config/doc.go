// Package config handles configuration loading and defaults.
//
// Configuration is loaded from multiple sources in priority order:
// 1. Built-in defaults
// 2. User config file (~/.gantt/gantt.toml or OS-specific config directory)
// 3. Project config file (gantt.toml or .gantt.toml in the project root)
// 4. .env file in the project root
// 5. Environment variables (GANTT_*)
// 6. CLI flags
//
// Each level overrides the previous one, so CLI flags take precedence.
// A variable set in the process environment wins over the same key in .env.
//
// User-level config locations:
// - ~/.gantt/gantt.toml (preferred)
// - Windows: %APPDATA%\gantt\gantt.toml
// - macOS: ~/Library/Application Support/gantt/gantt.toml
// - Linux/BSD: $XDG_CONFIG_HOME/gantt/gantt.toml or ~/.config/gantt/gantt.toml
//
// Project-level config locations (overrides user config):
// - ./gantt.toml (preferred)
// - ./.gantt.toml
package config
