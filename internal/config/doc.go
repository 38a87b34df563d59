// Package config loads the jointail startup configuration.
//
// # Overview
//
// The configuration names the files to tail, how often to poll them, where
// the joined log goes, how each record is projected into columns and which
// records are kept. It is read once at startup and never reloaded.
//
// # Configuration Discovery
//
//  1. If a path is given (--config), that file must exist
//  2. Otherwise ~/.config/jointail/config.toml is used when present
//  3. Otherwise built-in defaults apply
//
// Files ending in .yaml or .yml are decoded as YAML, anything else as TOML.
//
// # Default Values
//
//   - start: beginning
//   - file_interval_us: 10000 (10ms between sources)
//   - cycle_interval_us: 100000 (100ms between cycles)
//   - output: joined.log in the working directory
//   - timestamp_format: 2006-01-02 15:04:05.000
//   - level_field: level (the field whose value selects the line color)
//   - colors: none
//   - fields: time, level, msg (no transform, no width)
//   - include / exclude: empty
//
// # TOML Format
//
//	start = "end"
//	output = "/tmp/joined.log"
//	prefix_tags = true
//	state_file = "~/.local/state/jointail/offsets.json"
//	change_color = "cyan"
//
//	[colors]
//	error = "red"
//	warn = "yellow"
//
//	[[sources]]
//	path = "/var/log/api/*.log"
//	tag = "api"
//
//	[[sources]]
//	path = "~/worker.log"
//	start = "tail"
//	lines = 50
//
//	[[fields]]
//	name = "level"
//	transform = "upper"
//	width = -5
//
//	[[fields]]
//	name = "msg"
//
//	[[include]]
//	field = "level"
//	tests = ["error", "warn"]
//
//	[[exclude]]
//	field = "msg"
//	tests = ["contains healthcheck"]
//
// Rule lists are arrays so that field order is preserved; evaluation walks
// fields and tests in the order written.
//
// # Validation
//
// Structural problems (missing paths, unknown start modes, unknown colors,
// rules without tests, negative intervals) are collected by validator/v10
// and reported together. Predicate and transform expressions are compiled
// later by their own packages, which name the offending field and expression.
//
// # Sources
//
// Source paths may be doublestar glob patterns ("/var/log/**/*.log"). Each
// match becomes its own source, tagged "<tag>:<basename>" or just the base
// name. Plain paths are kept even when the file does not exist yet.
package config
