// Package config provides configuration loading and validation for the
// audio recorder. It handles YAML-based configuration with per-section
// validation and derives all frame-count thresholds from the configured
// durations.
package config
