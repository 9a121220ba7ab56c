// Package config loads tasker-api settings from defaults, an optional
// config.yaml and TASKER_-prefixed environment variables, and validates
// them before any component starts.
package config
