// Package config handles configuration management for pimp-install.
// It supports loading configuration from multiple sources including
// the embedded defaults, TOML files, PIMP_* environment variables and
// command-line flag overrides.
package config
