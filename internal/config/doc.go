// Package config loads runtime configuration from multiple sources (YAML
// files, environment variables, CLI flags) with precedence: CLI flags > YAML
// config > Environment variables > Defaults. It exposes strongly typed
// settings to the rest of the application, including the METASKING_* variables
// the container packaging exports.
package config
