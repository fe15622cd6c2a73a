// Package config loads, validates, and normalizes CineScope configuration.
//
// Configuration is a TOML file resolved from an explicit --config flag,
// ~/.config/cinescope/config.toml, or ./cinescope.toml, merged over the
// defaults in defaults.go. All path fields are tilde-expanded and made
// absolute during Load so downstream packages never deal with relative
// paths.
package config
