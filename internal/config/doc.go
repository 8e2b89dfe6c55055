// Package config loads, normalizes, and validates substweet configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours credential fallbacks from a dotenv
// credentials file and SUBSTWEET_* environment variables. The Config type
// centralizes every knob the posting run and the CLI need.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths and clear validation errors.
package config
