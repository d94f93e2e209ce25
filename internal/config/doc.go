// Package config loads, validates, and normalizes vitae configuration.
//
// Configuration is TOML with defaults applied before parsing, so a missing
// file yields a fully usable config. Paths are expanded (including ~) and made
// absolute during load. Validation failures name the offending key.
package config
