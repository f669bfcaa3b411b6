// Package config provides unified configuration loading for
// councilflow: defaults, then a YAML file, then environment variable
// overrides, validated before use. Hard rules and weight-adjustment
// rules are declared in data and compiled into engine values via
// Build helpers.
package config
