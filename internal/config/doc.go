// Package config provides configuration structures and utilities for hostprint.
// It defines the main configuration options for probe execution, per-engine
// probe tuning, report generation, and drift watching.
package config
