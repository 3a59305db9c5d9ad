package config

import "fmt"

// ConfigError is a fatal configuration failure. It names the file (or
// document) and the field that caused it so the user can fix the input
// without spelunking through logs.
type ConfigError struct {
	File   string
	Field  string
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	switch {
	case e.Field != "" && e.File != "":
		return fmt.Sprintf("config error in %s: field %q: %s", e.File, e.Field, e.Reason)
	case e.File != "":
		return fmt.Sprintf("config error in %s: %s", e.File, e.Reason)
	default:
		return fmt.Sprintf("config error: %s", e.Reason)
	}
}

func (e *ConfigError) Unwrap() error { return e.Err }

// NewConfigError builds a ConfigError without a wrapped cause.
func NewConfigError(file, field, reason string) *ConfigError {
	return &ConfigError{File: file, Field: field, Reason: reason}
}
