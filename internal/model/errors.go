package model

import (
	"errors"
	"fmt"
)

// ConfigurationError reports malformed or incomplete input. It is raised before a
// run starts and never accompanies partial results.
type ConfigurationError struct {
	Field string
	// Index is the offending element (sample, year, event) or -1 when the
	// error concerns the field as a whole.
	Index  int
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("configuration error: %s[%d]: %s", e.Field, e.Index, e.Reason)
	}
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

// ConfigErrorf builds a ConfigurationError for a whole field.
func ConfigErrorf(field, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Field: field, Index: -1, Reason: fmt.Sprintf(format, args...)}
}

// ConfigErrorAt builds a ConfigurationError pointing at one element of a field.
func ConfigErrorAt(field string, index int, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Field: field, Index: index, Reason: fmt.Sprintf(format, args...)}
}

// InternalConsistencyError signals that a simulation invariant broke mid-run.
// It indicates a logic defect and must not be retried.
type InternalConsistencyError struct {
	// Year is 0 for a stand-alone (non-lifetime) run.
	Year      int
	Hour      int
	Invariant string
	Detail    string
}

func (e *InternalConsistencyError) Error() string {
	if e.Year > 0 {
		return fmt.Sprintf("internal consistency error: year %d hour %d: %s violated: %s", e.Year, e.Hour, e.Invariant, e.Detail)
	}
	return fmt.Sprintf("internal consistency error: hour %d: %s violated: %s", e.Hour, e.Invariant, e.Detail)
}

// IsConfigurationError reports whether err wraps a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// IsInternalConsistencyError reports whether err wraps an InternalConsistencyError.
func IsInternalConsistencyError(err error) bool {
	var ie *InternalConsistencyError
	return errors.As(err, &ie)
}
