// Unified error handling for the robotpath toolchain
//
// Load-time failures (configuration, pump curve data) are reported through
// the typed errors in this package. Per-point motion findings are data, not
// control flow, and live in pkg/report instead.

package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents the category of error
type ErrorCode string

const (
	// Configuration errors
	ErrConfigSection    ErrorCode = "CONFIG_SECTION"
	ErrConfigOption     ErrorCode = "CONFIG_OPTION"
	ErrConfigValidation ErrorCode = "CONFIG_VALIDATION"
	ErrConfigType       ErrorCode = "CONFIG_TYPE"

	// Pump curve errors
	ErrCurveData ErrorCode = "INVALID_CURVE_DATA"

	// Kinematics setup errors
	ErrGeometry  ErrorCode = "GEOMETRY"
	ErrTransform ErrorCode = "TRANSFORM"

	// Toolpath ingestion errors
	ErrToolpath ErrorCode = "TOOLPATH"

	// Runtime errors
	ErrRuntime ErrorCode = "RUNTIME"
)

// PathError is the unified error type for the toolchain.
type PathError struct {
	// Code is the error category
	Code ErrorCode

	// Message is a human-readable error description
	Message string

	// Section is the config section or component context
	Section string

	// Option is the config option name (if applicable)
	Option string

	// Err wraps the underlying error
	Err error
}

// Error implements the error interface
func (e *PathError) Error() string {
	switch {
	case e.Option != "":
		return fmt.Sprintf("[%s:%s] %s", e.Code, e.Option, e.Message)
	case e.Section != "":
		return fmt.Sprintf("[%s:%s] %s", e.Code, e.Section, e.Message)
	default:
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
}

// Unwrap returns the underlying error
func (e *PathError) Unwrap() error {
	return e.Err
}

// SetSection sets the context section
func (e *PathError) SetSection(section string) *PathError {
	e.Section = section
	return e
}

// SetOption sets the config option
func (e *PathError) SetOption(option string) *PathError {
	e.Option = option
	return e
}

// New creates a new PathError
func New(code ErrorCode, message string) *PathError {
	return &PathError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, code ErrorCode, message string) *PathError {
	return &PathError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Config errors

// ConfigSectionError creates an error for a missing config section
func ConfigSectionError(section string) *PathError {
	return New(ErrConfigSection, fmt.Sprintf("section '%s' not found", section)).
		SetSection(section)
}

// ConfigOptionError creates an error for a missing config option
func ConfigOptionError(section, option string) *PathError {
	return New(ErrConfigOption, fmt.Sprintf("option '%s' not found in section '%s'", option, section)).
		SetSection(section).
		SetOption(option)
}

// ConfigValidationError creates an error for a config validation failure
func ConfigValidationError(section, option, reason string) *PathError {
	return New(ErrConfigValidation, fmt.Sprintf("option '%s' in section '%s': %s", option, section, reason)).
		SetSection(section).
		SetOption(option)
}

// ConfigTypeError creates an error for a config type conversion failure
func ConfigTypeError(section, option, value, targetType string, err error) *PathError {
	return Wrap(err, ErrConfigType, fmt.Sprintf("option '%s' in section '%s': failed to parse '%s' as %s", option, section, value, targetType)).
		SetSection(section).
		SetOption(option)
}

// Pump curve errors

// CurveDataError creates an error for malformed pump curve data. The whole
// run fails before any toolpath point is processed.
func CurveDataError(reason string) *PathError {
	return New(ErrCurveData, reason).SetSection("pump")
}

// Kinematics setup errors

// GeometryError creates an error for invalid robot geometry
func GeometryError(reason string) *PathError {
	return New(ErrGeometry, reason).SetSection("robot")
}

// TransformError creates an error for malformed transform input
func TransformError(reason string) *PathError {
	return New(ErrTransform, reason)
}

// Toolpath errors

// ToolpathError creates an error for malformed toolpath input
func ToolpathError(reason string) *PathError {
	return New(ErrToolpath, reason)
}

// Runtime errors

// RuntimeError creates a general runtime error
func RuntimeError(message string) *PathError {
	return New(ErrRuntime, message)
}

// Is checks if an error (anywhere in its chain) matches the given code
func Is(err error, code ErrorCode) bool {
	var pe *PathError
	for errors.As(err, &pe) {
		if pe.Code == code {
			return true
		}
		err = pe.Err
		pe = nil
	}
	return false
}

// IsConfig checks if err is any configuration error
func IsConfig(err error) bool {
	return Is(err, ErrConfigSection) ||
		Is(err, ErrConfigOption) ||
		Is(err, ErrConfigValidation) ||
		Is(err, ErrConfigType)
}

// IsCurveData checks if err is a pump curve data error
func IsCurveData(err error) bool {
	return Is(err, ErrCurveData)
}
