// Package errors provides error handling utilities.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Type identifies the category of error
type Type string

const (
	// TypeInvalidInput indicates malformed constructor or request input
	TypeInvalidInput Type = "INVALID_INPUT"

	// TypeModelFileNotFound indicates a missing persisted model file
	TypeModelFileNotFound Type = "MODEL_FILE_NOT_FOUND"

	// TypeFeatureFileNotFound indicates a missing feature manifest file
	TypeFeatureFileNotFound Type = "FEATURE_FILE_NOT_FOUND"

	// TypeInterpretationUnavailable indicates a model without feature importances
	TypeInterpretationUnavailable Type = "INTERPRETATION_UNAVAILABLE"

	// TypeSchemaMismatch indicates a manifest that disagrees with its model
	TypeSchemaMismatch Type = "SCHEMA_MISMATCH"

	// TypeParsing indicates a parsing error
	TypeParsing Type = "PARSING_ERROR"

	// TypeConfig indicates a configuration error
	TypeConfig Type = "CONFIG_ERROR"

	// TypeInternal indicates an internal error
	TypeInternal Type = "INTERNAL_ERROR"

	// TypeNotFound indicates a resource not found error
	TypeNotFound Type = "NOT_FOUND"
)

// Sentinels for errors.Is matching against a Type.
var (
	ErrInvalidInput              = &Error{Type: TypeInvalidInput}
	ErrModelFileNotFound         = &Error{Type: TypeModelFileNotFound}
	ErrFeatureFileNotFound       = &Error{Type: TypeFeatureFileNotFound}
	ErrInterpretationUnavailable = &Error{Type: TypeInterpretationUnavailable}
	ErrSchemaMismatch            = &Error{Type: TypeSchemaMismatch}
	ErrNotFound                  = &Error{Type: TypeNotFound}
)

// Error represents a domain error with context
type Error struct {
	Type    Type                   `json:"type"`
	Message string                 `json:"message"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a domain error of the same type.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// Field returns the offending field recorded on the error, if any
func (e *Error) Field() string {
	if f, ok := e.Context["field"].(string); ok {
		return f
	}
	return ""
}

// WithContext adds context to the error
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// New creates a new error
func New(errType Type, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
	}
}

// Newf creates a new formatted error
func Newf(errType Type, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an error with context
func Wrap(errType Type, message string, cause error) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Cause:   cause,
	}
}

// Wrapf wraps an error with formatted context
func Wrapf(errType Type, cause error, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// IsType checks if an error, or any error it wraps, is of a specific type
func IsType(err error, t Type) bool {
	var e *Error
	for err != nil {
		if !stderrors.As(err, &e) {
			return false
		}
		if e.Type == t {
			return true
		}
		err = e.Cause
	}
	return false
}

// TypeOf returns the type of the outermost domain error, or TypeInternal
func TypeOf(err error) Type {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type
	}
	return TypeInternal
}

// InvalidInput creates an input error citing the offending field
func InvalidInput(field, message string) *Error {
	return Newf(TypeInvalidInput, "%s: %s", field, message).WithContext("field", field)
}

// ModelFileNotFound creates a missing model file error
func ModelFileNotFound(path string) *Error {
	return Newf(TypeModelFileNotFound, "model file not found: %s", path).WithContext("path", path)
}

// FeatureFileNotFound creates a missing feature manifest error
func FeatureFileNotFound(path string) *Error {
	return Newf(TypeFeatureFileNotFound, "feature file not found: %s", path).WithContext("path", path)
}

// InterpretationUnavailable creates an error for models without importances
func InterpretationUnavailable(kind string) *Error {
	return Newf(TypeInterpretationUnavailable, "model %q does not provide feature importances", kind)
}

// SchemaMismatch creates an error for a manifest/model width disagreement
func SchemaMismatch(manifestLen, modelLen int) *Error {
	return Newf(TypeSchemaMismatch, "feature manifest has %d columns, model expects %d", manifestLen, modelLen).
		WithContext("manifest", manifestLen).
		WithContext("model", modelLen)
}

// Parsing creates a parsing error
func Parsing(message string, cause error) *Error {
	return Wrap(TypeParsing, message, cause)
}

// Config creates a configuration error
func Config(message string) *Error {
	return New(TypeConfig, message)
}

// NotFound creates a not found error
func NotFound(resourceType, identifier string) *Error {
	return Newf(TypeNotFound, "%s not found: %s", resourceType, identifier)
}

// Internal creates an internal error
func Internal(message string, cause error) *Error {
	return Wrap(TypeInternal, message, cause)
}
