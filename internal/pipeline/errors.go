package pipeline

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a run failed. Every failure is fatal; the kind
// tells the operator where to look.
type ErrorKind string

const (
	// ErrorKindIO covers missing or unreadable archives, truncated members
	// and artifact write failures.
	ErrorKindIO ErrorKind = "io"
	// ErrorKindParse covers malformed CSV, undeclared columns and cell text
	// that does not parse as its declared kind.
	ErrorKindParse ErrorKind = "parse"
	// ErrorKindInvariant covers violated postconditions, such as residual
	// missing values after cleaning.
	ErrorKindInvariant ErrorKind = "invariant"
	// ErrorKindGate covers rejections by the distributional gate.
	ErrorKindGate ErrorKind = "gate"
)

// Stage names, in execution order.
const (
	StagePreflight   = "preflight"
	StageHarvest     = "harvest"
	StageConsolidate = "consolidate"
	StagePrune       = "prune"
	StageGate        = "gate"
	StageNormalize   = "normalize"
	StagePersist     = "persist"
	StageReport      = "report"
)

// Error represents a fatal pipeline failure
type Error struct {
	Kind    ErrorKind              `json:"kind"`
	Stage   string                 `json:"stage,omitempty"`
	Message string                 `json:"message"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e == nil {
		return "unknown pipeline error"
	}
	msg := e.Message
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	if e.Stage != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Kind, e.Stage, msg)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, msg)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// NewIOError creates an error for a failed filesystem or archive operation
func NewIOError(stage, message string, cause error) *Error {
	return &Error{
		Kind:    ErrorKindIO,
		Stage:   stage,
		Message: message,
		Cause:   cause,
	}
}

// NewParseError creates an error for content that does not match the
// publisher's documented layout
func NewParseError(stage, message string, cause error) *Error {
	return &Error{
		Kind:    ErrorKindParse,
		Stage:   stage,
		Message: message,
		Cause:   cause,
	}
}

// NewInvariantError creates an error for a violated postcondition
func NewInvariantError(stage, message string) *Error {
	return &Error{
		Kind:    ErrorKindInvariant,
		Stage:   stage,
		Message: message,
	}
}

// NewGateError creates an error for a distributional gate rejection.
// The context carries the ratios that triggered it.
func NewGateError(stage, message string, context map[string]interface{}) *Error {
	return &Error{
		Kind:    ErrorKindGate,
		Stage:   stage,
		Message: message,
		Context: context,
	}
}

// KindOf returns the kind of the error, unwrapping as needed.
// Errors that did not originate in the pipeline report as I/O failures,
// since those are the only ones that reach us unclassified.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var pErr *Error
	if errors.As(err, &pErr) {
		return pErr.Kind
	}
	return ErrorKindIO
}

// IsKind reports whether the error carries the given kind
func IsKind(err error, kind ErrorKind) bool {
	var pErr *Error
	if errors.As(err, &pErr) {
		return pErr.Kind == kind
	}
	return false
}
