package core

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrorKind classifies every failure the orchestrator can surface.
type ErrorKind string

const (
	ErrKindInvalidInput          ErrorKind = "INVALID_INPUT"
	ErrKindUnknownEngine         ErrorKind = "UNKNOWN_ENGINE"
	ErrKindUnknownWorkflow       ErrorKind = "UNKNOWN_WORKFLOW"
	ErrKindConsentRequired       ErrorKind = "CONSENT_REQUIRED"
	ErrKindTimeout               ErrorKind = "TIMEOUT"
	ErrKindDependencyUnavailable ErrorKind = "DEPENDENCY_UNAVAILABLE"
	ErrKindInternal              ErrorKind = "INTERNAL_ERROR"
)

func (k ErrorKind) String() string {
	return string(k)
}

// Retryable reports whether a caller may retry the identical request.
func (k ErrorKind) Retryable() bool {
	return k == ErrKindTimeout || k == ErrKindDependencyUnavailable
}

// Error is the typed failure crossing the orchestrator boundary. Engine
// and Field are filled where they are known; CorrelationID ties a response
// to its log lines.
type Error struct {
	Kind          ErrorKind `json:"kind"`
	Engine        string    `json:"engine,omitempty"`
	Field         string    `json:"field,omitempty"`
	Message       string    `json:"message"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	Err           error     `json:"-"`
}

func (e *Error) Error() string {
	switch {
	case e.Engine != "" && e.Field != "":
		return fmt.Sprintf("%s: engine %s, field %s: %s", e.Kind, e.Engine, e.Field, e.Message)
	case e.Engine != "":
		return fmt.Sprintf("%s: engine %s: %s", e.Kind, e.Engine, e.Message)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError builds a typed error for the given kind.
func NewError(kind ErrorKind, engine, message string, cause error) *Error {
	return &Error{
		Kind:    kind,
		Engine:  engine,
		Message: message,
		Err:     cause,
	}
}

func InvalidInputError(engine, field, message string, cause error) *Error {
	return &Error{
		Kind:    ErrKindInvalidInput,
		Engine:  engine,
		Field:   field,
		Message: message,
		Err:     cause,
	}
}

func UnknownEngineError(engine string) *Error {
	return &Error{
		Kind:    ErrKindUnknownEngine,
		Engine:  engine,
		Message: fmt.Sprintf("no engine registered under %q", engine),
	}
}

func UnknownWorkflowError(workflow string) *Error {
	return &Error{
		Kind:    ErrKindUnknownWorkflow,
		Message: fmt.Sprintf("no workflow registered under %q", workflow),
	}
}

func ConsentRequiredError(engine string) *Error {
	return &Error{
		Kind:    ErrKindConsentRequired,
		Engine:  engine,
		Message: "data_processing_consent must be true for this engine",
	}
}

func TimeoutError(engine string, cause error) *Error {
	return &Error{
		Kind:    ErrKindTimeout,
		Engine:  engine,
		Message: "engine did not complete within the run deadline",
		Err:     cause,
	}
}

func DependencyUnavailableError(engine, dependency string, cause error) *Error {
	return &Error{
		Kind:    ErrKindDependencyUnavailable,
		Engine:  engine,
		Message: fmt.Sprintf("dependency unavailable: %s", dependency),
		Err:     cause,
	}
}

// InternalError wraps an unexpected engine failure and stamps a correlation
// id so the response can be matched to server logs.
func InternalError(engine string, cause error) *Error {
	return &Error{
		Kind:          ErrKindInternal,
		Engine:        engine,
		Message:       "unexpected engine failure",
		CorrelationID: uuid.NewString(),
		Err:           cause,
	}
}

// KindOf extracts the ErrorKind from any error chain; unrecognized errors
// report ErrKindInternal.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrKindInternal
}

// AsError returns the typed error in err's chain, wrapping unknown errors
// as InternalError so callers always observe a classified failure.
func AsError(err error, engine string) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return InternalError(engine, err)
}
