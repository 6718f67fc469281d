package tools

import (
	"errors"
	"fmt"
)

// Kind classifies a tool failure. It is the only error detail the LLM sees.
type Kind string

const (
	KindNotFound             Kind = "NOT_FOUND"
	KindPreconditionViolated Kind = "PRECONDITION_VIOLATION"
	KindValidationFailed     Kind = "VALIDATION_FAILURE"
	KindUpstreamUnavailable  Kind = "UPSTREAM_UNAVAILABLE"
)

const upstreamMessage = "I couldn't reach the invoicing system just now. Please try again in a moment."

// ToolError is returned by every tool on failure. Message is safe to speak;
// Err keeps the underlying cause for logs.
type ToolError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *ToolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

func NotFound(message string) *ToolError {
	return &ToolError{Kind: KindNotFound, Message: message}
}

func PreconditionViolated(message string) *ToolError {
	return &ToolError{Kind: KindPreconditionViolated, Message: message}
}

func ValidationFailed(message string) *ToolError {
	return &ToolError{Kind: KindValidationFailed, Message: message}
}

func Upstream(err error) *ToolError {
	return &ToolError{Kind: KindUpstreamUnavailable, Message: upstreamMessage, Err: err}
}

// AsToolError returns err as a *ToolError, wrapping anything else as
// UPSTREAM_UNAVAILABLE.
func AsToolError(err error) *ToolError {
	if err == nil {
		return nil
	}
	var te *ToolError
	if errors.As(err, &te) {
		return te
	}
	return Upstream(err)
}

func IsKind(err error, kind Kind) bool {
	var te *ToolError
	return errors.As(err, &te) && te.Kind == kind
}
