package tools

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/haystackfs/haystack/pkg/types"
)

// Error codes for MCP tool responses.
const (
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeInvalidInput     = "INVALID_INPUT"
	ErrCodeIndexUnavailable = "INDEX_UNAVAILABLE"
	ErrCodeTransport        = "TRANSPORT_ERROR"
)

// CodedError is an error with an associated error code.
type CodedError struct {
	Code    string
	Message string
	Cause   error
}

func (e *CodedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *CodedError) Unwrap() error {
	return e.Cause
}

// WrapSearchError maps the engine's error taxonomy to coded tool errors.
func WrapSearchError(err error) error {
	if err == nil {
		return nil
	}

	var coded *CodedError
	switch {
	case errors.Is(err, types.ErrIndexUnavailable):
		coded = &CodedError{Code: ErrCodeIndexUnavailable, Message: "index not available", Cause: err}
	case errors.Is(err, types.ErrTransportFailure):
		coded = &CodedError{Code: ErrCodeTransport, Message: "chat platform unreachable", Cause: err}
	case errors.Is(err, types.ErrMalformedDate):
		coded = &CodedError{Code: ErrCodeInvalidInput, Message: err.Error(), Cause: err}
	default:
		coded = &CodedError{Code: ErrCodeTransport, Message: err.Error(), Cause: err}
	}

	slog.Warn("search error",
		slog.String("code", coded.Code),
		slog.String("message", coded.Message),
	)
	return coded
}

// ErrNotFound creates a not found error.
func ErrNotFound(resource, id string) error {
	return &CodedError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found: %s", resource, id),
	}
}

// ErrInvalidInput creates an invalid input error.
func ErrInvalidInput(message string) error {
	return &CodedError{
		Code:    ErrCodeInvalidInput,
		Message: message,
	}
}
