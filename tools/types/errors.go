package types

import (
	"errors"
	"fmt"
)

// Stable error codes surfaced in ResultBundle.error_code.
const (
	CodeNodeNotFound     = "NODE_NOT_FOUND"
	CodePropertyInvalid  = "PROPERTY_INVALID_OR_READONLY"
	CodeMissingArgument  = "MISSING_ARGUMENT"
	CodeUnknownOperation = "UNKNOWN_OPERATION"
	CodeFileError        = "FILE_ERROR"
	CodeSessionNotFound  = "SESSION_NOT_FOUND"
)

// OperationError marks tool failures that carry a stable code and
// structured data through to the ResultBundle.
type OperationError struct {
	Code    string
	Message string
	Data    map[string]any
}

func (e *OperationError) Error() string {
	if e == nil {
		return "tool operation error"
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return fmt.Sprintf("tool operation error: %s", e.Code)
	}
	return "tool operation error"
}

func NewOperationError(code, message string, data map[string]any) *OperationError {
	return &OperationError{Code: code, Message: message, Data: data}
}

// NewNodeNotFoundError names both the unresolved path and the root the
// search ran from, so callers can tell a typo from a wrong scene.
func NewNodeNotFoundError(path, rootName string) *OperationError {
	message := fmt.Sprintf("Node not found: %s", path)
	if rootName != "" {
		message = fmt.Sprintf("Node not found: %s (searched from root %q)", path, rootName)
	}
	return NewOperationError(CodeNodeNotFound, message,
		map[string]any{"node_path": path})
}

func AsOperationError(err error) (*OperationError, bool) {
	if err == nil {
		return nil, false
	}
	var opErr *OperationError
	if errors.As(err, &opErr) {
		return opErr, true
	}
	return nil, false
}
