// Package errors provides error types for the analysis pipeline.
//
// The pipeline has no fatal internal errors: malformed inputs are excluded
// item by item and inconsistent graph states are skipped, so these types
// mostly feed diagnostics and the storage/encoding edges of the system.
package errors

import (
	"errors"
	"fmt"
)

// ErrorType categorizes analysis errors.
type ErrorType int

const (
	// Unknown is an uncategorized error.
	Unknown ErrorType = iota
	// MalformedInput represents unparseable capture data (bad URL, missing
	// required field). Always recovered by excluding the offending item.
	MalformedInput
	// InconsistentGraph represents a graph invariant violation encountered
	// mid-traversal (e.g., a zero shortest-path count where one is
	// expected). Skipped defensively, never propagated.
	InconsistentGraph
	// EmptyInput represents an empty capture batch. Not a failure; all
	// components return empty results.
	EmptyInput
	// Storage represents project-store failures (bbolt open/read/write).
	Storage
	// Encode represents serialization failures (JSON, YAML, HAR).
	Encode
)

// String returns the string representation of ErrorType.
func (t ErrorType) String() string {
	switch t {
	case MalformedInput:
		return "malformed_input"
	case InconsistentGraph:
		return "inconsistent_graph"
	case EmptyInput:
		return "empty_input"
	case Storage:
		return "storage"
	case Encode:
		return "encode"
	default:
		return "unknown"
	}
}

// Recoverable reports whether errors of this type are recovered inside the
// pipeline rather than surfaced to the caller.
func (t ErrorType) Recoverable() bool {
	switch t {
	case MalformedInput, InconsistentGraph, EmptyInput:
		return true
	default:
		return false
	}
}

// AnalysisError represents a categorized analysis error.
type AnalysisError struct {
	Type      ErrorType
	Subject   string // URL, exchange id, node id, or file path
	Operation string
	Message   string
	Cause     error
}

// Error implements the error interface.
func (e *AnalysisError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s error during %s on %s: %s (caused by: %v)",
			e.Type.String(), e.Operation, e.Subject, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s error during %s on %s: %s",
		e.Type.String(), e.Operation, e.Subject, e.Message)
}

// Unwrap returns the underlying error.
func (e *AnalysisError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches a target.
func (e *AnalysisError) Is(target error) bool {
	t, ok := target.(*AnalysisError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// New creates a new AnalysisError.
func New(errType ErrorType, subject, operation, message string, cause error) *AnalysisError {
	return &AnalysisError{
		Type:      errType,
		Subject:   subject,
		Operation: operation,
		Message:   message,
		Cause:     cause,
	}
}

// NewMalformedInput creates a malformed-input error.
func NewMalformedInput(subject, operation string, cause error) *AnalysisError {
	return New(MalformedInput, subject, operation, "malformed input", cause)
}

// NewInconsistentGraph creates an inconsistent-graph error.
func NewInconsistentGraph(nodeID, operation, message string) *AnalysisError {
	return New(InconsistentGraph, nodeID, operation, message, nil)
}

// NewStorage creates a storage error.
func NewStorage(path, operation string, cause error) *AnalysisError {
	return New(Storage, path, operation, "storage failure", cause)
}

// NewEncode creates an encoding error.
func NewEncode(subject, operation string, cause error) *AnalysisError {
	return New(Encode, subject, operation, "encoding failure", cause)
}

// TypeOf returns the ErrorType of an error, or Unknown.
func TypeOf(err error) ErrorType {
	var ae *AnalysisError
	if errors.As(err, &ae) {
		return ae.Type
	}
	return Unknown
}
