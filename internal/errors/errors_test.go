package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorString(t *testing.T) {
	err := New(Storage, "/tmp/db", "open", "storage failure", nil)
	got := err.Error()
	for _, part := range []string{"storage", "open", "/tmp/db", "storage failure"} {
		if !strings.Contains(got, part) {
			t.Errorf("Error() = %q, missing %q", got, part)
		}
	}
	if strings.Contains(got, "caused by") {
		t.Errorf("Error() = %q, mentions a cause with none set", got)
	}
}

func TestErrorStringWithCause(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := New(Storage, "/tmp/db", "put", "storage failure", cause)
	if got := err.Error(); !strings.Contains(got, "disk full") {
		t.Errorf("Error() = %q, missing cause", got)
	}
}

func TestUnwrap(t *testing.T) {
	cause := fmt.Errorf("root")
	err := NewEncode("bp1", "marshal", cause)
	if got := errors.Unwrap(err); got != cause {
		t.Errorf("Unwrap = %v, want %v", got, cause)
	}
}

func TestIsMatchesByType(t *testing.T) {
	err := NewMalformedInput("https://bad", "parse", nil)

	if !errors.Is(err, &AnalysisError{Type: MalformedInput}) {
		t.Error("errors.Is should match on type")
	}
	if errors.Is(err, &AnalysisError{Type: Storage}) {
		t.Error("errors.Is matched a different type")
	}
}

func TestTypeOf(t *testing.T) {
	tests := []struct {
		err  error
		want ErrorType
	}{
		{NewStorage("/tmp/db", "open", nil), Storage},
		{fmt.Errorf("wrapped: %w", NewEncode("x", "marshal", nil)), Encode},
		{fmt.Errorf("plain"), Unknown},
		{nil, Unknown},
	}

	for _, tt := range tests {
		if got := TypeOf(tt.err); got != tt.want {
			t.Errorf("TypeOf(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestRecoverable(t *testing.T) {
	tests := []struct {
		typ  ErrorType
		want bool
	}{
		{MalformedInput, true},
		{InconsistentGraph, true},
		{EmptyInput, true},
		{Storage, false},
		{Encode, false},
		{Unknown, false},
	}

	for _, tt := range tests {
		if got := tt.typ.Recoverable(); got != tt.want {
			t.Errorf("%v.Recoverable() = %v, want %v", tt.typ, got, tt.want)
		}
	}
}

func TestTypeString(t *testing.T) {
	tests := []struct {
		typ  ErrorType
		want string
	}{
		{MalformedInput, "malformed_input"},
		{InconsistentGraph, "inconsistent_graph"},
		{EmptyInput, "empty_input"},
		{Storage, "storage"},
		{Encode, "encode"},
		{Unknown, "unknown"},
	}

	for _, tt := range tests {
		if got := tt.typ.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
