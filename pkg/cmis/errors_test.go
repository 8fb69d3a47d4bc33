package cmis

import (
	"errors"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name: "error with message",
			err: &Error{
				Op:  "GetObject",
				Err: ErrObjectNotFound,
				Msg: "object doc-1",
			},
			expected: "GetObject: object doc-1: object not found",
		},
		{
			name: "error without message",
			err: &Error{
				Op:  "Query",
				Err: ErrNotSupported,
			},
			expected: "Query: operation not supported by repository",
		},
		{
			name: "error with nested error",
			err: &Error{
				Op:  "Reload",
				Err: errors.New("connection refused"),
				Msg: "fetching object data",
			},
			expected: "Reload: fetching object data: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.err.Error()
			if got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	err := opError("GetACL", ErrPermissionDenied, "acl hidden")
	if !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("errors.Is should match the sentinel through Unwrap")
	}
	if errors.Is(err, ErrObjectNotFound) {
		t.Errorf("errors.Is matched the wrong sentinel")
	}
}
