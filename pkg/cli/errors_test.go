package cli

import (
	"errors"
	"strings"
	"testing"
)

func TestConfigError(t *testing.T) {
	err := NewConfigError("storage.backend", "unknown backend")
	if got := err.Error(); !strings.Contains(got, "storage.backend") || !strings.Contains(got, "unknown backend") {
		t.Errorf("Error() = %q", got)
	}

	bare := NewConfigError("", "file unreadable")
	if got := bare.Error(); strings.Contains(got, "in ") {
		t.Errorf("field-less error mentions a field: %q", got)
	}
}

func TestCommandErrorUnwrap(t *testing.T) {
	cause := errors.New("catalog file missing")
	err := NewCommandError("evaluate", cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is() cannot reach the cause")
	}
	if got := err.Error(); !strings.Contains(got, "evaluate") {
		t.Errorf("Error() = %q, missing command name", got)
	}
}
