package inference

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorKindRetryable(t *testing.T) {
	tests := []struct {
		kind ErrorKind
		want bool
	}{
		{KindNetwork, true},
		{KindTimeout, true},
		{KindRateLimit, true},
		{KindAuthentication, false},
		{KindInvalidRequest, false},
		{KindServerError, false},
		{KindUnknown, false},
	}
	for _, tt := range tests {
		if got := tt.kind.Retryable(); got != tt.want {
			t.Errorf("Retryable(%q) = %v, want %v", tt.kind, got, tt.want)
		}
	}
}

func TestErrorKindCountsTowardBreaker(t *testing.T) {
	tests := []struct {
		kind ErrorKind
		want bool
	}{
		{KindNetwork, true},
		{KindTimeout, true},
		{KindRateLimit, true},
		{KindAuthentication, false},
		{KindInvalidRequest, false},
		{KindServerError, true},
		{KindUnknown, true},
	}
	for _, tt := range tests {
		if got := tt.kind.CountsTowardBreaker(); got != tt.want {
			t.Errorf("CountsTowardBreaker(%q) = %v, want %v", tt.kind, got, tt.want)
		}
	}
}

func TestInferenceErrorUnwrap(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := &InferenceError{Kind: KindNetwork, Message: "failed to reach backend", Cause: cause}

	if !errors.Is(err, cause) {
		t.Error("errors.Is did not find the wrapped cause")
	}

	var ierr *InferenceError
	wrapped := fmt.Errorf("call failed: %w", err)
	if !errors.As(wrapped, &ierr) {
		t.Fatal("errors.As did not find *InferenceError in chain")
	}
	if ierr.Kind != KindNetwork {
		t.Errorf("Kind = %q, want %q", ierr.Kind, KindNetwork)
	}
}

func TestAsInferenceError(t *testing.T) {
	plain := fmt.Errorf("something broke")
	got := asInferenceError(plain)
	if got.Kind != KindUnknown {
		t.Errorf("Kind = %q for plain error, want %q", got.Kind, KindUnknown)
	}

	typed := &InferenceError{Kind: KindRateLimit, Message: "slow down"}
	if asInferenceError(typed) != typed {
		t.Error("asInferenceError re-wrapped an *InferenceError")
	}
}
