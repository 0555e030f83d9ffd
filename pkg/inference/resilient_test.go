package inference

import (
	"context"
	"errors"
	"testing"
	"time"
)

// stubClient fails with a fixed sequence of errors, then succeeds.
type stubClient struct {
	errs  []error
	calls int
}

func (s *stubClient) Generate(ctx context.Context, prompt, systemPrompt string) (string, error) {
	s.calls++
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		if err != nil {
			return "", err
		}
	}
	return "ok", nil
}

func newTestResilient(c Client, retry RetryConfig, breaker BreakerConfig) *ResilientClient {
	r := NewResilientClient(c, retry, breaker, nil)
	r.sleep = func(ctx context.Context, d time.Duration) error { return nil }
	r.jitter = func() float64 { return 1.0 }
	return r
}

func TestResilientRetriesTransientFailure(t *testing.T) {
	stub := &stubClient{errs: []error{
		&InferenceError{Kind: KindNetwork, Message: "refused"},
		&InferenceError{Kind: KindTimeout, Message: "deadline"},
	}}
	r := newTestResilient(stub, RetryConfig{MaxRetries: 3}, BreakerConfig{})

	got, err := r.Generate(context.Background(), "p", "s")
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if got != "ok" {
		t.Errorf("Generate() = %q", got)
	}
	if stub.calls != 3 {
		t.Errorf("calls = %d, want 3 (2 failures + 1 success)", stub.calls)
	}
	if r.Breaker().Failures() != 0 {
		t.Errorf("breaker failures = %d after success, want 0", r.Breaker().Failures())
	}
}

func TestResilientFatalErrorNotRetried(t *testing.T) {
	tests := []struct {
		name string
		kind ErrorKind
	}{
		{"authentication", KindAuthentication},
		{"invalid request", KindInvalidRequest},
		{"server error", KindServerError},
		{"unknown", KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubClient{errs: []error{
				&InferenceError{Kind: tt.kind, Message: "fatal"},
			}}
			r := newTestResilient(stub, RetryConfig{MaxRetries: 3}, BreakerConfig{})

			_, err := r.Generate(context.Background(), "p", "s")
			var ierr *InferenceError
			if !errors.As(err, &ierr) || ierr.Kind != tt.kind {
				t.Fatalf("error = %v, want kind %q", err, tt.kind)
			}
			if stub.calls != 1 {
				t.Errorf("calls = %d for fatal kind %q, want 1", stub.calls, tt.kind)
			}
		})
	}
}

func TestResilientFatalKindsAndBreakerAccounting(t *testing.T) {
	// Authentication failures must not move the breaker; server errors must.
	stub := &stubClient{errs: []error{
		&InferenceError{Kind: KindAuthentication, Message: "denied"},
	}}
	r := newTestResilient(stub, RetryConfig{MaxRetries: 1}, BreakerConfig{FailureThreshold: 1})
	r.Generate(context.Background(), "p", "s")
	if r.Breaker().Failures() != 0 {
		t.Errorf("breaker failures = %d after auth error, want 0", r.Breaker().Failures())
	}

	stub = &stubClient{errs: []error{
		&InferenceError{Kind: KindServerError, Message: "boom"},
	}}
	r = newTestResilient(stub, RetryConfig{MaxRetries: 1}, BreakerConfig{FailureThreshold: 2})
	r.Generate(context.Background(), "p", "s")
	if r.Breaker().Failures() != 1 {
		t.Errorf("breaker failures = %d after server error, want 1", r.Breaker().Failures())
	}
}

func TestResilientCircuitOpenRejection(t *testing.T) {
	stub := &stubClient{errs: []error{
		&InferenceError{Kind: KindNetwork, Message: "down"},
		&InferenceError{Kind: KindNetwork, Message: "down"},
	}}
	r := newTestResilient(stub, RetryConfig{MaxRetries: 1}, BreakerConfig{FailureThreshold: 2})

	// Two failures exhaust the retries and open the circuit.
	if _, err := r.Generate(context.Background(), "p", "s"); err == nil {
		t.Fatal("Generate() = nil, want error")
	}
	if r.Breaker().State() != StateOpen {
		t.Fatalf("breaker state = %q, want open", r.Breaker().State())
	}

	// Next call is rejected without touching the backend.
	before := stub.calls
	_, err := r.Generate(context.Background(), "p", "s")
	var coErr *CircuitOpenError
	if !errors.As(err, &coErr) {
		t.Fatalf("error type = %T, want *CircuitOpenError", err)
	}
	if stub.calls != before {
		t.Error("rejected call still reached the backend")
	}
}

func TestResilientBackoffTiming(t *testing.T) {
	// A permanently failing call with max_retries=2 and base_delay=100ms
	// must take at least 100ms + 200ms before the final error surfaces.
	stub := &stubClient{errs: []error{
		&InferenceError{Kind: KindTimeout, Message: "1"},
		&InferenceError{Kind: KindTimeout, Message: "2"},
		&InferenceError{Kind: KindTimeout, Message: "3"},
	}}
	r := NewResilientClient(stub, RetryConfig{
		MaxRetries: 2,
		BaseDelay:  100 * time.Millisecond,
		MaxDelay:   time.Second,
	}, BreakerConfig{}, nil)

	start := time.Now()
	_, err := r.Generate(context.Background(), "p", "s")
	elapsed := time.Since(start)

	if err == nil {
		t.Fatal("Generate() = nil, want error")
	}
	if stub.calls != 3 {
		t.Errorf("calls = %d, want 3", stub.calls)
	}
	if elapsed < 300*time.Millisecond {
		t.Errorf("elapsed = %s, want >= 300ms of backoff", elapsed)
	}
}

func TestResilientBackoffCappedAtMaxDelay(t *testing.T) {
	r := newTestResilient(&stubClient{}, RetryConfig{
		MaxRetries: 5,
		BaseDelay:  time.Second,
		MaxDelay:   2 * time.Second,
	}, BreakerConfig{})

	if d := r.backoff(0); d != time.Second {
		t.Errorf("backoff(0) = %s, want 1s", d)
	}
	if d := r.backoff(1); d != 2*time.Second {
		t.Errorf("backoff(1) = %s, want 2s", d)
	}
	if d := r.backoff(4); d != 2*time.Second {
		t.Errorf("backoff(4) = %s, want capped 2s", d)
	}
}

func TestResilientJitterRange(t *testing.T) {
	r := NewResilientClient(&stubClient{}, RetryConfig{
		MaxRetries: 1,
		BaseDelay:  time.Second,
		MaxDelay:   10 * time.Second,
		Jitter:     true,
	}, BreakerConfig{}, nil)

	for i := 0; i < 100; i++ {
		d := r.backoff(0)
		if d < 500*time.Millisecond || d > 1500*time.Millisecond {
			t.Fatalf("jittered backoff = %s, want within [0.5s, 1.5s]", d)
		}
	}
}

func TestResilientErrorStats(t *testing.T) {
	stub := &stubClient{errs: []error{
		&InferenceError{Kind: KindNetwork, Message: "down"},
		&InferenceError{Kind: KindRateLimit, Message: "slow"},
		nil,
	}}
	r := newTestResilient(stub, RetryConfig{MaxRetries: 3}, BreakerConfig{})

	if _, err := r.Generate(context.Background(), "p", "s"); err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	stats := r.ErrorStats()
	if stats[KindNetwork] != 1 || stats[KindRateLimit] != 1 {
		t.Errorf("stats = %v, want one network and one rate_limit", stats)
	}

	r.ResetStats()
	stats = r.ErrorStats()
	for kind, n := range stats {
		if n != 0 {
			t.Errorf("stats[%q] = %d after reset, want 0", kind, n)
		}
	}
	if r.Breaker().State() != StateClosed {
		t.Errorf("breaker state = %q after reset, want closed", r.Breaker().State())
	}
}
