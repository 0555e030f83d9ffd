package inference

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"time"
)

// RetryConfig controls the retry/backoff behavior of ResilientClient.
type RetryConfig struct {
	// MaxRetries is the number of retries after the initial attempt.
	// Default: 3.
	MaxRetries int

	// BaseDelay is the delay before the first retry. Default: 1s.
	BaseDelay time.Duration

	// MaxDelay caps the backoff delay. Default: 10s.
	MaxDelay time.Duration

	// Jitter scales each delay by a uniform factor in [0.5, 1.5].
	Jitter bool
}

// BreakerConfig controls the circuit breaker of ResilientClient.
type BreakerConfig struct {
	// FailureThreshold opens the circuit when reached. Default: 5.
	FailureThreshold int

	// ResetTimeout is the cool-down before a trial call. Default: 60s.
	ResetTimeout time.Duration
}

// Observer receives call-level telemetry from a ResilientClient.
type Observer interface {
	// ObserveCall is invoked once per Generate with the final outcome.
	// kind is empty on success.
	ObserveCall(kind ErrorKind, attempts int, duration time.Duration)

	// ObserveCircuitState is invoked whenever the breaker state may have
	// changed.
	ObserveCircuitState(state State)
}

// ResilientClient wraps a Client with a circuit breaker, exponential-backoff
// retry, and per-kind error accounting.
//
// The wrapped call is the only blocking operation; the breaker lock is never
// held across it.
type ResilientClient struct {
	client   Client
	breaker  *CircuitBreaker
	retry    RetryConfig
	logger   *slog.Logger
	observer Observer

	statsMu sync.Mutex
	stats   map[ErrorKind]int

	// sleep and jitter are stubbed in tests.
	sleep  func(ctx context.Context, d time.Duration) error
	jitter func() float64
}

// NewResilientClient wraps client with retry and circuit breaking.
// The client owns its breaker instance; nothing is shared across clients.
func NewResilientClient(client Client, retry RetryConfig, breaker BreakerConfig, logger *slog.Logger) *ResilientClient {
	if retry.MaxRetries < 0 {
		retry.MaxRetries = 0
	} else if retry.MaxRetries == 0 {
		retry.MaxRetries = 3
	}
	if retry.BaseDelay <= 0 {
		retry.BaseDelay = time.Second
	}
	if retry.MaxDelay <= 0 {
		retry.MaxDelay = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	stats := make(map[ErrorKind]int, len(Kinds()))
	for _, k := range Kinds() {
		stats[k] = 0
	}

	return &ResilientClient{
		client:  client,
		breaker: NewCircuitBreaker(breaker.FailureThreshold, breaker.ResetTimeout),
		retry:   retry,
		logger:  logger.With("component", "inference.resilient"),
		stats:   stats,
		sleep:   sleepContext,
		jitter:  func() float64 { return 0.5 + rand.Float64() },
	}
}

// SetObserver attaches a telemetry observer. Must be called before the first
// Generate.
func (r *ResilientClient) SetObserver(obs Observer) {
	r.observer = obs
}

// Breaker exposes the client's circuit breaker, chiefly for tests and
// observability.
func (r *ResilientClient) Breaker() *CircuitBreaker {
	return r.breaker
}

// Generate implements Client. It rejects immediately with *CircuitOpenError
// when the breaker is open, retries retryable failures with exponential
// backoff, and surfaces fatal failures without further attempts.
func (r *ResilientClient) Generate(ctx context.Context, prompt, systemPrompt string) (string, error) {
	start := time.Now()

	if !r.breaker.CanExecute() {
		r.logger.Warn("call rejected by open circuit", "failures", r.breaker.Failures())
		r.observe(KindUnknown, 0, time.Since(start))
		return "", &CircuitOpenError{Failures: r.breaker.Failures()}
	}

	var lastErr *InferenceError
	for attempt := 0; attempt <= r.retry.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := r.backoff(attempt - 1)
			r.logger.Debug("retrying inference call",
				"attempt", attempt,
				"max_retries", r.retry.MaxRetries,
				"delay", delay,
			)
			if err := r.sleep(ctx, delay); err != nil {
				r.observe(KindTimeout, attempt, time.Since(start))
				return "", &InferenceError{
					Kind:    KindTimeout,
					Message: "cancelled while waiting to retry",
					Cause:   err,
				}
			}
			if !r.breaker.CanExecute() {
				r.observe(lastErr.Kind, attempt, time.Since(start))
				return "", &CircuitOpenError{Failures: r.breaker.Failures()}
			}
		}

		text, err := r.client.Generate(ctx, prompt, systemPrompt)
		if err == nil {
			r.breaker.RecordSuccess()
			r.observe("", attempt+1, time.Since(start))
			return text, nil
		}

		lastErr = asInferenceError(err)
		r.recordError(lastErr.Kind)
		if lastErr.Kind.CountsTowardBreaker() {
			r.breaker.RecordFailure()
		}

		if !lastErr.Kind.Retryable() {
			r.logger.Warn("fatal inference failure",
				"kind", lastErr.Kind,
				"error", lastErr.Message,
			)
			r.observe(lastErr.Kind, attempt+1, time.Since(start))
			return "", lastErr
		}

		r.logger.Warn("retryable inference failure",
			"kind", lastErr.Kind,
			"attempt", attempt+1,
			"error", lastErr.Message,
		)
	}

	r.observe(lastErr.Kind, r.retry.MaxRetries+1, time.Since(start))
	return "", lastErr
}

// ErrorStats returns a snapshot of the per-kind error counters.
func (r *ResilientClient) ErrorStats() map[ErrorKind]int {
	r.statsMu.Lock()
	defer r.statsMu.Unlock()

	out := make(map[ErrorKind]int, len(r.stats))
	for k, v := range r.stats {
		out[k] = v
	}
	return out
}

// ResetStats zeroes the error counters and resets the circuit breaker.
func (r *ResilientClient) ResetStats() {
	r.statsMu.Lock()
	for _, k := range Kinds() {
		r.stats[k] = 0
	}
	r.statsMu.Unlock()

	r.breaker.Reset()
	if r.observer != nil {
		r.observer.ObserveCircuitState(r.breaker.State())
	}
}

func (r *ResilientClient) recordError(kind ErrorKind) {
	r.statsMu.Lock()
	r.stats[kind]++
	r.statsMu.Unlock()
}

func (r *ResilientClient) observe(kind ErrorKind, attempts int, d time.Duration) {
	if r.observer == nil {
		return
	}
	r.observer.ObserveCall(kind, attempts, d)
	r.observer.ObserveCircuitState(r.breaker.State())
}

// backoff computes the delay before retry number attempt+1:
// min(base * 2^attempt, max), optionally jittered by [0.5, 1.5].
func (r *ResilientClient) backoff(attempt int) time.Duration {
	delay := r.retry.BaseDelay << uint(attempt)
	if delay > r.retry.MaxDelay || delay <= 0 {
		delay = r.retry.MaxDelay
	}
	if r.retry.Jitter {
		delay = time.Duration(float64(delay) * r.jitter())
	}
	return delay
}

// sleepContext sleeps for d or until the context is cancelled.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
