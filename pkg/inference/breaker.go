package inference

import (
	"sync"
	"time"
)

// State is a circuit breaker state.
type State string

const (
	// StateClosed allows calls through normally.
	StateClosed State = "closed"

	// StateOpen rejects calls until the reset timeout elapses.
	StateOpen State = "open"

	// StateHalfOpen allows a trial call after the reset timeout.
	StateHalfOpen State = "half-open"
)

// CircuitBreaker halts calls to a failing backend until a cool-down elapses.
//
// Transitions: failure count reaching the threshold moves closed to open;
// once the reset timeout has elapsed while open, the next CanExecute moves
// the breaker to half-open and permits a trial call; any success resets the
// failure count and closes the breaker; a failure while half-open reopens it.
//
// The breaker is shared by every worker making inference calls, so all state
// is guarded by its own mutex.
type CircuitBreaker struct {
	mu sync.Mutex

	failureThreshold int
	resetTimeout     time.Duration

	failures    int
	lastFailure time.Time
	state       State

	// now is stubbed in tests.
	now func() time.Time
}

// NewCircuitBreaker creates a closed breaker. A threshold <= 0 defaults to 5
// and a reset timeout <= 0 defaults to 60s.
func NewCircuitBreaker(failureThreshold int, resetTimeout time.Duration) *CircuitBreaker {
	if failureThreshold <= 0 {
		failureThreshold = 5
	}
	if resetTimeout <= 0 {
		resetTimeout = 60 * time.Second
	}
	return &CircuitBreaker{
		failureThreshold: failureThreshold,
		resetTimeout:     resetTimeout,
		state:            StateClosed,
		now:              time.Now,
	}
}

// RecordFailure records a backend failure, opening the breaker when the
// threshold is reached. A failure during half-open reopens immediately.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures++
	cb.lastFailure = cb.now()
	if cb.state == StateHalfOpen || cb.failures >= cb.failureThreshold {
		cb.state = StateOpen
	}
}

// RecordSuccess resets the failure count and closes the breaker.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures = 0
	cb.state = StateClosed
}

// CanExecute reports whether a call may proceed. While open, it transitions
// to half-open (and returns true) once the reset timeout has elapsed since
// the last failure.
func (cb *CircuitBreaker) CanExecute() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed, StateHalfOpen:
		return true
	default: // StateOpen
		if cb.now().Sub(cb.lastFailure) >= cb.resetTimeout {
			cb.state = StateHalfOpen
			return true
		}
		return false
	}
}

// State returns the current breaker state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Failures returns the current consecutive failure count.
func (cb *CircuitBreaker) Failures() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.failures
}

// Reset returns the breaker to its initial closed state.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.failures = 0
	cb.lastFailure = time.Time{}
	cb.state = StateClosed
}
