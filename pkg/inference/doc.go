// Package inference provides the client for the language-model backend used
// by semantic compliance evaluation.
//
// The backend is an Ollama-style HTTP endpoint: a POST of
// {model, prompt, system} returns {response: <free text>}. Two layers wrap
// that call:
//
//   - HTTPClient performs a single request and classifies every failure into
//     a stable error kind (network, timeout, rate_limit, authentication,
//     invalid_request, server_error, unknown).
//
//   - ResilientClient adds a circuit breaker and exponential-backoff retry on
//     top of any Client. Retryable kinds (network, timeout, rate_limit) are
//     retried and drive the breaker; fatal kinds surface immediately.
//     Authentication and invalid-request failures never touch the breaker.
//
// Each ResilientClient owns its breaker instance; there is no process-wide
// shared state. Callers that need observability inject an Observer.
package inference
