// Lattice evaluates documents against a catalog of compliance requirements.
//
// It combines a deterministic keyword strategy with optional LLM-backed
// semantic evaluation, producing per-document compliance reports and a
// cross-document compliance matrix:
//   - Indexed requirement catalog with YAML persistence
//   - Resilient inference client (retry, backoff, circuit breaker)
//   - Structured-output parsing with schema validation
//   - Report storage with retention pruning
//
// Usage:
//
//	# Evaluate documents with the default configuration
//	lattice evaluate ./docs
//
//	# Evaluate with semantic analysis against a local model
//	lattice evaluate --semantic policy.txt
//
//	# Inspect the requirement catalog
//	lattice catalog list --category Authentication
//
//	# List stored reports
//	lattice reports list --limit 20
//
//	# Show version information
//	lattice version
package main

func main() {
	Execute()
}
