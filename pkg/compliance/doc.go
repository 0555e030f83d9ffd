// Package compliance implements the dual-strategy compliance evaluator.
//
// A document is evaluated against each relevant requirement with either the
// deterministic keyword strategy or the semantic strategy, which asks a model
// backend for a structured verdict. A semantic failure of any kind (transport,
// circuit, parse, validation) falls back to the keyword strategy for that
// requirement; the failure is absorbed, never propagated. Per-requirement
// results aggregate into per-document reports and a cross-document compliance
// matrix.
package compliance
