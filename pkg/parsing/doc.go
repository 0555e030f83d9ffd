// Package parsing turns free-form model output into validated structured
// payloads.
//
// Model backends wrap JSON in markdown fences and surrounding prose, so the
// parser first strips fencing, then attempts a direct decode of the cleaned
// text, and only falls back to locating the first balanced object or array
// region. The decoded payload is validated against a named schema and the
// parser reports a derived confidence score alongside extraction metadata.
package parsing
