// Package storage persists document compliance reports for the audit trail.
//
// Two backends implement the Store interface: an in-memory store for tests
// and short-lived runs, and a SQLite store for durable history. Retention is
// handled by a Pruner, optionally driven on a cron schedule.
package storage
