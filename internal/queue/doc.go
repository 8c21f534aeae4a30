// Package queue persists upload items in SQLite and exposes helpers for
// driving their lifecycle.
//
// The Store manages database connections, schema initialization, stats
// queries, and the status transitions the scheduler and the user controls
// rely on. Every mutation touches only the columns it owns so concurrent
// transfers updating different items never clobber each other's fields.
//
// Raw file bytes live only on the in-memory Item; they are never written to
// a column. Because of that, rows that are not in a terminal state when the
// database is reopened cannot be resumed and are discarded by Open, which
// reports how many were dropped so callers can surface the loss.
//
// Treat this package as the single source of truth for queue semantics; when
// you add new statuses or columns, update schema.sql and bump schemaVersion.
package queue
