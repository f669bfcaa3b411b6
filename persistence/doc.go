// Package persistence provides storage interfaces and implementations
// for debate sessions, opinions, decisions, and reviewer weights.
//
// The engine treats storage as best-effort: failures are logged and
// retried with backoff but never block or change a decision — the
// in-memory transcript is authoritative until a successful flush.
//
// Supported backends:
//   - Memory: for development and testing (default)
//   - Redis: for shared deployments
//   - SQLite (gorm): for durable single-node weight and decision history
package persistence
