// Package internal contains helpers private to govauth: secure random values
// for challenges, tokens and generated usernames.
//
// # Sub-packages
//
//   - metrics: lock-free counters and latency histograms
//   - notify: async delivery of outbound notifications
//   - rate: Redis-backed login throttling
//   - serverconfig: file and environment configuration for the server binary
//
// # What this package must NOT do
//
//   - Export types that appear in the public govauth API.
//   - Be imported by any package outside the govauth module.
package internal
