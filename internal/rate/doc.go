// Package rate provides Redis-backed fixed-window counters for throttling
// password logins.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on first hit. Key prefixes:
//   - gl:  login per identifier
//   - gli: login per IP
//
// # What this package must NOT do
//
//   - Decide what happens to a throttled request; it only reports ErrRateLimited.
//   - Be imported outside the govauth module.
package rate
