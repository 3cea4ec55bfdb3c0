// Package notify delivers outbound messages on a background goroutine so that
// request paths never wait on, or fail because of, delivery.
//
// # What this package must NOT do
//
//   - Propagate delivery errors to the emitter; they are logged and counted.
//   - Import govauth or any sibling package.
package notify
