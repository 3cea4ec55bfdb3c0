// Package govauth provides the authentication and session-issuance engine of
// a governance platform: password and wallet logins, wallet signups,
// multisig and proxy address linking, signed content attestation and the
// account mutations around them.
//
// Engine methods are safe to call from multiple goroutines after
// initialization through [Builder.Build]. The engine keeps no per-request
// state of its own: pending challenges and short-lived tokens live in a
// [kv.Store], accounts and addresses in an [IdentityStore].
//
// # Challenge flows
//
// Every wallet flow is a start/confirm pair. Start stores a nonce-bearing
// message under a flow-specific key with a short TTL. Confirm verifies the
// client's signature over that message and consumes it; a consumed or
// expired challenge fails with a KindExpired error, distinct from a bad
// signature.
//
// # Errors
//
// Every operation returns *Error. Branch on the kind with errors.Is against
// the kind sentinels (ErrNotFound, ErrForbidden, ...) or with KindOf.
//
// # Architecture boundaries
//
// Leaf packages (ss58, multisig, signature, password, jwt, kv) never import
// govauth. Backends (store/memory, store/postgres, proxy) and adapters
// (middleware, httpapi, metrics/export/...) import it, never the reverse.
package govauth
