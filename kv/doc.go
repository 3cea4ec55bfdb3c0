// Package kv defines the ephemeral key/value store that holds one-time
// challenges and short-lived tokens.
//
// Every value carries a TTL; the store is never used for state that must
// survive a restart. Take is the only way challenges are consumed: it reads
// and deletes a key in one atomic step so that two racing callers cannot both
// observe the same value.
//
// # Architecture boundaries
//
// Backends treat keys and values as opaque strings. Key naming (purpose
// prefixes) belongs to the caller.
package kv
