// Package ss58 encodes and decodes Substrate SS58 addresses.
//
// An SS58 address is base58(prefix || account || checksum) where the checksum is the
// first two bytes of blake2b-512("SS58PRE" || prefix || account).
//
// # What this package must NOT do
//
//   - Perform network calls or know about chains beyond their numeric prefix.
//   - Accept account ids other than 32-byte public keys.
package ss58
