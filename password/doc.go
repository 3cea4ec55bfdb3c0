// Package password hashes account passwords with Argon2id.
//
// # Output format
//
// Hashes are encoded in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// The salt is also returned hex encoded so it can be stored next to the hash.
// Verification only needs the PHC string. [Argon2.NeedsUpgrade] reports hashes
// produced with weaker parameters so the caller can re-hash after a successful login.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords.
//   - Import any other govauth package.
//   - Log plaintext passwords.
package password
