// Package signature verifies wallet signatures over challenge messages.
//
// Two schemes exist and the choice is made once per request by Resolve:
//
//   - Substrate: sr25519 or ed25519 over the raw message or its <Bytes> wrapped form.
//   - PersonalSign: EIP-191 "\x19Ethereum Signed Message" recovery for hex
//     addresses signed from an Ethereum wallet.
//
// Verify never panics and treats malformed input as a failed verification.
package signature
