// Package jwt issues and verifies RS256 session tokens.
//
// The signing key is a PEM encoded RSA key, normally an encrypted PKCS#8
// block unlocked with a passphrase. A Manager never issues tokens without both.
package jwt
