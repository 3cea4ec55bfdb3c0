// Package httpapi exposes the Engine over HTTP. Every operation is a
// POST /auth/actions/<operation> with a JSON body; authenticated operations
// take a bearer session token.
package httpapi
