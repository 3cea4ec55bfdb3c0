// Package middleware exposes HTTP adapters around session token validation.
//
// # Guards
//
//   - [Guard] parses the bearer token and injects the session claims.
//   - [RequireRole] rejects requests whose token does not allow a role.
//   - [ClientIP] attaches the caller IP for login throttling.
//
// Token parsing is delegated to a [TokenParser], normally *govauth.Engine.
package middleware
