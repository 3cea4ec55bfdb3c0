package jwt

import (
	"strconv"

	"github.com/golang-jwt/jwt/v5"
)

// Roles carries the role set embedded in a session token.
type Roles struct {
	AllowedRoles []string `json:"allowedRoles"`
	CurrentRole  string   `json:"currentRole"`
}

// Has reports whether role is allowed.
func (r Roles) Has(role string) bool {
	for _, allowed := range r.AllowedRoles {
		if allowed == role {
			return true
		}
	}
	return false
}

// SessionClaims is the payload of a session token.
type SessionClaims struct {
	ID             int64    `json:"id"`
	Username       string   `json:"username"`
	Email          string   `json:"email"`
	EmailVerified  bool     `json:"email_verified"`
	Addresses      []string `json:"addresses"`
	DefaultAddress string   `json:"default_address"`
	Roles          Roles    `json:"roles"`
	Web3Signup     bool     `json:"web3signup"`
	Is2FAEnabled   bool     `json:"is2FAEnabled,omitempty"`
	LoginAddress   string   `json:"login_address,omitempty"`
	LoginWallet    string   `json:"login_wallet,omitempty"`
	jwt.RegisteredClaims
}

// UserID returns the numeric id, falling back to the subject claim.
func (c *SessionClaims) UserID() int64 {
	if c.ID != 0 {
		return c.ID
	}
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0
	}
	return id
}
