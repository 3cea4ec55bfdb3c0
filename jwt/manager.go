package jwt

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/youmark/pkcs8"
)

// DefaultTTL is the session token lifetime.
const DefaultTTL = 30 * 24 * time.Hour

var (
	ErrMissingKey        = errors.New("jwt: signing key not configured")
	ErrMissingPassphrase = errors.New("jwt: signing key passphrase not configured")
	ErrInvalidKey        = errors.New("jwt: invalid signing key")
)

// Config describes the signing material and validation rules.
type Config struct {
	TTL           time.Duration
	PrivateKeyPEM []byte
	Passphrase    string
	// PublicKeyPEM is optional; the public half of the private key is used when empty.
	PublicKeyPEM []byte
	Issuer       string
	KeyID        string
	Leeway       time.Duration
	MaxFutureIAT time.Duration
	Now          func() time.Time
}

// Manager signs and verifies session tokens.
type Manager struct {
	config     Config
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
}

// NewManager parses the key material in cfg and returns a ready Manager.
func NewManager(cfg Config) (*Manager, error) {
	if len(strings.TrimSpace(string(cfg.PrivateKeyPEM))) == 0 {
		return nil, ErrMissingKey
	}
	if cfg.Passphrase == "" {
		return nil, ErrMissingPassphrase
	}
	if cfg.TTL == 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.TTL < 0 {
		return nil, errors.New("jwt: invalid TTL configuration")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("jwt: invalid leeway configuration")
	}
	if cfg.MaxFutureIAT == 0 {
		cfg.MaxFutureIAT = 10 * time.Minute
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	cfg.KeyID = strings.TrimSpace(cfg.KeyID)

	priv, err := ParsePrivateKey(cfg.PrivateKeyPEM, cfg.Passphrase)
	if err != nil {
		return nil, err
	}
	pub := &priv.PublicKey
	if len(cfg.PublicKeyPEM) > 0 {
		pub, err = jwt.ParseRSAPublicKeyFromPEM(cfg.PublicKeyPEM)
		if err != nil {
			return nil, fmt.Errorf("%w: public key: %v", ErrInvalidKey, err)
		}
		if !pub.Equal(&priv.PublicKey) {
			return nil, fmt.Errorf("%w: public key does not match private key", ErrInvalidKey)
		}
	}

	return &Manager{config: cfg, privateKey: priv, publicKey: pub}, nil
}

// ParsePrivateKey decodes a PEM RSA key. Encrypted PKCS#8 blocks are unlocked
// with passphrase; PKCS#1 and plain PKCS#8 blocks are accepted as-is.
func ParsePrivateKey(pemBytes []byte, passphrase string) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM block", ErrInvalidKey)
	}

	var (
		key *rsa.PrivateKey
		err error
	)
	switch block.Type {
	case "ENCRYPTED PRIVATE KEY":
		key, err = pkcs8.ParsePKCS8PrivateKeyRSA(block.Bytes, []byte(passphrase))
	case "PRIVATE KEY":
		key, err = pkcs8.ParsePKCS8PrivateKeyRSA(block.Bytes)
	case "RSA PRIVATE KEY":
		key, err = x509.ParsePKCS1PrivateKey(block.Bytes)
	default:
		return nil, fmt.Errorf("%w: unsupported PEM type %q", ErrInvalidKey, block.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return key, nil
}

// TTL returns the configured token lifetime.
func (m *Manager) TTL() time.Duration {
	return m.config.TTL
}

// Issue signs claims. IssuedAt, ExpiresAt and Subject are filled in here.
func (m *Manager) Issue(claims SessionClaims) (string, error) {
	if m == nil || m.privateKey == nil {
		return "", ErrMissingKey
	}

	now := m.config.Now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(m.config.TTL))
	claims.Subject = strconv.FormatInt(claims.ID, 10)
	if m.config.Issuer != "" {
		claims.Issuer = m.config.Issuer
	}
	if claims.Addresses == nil {
		claims.Addresses = []string{}
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, &claims)
	if m.config.KeyID != "" {
		token.Header["kid"] = m.config.KeyID
	}
	return token.SignedString(m.privateKey)
}

// Parse verifies tokenStr and returns its claims.
func (m *Manager) Parse(tokenStr string) (*SessionClaims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.config.Now),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(tokenStr, &SessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodRS256.Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		if m.config.KeyID != "" {
			kid, _ := t.Header["kid"].(string)
			if kid != m.config.KeyID {
				return nil, errors.New("unknown kid")
			}
		}
		return m.publicKey, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if claims.IssuedAt != nil && claims.IssuedAt.Time.After(m.config.Now().Add(m.config.MaxFutureIAT)) {
		return nil, errors.New("token iat too far in the future")
	}
	return claims, nil
}
