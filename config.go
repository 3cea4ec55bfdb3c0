package govauth

import (
	"errors"
	"strings"
	"time"

	"github.com/polkassembly/govauth/jwt"
	"github.com/polkassembly/govauth/password"
)

// Config is injected once through the Builder and treated as immutable afterwards.
type Config struct {
	Token             TokenConfig
	Challenge         ChallengeConfig
	Password          PasswordConfig
	PasswordReset     PasswordResetConfig
	EmailVerification EmailVerificationConfig
	EmailChange       EmailChangeConfig
	Networks          NetworksConfig
	Roles             RolesConfig
	Username          UsernameConfig
	Security          SecurityConfig
	Notifications     NotificationsConfig
	Metrics           MetricsConfig
	TOTP              TOTPConfig
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig holds the session token signing material. PrivateKeyPEM is
// usually an encrypted PKCS#8 block unlocked with Passphrase.
type TokenConfig struct {
	PrivateKeyPEM []byte
	Passphrase    string
	PublicKeyPEM  []byte
	TTL           time.Duration
	Issuer        string
	KeyID         string
	Leeway        time.Duration
}

/*
====================================
CHALLENGE CONFIG
====================================
*/

type ChallengeConfig struct {
	TTL        time.Duration
	ContentTTL time.Duration
	NonceBytes int
}

type PasswordConfig struct {
	Memory           uint32 // in KB
	Time             uint32
	Parallelism      uint8
	SaltLength       uint32
	KeyLength        uint32
	MaxPasswordBytes int
	UpgradeOnLogin   bool
}

type PasswordResetConfig struct {
	TokenTTL time.Duration
}

type EmailVerificationConfig struct {
	TokenTTL time.Duration
}

type EmailChangeConfig struct {
	Cooldown time.Duration
}

// NetworksConfig maps network names to their SS58 prefix.
type NetworksConfig struct {
	Default  string
	Prefixes map[string]uint16
}

// Prefix returns the SS58 prefix for network, falling back to GenericPrefix.
func (n NetworksConfig) Prefix(network string) uint16 {
	if p, ok := n.Prefixes[strings.ToLower(network)]; ok {
		return p
	}
	return GenericPrefix
}

// RolesConfig names the bot accounts. Zero disables a bot role.
type RolesConfig struct {
	ProposalBotID int64
	EventBotID    int64
}

type UsernameConfig struct {
	MinLength int
	MaxLength int
	Blacklist []string
}

type SecurityConfig struct {
	EnableLoginThrottle   bool
	EnableIPThrottle      bool
	MaxLoginAttempts      int
	LoginCooldownDuration time.Duration
}

type NotificationsConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

type TOTPConfig struct {
	Issuer        string
	Digits        int
	Period        int
	Algorithm     string
	Skew          int
	LoginTokenTTL time.Duration
}

// DefaultConfig returns a Config with every field except the signing key set.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	pw := password.DefaultConfig()
	return Config{
		Token: TokenConfig{
			TTL:    jwt.DefaultTTL,
			Leeway: 30 * time.Second,
		},
		Challenge: ChallengeConfig{
			TTL:        5 * time.Minute,
			ContentTTL: time.Hour,
			NonceBytes: 32,
		},
		Password: PasswordConfig{
			Memory:           pw.Memory,
			Time:             pw.Time,
			Parallelism:      pw.Parallelism,
			SaltLength:       pw.SaltLength,
			KeyLength:        pw.KeyLength,
			MaxPasswordBytes: pw.MaxPasswordBytes,
			UpgradeOnLogin:   true,
		},
		PasswordReset: PasswordResetConfig{
			TokenTTL: 5 * time.Minute,
		},
		EmailVerification: EmailVerificationConfig{
			TokenTTL: 24 * time.Hour,
		},
		EmailChange: EmailChangeConfig{
			Cooldown: 48 * time.Hour,
		},
		Networks: NetworksConfig{
			Default: "polkadot",
			Prefixes: map[string]uint16{
				"polkadot":  0,
				"kusama":    2,
				"westend":   42,
				"rococo":    42,
				"moonbeam":  1284,
				"moonriver": 1285,
				"cere":      54,
				"picasso":   49,
			},
		},
		Username: UsernameConfig{
			MinLength: 3,
			MaxLength: 30,
			Blacklist: append([]string(nil), defaultUsernameBlacklist...),
		},
		Security: SecurityConfig{
			EnableLoginThrottle:   true,
			EnableIPThrottle:      false,
			MaxLoginAttempts:      5,
			LoginCooldownDuration: 15 * time.Minute,
		},
		Notifications: NotificationsConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: false,
		},
		TOTP: TOTPConfig{
			Issuer:        "Polkassembly",
			Digits:        6,
			Period:        30,
			Algorithm:     "SHA1",
			Skew:          1,
			LoginTokenTTL: 5 * time.Minute,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.PrivateKeyPEM = cloneBytes(cfg.Token.PrivateKeyPEM)
	out.Token.PublicKeyPEM = cloneBytes(cfg.Token.PublicKeyPEM)
	out.Username.Blacklist = append([]string(nil), cfg.Username.Blacklist...)
	if cfg.Networks.Prefixes != nil {
		out.Networks.Prefixes = make(map[string]uint16, len(cfg.Networks.Prefixes))
		for k, v := range cfg.Networks.Prefixes {
			out.Networks.Prefixes[strings.ToLower(k)] = v
		}
	}
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate checks the configuration. Missing signing material is reported by
// Build as a configuration error, not here.
func (c *Config) Validate() error {
	if c.Token.TTL <= 0 {
		return errors.New("Token TTL must be > 0")
	}
	if c.Token.Leeway < 0 || c.Token.Leeway > 2*time.Minute {
		return errors.New("Token Leeway must be between 0 and 2m")
	}

	if c.Challenge.TTL <= 0 {
		return errors.New("Challenge TTL must be > 0")
	}
	if c.Challenge.ContentTTL <= 0 {
		return errors.New("Challenge ContentTTL must be > 0")
	}
	if c.Challenge.NonceBytes < 16 {
		return errors.New("Challenge NonceBytes must be >= 16")
	}

	if c.PasswordReset.TokenTTL <= 0 {
		return errors.New("PasswordReset TokenTTL must be > 0")
	}
	if c.EmailVerification.TokenTTL <= 0 {
		return errors.New("EmailVerification TokenTTL must be > 0")
	}
	if c.EmailChange.Cooldown < 0 {
		return errors.New("EmailChange Cooldown must be >= 0")
	}

	if c.Roles.ProposalBotID != 0 && c.Roles.ProposalBotID == c.Roles.EventBotID {
		return errors.New("Roles ProposalBotID and EventBotID must differ")
	}

	if c.Username.MinLength <= 0 || c.Username.MaxLength < c.Username.MinLength {
		return errors.New("Username length bounds are invalid")
	}

	if c.Security.EnableLoginThrottle {
		if c.Security.MaxLoginAttempts <= 0 {
			return errors.New("MaxLoginAttempts must be > 0")
		}
		if c.Security.LoginCooldownDuration <= 0 {
			return errors.New("LoginCooldownDuration must be > 0")
		}
	}

	if c.Notifications.Enabled && c.Notifications.BufferSize <= 0 {
		return errors.New("Notifications BufferSize must be > 0 when notifications are enabled")
	}

	if c.TOTP.Issuer == "" {
		return errors.New("TOTP Issuer is required")
	}
	if c.TOTP.Digits != 6 && c.TOTP.Digits != 8 {
		return errors.New("TOTP Digits must be 6 or 8")
	}
	if c.TOTP.Period < 15 {
		return errors.New("TOTP Period must be >= 15 seconds")
	}
	if c.TOTP.Skew < 0 {
		return errors.New("TOTP Skew must be >= 0")
	}
	if c.TOTP.LoginTokenTTL <= 0 {
		return errors.New("TOTP LoginTokenTTL must be > 0")
	}
	switch strings.ToUpper(c.TOTP.Algorithm) {
	case "", "SHA1", "SHA256", "SHA512":
	default:
		return errors.New("TOTP Algorithm must be SHA1, SHA256, or SHA512")
	}

	return nil
}
