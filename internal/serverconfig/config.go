// Package serverconfig loads the govauth-server settings: an optional YAML
// file first, then environment overrides.
package serverconfig

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/polkassembly/govauth"
	"gopkg.in/yaml.v3"
)

const (
	defaultListen          = ":8080"
	defaultLogLevel        = "info"
	defaultShutdownTimeout = 10 * time.Second
	defaultMetricsPath     = "/metrics"
)

type Config struct {
	Listen          string        `yaml:"listen"`
	LogLevel        string        `yaml:"logLevel"`
	TrustForwarded  bool          `yaml:"trustForwarded"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	MetricsPath     string        `yaml:"metricsPath"`

	RedisURL    string `yaml:"redisURL"`
	DatabaseURL string `yaml:"databaseURL"`

	Token   TokenConfig       `yaml:"token"`
	Roles   RolesConfig       `yaml:"roles"`
	Proxies map[string]string `yaml:"proxyEndpoints"`

	DefaultNetwork string `yaml:"defaultNetwork"`
}

type TokenConfig struct {
	PrivateKeyPath string        `yaml:"privateKeyPath"`
	PublicKeyPath  string        `yaml:"publicKeyPath"`
	Passphrase     string        `yaml:"-"`
	Issuer         string        `yaml:"issuer"`
	TTL            time.Duration `yaml:"ttl"`
}

type RolesConfig struct {
	ProposalBotID int64 `yaml:"proposalBotID"`
	EventBotID    int64 `yaml:"eventBotID"`
}

func defaults() Config {
	return Config{
		Listen:          defaultListen,
		LogLevel:        defaultLogLevel,
		ShutdownTimeout: defaultShutdownTimeout,
		MetricsPath:     defaultMetricsPath,
		Proxies:         map[string]string{},
	}
}

// Load reads path when it exists and applies GOVAUTH_* environment overrides.
// An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.Listen, "GOVAUTH_LISTEN")
	setString(&cfg.LogLevel, "GOVAUTH_LOG_LEVEL")
	setString(&cfg.MetricsPath, "GOVAUTH_METRICS_PATH")
	setString(&cfg.RedisURL, "REDIS_URL")
	setString(&cfg.DatabaseURL, "DATABASE_URL")
	setString(&cfg.Token.PrivateKeyPath, "GOVAUTH_JWT_PRIVATE_KEY_PATH")
	setString(&cfg.Token.PublicKeyPath, "GOVAUTH_JWT_PUBLIC_KEY_PATH")
	setString(&cfg.Token.Passphrase, "GOVAUTH_JWT_PASSPHRASE")
	setString(&cfg.Token.Issuer, "GOVAUTH_JWT_ISSUER")
	setString(&cfg.DefaultNetwork, "GOVAUTH_DEFAULT_NETWORK")

	if v := os.Getenv("GOVAUTH_TRUST_FORWARDED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid GOVAUTH_TRUST_FORWARDED: %w", err)
		}
		cfg.TrustForwarded = b
	}
	if v := os.Getenv("GOVAUTH_SHUTDOWN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid GOVAUTH_SHUTDOWN_TIMEOUT: %w", err)
		}
		cfg.ShutdownTimeout = d
	}
	if v := os.Getenv("GOVAUTH_JWT_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid GOVAUTH_JWT_TTL: %w", err)
		}
		cfg.Token.TTL = d
	}
	for env, dst := range map[string]*int64{
		"GOVAUTH_PROPOSAL_BOT_ID": &cfg.Roles.ProposalBotID,
		"GOVAUTH_EVENT_BOT_ID":    &cfg.Roles.EventBotID,
	} {
		v := os.Getenv(env)
		if v == "" {
			continue
		}
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", env, err)
		}
		*dst = id
	}

	// GOVAUTH_PROXY_ENDPOINTS=polkadot=wss://...,kusama=wss://...
	if v := os.Getenv("GOVAUTH_PROXY_ENDPOINTS"); v != "" {
		if cfg.Proxies == nil {
			cfg.Proxies = map[string]string{}
		}
		for _, pair := range strings.Split(v, ",") {
			network, url, ok := strings.Cut(strings.TrimSpace(pair), "=")
			if !ok || network == "" || url == "" {
				return fmt.Errorf("invalid GOVAUTH_PROXY_ENDPOINTS entry %q", pair)
			}
			cfg.Proxies[strings.ToLower(network)] = url
		}
	}
	return nil
}

func setString(dst *string, env string) {
	if v := strings.TrimSpace(os.Getenv(env)); v != "" {
		*dst = v
	}
}

func (c Config) validate() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL must be set")
	}
	if c.RedisURL == "" {
		return errors.New("REDIS_URL must be set")
	}
	if c.Token.PrivateKeyPath == "" {
		return errors.New("GOVAUTH_JWT_PRIVATE_KEY_PATH must be set")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("shutdown timeout must be > 0")
	}
	return nil
}

// SlogLevel maps LogLevel onto slog, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Engine returns the engine configuration, reading key material from disk.
func (c Config) Engine() (govauth.Config, error) {
	cfg := govauth.DefaultConfig()

	key, err := os.ReadFile(c.Token.PrivateKeyPath)
	if err != nil {
		return govauth.Config{}, fmt.Errorf("read private key: %w", err)
	}
	cfg.Token.PrivateKeyPEM = key
	cfg.Token.Passphrase = c.Token.Passphrase
	if c.Token.PublicKeyPath != "" {
		pub, err := os.ReadFile(c.Token.PublicKeyPath)
		if err != nil {
			return govauth.Config{}, fmt.Errorf("read public key: %w", err)
		}
		cfg.Token.PublicKeyPEM = pub
	}
	if c.Token.Issuer != "" {
		cfg.Token.Issuer = c.Token.Issuer
	}
	if c.Token.TTL > 0 {
		cfg.Token.TTL = c.Token.TTL
	}
	if c.DefaultNetwork != "" {
		cfg.Networks.Default = strings.ToLower(c.DefaultNetwork)
	}
	cfg.Roles.ProposalBotID = c.Roles.ProposalBotID
	cfg.Roles.EventBotID = c.Roles.EventBotID
	return cfg, nil
}
