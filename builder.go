package govauth

import (
	"errors"
	"log/slog"
	"time"

	"github.com/polkassembly/govauth/internal/notify"
	"github.com/polkassembly/govauth/internal/rate"
	"github.com/polkassembly/govauth/jwt"
	"github.com/polkassembly/govauth/kv"
	"github.com/polkassembly/govauth/password"
	"github.com/redis/go-redis/v9"
)

// DefaultStatePrefix namespaces State Store keys when the store is built from a Redis client.
const DefaultStatePrefix = "govauth:"

// Builder assembles an Engine. A Builder can be used once.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	state     kv.Store
	identity  IdentityStore
	notifier  Notifier
	proxies   ProxyLookup
	publisher ContentPublisher
	logger    *slog.Logger
	now       func() time.Time

	built bool
}

func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis backs the State Store with client (unless WithStateStore is also
// used) and enables login throttling.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

func (b *Builder) WithStateStore(store kv.Store) *Builder {
	b.state = store
	return b
}

func (b *Builder) WithIdentityStore(store IdentityStore) *Builder {
	b.identity = store
	return b
}

func (b *Builder) WithNotifier(n Notifier) *Builder {
	b.notifier = n
	return b
}

func (b *Builder) WithProxyLookup(p ProxyLookup) *Builder {
	b.proxies = p
	return b
}

func (b *Builder) WithContentPublisher(p ContentPublisher) *Builder {
	b.publisher = p
	return b
}

func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithClock overrides the engine time source. Tests use it to move across cooldowns.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires the engine. Missing signing
// material fails here with a ConfigurationError rather than on first issuance.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, newError(KindConfiguration, "invalid configuration", err)
	}

	if b.identity == nil {
		return nil, newError(KindConfiguration, "identity store required", nil)
	}

	state := b.state
	if state == nil {
		if b.redis == nil {
			return nil, newError(KindConfiguration, "state store or redis client required", nil)
		}
		state = kv.NewRedisStore(b.redis, DefaultStatePrefix)
	}

	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}
	now := b.now
	if now == nil {
		now = time.Now
	}

	tokens, err := jwt.NewManager(jwt.Config{
		TTL:           cfg.Token.TTL,
		PrivateKeyPEM: cloneBytes(cfg.Token.PrivateKeyPEM),
		Passphrase:    cfg.Token.Passphrase,
		PublicKeyPEM:  cloneBytes(cfg.Token.PublicKeyPEM),
		Issuer:        cfg.Token.Issuer,
		KeyID:         cfg.Token.KeyID,
		Leeway:        cfg.Token.Leeway,
		Now:           now,
	})
	if err != nil {
		if errors.Is(err, jwt.ErrMissingKey) || errors.Is(err, jwt.ErrMissingPassphrase) {
			return nil, newError(KindConfiguration, ErrSigningKeyMissing.Msg, err)
		}
		return nil, newError(KindConfiguration, "invalid session signing key", err)
	}

	ph, err := password.NewArgon2(password.Config{
		Memory:           cfg.Password.Memory,
		Time:             cfg.Password.Time,
		Parallelism:      cfg.Password.Parallelism,
		SaltLength:       cfg.Password.SaltLength,
		KeyLength:        cfg.Password.KeyLength,
		MaxPasswordBytes: cfg.Password.MaxPasswordBytes,
	})
	if err != nil {
		return nil, newError(KindConfiguration, "invalid password configuration", err)
	}

	engine := &Engine{
		config:       cfg,
		logger:       logger,
		now:          now,
		state:        state,
		identity:     b.identity,
		proxies:      b.proxies,
		publisher:    b.publisher,
		tokens:       tokens,
		passwordHash: ph,
		totp:         newTOTPManager(cfg.TOTP),
		metrics:      NewMetrics(cfg.Metrics),
	}

	if b.redis != nil && cfg.Security.EnableLoginThrottle {
		engine.rateLimiter = rate.New(b.redis, rate.Config{
			EnableIPThrottle:      cfg.Security.EnableIPThrottle,
			MaxLoginAttempts:      cfg.Security.MaxLoginAttempts,
			LoginCooldownDuration: cfg.Security.LoginCooldownDuration,
		})
	}

	notifier := b.notifier
	if notifier == nil {
		notifier = NoOpNotifier{}
	}
	engine.notifications = notify.NewDispatcher(notify.Config{
		Enabled:    cfg.Notifications.Enabled,
		BufferSize: cfg.Notifications.BufferSize,
		DropIfFull: cfg.Notifications.DropIfFull,
	}, notifier.Notify, logger.With(slog.String("component", "notifications")))

	b.built = true

	return engine, nil
}
