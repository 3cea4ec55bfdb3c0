package govauth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/polkassembly/govauth/internal/notify"
	"github.com/polkassembly/govauth/internal/rate"
	"github.com/polkassembly/govauth/jwt"
	"github.com/polkassembly/govauth/kv"
	"github.com/polkassembly/govauth/password"
	"github.com/polkassembly/govauth/signature"
)

// Role names carried in session tokens.
const (
	RoleUser        = "user"
	RoleProposalBot = "proposal_bot"
	RoleEventBot    = "event_bot"
)

// Engine orchestrates every authentication flow. It holds no per-request
// state: challenges and short-lived tokens live in the State Store, accounts
// in the IdentityStore.
type Engine struct {
	config        Config
	logger        *slog.Logger
	now           func() time.Time
	state         kv.Store
	identity      IdentityStore
	proxies       ProxyLookup
	publisher     ContentPublisher
	notifications *notify.Dispatcher[Notification]
	rateLimiter   *rate.Limiter
	metrics       *Metrics
	passwordHash  *password.Argon2
	totp          *totpManager
	tokens        *jwt.Manager
}

// Close flushes pending notifications.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.notifications.Close()
}

func (e *Engine) NotificationsDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.notifications.Dropped()
}

func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) observeConfirm(start time.Time) {
	if e.metrics == nil {
		return
	}
	e.metrics.Observe(MetricConfirmLatency, time.Since(start))
}

func (e *Engine) notify(ctx context.Context, n Notification) {
	if n.Timestamp.IsZero() {
		n.Timestamp = e.now()
	}
	e.notifications.Emit(ctx, n)
	e.metricInc(MetricNotificationEmitted)
}

func (e *Engine) ready() error {
	if e == nil || e.identity == nil || e.state == nil || e.tokens == nil {
		return ErrEngineNotReady
	}
	return nil
}

// verifySignature checks sig over message for address, choosing the scheme from the
// address shape and the wallet.
func verifySignature(message, address, sig, wallet string) bool {
	scheme := signature.Resolve(address, signature.ParseWallet(wallet))
	return signature.Verify(scheme, message, address, sig)
}

func (e *Engine) networkOrDefault(network string) string {
	if network == "" {
		return e.config.Networks.Default
	}
	return network
}

func (e *Engine) getUser(ctx context.Context, userID int64) (*User, error) {
	user, err := e.identity.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, storeErr("load user", err)
	}
	return user, nil
}

/*
====================================
SESSION TOKENS
====================================
*/

// IssueToken signs a fresh session token from the user's current state.
func (e *Engine) IssueToken(ctx context.Context, userID int64) (string, error) {
	if err := e.ready(); err != nil {
		return "", err
	}
	user, err := e.getUser(ctx, userID)
	if err != nil {
		return "", err
	}
	return e.issueSessionToken(ctx, user, "", "")
}

// ParseToken validates a session token and returns its claims.
func (e *Engine) ParseToken(token string) (*jwt.SessionClaims, error) {
	if e == nil || e.tokens == nil {
		return nil, ErrEngineNotReady
	}
	claims, err := e.tokens.Parse(token)
	if err != nil {
		return nil, newError(KindUnauthorized, ErrTokenInvalid.Msg, err)
	}
	return claims, nil
}

func (e *Engine) issueSessionToken(ctx context.Context, user *User, loginAddress, loginWallet string) (string, error) {
	if e.tokens == nil {
		return "", ErrSigningKeyMissing
	}

	addresses := []string{}
	defaultAddress := ""
	owned, err := e.identity.GetAddressesByUser(ctx, user.ID, true)
	if err != nil {
		e.metricInc(MetricTokenAddressLookupFailed)
		e.logger.WarnContext(ctx, "address lookup failed during token issuance",
			slog.Int64("user_id", user.ID), slog.Any("error", err))
	} else {
		for _, a := range owned {
			addresses = append(addresses, a.Address)
			if a.Default {
				defaultAddress = a.Address
			}
		}
	}

	claims := jwt.SessionClaims{
		ID:             user.ID,
		Username:       user.Username,
		Email:          user.Email,
		EmailVerified:  user.EmailVerified,
		Addresses:      addresses,
		DefaultAddress: defaultAddress,
		Roles:          e.rolesFor(user.ID),
		Web3Signup:     user.Web3Signup,
		Is2FAEnabled:   user.TwoFactor.Active(),
		LoginAddress:   loginAddress,
		LoginWallet:    loginWallet,
	}

	token, err := e.tokens.Issue(claims)
	if err != nil {
		if errors.Is(err, jwt.ErrMissingKey) {
			return "", ErrSigningKeyMissing
		}
		return "", newError(KindInternal, "sign session token", err)
	}
	e.metricInc(MetricTokenIssued)
	return token, nil
}

func (e *Engine) rolesFor(userID int64) jwt.Roles {
	roles := jwt.Roles{AllowedRoles: []string{RoleUser}, CurrentRole: RoleUser}
	switch {
	case e.config.Roles.ProposalBotID != 0 && userID == e.config.Roles.ProposalBotID:
		roles.AllowedRoles = append(roles.AllowedRoles, RoleProposalBot)
		roles.CurrentRole = RoleProposalBot
	case e.config.Roles.EventBotID != 0 && userID == e.config.Roles.EventBotID:
		roles.AllowedRoles = append(roles.AllowedRoles, RoleEventBot)
		roles.CurrentRole = RoleEventBot
	}
	return roles
}
