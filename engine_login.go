package govauth

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/polkassembly/govauth/internal"
	"github.com/polkassembly/govauth/internal/rate"
	"github.com/polkassembly/govauth/kv"
)

// Login authenticates with a username or email and a password. When the
// account has two-factor enabled the result carries a TFAToken instead of a
// session token.
func (e *Engine) Login(ctx context.Context, usernameOrEmail, password string) (*LoginResult, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}

	identifier := strings.TrimSpace(usernameOrEmail)
	if identifier == "" || password == "" {
		return nil, invalidParams("username or email and password are required")
	}

	ip := clientIPFromContext(ctx)
	if e.rateLimiter != nil {
		if err := e.rateLimiter.CheckLogin(ctx, identifier, ip); err != nil {
			if !errors.Is(err, rate.ErrRateLimited) {
				return nil, storeErr("check login limit", err)
			}
			e.metricInc(MetricLoginRateLimited)
			return nil, ErrLoginRateLimited
		}
	}

	user, err := e.lookupLoginUser(ctx, identifier)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, e.loginFailed(ctx, identifier, ip)
		}
		return nil, err
	}
	if user.Password == "" {
		return nil, e.loginFailed(ctx, identifier, ip)
	}

	ok, err := e.passwordHash.Verify(password, user.Password)
	if err != nil || !ok {
		return nil, e.loginFailed(ctx, identifier, ip)
	}

	if e.rateLimiter != nil {
		if err := e.rateLimiter.ResetLogin(ctx, identifier, ip); err != nil {
			e.logger.WarnContext(ctx, "reset login counter failed", slog.Any("error", err))
		}
	}

	if e.config.Password.UpgradeOnLogin {
		e.upgradePasswordHash(ctx, user, password)
	}

	e.metricInc(MetricLoginSuccess)
	return e.completeLogin(ctx, user, "", "")
}

func (e *Engine) lookupLoginUser(ctx context.Context, identifier string) (*User, error) {
	var (
		user *User
		err  error
	)
	if strings.Contains(identifier, "@") {
		user, err = e.identity.GetUserByEmail(ctx, strings.ToLower(identifier))
	} else {
		user, err = e.identity.GetUserByUsername(ctx, identifier)
	}
	if err != nil {
		return nil, storeErr("load user", err)
	}
	return user, nil
}

func (e *Engine) loginFailed(ctx context.Context, identifier, ip string) error {
	e.metricInc(MetricLoginFailure)
	if e.rateLimiter != nil {
		if err := e.rateLimiter.IncrementLogin(ctx, identifier, ip); err != nil {
			if !errors.Is(err, rate.ErrRateLimited) {
				e.logger.WarnContext(ctx, "record login failure failed", slog.Any("error", err))
				return ErrInvalidCredentials
			}
			e.metricInc(MetricLoginRateLimited)
			return ErrLoginRateLimited
		}
	}
	return ErrInvalidCredentials
}

func (e *Engine) upgradePasswordHash(ctx context.Context, user *User, password string) {
	needs, err := e.passwordHash.NeedsUpgrade(user.Password)
	if err != nil || !needs {
		return
	}
	hash, salt, err := e.passwordHash.Hash(password)
	if err != nil {
		return
	}
	user.Password = hash
	user.Salt = salt
	if err := e.identity.UpdateUser(ctx, user); err != nil {
		e.logger.WarnContext(ctx, "password rehash failed", slog.Int64("user_id", user.ID), slog.Any("error", err))
	}
}

// completeLogin either issues a session token or, with two-factor active,
// parks a login token under TFA-<userID> for ConfirmTFALogin.
func (e *Engine) completeLogin(ctx context.Context, user *User, loginAddress, loginWallet string) (*LoginResult, error) {
	if user.TwoFactor.Active() {
		tfaToken, err := internal.NewSecret(32)
		if err != nil {
			return nil, newError(KindInternal, "generate two-factor token", err)
		}
		if err := e.putToken(ctx, tfaLoginKey(user.ID), tfaToken, e.config.TOTP.LoginTokenTTL); err != nil {
			return nil, err
		}
		e.metricInc(MetricTFARequired)
		return &LoginResult{UserID: user.ID, TFARequired: true, TFAToken: tfaToken}, nil
	}

	token, err := e.issueSessionToken(ctx, user, loginAddress, loginWallet)
	if err != nil {
		return nil, err
	}
	return &LoginResult{UserID: user.ID, Token: token}, nil
}

func tfaLoginKey(userID int64) string {
	return prefixTFALogin + strconv.FormatInt(userID, 10)
}

// AddressLoginStart issues a login challenge for a linked address.
func (e *Engine) AddressLoginStart(ctx context.Context, address string) (string, error) {
	if err := e.ready(); err != nil {
		return "", err
	}
	if strings.TrimSpace(address) == "" {
		return "", invalidParams("address is required")
	}
	if _, err := e.identity.GetAddress(ctx, NormalizeAddress(address)); err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", ErrAddressNotFound
		}
		return "", storeErr("load address", err)
	}
	return e.startChallenge(ctx, prefixAddressLogin, textAddressLogin, address)
}

// AddressLoginConfirm consumes the login challenge signed by req.Address.
func (e *Engine) AddressLoginConfirm(ctx context.Context, req SignedRequest) (*LoginResult, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if req.Address == "" || req.Signature == "" {
		return nil, invalidParams("address and signature are required")
	}
	defer e.observeConfirm(time.Now())

	if _, err := e.consumeChallenge(ctx, prefixAddressLogin, req.Address, signedBy(req.Address, req.Signature, req.Wallet)); err != nil {
		return nil, err
	}

	addr, err := e.identity.GetAddress(ctx, NormalizeAddress(req.Address))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrAddressNotFound
		}
		return nil, storeErr("load address", err)
	}
	user, err := e.getUser(ctx, addr.UserID)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricAddressLoginSuccess)
	return e.completeLogin(ctx, user, addr.Address, req.Wallet)
}

// ConfirmTFALogin exchanges the token from a two-factor login result plus a
// current TOTP code for a session token. A wrong code keeps the login token
// valid until it expires.
func (e *Engine) ConfirmTFALogin(ctx context.Context, userID int64, tfaToken, code, loginAddress, loginWallet string) (*LoginResult, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if tfaToken == "" || code == "" {
		return nil, invalidParams("two-factor token and code are required")
	}

	key := tfaLoginKey(userID)
	stored, err := e.state.Get(ctx, key)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return nil, ErrTFALoginTokenExpired
		}
		return nil, storeErr("load two-factor token", err)
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(tfaToken)) != 1 {
		e.metricInc(MetricTFAFailure)
		return nil, ErrTFACodeInvalid
	}

	user, err := e.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.TwoFactor.Active() {
		return nil, ErrTFANotConfigured
	}

	ok, err := e.totp.VerifyCode(user.TwoFactor.Secret, code, e.now())
	if err != nil || !ok {
		e.metricInc(MetricTFAFailure)
		return nil, ErrTFACodeInvalid
	}

	taken, err := e.state.TakeIf(ctx, key, stored)
	if err != nil {
		return nil, storeErr("consume two-factor token", err)
	}
	if !taken {
		return nil, ErrTFALoginTokenExpired
	}

	token, err := e.issueSessionToken(ctx, user, loginAddress, loginWallet)
	if err != nil {
		return nil, err
	}
	e.metricInc(MetricTFASuccess)
	return &LoginResult{UserID: user.ID, Token: token}, nil
}
