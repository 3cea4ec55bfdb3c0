package govauth

import (
	"context"
	"encoding/hex"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/polkassembly/govauth/internal"
	"github.com/polkassembly/govauth/password"
	"github.com/polkassembly/govauth/ss58"
)

const randomUsernameAttempts = 5

// SignUp creates a password account, sends the verification email and
// returns a session token for the new user.
func (e *Engine) SignUp(ctx context.Context, req SignUpRequest) (*LoginResult, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}

	username := strings.TrimSpace(req.Username)
	if err := e.validateUsername(username); err != nil {
		return nil, err
	}
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}
	if err := e.ensureUsernameFree(ctx, username, 0); err != nil {
		return nil, err
	}
	if err := e.ensureEmailFree(ctx, email, 0); err != nil {
		return nil, err
	}

	hash, salt, err := e.hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &User{
		Email:     email,
		Password:  hash,
		Salt:      salt,
		Username:  username,
		CreatedAt: e.now(),
	}
	if err := e.identity.CreateUser(ctx, user); err != nil {
		return nil, storeErr("create user", err)
	}

	e.sendVerifyEmail(ctx, user, req.Network)

	token, err := e.issueSessionToken(ctx, user, "", "")
	if err != nil {
		return nil, err
	}
	e.metricInc(MetricSignupSuccess)
	return &LoginResult{UserID: user.ID, Token: token}, nil
}

// AddressSignupStart issues a signup challenge for an address not yet linked
// to any account.
func (e *Engine) AddressSignupStart(ctx context.Context, address string) (string, error) {
	if err := e.ready(); err != nil {
		return "", err
	}
	if strings.TrimSpace(address) == "" {
		return "", invalidParams("address is required")
	}
	if err := e.ensureAddressFree(ctx, address); err != nil {
		return "", err
	}
	return e.startChallenge(ctx, prefixAddressSignup, textAddressSignup, address)
}

// AddressSignupConfirm creates a wallet-only account with a random username
// and the signing address as its verified default.
func (e *Engine) AddressSignupConfirm(ctx context.Context, req SignedRequest) (*LoginResult, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if req.Address == "" || req.Signature == "" {
		return nil, invalidParams("address and signature are required")
	}
	defer e.observeConfirm(time.Now())

	if err := e.requirePending(ctx, prefixAddressSignup, req.Address); err != nil {
		return nil, err
	}
	if err := e.ensureAddressFree(ctx, req.Address); err != nil {
		return nil, err
	}
	if _, err := e.consumeChallenge(ctx, prefixAddressSignup, req.Address, signedBy(req.Address, req.Signature, req.Wallet)); err != nil {
		return nil, err
	}

	addr := e.newAddress(0, req.Address, req.Network, req.Wallet)
	addr.Default = true
	user, err := e.createWeb3Account(ctx, &addr)
	if err != nil {
		return nil, err
	}

	token, err := e.issueSessionToken(ctx, user, addr.Address, req.Wallet)
	if err != nil {
		return nil, err
	}
	e.metricInc(MetricAddressSignupSuccess)
	return &LoginResult{UserID: user.ID, Token: token}, nil
}

// createWeb3Account creates a passwordless user under a random username
// together with addr, retrying on the rare username collision.
func (e *Engine) createWeb3Account(ctx context.Context, addr *Address) (*User, error) {
	var lastErr error
	for i := 0; i < randomUsernameAttempts; i++ {
		username, err := internal.RandomUsername()
		if err != nil {
			return nil, newError(KindInternal, "generate username", err)
		}
		user := &User{
			Username:   username,
			Web3Signup: true,
			CreatedAt:  e.now(),
		}
		err = e.identity.CreateUserWithAddress(ctx, user, addr)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, ErrUsernameTaken) {
			return nil, storeErr("create account", err)
		}
		lastErr = err
	}
	return nil, storeErr("create account", lastErr)
}

// newAddress builds a verified, non-default record for address.
func (e *Engine) newAddress(userID int64, address, network, wallet string) Address {
	normalized := NormalizeAddress(address)
	publicKey := normalized
	if pub, err := ss58.PublicKey(address); err == nil {
		publicKey = "0x" + hex.EncodeToString(pub)
	}
	return Address{
		Address:   normalized,
		UserID:    userID,
		Verified:  true,
		Network:   e.networkOrDefault(network),
		Wallet:    wallet,
		IsERC20:   IsEVMAddress(normalized),
		PublicKey: publicKey,
		CreatedAt: e.now(),
	}
}

func (e *Engine) hashPassword(plaintext string) (string, string, error) {
	hash, salt, err := e.passwordHash.Hash(plaintext)
	if err != nil {
		switch {
		case errors.Is(err, password.ErrPasswordTooShort):
			return "", "", invalidParams("password must be at least %d characters", password.MinPasswordBytes)
		case errors.Is(err, password.ErrPasswordTooLong):
			return "", "", invalidParams("password is too long")
		}
		return "", "", newError(KindInternal, "hash password", err)
	}
	return hash, salt, nil
}

// ensureUsernameFree fails with ErrUsernameTaken unless username is unused or
// already belongs to self.
func (e *Engine) ensureUsernameFree(ctx context.Context, username string, self int64) error {
	existing, err := e.identity.GetUserByUsername(ctx, username)
	switch {
	case err == nil:
		if existing.ID != self {
			return ErrUsernameTaken
		}
		return nil
	case errors.Is(err, ErrNotFound):
		return nil
	default:
		return storeErr("load user", err)
	}
}

func (e *Engine) ensureEmailFree(ctx context.Context, email string, self int64) error {
	existing, err := e.identity.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.ID != self {
			return ErrEmailTaken
		}
		return nil
	case errors.Is(err, ErrNotFound):
		return nil
	default:
		return storeErr("load user", err)
	}
}

func (e *Engine) ensureAddressFree(ctx context.Context, address string) error {
	_, err := e.identity.GetAddress(ctx, NormalizeAddress(address))
	switch {
	case err == nil:
		return ErrAddressLinked
	case errors.Is(err, ErrNotFound):
		return nil
	default:
		e.logger.WarnContext(ctx, "address lookup failed", slog.Any("error", err))
		return storeErr("load address", err)
	}
}
