package govauth

import (
	"context"
	"errors"
	"strings"
	"time"
)

// SetCredentialsStart issues a challenge that lets a wallet-only account
// add a username, email and password.
func (e *Engine) SetCredentialsStart(ctx context.Context, address string) (string, error) {
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
	return e.startChallenge(ctx, prefixSetCredentials, textSetCredentials, address)
}

// SetCredentialsConfirm sets credentials on the account owning req.Address,
// clears its web3-only flag and sends a verification email.
func (e *Engine) SetCredentialsConfirm(ctx context.Context, req SetCredentialsRequest) (string, error) {
	if err := e.ready(); err != nil {
		return "", err
	}
	if req.Address == "" || req.Signature == "" {
		return "", invalidParams("address and signature are required")
	}
	defer e.observeConfirm(time.Now())

	username := strings.TrimSpace(req.Username)
	if err := e.validateUsername(username); err != nil {
		return "", err
	}
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return "", err
	}

	if err := e.requirePending(ctx, prefixSetCredentials, req.Address); err != nil {
		return "", err
	}

	addr, err := e.identity.GetAddress(ctx, NormalizeAddress(req.Address))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", ErrAddressNotFound
		}
		return "", storeErr("load address", err)
	}
	user, err := e.getUser(ctx, addr.UserID)
	if err != nil {
		return "", err
	}
	if !user.Web3Signup {
		return "", invalidParams("account already has credentials")
	}
	if err := e.ensureUsernameFree(ctx, username, user.ID); err != nil {
		return "", err
	}
	if err := e.ensureEmailFree(ctx, email, user.ID); err != nil {
		return "", err
	}

	hash, salt, err := e.hashPassword(req.Password)
	if err != nil {
		return "", err
	}

	if _, err := e.consumeChallenge(ctx, prefixSetCredentials, req.Address, signedBy(req.Address, req.Signature, req.Wallet)); err != nil {
		return "", err
	}

	user.Username = username
	user.Email = email
	user.EmailVerified = false
	user.Password = hash
	user.Salt = salt
	user.Web3Signup = false
	if err := e.identity.UpdateUser(ctx, user); err != nil {
		return "", storeErr("update user", err)
	}
	e.metricInc(MetricCredentialsSet)

	e.sendVerifyEmail(ctx, user, req.Network)

	return e.issueSessionToken(ctx, user, addr.Address, req.Wallet)
}
