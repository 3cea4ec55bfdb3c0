package govauth

import (
	"context"
	"crypto/subtle"
	"errors"
	"strconv"
	"strings"

	"github.com/polkassembly/govauth/internal"
	"github.com/polkassembly/govauth/kv"
)

func resetKey(userID int64) string {
	return prefixPasswordReset + strconv.FormatInt(userID, 10)
}

// RequestPasswordReset mails a reset token when email belongs to an account.
// It returns nil for unknown emails so the response does not reveal which
// addresses are registered.
func (e *Engine) RequestPasswordReset(ctx context.Context, email, network string) error {
	if err := e.ready(); err != nil {
		return err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return invalidParams("email is required")
	}
	e.metricInc(MetricPasswordResetRequest)

	user, err := e.identity.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return storeErr("load user", err)
	}

	token, err := internal.NewSecret(32)
	if err != nil {
		return newError(KindInternal, "generate reset token", err)
	}
	if err := e.putToken(ctx, resetKey(user.ID), token, e.config.PasswordReset.TokenTTL); err != nil {
		return err
	}

	e.notify(ctx, Notification{
		Kind:     NotifyPasswordReset,
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		Token:    token,
		Network:  e.networkOrDefault(network),
	})
	return nil
}

// ResetPassword sets a new password when token matches the pending reset
// token for userID. The token is consumed only on success.
func (e *Engine) ResetPassword(ctx context.Context, userID int64, token, newPassword string) error {
	if err := e.ready(); err != nil {
		return err
	}
	if token == "" || newPassword == "" {
		return invalidParams("token and new password are required")
	}

	key := resetKey(userID)
	stored, err := e.state.Get(ctx, key)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			e.metricInc(MetricPasswordResetConfirmFailure)
			return ErrResetTokenExpired
		}
		return storeErr("load reset token", err)
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(token)) != 1 {
		e.metricInc(MetricPasswordResetConfirmFailure)
		return ErrResetTokenInvalid
	}

	hash, salt, err := e.hashPassword(newPassword)
	if err != nil {
		return err
	}

	taken, err := e.state.TakeIf(ctx, key, stored)
	if err != nil {
		return storeErr("consume reset token", err)
	}
	if !taken {
		return ErrResetTokenExpired
	}

	user, err := e.getUser(ctx, userID)
	if err != nil {
		return err
	}
	user.Password = hash
	user.Salt = salt
	if err := e.identity.UpdateUser(ctx, user); err != nil {
		return storeErr("update user", err)
	}
	e.metricInc(MetricPasswordResetConfirmSuccess)
	return nil
}
