package govauth

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/polkassembly/govauth/kv"
)

// sendVerifyEmail stores a verification token bound to the user's current
// email and queues the notification. Failures are logged only.
func (e *Engine) sendVerifyEmail(ctx context.Context, user *User, network string) {
	if user.Email == "" {
		return
	}
	token := uuid.NewString()
	value := strconv.FormatInt(user.ID, 10) + ":" + user.Email
	if err := e.state.Set(ctx, prefixVerifyEmail+token, value, e.config.EmailVerification.TokenTTL); err != nil {
		e.logger.WarnContext(ctx, "store verification token failed",
			slog.Int64("user_id", user.ID), slog.Any("error", err))
		return
	}
	e.notify(ctx, Notification{
		Kind:     NotifyVerifyEmail,
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		Token:    token,
		Network:  e.networkOrDefault(network),
	})
}

// VerifyEmail marks the user's email verified. The token is single use and
// only valid for the email it was issued for.
func (e *Engine) VerifyEmail(ctx context.Context, token string) error {
	if err := e.ready(); err != nil {
		return err
	}
	if strings.TrimSpace(token) == "" {
		return invalidParams("token is required")
	}

	value, err := e.state.Take(ctx, prefixVerifyEmail+token)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return ErrVerifyTokenExpired
		}
		return storeErr("consume verification token", err)
	}

	idPart, email, ok := strings.Cut(value, ":")
	if !ok {
		return ErrVerifyTokenExpired
	}
	userID, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil {
		return ErrVerifyTokenExpired
	}

	user, err := e.getUser(ctx, userID)
	if err != nil {
		return err
	}
	if !strings.EqualFold(user.Email, email) {
		return ErrVerifyTokenExpired
	}
	if user.EmailVerified {
		return nil
	}

	user.EmailVerified = true
	if err := e.identity.UpdateUser(ctx, user); err != nil {
		return storeErr("update user", err)
	}
	e.metricInc(MetricEmailVerified)
	return nil
}

// ResendVerifyEmail issues a new verification token for an unverified email.
func (e *Engine) ResendVerifyEmail(ctx context.Context, userID int64, network string) error {
	if err := e.ready(); err != nil {
		return err
	}
	user, err := e.getUser(ctx, userID)
	if err != nil {
		return err
	}
	if user.Email == "" {
		return invalidParams("account has no email")
	}
	if user.EmailVerified {
		return invalidParams("email already verified")
	}
	e.sendVerifyEmail(ctx, user, network)
	return nil
}
