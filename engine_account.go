package govauth

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
)

// ChangeUsername renames the account. Names are unique case-insensitively
// and may not contain a blacklisted word.
func (e *Engine) ChangeUsername(ctx context.Context, userID int64, username string) (string, error) {
	if err := e.ready(); err != nil {
		return "", err
	}
	username = strings.TrimSpace(username)
	if err := e.validateUsername(username); err != nil {
		return "", err
	}

	user, err := e.getUser(ctx, userID)
	if err != nil {
		return "", err
	}
	if err := e.ensureUsernameFree(ctx, username, user.ID); err != nil {
		return "", err
	}

	user.Username = username
	if err := e.identity.UpdateUser(ctx, user); err != nil {
		return "", storeErr("update user", err)
	}
	e.metricInc(MetricUsernameChanged)
	return e.issueSessionToken(ctx, user, "", "")
}

// ChangeEmail replaces the account email after checking the password. When
// a verified email is replaced an undo token is sent to the old address, and
// no further change is allowed until the cooldown has passed or the undo
// token has been used.
func (e *Engine) ChangeEmail(ctx context.Context, userID int64, newEmail, password, network string) (string, error) {
	if err := e.ready(); err != nil {
		return "", err
	}
	email, err := normalizeEmail(newEmail)
	if err != nil {
		return "", err
	}

	user, err := e.getUser(ctx, userID)
	if err != nil {
		return "", err
	}
	if user.Password == "" {
		return "", invalidParams("set credentials before changing email")
	}
	if ok, err := e.passwordHash.Verify(password, user.Password); err != nil || !ok {
		return "", ErrInvalidCredentials
	}
	if strings.EqualFold(user.Email, email) {
		return "", invalidParams("new email is the same as the current one")
	}
	if err := e.ensureEmailFree(ctx, email, user.ID); err != nil {
		return "", err
	}

	latest, err := e.identity.GetLatestUndoEmailChangeToken(ctx, user.ID)
	switch {
	case err == nil:
		if latest.Valid && e.now().Sub(latest.CreatedAt) < e.config.EmailChange.Cooldown {
			e.metricInc(MetricEmailChangeCooldown)
			return "", ErrEmailChangeCooldown
		}
	case errors.Is(err, ErrNotFound):
	default:
		return "", storeErr("load undo token", err)
	}

	if user.Email != "" && user.EmailVerified {
		undo := &UndoEmailChangeToken{
			UserID:    user.ID,
			Email:     user.Email,
			Token:     uuid.NewString(),
			Valid:     true,
			CreatedAt: e.now(),
		}
		if err := e.identity.CreateUndoEmailChangeToken(ctx, undo); err != nil {
			return "", storeErr("create undo token", err)
		}
		e.notify(ctx, Notification{
			Kind:     NotifyUndoEmailChange,
			UserID:   user.ID,
			Username: user.Username,
			Email:    undo.Email,
			Token:    undo.Token,
			Network:  e.networkOrDefault(network),
		})
	}

	user.Email = email
	user.EmailVerified = false
	if err := e.identity.UpdateUser(ctx, user); err != nil {
		return "", storeErr("update user", err)
	}
	e.metricInc(MetricEmailChanged)

	e.sendVerifyEmail(ctx, user, network)

	return e.issueSessionToken(ctx, user, "", "")
}

// UndoEmailChange restores the email recorded in the undo token, marks it
// unverified and invalidates the token.
func (e *Engine) UndoEmailChange(ctx context.Context, token string) (string, error) {
	if err := e.ready(); err != nil {
		return "", err
	}
	if strings.TrimSpace(token) == "" {
		return "", invalidParams("token is required")
	}

	undo, err := e.identity.GetUndoEmailChangeToken(ctx, token)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", ErrUndoTokenNotFound
		}
		return "", storeErr("load undo token", err)
	}
	if !undo.Valid {
		return "", ErrUndoTokenNotFound
	}

	user, err := e.getUser(ctx, undo.UserID)
	if err != nil {
		return "", err
	}
	if err := e.ensureEmailFree(ctx, undo.Email, user.ID); err != nil {
		return "", err
	}

	undo.Valid = false
	if err := e.identity.UpdateUndoEmailChangeToken(ctx, undo); err != nil {
		return "", storeErr("update undo token", err)
	}

	user.Email = undo.Email
	user.EmailVerified = false
	if err := e.identity.UpdateUser(ctx, user); err != nil {
		return "", storeErr("update user", err)
	}
	e.metricInc(MetricEmailChangeUndone)

	return e.issueSessionToken(ctx, user, "", "")
}

// ChangePassword replaces the password after verifying the current one.
func (e *Engine) ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error {
	if err := e.ready(); err != nil {
		return err
	}
	if oldPassword == "" || newPassword == "" {
		return invalidParams("old and new password are required")
	}

	user, err := e.getUser(ctx, userID)
	if err != nil {
		return err
	}
	if user.Password == "" {
		return invalidParams("account has no password")
	}
	if ok, err := e.passwordHash.Verify(oldPassword, user.Password); err != nil || !ok {
		e.metricInc(MetricPasswordChangeInvalidOld)
		return ErrInvalidCredentials
	}

	hash, salt, err := e.hashPassword(newPassword)
	if err != nil {
		return err
	}
	user.Password = hash
	user.Salt = salt
	if err := e.identity.UpdateUser(ctx, user); err != nil {
		return storeErr("update user", err)
	}
	e.metricInc(MetricPasswordChangeSuccess)
	return nil
}
