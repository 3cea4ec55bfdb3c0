package govauth

import (
	"context"
)

// GenerateTFASecret stores a new, not yet verified TOTP secret for the user
// and returns it with its provisioning URI.
func (e *Engine) GenerateTFASecret(ctx context.Context, userID int64) (*TFASetup, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	user, err := e.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.TwoFactor.Active() {
		return nil, invalidParams("two-factor authentication is already enabled")
	}

	secret, err := e.totp.GenerateSecret()
	if err != nil {
		return nil, newError(KindInternal, "generate totp secret", err)
	}
	user.TwoFactor = TwoFactor{Secret: secret}
	if err := e.identity.UpdateUser(ctx, user); err != nil {
		return nil, storeErr("update user", err)
	}

	account := user.Email
	if account == "" {
		account = user.Username
	}
	return &TFASetup{Secret: secret, URI: e.totp.ProvisionURI(secret, account)}, nil
}

// VerifyAndEnableTFA enables two-factor once the user proves possession of
// the generated secret.
func (e *Engine) VerifyAndEnableTFA(ctx context.Context, userID int64, code string) (string, error) {
	if err := e.ready(); err != nil {
		return "", err
	}
	user, err := e.getUser(ctx, userID)
	if err != nil {
		return "", err
	}
	if user.TwoFactor.Secret == "" {
		return "", ErrTFANotConfigured
	}
	if err := e.checkTOTP(user, code); err != nil {
		return "", err
	}

	user.TwoFactor.Enabled = true
	user.TwoFactor.Verified = true
	if err := e.identity.UpdateUser(ctx, user); err != nil {
		return "", storeErr("update user", err)
	}
	return e.issueSessionToken(ctx, user, "", "")
}

// DisableTFA turns two-factor off. A current code is required.
func (e *Engine) DisableTFA(ctx context.Context, userID int64, code string) (string, error) {
	if err := e.ready(); err != nil {
		return "", err
	}
	user, err := e.getUser(ctx, userID)
	if err != nil {
		return "", err
	}
	if !user.TwoFactor.Active() {
		return "", ErrTFANotConfigured
	}
	if err := e.checkTOTP(user, code); err != nil {
		return "", err
	}

	user.TwoFactor = TwoFactor{}
	if err := e.identity.UpdateUser(ctx, user); err != nil {
		return "", storeErr("update user", err)
	}
	return e.issueSessionToken(ctx, user, "", "")
}

func (e *Engine) checkTOTP(user *User, code string) error {
	ok, err := e.totp.VerifyCode(user.TwoFactor.Secret, code, e.now())
	if err != nil || !ok {
		e.metricInc(MetricTFAFailure)
		return ErrTFACodeInvalid
	}
	e.metricInc(MetricTFASuccess)
	return nil
}
