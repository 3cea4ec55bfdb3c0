package govauth

import (
	"errors"
	"fmt"
)

// ErrorKind classifies engine errors. Callers branch on the kind, never on the message.
type ErrorKind uint8

const (
	KindInternal ErrorKind = iota
	KindNotFound
	KindExpired
	KindInvalidSignature
	KindConflict
	KindForbidden
	KindConfiguration
	KindInvalidParams
	KindUnauthorized
	KindRateLimited
	KindUnavailable
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindExpired:
		return "expired"
	case KindInvalidSignature:
		return "invalid signature"
	case KindConflict:
		return "conflict"
	case KindForbidden:
		return "forbidden"
	case KindConfiguration:
		return "configuration error"
	case KindInvalidParams:
		return "invalid params"
	case KindUnauthorized:
		return "unauthorized"
	case KindRateLimited:
		return "rate limited"
	case KindUnavailable:
		return "unavailable"
	default:
		return "internal error"
	}
}

// Error is the error type returned by every Engine operation.
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets a bare kind value (no message, no cause) match every error of that
// kind, and a named error match any error of the same kind and message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t == e {
		return true
	}
	if t.Err != nil || t.Kind != e.Kind {
		return false
	}
	return t.Msg == "" || t.Msg == e.Msg
}

func newError(kind ErrorKind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf returns the kind of err, or KindInternal for foreign errors.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Kind sentinels. errors.Is(err, ErrNotFound) holds for any NotFound error.
var (
	ErrNotFound         = &Error{Kind: KindNotFound}
	ErrExpired          = &Error{Kind: KindExpired}
	ErrInvalidSignature = &Error{Kind: KindInvalidSignature}
	ErrConflict         = &Error{Kind: KindConflict}
	ErrForbidden        = &Error{Kind: KindForbidden}
	ErrConfiguration    = &Error{Kind: KindConfiguration}
	ErrInvalidParams    = &Error{Kind: KindInvalidParams}
	ErrUnauthorized     = &Error{Kind: KindUnauthorized}
	ErrRateLimited      = &Error{Kind: KindRateLimited}
	ErrUnavailable      = &Error{Kind: KindUnavailable}
)

var (
	ErrUserNotFound      = &Error{Kind: KindNotFound, Msg: "user not found"}
	ErrAddressNotFound   = &Error{Kind: KindNotFound, Msg: "address not found"}
	ErrUndoTokenNotFound = &Error{Kind: KindNotFound, Msg: "undo token not found or already used"}

	ErrChallengeExpired     = &Error{Kind: KindExpired, Msg: "challenge not found or expired, restart the flow"}
	ErrResetTokenExpired    = &Error{Kind: KindExpired, Msg: "password reset token expired"}
	ErrVerifyTokenExpired   = &Error{Kind: KindExpired, Msg: "email verification token expired"}
	ErrTFALoginTokenExpired = &Error{Kind: KindExpired, Msg: "two-factor login token expired"}

	ErrSignatureInvalid = &Error{Kind: KindInvalidSignature, Msg: "signature verification failed"}

	ErrUsernameTaken = &Error{Kind: KindConflict, Msg: "username already taken"}
	ErrEmailTaken    = &Error{Kind: KindConflict, Msg: "email already in use"}
	ErrAddressLinked = &Error{Kind: KindConflict, Msg: "address already linked to an account"}

	ErrUsernameBlacklisted = &Error{Kind: KindForbidden, Msg: "username contains a reserved word"}
	ErrUnlinkDefault       = &Error{Kind: KindForbidden, Msg: "cannot unlink the default address"}
	ErrEmailChangeCooldown = &Error{Kind: KindForbidden, Msg: "email was changed less than 48 hours ago"}
	ErrMultisigMismatch    = &Error{Kind: KindForbidden, Msg: "derived multisig address does not match"}
	ErrNotSignatory        = &Error{Kind: KindForbidden, Msg: "signer is not part of the signatory set"}
	ErrNotProxy            = &Error{Kind: KindForbidden, Msg: "address is not a proxy of the proxied account"}
	ErrAddressNotOwned     = &Error{Kind: KindForbidden, Msg: "address belongs to another account"}

	ErrSigningKeyMissing = &Error{Kind: KindConfiguration, Msg: "session signing key or passphrase not configured"}

	ErrInvalidCredentials = &Error{Kind: KindUnauthorized, Msg: "invalid credentials"}
	ErrResetTokenInvalid  = &Error{Kind: KindUnauthorized, Msg: "invalid password reset token"}
	ErrTFACodeInvalid     = &Error{Kind: KindUnauthorized, Msg: "invalid two-factor code"}
	ErrTokenInvalid       = &Error{Kind: KindUnauthorized, Msg: "invalid session token"}

	ErrTFANotConfigured = &Error{Kind: KindInvalidParams, Msg: "two-factor authentication not set up"}
	ErrLoginRateLimited = &Error{Kind: KindRateLimited, Msg: "too many login attempts"}
	ErrEngineNotReady   = &Error{Kind: KindInternal, Msg: "engine not initialized"}
)

func invalidParams(format string, args ...any) *Error {
	return newError(KindInvalidParams, fmt.Sprintf(format, args...), nil)
}

// storeErr normalizes a collaborator error. Engine errors pass through, anything
// else is reported as Unavailable.
func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return newError(KindUnavailable, op, err)
}
