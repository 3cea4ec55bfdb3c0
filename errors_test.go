package govauth

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindSentinelsMatchByKind(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", ErrUnlinkDefault)
	if !errors.Is(err, ErrForbidden) {
		t.Fatal("expected kind sentinel to match")
	}
	if !errors.Is(err, ErrUnlinkDefault) {
		t.Fatal("expected named error to match itself")
	}
	if errors.Is(err, ErrEmailChangeCooldown) {
		t.Fatal("different forbidden errors must not match each other")
	}
	if errors.Is(err, ErrNotFound) {
		t.Fatal("kind sentinel matched wrong kind")
	}
	if KindOf(err) != KindForbidden {
		t.Fatalf("KindOf = %v", KindOf(err))
	}
}

func TestNamedErrorMatchesCopyWithCause(t *testing.T) {
	err := newError(KindUnauthorized, ErrTokenInvalid.Msg, errors.New("token is expired"))
	if !errors.Is(err, ErrTokenInvalid) {
		t.Fatal("expected match on kind and message")
	}
	if err.Error() != "invalid session token: token is expired" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestStoreErr(t *testing.T) {
	if storeErr("op", nil) != nil {
		t.Fatal("nil must stay nil")
	}
	if err := storeErr("load user", ErrUserNotFound); err != ErrUserNotFound {
		t.Fatalf("engine errors must pass through, got %v", err)
	}
	err := storeErr("load user", errors.New("connection refused"))
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected Unavailable, got %v", err)
	}
	if KindOf(errors.New("plain")) != KindInternal {
		t.Fatal("foreign errors are internal")
	}
}
