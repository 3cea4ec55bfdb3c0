package govauth_test

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/polkassembly/govauth"
	"github.com/redis/go-redis/v9"
)

func TestPasswordLoginIssuesToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := t.Context()
	id := env.signupPassword(t, "alice", "alice@example.com", "hunter22")

	for _, identifier := range []string{"alice", "ALICE", "Alice@Example.com"} {
		res, err := env.engine.Login(ctx, identifier, "hunter22")
		if err != nil {
			t.Fatalf("Login(%s): %v", identifier, err)
		}
		if res.TFARequired || res.Token == "" || res.UserID != id {
			t.Fatalf("unexpected result for %s: %+v", identifier, res)
		}
	}

	if _, err := env.engine.Login(ctx, "alice", "wrong-password"); !errors.Is(err, govauth.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := env.engine.Login(ctx, "nobody", "hunter22"); !errors.Is(err, govauth.ErrUnauthorized) {
		t.Fatalf("expected unauthorized for unknown user, got %v", err)
	}
}

func TestWalletOnlyAccountCannotPasswordLogin(t *testing.T) {
	env := newTestEnv(t)
	w := newWallet(t)
	id := env.signupWallet(t, w)

	user, err := env.store.GetUserByID(t.Context(), id)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if _, err := env.engine.Login(t.Context(), user.Username, "anything"); !errors.Is(err, govauth.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAddressLoginRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := t.Context()
	w := newWallet(t)
	id := env.signupWallet(t, w)

	msg, err := env.engine.AddressLoginStart(ctx, w.address)
	if err != nil {
		t.Fatalf("AddressLoginStart: %v", err)
	}
	res, err := env.engine.AddressLoginConfirm(ctx, w.signed(t, msg))
	if err != nil {
		t.Fatalf("AddressLoginConfirm: %v", err)
	}

	claims, err := env.engine.ParseToken(res.Token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.ID != id || claims.LoginAddress != w.address || claims.LoginWallet != "polkadot-js" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.DefaultAddress != w.address || len(claims.Addresses) != 1 {
		t.Fatalf("expected the signup address as default, got %+v", claims)
	}
}

func TestAddressLoginStartUnknownAddress(t *testing.T) {
	env := newTestEnv(t)
	w := newWallet(t)
	if _, err := env.engine.AddressLoginStart(t.Context(), w.address); !errors.Is(err, govauth.ErrAddressNotFound) {
		t.Fatalf("expected ErrAddressNotFound, got %v", err)
	}
}

func TestChallengeIsOneTime(t *testing.T) {
	env := newTestEnv(t)
	ctx := t.Context()
	w := newWallet(t)
	env.signupWallet(t, w)

	msg, err := env.engine.AddressLoginStart(ctx, w.address)
	if err != nil {
		t.Fatalf("AddressLoginStart: %v", err)
	}
	req := w.signed(t, msg)
	if _, err := env.engine.AddressLoginConfirm(ctx, req); err != nil {
		t.Fatalf("first confirm: %v", err)
	}
	_, err = env.engine.AddressLoginConfirm(ctx, req)
	if !errors.Is(err, govauth.ErrExpired) {
		t.Fatalf("expected Expired on replay, got %v", err)
	}
	if errors.Is(err, govauth.ErrInvalidSignature) {
		t.Fatal("replay must not be reported as an invalid signature")
	}
}

func TestChallengeExpiresAfterTTL(t *testing.T) {
	env := newTestEnv(t)
	ctx := t.Context()
	w := newWallet(t)
	env.signupWallet(t, w)

	msg, err := env.engine.AddressLoginStart(ctx, w.address)
	if err != nil {
		t.Fatalf("AddressLoginStart: %v", err)
	}
	env.clock.Advance(govauth.DefaultConfig().Challenge.TTL + 1)

	if _, err := env.engine.AddressLoginConfirm(ctx, w.signed(t, msg)); !errors.Is(err, govauth.ErrChallengeExpired) {
		t.Fatalf("expected ErrChallengeExpired, got %v", err)
	}
}

func TestBadSignatureKeepsChallenge(t *testing.T) {
	env := newTestEnv(t)
	ctx := t.Context()
	w := newWallet(t)
	other := newWallet(t)
	env.signupWallet(t, w)

	msg, err := env.engine.AddressLoginStart(ctx, w.address)
	if err != nil {
		t.Fatalf("AddressLoginStart: %v", err)
	}

	forged := govauth.SignedRequest{Address: w.address, Signature: other.sign(t, msg), Wallet: "polkadot-js"}
	if _, err := env.engine.AddressLoginConfirm(ctx, forged); !errors.Is(err, govauth.ErrInvalidSignature) {
		t.Fatalf("expected InvalidSignature, got %v", err)
	}
	if _, err := env.engine.AddressLoginConfirm(ctx, w.signed(t, msg)); err != nil {
		t.Fatalf("genuine confirm after failed attempt: %v", err)
	}
}

func TestConcurrentConfirmSingleWinner(t *testing.T) {
	env := newTestEnv(t)
	ctx := t.Context()
	w := newWallet(t)
	env.signupWallet(t, w)

	msg, err := env.engine.AddressLoginStart(ctx, w.address)
	if err != nil {
		t.Fatalf("AddressLoginStart: %v", err)
	}
	req := w.signed(t, msg)

	var (
		wg      sync.WaitGroup
		wins    atomic.Int32
		expired atomic.Int32
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.engine.AddressLoginConfirm(ctx, req)
			switch {
			case err == nil:
				wins.Add(1)
			case errors.Is(err, govauth.ErrExpired):
				expired.Add(1)
			}
		}()
	}
	wg.Wait()

	if wins.Load() != 1 || expired.Load() != 7 {
		t.Fatalf("expected 1 winner and 7 expired, got %d / %d", wins.Load(), expired.Load())
	}
}

func TestTwoFactorLoginBranch(t *testing.T) {
	env := newTestEnv(t)
	ctx := t.Context()
	id := env.signupPassword(t, "carol", "carol@example.com", "hunter22")

	setup, err := env.engine.GenerateTFASecret(ctx, id)
	if err != nil {
		t.Fatalf("GenerateTFASecret: %v", err)
	}
	if _, err := env.engine.VerifyAndEnableTFA(ctx, id, "000000x"); !errors.Is(err, govauth.ErrTFACodeInvalid) {
		t.Fatalf("expected ErrTFACodeInvalid, got %v", err)
	}
	token, err := env.engine.VerifyAndEnableTFA(ctx, id, totpCode(t, setup.Secret, env.clock.Now()))
	if err != nil {
		t.Fatalf("VerifyAndEnableTFA: %v", err)
	}
	claims, _ := env.engine.ParseToken(token)
	if claims == nil || !claims.Is2FAEnabled {
		t.Fatalf("expected is2FAEnabled claim, got %+v", claims)
	}

	res, err := env.engine.Login(ctx, "carol", "hunter22")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if !res.TFARequired || res.Token != "" || res.TFAToken == "" {
		t.Fatalf("expected two-factor branch, got %+v", res)
	}

	if _, err := env.engine.ConfirmTFALogin(ctx, id, "wrong", totpCode(t, setup.Secret, env.clock.Now()), "", ""); !errors.Is(err, govauth.ErrUnauthorized) {
		t.Fatalf("expected unauthorized for wrong tfa token, got %v", err)
	}

	done, err := env.engine.ConfirmTFALogin(ctx, id, res.TFAToken, totpCode(t, setup.Secret, env.clock.Now()), "", "")
	if err != nil {
		t.Fatalf("ConfirmTFALogin: %v", err)
	}
	if done.Token == "" {
		t.Fatal("expected session token")
	}

	if _, err := env.engine.ConfirmTFALogin(ctx, id, res.TFAToken, totpCode(t, setup.Secret, env.clock.Now()), "", ""); !errors.Is(err, govauth.ErrTFALoginTokenExpired) {
		t.Fatalf("expected token reuse to fail, got %v", err)
	}
}

func TestLoginRateLimited(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	env := newTestEnv(t, func(cfg *govauth.Config, b *govauth.Builder) {
		cfg.Security.MaxLoginAttempts = 3
		b.WithRedis(rdb)
	})
	ctx := t.Context()
	env.signupPassword(t, "dave", "dave@example.com", "hunter22")

	for i := 0; i < 3; i++ {
		if _, err := env.engine.Login(ctx, "dave", "nope-nope"); !errors.Is(err, govauth.ErrInvalidCredentials) {
			t.Fatalf("attempt %d: expected ErrInvalidCredentials, got %v", i, err)
		}
	}
	if _, err := env.engine.Login(ctx, "dave", "hunter22"); !errors.Is(err, govauth.ErrRateLimited) {
		t.Fatalf("expected rate limited, got %v", err)
	}

	mr.FastForward(govauth.DefaultConfig().Security.LoginCooldownDuration + 1)
	if _, err := env.engine.Login(ctx, "dave", "hunter22"); err != nil {
		t.Fatalf("login after cooldown: %v", err)
	}
}
