package govauth_test

import (
	"errors"
	"testing"
	"time"

	"github.com/polkassembly/govauth"
	"github.com/polkassembly/govauth/kv"
	"github.com/polkassembly/govauth/store/memory"
)

func TestBuildFailsWithoutSigningMaterial(t *testing.T) {
	base := testConfig(t)

	noKey := base
	noKey.Token.PrivateKeyPEM = nil
	noPass := base
	noPass.Token.Passphrase = ""

	for name, cfg := range map[string]govauth.Config{"no key": noKey, "no passphrase": noPass} {
		t.Run(name, func(t *testing.T) {
			_, err := govauth.New().
				WithConfig(cfg).
				WithStateStore(kv.NewMemoryStore()).
				WithIdentityStore(memory.New()).
				Build()
			if !errors.Is(err, govauth.ErrConfiguration) {
				t.Fatalf("expected configuration error, got %v", err)
			}
		})
	}
}

func TestBuildRequiresStores(t *testing.T) {
	if _, err := govauth.New().WithConfig(testConfig(t)).Build(); !errors.Is(err, govauth.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestTokenClaimsRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := t.Context()
	w := newWallet(t)
	id := env.signupPassword(t, "uma", "uma@example.com", "hunter22")
	linkAddress(t, env, id, w)

	token, err := env.engine.IssueToken(ctx, id)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	claims, err := env.engine.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}

	if claims.ID != id || claims.UserID() != id || claims.Subject == "" {
		t.Fatalf("id mismatch: %+v", claims)
	}
	if claims.Username != "uma" || claims.Email != "uma@example.com" || claims.EmailVerified {
		t.Fatalf("profile mismatch: %+v", claims)
	}
	if len(claims.Addresses) != 1 || claims.Addresses[0] != w.address || claims.DefaultAddress != w.address {
		t.Fatalf("address mismatch: %+v", claims)
	}
	if claims.Roles.CurrentRole != govauth.RoleUser || !claims.Roles.Has(govauth.RoleUser) {
		t.Fatalf("roles mismatch: %+v", claims.Roles)
	}
	if claims.Is2FAEnabled || claims.Web3Signup {
		t.Fatalf("flags mismatch: %+v", claims)
	}
	if !claims.IssuedAt.Time.Equal(env.clock.Now()) {
		t.Fatalf("iat = %v, want %v", claims.IssuedAt.Time, env.clock.Now())
	}
	if got := claims.ExpiresAt.Time.Sub(claims.IssuedAt.Time); got != 30*24*time.Hour {
		t.Fatalf("ttl = %v", got)
	}
}

func TestBotRoles(t *testing.T) {
	env := newTestEnv(t, func(cfg *govauth.Config, _ *govauth.Builder) {
		cfg.Roles.ProposalBotID = 1
		cfg.Roles.EventBotID = 2
	})
	ctx := t.Context()
	proposalBot := env.signupPassword(t, "bot_one", "one@example.com", "hunter22")
	eventBot := env.signupPassword(t, "bot_two", "two@example.com", "hunter22")
	regular := env.signupPassword(t, "human", "human@example.com", "hunter22")

	cases := []struct {
		id      int64
		current string
		extra   string
	}{
		{proposalBot, govauth.RoleProposalBot, govauth.RoleProposalBot},
		{eventBot, govauth.RoleEventBot, govauth.RoleEventBot},
		{regular, govauth.RoleUser, ""},
	}
	for _, tc := range cases {
		token, err := env.engine.IssueToken(ctx, tc.id)
		if err != nil {
			t.Fatalf("IssueToken(%d): %v", tc.id, err)
		}
		claims, _ := env.engine.ParseToken(token)
		if claims.Roles.CurrentRole != tc.current {
			t.Fatalf("user %d: current role %q, want %q", tc.id, claims.Roles.CurrentRole, tc.current)
		}
		if tc.extra != "" && !claims.Roles.Has(tc.extra) {
			t.Fatalf("user %d: missing role %q", tc.id, tc.extra)
		}
		if claims.Roles.Has(govauth.RoleProposalBot) && claims.Roles.Has(govauth.RoleEventBot) {
			t.Fatalf("user %d: bot roles must be exclusive", tc.id)
		}
	}
}

func TestParseTokenRejectsExpired(t *testing.T) {
	env := newTestEnv(t)
	id := env.signupPassword(t, "victor", "victor@example.com", "hunter22")
	token, err := env.engine.IssueToken(t.Context(), id)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	env.clock.Advance(31 * 24 * time.Hour)
	if _, err := env.engine.ParseToken(token); !errors.Is(err, govauth.ErrUnauthorized) {
		t.Fatalf("expected unauthorized for expired token, got %v", err)
	}
	if _, err := env.engine.ParseToken("not-a-token"); !errors.Is(err, govauth.ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestIssueTokenUnknownUser(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.engine.IssueToken(t.Context(), 999); !errors.Is(err, govauth.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
