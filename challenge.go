package govauth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/polkassembly/govauth/internal"
	"github.com/polkassembly/govauth/kv"
)

// State Store key prefixes. Each start/confirm pair owns one prefix so a
// challenge issued for one flow can never satisfy another.
const (
	prefixAddressLogin   = "ALN-"
	prefixAddressSignup  = "ASU-"
	prefixMultisigLink   = "MLA-"
	prefixSetCredentials = "SCR-"
	prefixProxyLink      = "PLA-" // reserved
	prefixCreatePost     = "CPT-"
	prefixEditPost       = "EPT-"

	prefixPasswordReset = "PRT-"
	prefixVerifyEmail   = "EVT-"
	prefixTFALogin      = "TFA-"
)

const (
	textAddressLogin   = "Login in polkassembly"
	textAddressSignup  = "Sign up in polkassembly"
	textMultisigLink   = "Link multisig address in polkassembly"
	textSetCredentials = "Set credentials in polkassembly"
	textAddressLink    = "Link address to polkassembly account"
)

func challengeKey(prefix, address string) string {
	return prefix + NormalizeAddress(address)
}

// startChallenge stores "<text>: <nonce>" under prefix+address and returns it.
func (e *Engine) startChallenge(ctx context.Context, prefix, text, address string) (string, error) {
	nonce, err := internal.NewNonce(e.config.Challenge.NonceBytes)
	if err != nil {
		return "", newError(KindInternal, "generate challenge", err)
	}
	message := text + ": " + nonce
	if err := e.state.Set(ctx, challengeKey(prefix, address), message, e.config.Challenge.TTL); err != nil {
		return "", storeErr("store challenge", err)
	}
	e.metricInc(MetricChallengeIssued)
	return message, nil
}

// startContentChallenge issues a UUID challenge with the longer content TTL.
func (e *Engine) startContentChallenge(ctx context.Context, prefix, address string) (string, error) {
	challenge := uuid.NewString()
	if err := e.state.Set(ctx, challengeKey(prefix, address), challenge, e.config.Challenge.ContentTTL); err != nil {
		return "", storeErr("store challenge", err)
	}
	e.metricInc(MetricChallengeIssued)
	return challenge, nil
}

// consumeChallenge loads the pending challenge, runs check against it and only
// then removes it, provided it is still the same challenge. A failed check
// leaves the challenge in place so the client can retry within the TTL. Of two
// concurrent successful confirms only one removes it; the other gets
// ErrChallengeExpired. A challenge replaced by a newer start is left alone.
func (e *Engine) consumeChallenge(ctx context.Context, prefix, address string, check func(challenge string) error) (string, error) {
	key := challengeKey(prefix, address)

	challenge, err := e.state.Get(ctx, key)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			e.metricInc(MetricChallengeExpired)
			return "", ErrChallengeExpired
		}
		return "", storeErr("load challenge", err)
	}

	if err := check(challenge); err != nil {
		if errors.Is(err, ErrInvalidSignature) {
			e.metricInc(MetricSignatureInvalid)
		}
		return "", err
	}

	taken, err := e.state.TakeIf(ctx, key, challenge)
	if err != nil {
		return "", storeErr("consume challenge", err)
	}
	if !taken {
		// Consumed by a concurrent confirm or replaced by a newer start.
		e.metricInc(MetricChallengeExpired)
		return "", ErrChallengeExpired
	}

	e.metricInc(MetricChallengeConsumed)
	return challenge, nil
}

// requirePending fails with ErrChallengeExpired when no challenge is waiting
// under prefix+address. Confirms call it before their account checks so a
// replayed confirm reports the missing challenge rather than the state the
// first confirm left behind.
func (e *Engine) requirePending(ctx context.Context, prefix, address string) error {
	if _, err := e.state.Get(ctx, challengeKey(prefix, address)); err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			e.metricInc(MetricChallengeExpired)
			return ErrChallengeExpired
		}
		return storeErr("load challenge", err)
	}
	return nil
}

// signedBy returns a check that verifies sig over the challenge itself.
func signedBy(address, sig, wallet string) func(string) error {
	return func(challenge string) error {
		if !verifySignature(challenge, address, sig, wallet) {
			return ErrSignatureInvalid
		}
		return nil
	}
}

// contentMessage is the string signed to attest a post.
func contentMessage(network, address, title, content, challenge string) string {
	return fmt.Sprintf("network:%s::address:%s::title:%s::content:%s::challenge:%s",
		network, address, title, content, challenge)
}

// putToken stores a short-lived token, returning a store error on failure.
func (e *Engine) putToken(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := e.state.Set(ctx, key, value, ttl); err != nil {
		return storeErr("store token", err)
	}
	return nil
}
