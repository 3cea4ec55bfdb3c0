package govauth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/polkassembly/govauth/internal"
	"github.com/polkassembly/govauth/multisig"
	"github.com/polkassembly/govauth/ss58"
)

func sameAddress(a, b string) bool {
	return ss58.Equal(a, b) || NormalizeAddress(a) == NormalizeAddress(b)
}

// countVerified returns how many verified addresses userID owns.
func (e *Engine) countVerified(ctx context.Context, userID int64) (int, error) {
	addresses, err := e.identity.GetAddressesByUser(ctx, userID, true)
	if err != nil {
		return 0, storeErr("load addresses", err)
	}
	return len(addresses), nil
}

// AddressLinkStart stores a sign message on a pending, unverified address
// record owned by userID.
func (e *Engine) AddressLinkStart(ctx context.Context, userID int64, address, network string) (string, error) {
	if err := e.ready(); err != nil {
		return "", err
	}
	if strings.TrimSpace(address) == "" {
		return "", invalidParams("address is required")
	}
	if _, err := e.getUser(ctx, userID); err != nil {
		return "", err
	}

	nonce, err := internal.NewNonce(e.config.Challenge.NonceBytes)
	if err != nil {
		return "", newError(KindInternal, "generate challenge", err)
	}
	message := textAddressLink + ": " + nonce

	existing, err := e.identity.GetAddress(ctx, NormalizeAddress(address))
	switch {
	case err == nil:
		if existing.UserID != userID || existing.Verified {
			return "", ErrAddressLinked
		}
		existing.SignMessage = message
		if err := e.identity.UpdateAddress(ctx, existing); err != nil {
			return "", storeErr("update address", err)
		}
	case errors.Is(err, ErrNotFound):
		addr := e.newAddress(userID, address, network, "")
		addr.Verified = false
		addr.SignMessage = message
		if err := e.identity.CreateAddress(ctx, &addr); err != nil {
			return "", storeErr("create address", err)
		}
	default:
		return "", storeErr("load address", err)
	}

	e.metricInc(MetricChallengeIssued)
	return message, nil
}

// AddressLinkConfirm verifies the signature over the stored sign message and
// marks the address verified. The first verified address becomes default.
func (e *Engine) AddressLinkConfirm(ctx context.Context, userID int64, req SignedRequest) (string, error) {
	if err := e.ready(); err != nil {
		return "", err
	}
	if req.Address == "" || req.Signature == "" {
		return "", invalidParams("address and signature are required")
	}
	defer e.observeConfirm(time.Now())

	addr, err := e.identity.GetAddress(ctx, NormalizeAddress(req.Address))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", ErrAddressNotFound
		}
		return "", storeErr("load address", err)
	}
	if addr.UserID != userID {
		return "", ErrAddressNotOwned
	}
	if addr.Verified || addr.SignMessage == "" {
		e.metricInc(MetricChallengeExpired)
		return "", ErrChallengeExpired
	}
	if !verifySignature(addr.SignMessage, req.Address, req.Signature, req.Wallet) {
		e.metricInc(MetricSignatureInvalid)
		return "", ErrSignatureInvalid
	}

	verified, err := e.countVerified(ctx, userID)
	if err != nil {
		return "", err
	}

	addr.Verified = true
	addr.Default = verified == 0
	addr.Wallet = req.Wallet
	addr.IsERC20 = IsEVMAddress(addr.Address)
	addr.SignMessage = ""
	if req.Network != "" {
		addr.Network = req.Network
	}
	if err := e.identity.UpdateAddress(ctx, addr); err != nil {
		return "", storeErr("update address", err)
	}
	e.metricInc(MetricChallengeConsumed)
	e.metricInc(MetricAddressLinked)

	user, err := e.getUser(ctx, userID)
	if err != nil {
		return "", err
	}
	return e.issueSessionToken(ctx, user, "", "")
}

// MultisigLinkStart issues a challenge keyed by the multisig address. One of
// its signatories signs it.
func (e *Engine) MultisigLinkStart(ctx context.Context, address string) (string, error) {
	if err := e.ready(); err != nil {
		return "", err
	}
	if strings.TrimSpace(address) == "" {
		return "", invalidParams("address is required")
	}
	if err := e.ensureAddressFree(ctx, address); err != nil {
		return "", err
	}
	return e.startChallenge(ctx, prefixMultisigLink, textMultisigLink, address)
}

// MultisigLinkConfirm links a multisig address once the claimed address is
// proven to derive from the signatory set and a member signed the challenge.
// With UserID zero a new wallet-only account is created for it.
func (e *Engine) MultisigLinkConfirm(ctx context.Context, req MultisigLinkRequest) (*LoginResult, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if req.Address == "" || req.Signatory == "" || req.Signature == "" {
		return nil, invalidParams("address, signatory and signature are required")
	}
	defer e.observeConfirm(time.Now())

	if !multisig.Contains(req.Signatories, req.Signatory) {
		return nil, ErrNotSignatory
	}

	network := e.networkOrDefault(req.Network)
	derived, err := multisig.Derive(req.Signatories, e.config.Networks.Prefix(network), req.Threshold)
	if err != nil {
		return nil, newError(KindInvalidParams, "invalid multisig parameters", err)
	}
	if !ss58.Equal(derived, req.Address) {
		return nil, ErrMultisigMismatch
	}

	if err := e.requirePending(ctx, prefixMultisigLink, req.Address); err != nil {
		return nil, err
	}
	if err := e.ensureAddressFree(ctx, req.Address); err != nil {
		return nil, err
	}

	var user *User
	if req.UserID != 0 {
		if user, err = e.getUser(ctx, req.UserID); err != nil {
			return nil, err
		}
	}
	if _, err := e.consumeChallenge(ctx, prefixMultisigLink, req.Address, signedBy(req.Signatory, req.Signature, req.Wallet)); err != nil {
		return nil, err
	}

	addr := e.newAddress(req.UserID, req.Address, network, req.Wallet)
	addr.IsMultisig = true

	if user == nil {
		addr.Default = true
		if user, err = e.createWeb3Account(ctx, &addr); err != nil {
			return nil, err
		}
	} else {
		verified, err := e.countVerified(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		addr.Default = verified == 0
		if err := e.identity.CreateAddress(ctx, &addr); err != nil {
			return nil, storeErr("create address", err)
		}
	}
	e.metricInc(MetricMultisigLinked)

	token, err := e.issueSessionToken(ctx, user, "", "")
	if err != nil {
		return nil, err
	}
	return &LoginResult{UserID: user.ID, Token: token}, nil
}

// ProxyLinkConfirm links ProxiedAddress to the account owning ProxyAddress.
// The message is chosen by the caller and signed by the proxy; the proxy
// must appear in the proxied account's on-chain proxy list.
func (e *Engine) ProxyLinkConfirm(ctx context.Context, req ProxyLinkRequest) (*LoginResult, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if e.proxies == nil {
		return nil, newError(KindConfiguration, "proxy lookup not configured", nil)
	}
	if req.ProxyAddress == "" || req.ProxiedAddress == "" || req.Message == "" || req.Signature == "" {
		return nil, invalidParams("proxy address, proxied address, message and signature are required")
	}
	defer e.observeConfirm(time.Now())

	if !verifySignature(req.Message, req.ProxyAddress, req.Signature, req.Wallet) {
		e.metricInc(MetricSignatureInvalid)
		return nil, ErrSignatureInvalid
	}

	proxyRecord, err := e.identity.GetAddress(ctx, NormalizeAddress(req.ProxyAddress))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrAddressNotFound
		}
		return nil, storeErr("load address", err)
	}
	if req.UserID != 0 && proxyRecord.UserID != req.UserID {
		return nil, ErrAddressNotOwned
	}

	if err := e.ensureAddressFree(ctx, req.ProxiedAddress); err != nil {
		return nil, err
	}

	network := e.networkOrDefault(req.Network)
	proxies, err := e.proxies.GetProxies(ctx, network, req.ProxiedAddress)
	if err != nil {
		return nil, storeErr("lookup proxies", err)
	}
	isProxy := false
	for _, p := range proxies {
		if sameAddress(p, req.ProxyAddress) {
			isProxy = true
			break
		}
	}
	if !isProxy {
		return nil, ErrNotProxy
	}

	user, err := e.getUser(ctx, proxyRecord.UserID)
	if err != nil {
		return nil, err
	}
	verified, err := e.countVerified(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	addr := e.newAddress(user.ID, req.ProxiedAddress, network, req.Wallet)
	addr.Default = verified == 0
	if err := e.identity.CreateAddress(ctx, &addr); err != nil {
		return nil, storeErr("create address", err)
	}
	e.metricInc(MetricProxyLinked)

	token, err := e.issueSessionToken(ctx, user, "", "")
	if err != nil {
		return nil, err
	}
	return &LoginResult{UserID: user.ID, Token: token}, nil
}

// SetDefaultAddress makes address the only default of userID in one batch write.
func (e *Engine) SetDefaultAddress(ctx context.Context, userID int64, address string) (string, error) {
	if err := e.ready(); err != nil {
		return "", err
	}
	target := NormalizeAddress(address)
	if target == "" {
		return "", invalidParams("address is required")
	}

	addresses, err := e.identity.GetAddressesByUser(ctx, userID, false)
	if err != nil {
		return "", storeErr("load addresses", err)
	}

	found := false
	for _, a := range addresses {
		if a.Address == target {
			if !a.Verified {
				return "", invalidParams("address is not verified")
			}
			found = true
		}
	}
	if !found {
		if _, err := e.identity.GetAddress(ctx, target); err == nil {
			return "", ErrAddressNotOwned
		}
		return "", ErrAddressNotFound
	}

	for i := range addresses {
		addresses[i].Default = addresses[i].Address == target
	}
	if err := e.identity.UpdateAddresses(ctx, userID, addresses); err != nil {
		return "", storeErr("update addresses", err)
	}
	e.metricInc(MetricDefaultAddressChanged)

	user, err := e.getUser(ctx, userID)
	if err != nil {
		return "", err
	}
	return e.issueSessionToken(ctx, user, "", "")
}

// AddressUnlink removes a non-default address from userID.
func (e *Engine) AddressUnlink(ctx context.Context, userID int64, address string) (string, error) {
	if err := e.ready(); err != nil {
		return "", err
	}
	if strings.TrimSpace(address) == "" {
		return "", invalidParams("address is required")
	}

	addr, err := e.identity.GetAddress(ctx, NormalizeAddress(address))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", ErrAddressNotFound
		}
		return "", storeErr("load address", err)
	}
	if addr.UserID != userID {
		return "", ErrAddressNotOwned
	}
	if addr.Default {
		return "", ErrUnlinkDefault
	}

	if err := e.identity.DeleteAddress(ctx, addr.Address); err != nil {
		return "", storeErr("delete address", err)
	}
	e.metricInc(MetricAddressUnlinked)

	user, err := e.getUser(ctx, userID)
	if err != nil {
		return "", err
	}
	return e.issueSessionToken(ctx, user, "", "")
}
