// Package multisig derives deterministic multi-signature account addresses
// from a signatory set and an approval threshold.
package multisig

import (
	"bytes"
	"errors"
	"fmt"
	"sort"

	"github.com/polkassembly/govauth/ss58"
	"golang.org/x/crypto/blake2b"
)

const (
	derivationTag = "modlpy/utilisuba"

	// MaxSignatories is the largest set whose count fits the single length byte.
	MaxSignatories = 63
	MaxThreshold   = 255
)

// ErrInvalidParams is returned for empty or undecodable signatory sets and
// out of range thresholds.
var ErrInvalidParams = errors.New("multisig: invalid params")

// Derive returns the multisig address for signatories and threshold encoded
// under prefix. The result does not depend on signatory order.
func Derive(signatories []string, prefix uint16, threshold uint) (string, error) {
	account, err := AccountID(signatories, threshold)
	if err != nil {
		return "", err
	}
	addr, err := ss58.Encode(account, prefix)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	return addr, nil
}

// AccountID returns the raw 32-byte multisig account id.
func AccountID(signatories []string, threshold uint) ([]byte, error) {
	if len(signatories) == 0 {
		return nil, fmt.Errorf("%w: empty signatory list", ErrInvalidParams)
	}
	if len(signatories) > MaxSignatories {
		return nil, fmt.Errorf("%w: too many signatories", ErrInvalidParams)
	}
	if threshold == 0 || threshold > MaxThreshold {
		return nil, fmt.Errorf("%w: threshold out of range", ErrInvalidParams)
	}

	keys := make([][]byte, 0, len(signatories))
	for _, s := range signatories {
		key, err := ss58.PublicKey(s)
		if err != nil {
			return nil, fmt.Errorf("%w: signatory %q: %v", ErrInvalidParams, s, err)
		}
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		return bytes.Compare(keys[i], keys[j]) < 0
	})

	payload := make([]byte, 0, len(derivationTag)+2+len(keys)*ss58.PublicKeySize)
	payload = append(payload, derivationTag...)
	payload = append(payload, byte(len(keys)<<2))
	for _, k := range keys {
		payload = append(payload, k...)
	}
	payload = append(payload, byte(threshold))

	sum := blake2b.Sum256(payload)
	return sum[:], nil
}

// Contains reports whether address is one of signatories, comparing account
// ids so that differently prefixed encodings match.
func Contains(signatories []string, address string) bool {
	for _, s := range signatories {
		if ss58.Equal(s, address) {
			return true
		}
	}
	return false
}
