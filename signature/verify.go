package signature

import (
	"crypto/ed25519"
	"encoding/hex"
	"strings"

	"github.com/ChainSafe/go-schnorrkel"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/polkassembly/govauth/ss58"
)

const (
	signingContext = "substrate"

	bytesPrefix = "<Bytes>"
	bytesSuffix = "</Bytes>"

	multiSigEd25519 = 0x00
	multiSigSr25519 = 0x01
)

// Verify reports whether signature (hex) is a valid signature of message by address.
func Verify(scheme Scheme, message, address, signature string) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()

	sig, err := decodeHex(signature)
	if err != nil || len(sig) == 0 {
		return false
	}

	switch scheme {
	case Substrate:
		return verifySubstrate(message, address, sig)
	case PersonalSign:
		return verifyPersonalSign(message, address, sig)
	default:
		return false
	}
}

func verifySubstrate(message, address string, sig []byte) bool {
	pub, err := ss58.PublicKey(address)
	if err != nil {
		return false
	}

	tryEd, trySr := true, true
	switch len(sig) {
	case 64:
	case 65:
		switch sig[0] {
		case multiSigEd25519:
			trySr = false
		case multiSigSr25519:
			tryEd = false
		default:
			return false
		}
		sig = sig[1:]
	default:
		return false
	}

	for _, msg := range candidates(message) {
		if trySr && verifySr25519(pub, msg, sig) {
			return true
		}
		if tryEd && ed25519.Verify(ed25519.PublicKey(pub), msg, sig) {
			return true
		}
	}
	return false
}

// candidates returns the byte forms a wallet may have signed. Browser
// extensions wrap raw payloads in <Bytes> tags before signing.
func candidates(message string) [][]byte {
	if strings.HasPrefix(message, bytesPrefix) && strings.HasSuffix(message, bytesSuffix) {
		inner := strings.TrimSuffix(strings.TrimPrefix(message, bytesPrefix), bytesSuffix)
		return [][]byte{[]byte(message), []byte(inner)}
	}
	return [][]byte{[]byte(message), []byte(bytesPrefix + message + bytesSuffix)}
}

func verifySr25519(pub, msg, sig []byte) bool {
	var pk [32]byte
	copy(pk[:], pub)
	publicKey := &schnorrkel.PublicKey{}
	if err := publicKey.Decode(pk); err != nil {
		return false
	}

	var raw [64]byte
	copy(raw[:], sig)
	s := &schnorrkel.Signature{}
	if err := s.Decode(raw); err != nil {
		return false
	}

	ok, err := publicKey.Verify(s, schnorrkel.NewSigningContext([]byte(signingContext), msg))
	return err == nil && ok
}

func verifyPersonalSign(message, address string, sig []byte) bool {
	if len(sig) != crypto.SignatureLength {
		return false
	}
	normalized := make([]byte, len(sig))
	copy(normalized, sig)
	if normalized[crypto.RecoveryIDOffset] >= 27 {
		normalized[crypto.RecoveryIDOffset] -= 27
	}
	if normalized[crypto.RecoveryIDOffset] > 1 {
		return false
	}

	pub, err := crypto.SigToPub(accounts.TextHash([]byte(message)), normalized)
	if err != nil {
		return false
	}
	recovered := crypto.PubkeyToAddress(*pub)
	return strings.EqualFold(recovered.Hex(), strings.TrimSpace(address))
}

func decodeHex(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	return hex.DecodeString(s)
}
