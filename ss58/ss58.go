package ss58

import (
	"bytes"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/mr-tron/base58/base58"
	"golang.org/x/crypto/blake2b"
)

const (
	// PublicKeySize is the size of an sr25519/ed25519 account id.
	PublicKeySize = 32
	checksumSize  = 2
	maxPrefix     = 16383
)

var checksumPreimage = []byte("SS58PRE")

var (
	ErrInvalidAddress  = errors.New("invalid ss58 address")
	ErrInvalidChecksum = errors.New("invalid ss58 checksum")
	ErrInvalidPrefix   = errors.New("invalid ss58 prefix")
)

// Encode returns the SS58 form of a 32-byte public key under prefix.
func Encode(publicKey []byte, prefix uint16) (string, error) {
	if len(publicKey) != PublicKeySize {
		return "", ErrInvalidAddress
	}
	if prefix > maxPrefix {
		return "", ErrInvalidPrefix
	}

	payload := make([]byte, 0, 2+PublicKeySize+checksumSize)
	payload = append(payload, encodePrefix(prefix)...)
	payload = append(payload, publicKey...)
	sum := checksum(payload)
	payload = append(payload, sum[:checksumSize]...)

	return base58.Encode(payload), nil
}

// Decode returns the public key and network prefix carried by address.
func Decode(address string) ([]byte, uint16, error) {
	raw, err := base58.Decode(strings.TrimSpace(address))
	if err != nil || len(raw) < 1+PublicKeySize+checksumSize {
		return nil, 0, ErrInvalidAddress
	}

	prefix, prefixLen, err := decodePrefix(raw)
	if err != nil {
		return nil, 0, err
	}
	if len(raw) != prefixLen+PublicKeySize+checksumSize {
		return nil, 0, ErrInvalidAddress
	}

	body := raw[:prefixLen+PublicKeySize]
	sum := checksum(body)
	if !bytes.Equal(sum[:checksumSize], raw[len(body):]) {
		return nil, 0, ErrInvalidChecksum
	}

	key := make([]byte, PublicKeySize)
	copy(key, raw[prefixLen:prefixLen+PublicKeySize])
	return key, prefix, nil
}

// PublicKey resolves an address to its raw account id. Hex public keys
// ("0x" followed by 64 hex characters) are accepted next to SS58 strings.
func PublicKey(address string) ([]byte, error) {
	address = strings.TrimSpace(address)
	if IsHex(address) {
		raw, err := hex.DecodeString(address[2:])
		if err != nil || len(raw) != PublicKeySize {
			return nil, ErrInvalidAddress
		}
		return raw, nil
	}
	key, _, err := Decode(address)
	return key, err
}

// Reencode returns address under a different network prefix.
func Reencode(address string, prefix uint16) (string, error) {
	key, err := PublicKey(address)
	if err != nil {
		return "", err
	}
	return Encode(key, prefix)
}

// Equal reports whether two addresses carry the same account id regardless
// of their network prefix.
func Equal(a, b string) bool {
	ka, err := PublicKey(a)
	if err != nil {
		return false
	}
	kb, err := PublicKey(b)
	if err != nil {
		return false
	}
	return bytes.Equal(ka, kb)
}

// IsHex reports whether address is 0x-prefixed.
func IsHex(address string) bool {
	return len(address) > 2 && (strings.HasPrefix(address, "0x") || strings.HasPrefix(address, "0X"))
}

func checksum(body []byte) [64]byte {
	buf := make([]byte, 0, len(checksumPreimage)+len(body))
	buf = append(buf, checksumPreimage...)
	buf = append(buf, body...)
	return blake2b.Sum512(buf)
}

func encodePrefix(prefix uint16) []byte {
	if prefix < 64 {
		return []byte{byte(prefix)}
	}
	first := byte((prefix&0x00fc)>>2) | 0x40
	second := byte(prefix>>8) | byte((prefix&0x0003)<<6)
	return []byte{first, second}
}

func decodePrefix(raw []byte) (uint16, int, error) {
	b0 := raw[0]
	switch {
	case b0 < 64:
		return uint16(b0), 1, nil
	case b0 < 128:
		b1 := raw[1]
		lower := uint16(b0&0x3f)<<2 | uint16(b1>>6)
		upper := uint16(b1 & 0x3f)
		return lower | upper<<8, 2, nil
	default:
		return 0, 0, ErrInvalidPrefix
	}
}
