package internal

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"math/big"
	"strconv"
)

// NewNonce returns n random bytes hex encoded.
func NewNonce(n int) (string, error) {
	if n <= 0 {
		return "", errors.New("invalid nonce size")
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// NewSecret returns a URL-safe random secret of n bytes.
func NewSecret(n int) (string, error) {
	if n <= 0 {
		return "", errors.New("invalid secret size")
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

var (
	usernameAdjectives = []string{
		"amber", "brave", "calm", "clever", "crimson", "daring", "eager", "gentle",
		"golden", "honest", "lucky", "mellow", "nimble", "quiet", "rapid", "silver",
		"steady", "swift", "vivid", "witty",
	}
	usernameNouns = []string{
		"badger", "comet", "falcon", "fox", "glacier", "harbor", "heron", "lynx",
		"meadow", "otter", "panda", "quasar", "raven", "river", "sparrow", "summit",
		"tiger", "valley", "willow", "zephyr",
	}
)

// RandomUsername returns an adjective_noun_NNNN name for wallet-only signups.
func RandomUsername() (string, error) {
	adj, err := pick(usernameAdjectives)
	if err != nil {
		return "", err
	}
	noun, err := pick(usernameNouns)
	if err != nil {
		return "", err
	}
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "", err
	}
	suffix := strconv.FormatInt(n.Int64()+10000, 10)[1:]
	return adj + "_" + noun + "_" + suffix, nil
}

func pick(words []string) (string, error) {
	i, err := rand.Int(rand.Reader, big.NewInt(int64(len(words))))
	if err != nil {
		return "", err
	}
	return words[i.Int64()], nil
}
