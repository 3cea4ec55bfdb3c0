//go:build integration
// +build integration

package test

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/hex"
	"encoding/pem"
	"testing"

	"github.com/ChainSafe/go-schnorrkel"
	"github.com/alicebob/miniredis/v2"
	"github.com/polkassembly/govauth"
	"github.com/polkassembly/govauth/ss58"
	"github.com/polkassembly/govauth/store/memory"
	"github.com/redis/go-redis/v9"
	"github.com/youmark/pkcs8"
)

const passphrase = "integration passphrase"

// newRedisEngine builds an engine whose State Store and login limiter both
// live in miniredis.
func newRedisEngine(t *testing.T) (*govauth.Engine, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("rsa key: %v", err)
	}
	der, err := pkcs8.MarshalPrivateKey(key, []byte(passphrase), nil)
	if err != nil {
		t.Fatalf("pkcs8: %v", err)
	}

	cfg := govauth.DefaultConfig()
	cfg.Token.PrivateKeyPEM = pem.EncodeToMemory(&pem.Block{Type: "ENCRYPTED PRIVATE KEY", Bytes: der})
	cfg.Token.Passphrase = passphrase
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	cfg.Security.MaxLoginAttempts = 3

	engine, err := govauth.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithIdentityStore(memory.New()).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine, mr
}

type wallet struct {
	secret  *schnorrkel.SecretKey
	address string
}

func newWallet(t *testing.T) wallet {
	t.Helper()
	secret, public, err := schnorrkel.GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	pub := public.Encode()
	address, err := ss58.Encode(pub[:], 0)
	if err != nil {
		t.Fatalf("ss58.Encode: %v", err)
	}
	return wallet{secret: secret, address: address}
}

func (w wallet) signed(t *testing.T, message string) govauth.SignedRequest {
	t.Helper()
	sig, err := w.secret.Sign(schnorrkel.NewSigningContext([]byte("substrate"), []byte(message)))
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	raw := sig.Encode()
	return govauth.SignedRequest{
		Address:   w.address,
		Signature: "0x" + hex.EncodeToString(raw[:]),
		Wallet:    "polkadot-js",
		Network:   "polkadot",
	}
}
