package password

import (
	"encoding/hex"
	"errors"
	"strings"
	"testing"
)

func testConfig() Config {
	return Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  32,
		KeyLength:   32,
	}
}

func TestHashAndVerify(t *testing.T) {
	hasher, err := NewArgon2(testConfig())
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}

	hash, salt, err := hasher.Hash("P@ssw0rd-Ascii")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=8192,t=1,p=1$") {
		t.Fatalf("unexpected PHC prefix: %s", hash)
	}

	rawSalt, err := hex.DecodeString(salt)
	if err != nil {
		t.Fatalf("salt is not hex: %v", err)
	}
	if len(rawSalt) != 32 {
		t.Fatalf("expected 32-byte salt, got %d", len(rawSalt))
	}

	ok, err := hasher.Verify("P@ssw0rd-Ascii", hash)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if !ok {
		t.Fatal("expected password verification to succeed")
	}
}

func TestHashUsesFreshSalt(t *testing.T) {
	hasher, _ := NewArgon2(testConfig())
	h1, s1, err := hasher.Hash("same-password")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	h2, s2, err := hasher.Hash("same-password")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if h1 == h2 || s1 == s2 {
		t.Fatal("expected distinct salts for repeated hashes")
	}
}

func TestVerifyWrongPassword(t *testing.T) {
	hasher, _ := NewArgon2(testConfig())
	hash, _, err := hasher.Hash("correct-password")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	ok, err := hasher.Verify("wrong-password", hash)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if ok {
		t.Fatal("expected wrong password verification to fail")
	}
}

func TestVerifyAcceptsPaddedEncoding(t *testing.T) {
	hasher, _ := NewArgon2(testConfig())
	hash, _, err := hasher.Hash("padded-form")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	parts := strings.Split(hash, "$")
	for _, i := range []int{4, 5} {
		for len(parts[i])%4 != 0 {
			parts[i] += "="
		}
	}
	ok, err := hasher.Verify("padded-form", strings.Join(parts, "$"))
	if err != nil || !ok {
		t.Fatalf("expected padded hash to verify: ok=%v err=%v", ok, err)
	}
}

func TestNeedsUpgrade(t *testing.T) {
	oldHasher, _ := NewArgon2(testConfig())
	hash, _, err := oldHasher.Hash("test-password")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	stronger := testConfig()
	stronger.Memory = 16 * 1024
	newHasher, _ := NewArgon2(stronger)

	needsUpgrade, err := newHasher.NeedsUpgrade(hash)
	if err != nil {
		t.Fatalf("NeedsUpgrade error: %v", err)
	}
	if !needsUpgrade {
		t.Fatal("expected NeedsUpgrade to return true for weaker hash parameters")
	}

	same, err := oldHasher.NeedsUpgrade(hash)
	if err != nil {
		t.Fatalf("NeedsUpgrade error: %v", err)
	}
	if same {
		t.Fatal("expected NeedsUpgrade to return false for current parameters")
	}
}

func TestVerifyMalformedHash(t *testing.T) {
	hasher, _ := NewArgon2(testConfig())

	for _, in := range []string{
		"not-a-phc-hash",
		"$bcrypt$v=19$m=8192,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=18$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA",
		"$argon2id$v=19$m=8192,t=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA",
	} {
		if _, err := hasher.Verify("password", in); !errors.Is(err, ErrInvalidHash) {
			t.Fatalf("expected ErrInvalidHash for %q, got %v", in, err)
		}
	}
}

func TestHashLengthBounds(t *testing.T) {
	cfg := testConfig()
	cfg.MaxPasswordBytes = 64
	hasher, err := NewArgon2(cfg)
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}

	if _, _, err := hasher.Hash("short"); !errors.Is(err, ErrPasswordTooShort) {
		t.Fatalf("expected ErrPasswordTooShort, got %v", err)
	}
	if _, _, err := hasher.Hash(strings.Repeat("a", 65)); !errors.Is(err, ErrPasswordTooLong) {
		t.Fatalf("expected ErrPasswordTooLong, got %v", err)
	}

	exact := strings.Repeat("b", 64)
	hash, _, err := hasher.Hash(exact)
	if err != nil {
		t.Fatalf("expected exactly-max password to be accepted: %v", err)
	}
	if _, err := hasher.Verify(strings.Repeat("b", 65), hash); !errors.Is(err, ErrPasswordTooLong) {
		t.Fatalf("expected Verify to reject long password, got %v", err)
	}
}

func TestNewArgon2RejectsWeakConfig(t *testing.T) {
	cfg := testConfig()
	cfg.SaltLength = 8
	if _, err := NewArgon2(cfg); err == nil {
		t.Fatal("expected short salt config to be rejected")
	}
}
