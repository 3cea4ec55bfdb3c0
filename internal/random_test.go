package internal

import (
	"encoding/hex"
	"regexp"
	"testing"
)

func TestNewNonce(t *testing.T) {
	a, err := NewNonce(32)
	if err != nil {
		t.Fatalf("NewNonce error: %v", err)
	}
	raw, err := hex.DecodeString(a)
	if err != nil || len(raw) != 32 {
		t.Fatalf("expected 32 hex bytes, got %q", a)
	}
	b, _ := NewNonce(32)
	if a == b {
		t.Fatal("expected distinct nonces")
	}
	if _, err := NewNonce(0); err == nil {
		t.Fatal("expected error for zero size")
	}
}

func TestRandomUsernameShape(t *testing.T) {
	re := regexp.MustCompile(`^[a-z]+_[a-z]+_[0-9]{4}$`)
	for i := 0; i < 20; i++ {
		name, err := RandomUsername()
		if err != nil {
			t.Fatalf("RandomUsername error: %v", err)
		}
		if !re.MatchString(name) || len(name) > 30 {
			t.Fatalf("unexpected username %q", name)
		}
	}
}
