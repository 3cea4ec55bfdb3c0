package ss58

import (
	"bytes"
	"errors"
	"testing"
)

func testKey(b byte) []byte {
	key := make([]byte, PublicKeySize)
	for i := range key {
		key[i] = b + byte(i)
	}
	return key
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	for _, prefix := range []uint16{0, 2, 42, 63, 64, 1284, 16383} {
		key := testKey(byte(prefix))
		addr, err := Encode(key, prefix)
		if err != nil {
			t.Fatalf("Encode(prefix=%d) error: %v", prefix, err)
		}
		got, gotPrefix, err := Decode(addr)
		if err != nil {
			t.Fatalf("Decode(%s) error: %v", addr, err)
		}
		if gotPrefix != prefix {
			t.Fatalf("prefix mismatch: want %d got %d", prefix, gotPrefix)
		}
		if !bytes.Equal(got, key) {
			t.Fatalf("key mismatch for prefix %d", prefix)
		}
	}
}

func TestKnownAlicePolkadotAddress(t *testing.T) {
	// Well-known //Alice dev account.
	const generic = "5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY"
	const polkadot = "15oF4uVJwmo4TdGW7VfQxNLavjCXviqxT9S1MgbjMNHr6Sp5"

	key, prefix, err := Decode(generic)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if prefix != 42 {
		t.Fatalf("expected generic prefix 42, got %d", prefix)
	}

	got, err := Encode(key, 0)
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	if got != polkadot {
		t.Fatalf("expected %s, got %s", polkadot, got)
	}
	if !Equal(generic, polkadot) {
		t.Fatal("expected both encodings to carry the same account")
	}
}

func TestDecodeRejectsBadChecksum(t *testing.T) {
	addr, err := Encode(testKey(7), 42)
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	tampered := []byte(addr)
	if tampered[len(tampered)-1] == 'a' {
		tampered[len(tampered)-1] = 'b'
	} else {
		tampered[len(tampered)-1] = 'a'
	}
	if _, _, err := Decode(string(tampered)); err == nil {
		t.Fatal("expected tampered address to fail")
	}
}

func TestPublicKeyAcceptsHex(t *testing.T) {
	key := testKey(1)
	hexAddr := "0x0102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f20"
	got, err := PublicKey(hexAddr)
	if err != nil {
		t.Fatalf("PublicKey error: %v", err)
	}
	if !bytes.Equal(got, key) {
		t.Fatal("hex public key mismatch")
	}

	if _, err := PublicKey("0x1234"); !errors.Is(err, ErrInvalidAddress) {
		t.Fatalf("expected ErrInvalidAddress for short hex, got %v", err)
	}
}
