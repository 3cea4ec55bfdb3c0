package proxy

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/polkassembly/govauth/ss58"
)

type rpcRequest struct {
	ID     json.RawMessage `json:"id"`
	Method string          `json:"method"`
	Params []string        `json:"params"`
}

// newNode serves state_getStorage from storage, keyed by hex storage key.
func newNode(t *testing.T, storage map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
		if req.Method != "state_getStorage" || len(req.Params) != 1 {
			resp["error"] = map[string]any{"code": -32601, "message": "method not found"}
		} else if v, ok := storage[req.Params[0]]; ok {
			resp["result"] = v
		} else {
			resp["result"] = nil
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func proxiesValue(delegates ...[]byte) []byte {
	out := []byte{byte(len(delegates) << 2)}
	for _, d := range delegates {
		out = append(out, d...)
		out = append(out, 0x00)                   // proxy type Any
		out = append(out, 0x00, 0x00, 0x00, 0x00) // delay
	}
	return append(out, make([]byte, 16)...) // deposit
}

func TestGetProxiesSubstrate(t *testing.T) {
	proxied := bytes.Repeat([]byte{0x11}, 32)
	d1 := bytes.Repeat([]byte{0x22}, 32)
	d2 := bytes.Repeat([]byte{0x33}, 32)

	srv := newNode(t, map[string]string{
		hexutil.Encode(StorageKey(proxied)): hexutil.Encode(proxiesValue(d1, d2)),
	})
	c := New(Config{Endpoints: map[string]string{"Polkadot": srv.URL}})
	defer c.Close()

	address, _ := ss58.Encode(proxied, 0)
	got, err := c.GetProxies(context.Background(), "polkadot", address)
	if err != nil {
		t.Fatalf("GetProxies error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected two delegates, got %v", got)
	}
	want, _ := ss58.Encode(d2, genericPrefix)
	if got[1] != want {
		t.Fatalf("delegate = %s, want %s", got[1], want)
	}
}

func TestGetProxiesEVMAccounts(t *testing.T) {
	proxied := bytes.Repeat([]byte{0xab}, 20)
	delegate := bytes.Repeat([]byte{0xcd}, 20)

	srv := newNode(t, map[string]string{
		hexutil.Encode(StorageKey(proxied)): hexutil.Encode(proxiesValue(delegate)),
	})
	c := New(Config{Endpoints: map[string]string{"moonbeam": srv.URL}})
	defer c.Close()

	got, err := c.GetProxies(context.Background(), "moonbeam", "0x"+hex.EncodeToString(proxied))
	if err != nil {
		t.Fatalf("GetProxies error: %v", err)
	}
	if len(got) != 1 || got[0] != "0x"+hex.EncodeToString(delegate) {
		t.Fatalf("unexpected delegates %v", got)
	}
}

func TestGetProxiesEmptyStorage(t *testing.T) {
	srv := newNode(t, nil)
	c := New(Config{Endpoints: map[string]string{"kusama": srv.URL}})
	defer c.Close()

	address, _ := ss58.Encode(bytes.Repeat([]byte{0x44}, 32), 2)
	got, err := c.GetProxies(context.Background(), "kusama", address)
	if err != nil {
		t.Fatalf("GetProxies error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no delegates, got %v", got)
	}
}

func TestGetProxiesUnknownNetwork(t *testing.T) {
	c := New(Config{})
	address, _ := ss58.Encode(bytes.Repeat([]byte{0x44}, 32), 0)
	if _, err := c.GetProxies(context.Background(), "nowhere", address); !errors.Is(err, ErrUnknownNetwork) {
		t.Fatalf("expected ErrUnknownNetwork, got %v", err)
	}
}

func TestGetProxiesInvalidAddress(t *testing.T) {
	c := New(Config{Endpoints: map[string]string{"polkadot": "http://127.0.0.1:1"}})
	if _, err := c.GetProxies(context.Background(), "polkadot", "not-an-address"); err == nil {
		t.Fatal("expected error for invalid address")
	}
}
