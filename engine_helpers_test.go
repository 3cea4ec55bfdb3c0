package govauth_test

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"encoding/base32"
	"encoding/binary"
	"encoding/hex"
	"encoding/pem"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ChainSafe/go-schnorrkel"
	"github.com/polkassembly/govauth"
	"github.com/polkassembly/govauth/kv"
	"github.com/polkassembly/govauth/ss58"
	"github.com/polkassembly/govauth/store/memory"
	"github.com/youmark/pkcs8"
)

const testPassphrase = "test passphrase"

var (
	keyOnce sync.Once
	keyPEM  []byte
	keyErr  error
)

func signingKey(t *testing.T) []byte {
	t.Helper()
	keyOnce.Do(func() {
		var key *rsa.PrivateKey
		key, keyErr = rsa.GenerateKey(rand.Reader, 2048)
		if keyErr != nil {
			return
		}
		var der []byte
		der, keyErr = pkcs8.MarshalPrivateKey(key, []byte(testPassphrase), nil)
		if keyErr != nil {
			return
		}
		keyPEM = pem.EncodeToMemory(&pem.Block{Type: "ENCRYPTED PRIVATE KEY", Bytes: der})
	})
	if keyErr != nil {
		t.Fatalf("signing key: %v", keyErr)
	}
	return keyPEM
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type testEnv struct {
	engine   *govauth.Engine
	store    *memory.Store
	state    *kv.MemoryStore
	clock    *testClock
	notifier *govauth.ChannelNotifier
}

func testConfig(t *testing.T) govauth.Config {
	cfg := govauth.DefaultConfig()
	cfg.Token.PrivateKeyPEM = signingKey(t)
	cfg.Token.Passphrase = testPassphrase
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	cfg.Notifications.DropIfFull = false
	cfg.Notifications.BufferSize = 64
	return cfg
}

func newTestEnv(t *testing.T, configure ...func(*govauth.Config, *govauth.Builder)) *testEnv {
	t.Helper()

	env := &testEnv{
		store:    memory.New(),
		clock:    newTestClock(),
		notifier: govauth.NewChannelNotifier(64),
	}
	env.state = kv.NewMemoryStore(kv.WithClock(env.clock.Now))

	cfg := testConfig(t)
	b := govauth.New().
		WithStateStore(env.state).
		WithIdentityStore(env.store).
		WithNotifier(env.notifier).
		WithClock(env.clock.Now)
	for _, fn := range configure {
		fn(&cfg, b)
	}

	engine, err := b.WithConfig(cfg).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(engine.Close)
	env.engine = engine
	return env
}

// nextNotification waits for the dispatcher to deliver one notification.
func (env *testEnv) nextNotification(t *testing.T) govauth.Notification {
	t.Helper()
	select {
	case n := <-env.notifier.Events():
		return n
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for notification")
	}
	return govauth.Notification{}
}

type wallet struct {
	secret  *schnorrkel.SecretKey
	pub     [32]byte
	address string
}

func newWallet(t *testing.T) *wallet {
	t.Helper()
	secret, public, err := schnorrkel.GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	pub := public.Encode()
	addr, err := ss58.Encode(pub[:], govauth.GenericPrefix)
	if err != nil {
		t.Fatalf("ss58.Encode: %v", err)
	}
	return &wallet{secret: secret, pub: pub, address: addr}
}

// addressOn returns the wallet's address under a network prefix.
func (w *wallet) addressOn(t *testing.T, prefix uint16) string {
	t.Helper()
	addr, err := ss58.Encode(w.pub[:], prefix)
	if err != nil {
		t.Fatalf("ss58.Encode: %v", err)
	}
	return addr
}

func (w *wallet) sign(t *testing.T, message string) string {
	t.Helper()
	sig, err := w.secret.Sign(schnorrkel.NewSigningContext([]byte("substrate"), []byte(message)))
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	raw := sig.Encode()
	return "0x" + hex.EncodeToString(raw[:])
}

func (w *wallet) signed(t *testing.T, message string) govauth.SignedRequest {
	return govauth.SignedRequest{
		Address:   w.address,
		Signature: w.sign(t, message),
		Wallet:    "polkadot-js",
	}
}

// totpCode computes an RFC 6238 SHA1 code with 6 digits and 30s period.
func totpCode(t *testing.T, secret string, now time.Time) string {
	t.Helper()
	key, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(strings.ToUpper(secret))
	if err != nil {
		t.Fatalf("decode totp secret: %v", err)
	}
	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], uint64(now.Unix()/30))
	mac := hmac.New(sha1.New, key)
	mac.Write(msg[:])
	sum := mac.Sum(nil)
	offset := sum[len(sum)-1] & 0x0f
	code := binary.BigEndian.Uint32(sum[offset:offset+4]) & 0x7fffffff
	return fmt.Sprintf("%06d", code%1_000_000)
}

// signupWallet creates a wallet-only account for w and returns its user id.
func (env *testEnv) signupWallet(t *testing.T, w *wallet) int64 {
	t.Helper()
	ctx := t.Context()
	msg, err := env.engine.AddressSignupStart(ctx, w.address)
	if err != nil {
		t.Fatalf("AddressSignupStart: %v", err)
	}
	res, err := env.engine.AddressSignupConfirm(ctx, w.signed(t, msg))
	if err != nil {
		t.Fatalf("AddressSignupConfirm: %v", err)
	}
	return res.UserID
}

// signupPassword creates a password account and returns its user id.
func (env *testEnv) signupPassword(t *testing.T, username, email, password string) int64 {
	t.Helper()
	res, err := env.engine.SignUp(t.Context(), govauth.SignUpRequest{
		Username: username,
		Email:    email,
		Password: password,
	})
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	return res.UserID
}
