// Package proxy reads on-chain proxy lists over Substrate JSON-RPC.
package proxy

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/polkassembly/govauth/ss58"
)

// genericPrefix is the SS58 prefix delegates are reported under.
const genericPrefix uint16 = 42

var ErrUnknownNetwork = errors.New("proxy: no endpoint for network")

type Config struct {
	// Endpoints maps a network name to its node RPC URL.
	Endpoints map[string]string
	Timeout   time.Duration
	Logger    *slog.Logger
}

// Client implements govauth.ProxyLookup. RPC connections are dialed lazily and
// reused per network.
type Client struct {
	cfg    Config
	logger *slog.Logger

	mu    sync.Mutex
	conns map[string]*rpc.Client
}

func New(cfg Config) *Client {
	endpoints := make(map[string]string, len(cfg.Endpoints))
	for k, v := range cfg.Endpoints {
		endpoints[strings.ToLower(k)] = v
	}
	cfg.Endpoints = endpoints
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		logger: logger,
		conns:  make(map[string]*rpc.Client),
	}
}

func (c *Client) conn(ctx context.Context, network string) (*rpc.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cl, ok := c.conns[network]; ok {
		return cl, nil
	}
	url, ok := c.cfg.Endpoints[network]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNetwork, network)
	}
	cl, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("proxy: dial %s: %w", network, err)
	}
	c.conns[network] = cl
	return cl, nil
}

// GetProxies returns the delegates registered for address. Substrate accounts
// come back as generic SS58, 20-byte accounts as lower-case hex.
func (c *Client) GetProxies(ctx context.Context, network, address string) ([]string, error) {
	network = strings.ToLower(network)
	account, err := accountID(address)
	if err != nil {
		return nil, err
	}
	cl, err := c.conn(ctx, network)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	var raw *string
	if err := cl.CallContext(ctx, &raw, "state_getStorage", hexutil.Encode(StorageKey(account))); err != nil {
		return nil, fmt.Errorf("proxy: state_getStorage: %w", err)
	}
	if raw == nil {
		return []string{}, nil
	}
	value, err := hexutil.Decode(*raw)
	if err != nil {
		return nil, fmt.Errorf("proxy: decode storage: %w", err)
	}

	delegates, err := decodeDelegates(value, len(account))
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(delegates))
	for _, d := range delegates {
		s, err := formatAccount(d)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	c.logger.Debug("proxies loaded",
		slog.String("network", network),
		slog.String("address", address),
		slog.Int("count", len(out)),
	)
	return out, nil
}

func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, cl := range c.conns {
		cl.Close()
		delete(c.conns, k)
	}
}

func accountID(address string) ([]byte, error) {
	if ss58.IsHex(address) {
		b, err := hex.DecodeString(strings.TrimPrefix(strings.ToLower(address), "0x"))
		if err != nil || (len(b) != 20 && len(b) != 32) {
			return nil, fmt.Errorf("proxy: invalid account %q", address)
		}
		return b, nil
	}
	return ss58.PublicKey(address)
}

func formatAccount(b []byte) (string, error) {
	if len(b) == 20 {
		return "0x" + hex.EncodeToString(b), nil
	}
	return ss58.Encode(b, genericPrefix)
}
