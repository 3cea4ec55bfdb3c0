package proxy

import (
	"encoding/binary"
	"errors"

	"github.com/cespare/xxhash/v2"
)

var (
	errShortInput    = errors.New("proxy: truncated storage value")
	errCompactLength = errors.New("proxy: unsupported compact length")
)

// proxyDefinitionTail is proxy_type (u8) plus delay (u32) after the delegate.
const proxyDefinitionTail = 1 + 4

func twox64(data []byte, seed uint64) []byte {
	d := xxhash.NewWithSeed(seed)
	_, _ = d.Write(data)
	out := make([]byte, 8)
	binary.LittleEndian.PutUint64(out, d.Sum64())
	return out
}

func twox128(data []byte) []byte {
	return append(twox64(data, 0), twox64(data, 1)...)
}

// StorageKey returns the key of Proxy.Proxies(account).
func StorageKey(account []byte) []byte {
	key := make([]byte, 0, 16+16+8+len(account))
	key = append(key, twox128([]byte("Proxy"))...)
	key = append(key, twox128([]byte("Proxies"))...)
	key = append(key, twox64(account, 0)...)
	return append(key, account...)
}

// decodeCompact reads a SCALE compact integer and returns it with the number
// of bytes consumed.
func decodeCompact(b []byte) (uint64, int, error) {
	if len(b) == 0 {
		return 0, 0, errShortInput
	}
	switch b[0] & 0b11 {
	case 0b00:
		return uint64(b[0] >> 2), 1, nil
	case 0b01:
		if len(b) < 2 {
			return 0, 0, errShortInput
		}
		return uint64(binary.LittleEndian.Uint16(b)) >> 2, 2, nil
	case 0b10:
		if len(b) < 4 {
			return 0, 0, errShortInput
		}
		return uint64(binary.LittleEndian.Uint32(b)) >> 2, 4, nil
	default:
		n := int(b[0]>>2) + 4
		if n > 8 {
			return 0, 0, errCompactLength
		}
		if len(b) < 1+n {
			return 0, 0, errShortInput
		}
		var buf [8]byte
		copy(buf[:], b[1:1+n])
		return binary.LittleEndian.Uint64(buf[:]), 1 + n, nil
	}
}

// decodeDelegates reads the proxy definitions vector of a Proxies value.
// The trailing deposit is ignored.
func decodeDelegates(value []byte, accountLen int) ([][]byte, error) {
	count, off, err := decodeCompact(value)
	if err != nil {
		return nil, err
	}
	entry := accountLen + proxyDefinitionTail
	if count > uint64(len(value)/entry) {
		return nil, errShortInput
	}

	out := make([][]byte, 0, count)
	for i := uint64(0); i < count; i++ {
		if len(value)-off < entry {
			return nil, errShortInput
		}
		delegate := make([]byte, accountLen)
		copy(delegate, value[off:off+accountLen])
		out = append(out, delegate)
		off += entry
	}
	return out, nil
}
