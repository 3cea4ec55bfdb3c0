package signature

import (
	"strings"

	"github.com/polkassembly/govauth/ss58"
)

// Scheme selects the verification algorithm.
type Scheme uint8

const (
	Substrate Scheme = iota
	PersonalSign
)

func (s Scheme) String() string {
	switch s {
	case Substrate:
		return "substrate"
	case PersonalSign:
		return "personal_sign"
	default:
		return "unknown"
	}
}

// Wallet identifies the extension or app that produced a signature.
type Wallet string

const (
	WalletPolkadotJS Wallet = "polkadot-js"
	WalletTalisman   Wallet = "talisman"
	WalletSubWallet  Wallet = "subwallet-js"
	WalletPolkagate  Wallet = "polkagate"
	WalletNova       Wallet = "nova"
	WalletMetamask   Wallet = "metamask"
)

// ParseWallet normalizes a wallet name. Unknown names are kept as-is.
func ParseWallet(name string) Wallet {
	return Wallet(strings.ToLower(strings.TrimSpace(name)))
}

// PersonalSign reports whether the wallet signs with the Ethereum personal_sign scheme.
func (w Wallet) PersonalSign() bool {
	return w == WalletMetamask
}

// Resolve picks the scheme for a given address and wallet.
func Resolve(address string, wallet Wallet) Scheme {
	if ss58.IsHex(address) && wallet.PersonalSign() {
		return PersonalSign
	}
	return Substrate
}
