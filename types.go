package govauth

import (
	"context"
	"strings"
	"time"

	"github.com/polkassembly/govauth/ss58"
)

// GenericPrefix is the SS58 prefix addresses are stored under.
const GenericPrefix uint16 = 42

// TwoFactor holds TOTP state for a user. Secret is base32.
type TwoFactor struct {
	Enabled  bool   `json:"enabled"`
	Verified bool   `json:"verified"`
	Secret   string `json:"secret,omitempty"`
}

// Active reports whether two-factor must be satisfied at login.
func (t TwoFactor) Active() bool {
	return t.Enabled && t.Verified
}

type Profile struct {
	Bio    string   `json:"bio,omitempty"`
	Image  string   `json:"image,omitempty"`
	Title  string   `json:"title,omitempty"`
	Badges []string `json:"badges,omitempty"`
}

// User is an account record. ID is assigned by the IdentityStore and never changes.
type User struct {
	ID            int64     `json:"id"`
	Email         string    `json:"email"`
	EmailVerified bool      `json:"email_verified"`
	Password      string    `json:"-"`
	Salt          string    `json:"-"`
	Username      string    `json:"username"`
	Web3Signup    bool      `json:"web3signup"`
	TwoFactor     TwoFactor `json:"two_factor"`
	Profile       Profile   `json:"profile"`
	CreatedAt     time.Time `json:"created_at"`
}

// Address links a chain address to exactly one user.
type Address struct {
	Address     string    `json:"address"`
	UserID      int64     `json:"user_id"`
	Default     bool      `json:"default"`
	Verified    bool      `json:"verified"`
	Network     string    `json:"network"`
	Wallet      string    `json:"wallet"`
	IsERC20     bool      `json:"is_erc20"`
	IsMultisig  bool      `json:"is_multisig"`
	PublicKey   string    `json:"public_key"`
	SignMessage string    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}

// UndoEmailChangeToken lets a user revert an email change. While Valid and
// younger than the cooldown it also blocks further changes.
type UndoEmailChangeToken struct {
	UserID    int64     `json:"user_id"`
	Email     string    `json:"email"`
	Token     string    `json:"token"`
	Valid     bool      `json:"valid"`
	CreatedAt time.Time `json:"created_at"`
}

// IdentityStore persists users, addresses and undo tokens. Lookups that miss
// return an error matching ErrNotFound. Username and email lookups are
// case-insensitive.
type IdentityStore interface {
	GetUserByID(ctx context.Context, id int64) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	// CreateUser assigns u.ID.
	CreateUser(ctx context.Context, u *User) error
	UpdateUser(ctx context.Context, u *User) error
	// CreateUserWithAddress creates u and a together or neither. It assigns
	// u.ID and sets a.UserID to it.
	CreateUserWithAddress(ctx context.Context, u *User, a *Address) error

	GetAddress(ctx context.Context, address string) (*Address, error)
	GetAddressesByUser(ctx context.Context, userID int64, verifiedOnly bool) ([]Address, error)
	GetDefaultAddress(ctx context.Context, userID int64) (*Address, error)
	CreateAddress(ctx context.Context, a *Address) error
	UpdateAddress(ctx context.Context, a *Address) error
	DeleteAddress(ctx context.Context, address string) error
	// UpdateAddresses writes every record in one atomic step.
	UpdateAddresses(ctx context.Context, userID int64, addresses []Address) error

	GetLatestUndoEmailChangeToken(ctx context.Context, userID int64) (*UndoEmailChangeToken, error)
	GetUndoEmailChangeToken(ctx context.Context, token string) (*UndoEmailChangeToken, error)
	CreateUndoEmailChangeToken(ctx context.Context, t *UndoEmailChangeToken) error
	UpdateUndoEmailChangeToken(ctx context.Context, t *UndoEmailChangeToken) error
}

// ProxyLookup returns the on-chain proxies of address on network.
type ProxyLookup interface {
	GetProxies(ctx context.Context, network, address string) ([]string, error)
}

// Post is a signed draft handed to a ContentPublisher.
type Post struct {
	PostID    string
	UserID    int64
	Network   string
	Address   string
	Title     string
	Content   string
	Signature string
}

// ContentPublisher writes attested posts.
type ContentPublisher interface {
	PublishPost(ctx context.Context, p Post) (string, error)
	UpdatePost(ctx context.Context, p Post) error
}

// LoginResult is returned by login flows. When TFARequired is set Token is
// empty and TFAToken must be exchanged through ConfirmTFALogin.
type LoginResult struct {
	UserID      int64
	Token       string
	TFARequired bool
	TFAToken    string
}

type SignUpRequest struct {
	Username string
	Email    string
	Password string
	Network  string
}

// SignedRequest carries a wallet signature over a previously issued challenge.
type SignedRequest struct {
	Address   string
	Signature string
	Wallet    string
	Network   string
}

type MultisigLinkRequest struct {
	// UserID of zero creates a new account for the multisig address.
	UserID      int64
	Address     string
	Signatories []string
	Threshold   uint
	Signatory   string
	Signature   string
	Wallet      string
	Network     string
}

type ProxyLinkRequest struct {
	UserID         int64
	ProxyAddress   string
	ProxiedAddress string
	Message        string
	Signature      string
	Wallet         string
	Network        string
}

type SetCredentialsRequest struct {
	SignedRequest
	Username string
	Email    string
	Password string
}

type PostRequest struct {
	SignedRequest
	Title   string
	Content string
	// PostID is required for edits.
	PostID string
}

type PostResult struct {
	UserID  int64
	Address string
	PostID  string
	Created bool
}

// TFASetup is returned when a new TOTP secret is generated.
type TFASetup struct {
	Secret string
	URI    string
}

// NormalizeAddress returns the storage form of address: hex addresses are
// lower-cased and SS58 addresses are re-encoded under GenericPrefix.
func NormalizeAddress(address string) string {
	address = strings.TrimSpace(address)
	if ss58.IsHex(address) {
		return strings.ToLower(address)
	}
	if generic, err := ss58.Reencode(address, GenericPrefix); err == nil {
		return generic
	}
	return address
}

// IsEVMAddress reports whether address is a 20-byte hex account.
func IsEVMAddress(address string) bool {
	return ss58.IsHex(address) && len(address) == 42
}
