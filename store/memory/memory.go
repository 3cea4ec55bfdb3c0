// Package memory is an in-process IdentityStore for tests and local development.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/polkassembly/govauth"
)

// Store keeps every record in maps guarded by one mutex. Returned records are
// copies; mutate them and write them back.
type Store struct {
	mu sync.RWMutex

	nextID    int64
	users     map[int64]govauth.User
	addresses map[string]govauth.Address
	undo      map[string]govauth.UndoEmailChangeToken
	undoOrder []string
}

var _ govauth.IdentityStore = (*Store)(nil)

func New() *Store {
	return &Store{
		users:     make(map[int64]govauth.User),
		addresses: make(map[string]govauth.Address),
		undo:      make(map[string]govauth.UndoEmailChangeToken),
	}
}

func notFound(what string) error {
	return &govauth.Error{Kind: govauth.KindNotFound, Msg: what + " not found"}
}

func (s *Store) GetUserByID(_ context.Context, id int64) (*govauth.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, notFound("user")
	}
	return cloneUser(u), nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (*govauth.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.findUser(func(u govauth.User) bool { return strings.EqualFold(u.Username, username) }); ok {
		return cloneUser(u), nil
	}
	return nil, notFound("user")
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*govauth.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if email == "" {
		return nil, notFound("user")
	}
	if u, ok := s.findUser(func(u govauth.User) bool { return strings.EqualFold(u.Email, email) }); ok {
		return cloneUser(u), nil
	}
	return nil, notFound("user")
}

func (s *Store) CreateUser(_ context.Context, u *govauth.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkUnique(*u, 0); err != nil {
		return err
	}
	s.nextID++
	u.ID = s.nextID
	s.users[u.ID] = *cloneUser(*u)
	return nil
}

func (s *Store) CreateUserWithAddress(_ context.Context, u *govauth.User, a *govauth.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkUnique(*u, 0); err != nil {
		return err
	}
	if _, ok := s.addresses[a.Address]; ok {
		return govauth.ErrAddressLinked
	}
	s.nextID++
	u.ID = s.nextID
	a.UserID = u.ID
	s.users[u.ID] = *cloneUser(*u)
	s.addresses[a.Address] = *a
	return nil
}

func (s *Store) UpdateUser(_ context.Context, u *govauth.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; !ok {
		return notFound("user")
	}
	if err := s.checkUnique(*u, u.ID); err != nil {
		return err
	}
	s.users[u.ID] = *cloneUser(*u)
	return nil
}

func (s *Store) GetAddress(_ context.Context, address string) (*govauth.Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.addresses[address]
	if !ok {
		return nil, notFound("address")
	}
	return &a, nil
}

func (s *Store) GetAddressesByUser(_ context.Context, userID int64, verifiedOnly bool) ([]govauth.Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]govauth.Address, 0)
	for _, a := range s.addresses {
		if a.UserID != userID || (verifiedOnly && !a.Verified) {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Address < out[j].Address
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) GetDefaultAddress(_ context.Context, userID int64) (*govauth.Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.addresses {
		if a.UserID == userID && a.Default {
			return &a, nil
		}
	}
	return nil, notFound("default address")
}

func (s *Store) CreateAddress(_ context.Context, a *govauth.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.addresses[a.Address]; ok {
		return govauth.ErrAddressLinked
	}
	s.addresses[a.Address] = *a
	return nil
}

func (s *Store) UpdateAddress(_ context.Context, a *govauth.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.addresses[a.Address]; !ok {
		return notFound("address")
	}
	s.addresses[a.Address] = *a
	return nil
}

func (s *Store) DeleteAddress(_ context.Context, address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.addresses[address]; !ok {
		return notFound("address")
	}
	delete(s.addresses, address)
	return nil
}

// UpdateAddresses applies every record or none.
func (s *Store) UpdateAddresses(_ context.Context, userID int64, addresses []govauth.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range addresses {
		current, ok := s.addresses[a.Address]
		if !ok {
			return notFound("address")
		}
		if current.UserID != userID || a.UserID != userID {
			return govauth.ErrAddressNotOwned
		}
	}
	for _, a := range addresses {
		s.addresses[a.Address] = a
	}
	return nil
}

func (s *Store) GetLatestUndoEmailChangeToken(_ context.Context, userID int64) (*govauth.UndoEmailChangeToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.undoOrder) - 1; i >= 0; i-- {
		t := s.undo[s.undoOrder[i]]
		if t.UserID == userID {
			return &t, nil
		}
	}
	return nil, notFound("undo token")
}

func (s *Store) GetUndoEmailChangeToken(_ context.Context, token string) (*govauth.UndoEmailChangeToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.undo[token]
	if !ok {
		return nil, notFound("undo token")
	}
	return &t, nil
}

func (s *Store) CreateUndoEmailChangeToken(_ context.Context, t *govauth.UndoEmailChangeToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.undo[t.Token]; ok {
		return &govauth.Error{Kind: govauth.KindConflict, Msg: "undo token exists"}
	}
	s.undo[t.Token] = *t
	s.undoOrder = append(s.undoOrder, t.Token)
	return nil
}

func (s *Store) UpdateUndoEmailChangeToken(_ context.Context, t *govauth.UndoEmailChangeToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.undo[t.Token]; !ok {
		return notFound("undo token")
	}
	s.undo[t.Token] = *t
	return nil
}

func (s *Store) findUser(match func(govauth.User) bool) (govauth.User, bool) {
	for _, u := range s.users {
		if match(u) {
			return u, true
		}
	}
	return govauth.User{}, false
}

func (s *Store) checkUnique(u govauth.User, self int64) error {
	for id, other := range s.users {
		if id == self {
			continue
		}
		if strings.EqualFold(other.Username, u.Username) {
			return govauth.ErrUsernameTaken
		}
		if u.Email != "" && strings.EqualFold(other.Email, u.Email) {
			return govauth.ErrEmailTaken
		}
	}
	return nil
}

func cloneUser(u govauth.User) *govauth.User {
	u.Profile.Badges = append([]string(nil), u.Profile.Badges...)
	return &u
}
