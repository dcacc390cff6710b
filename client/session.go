package client

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/junaidrashid-git/storefront/cart"
)

const sessionKey = "session"

type sessionState struct {
	UserID string `json:"user_id"`
	Token  string `json:"token"`
}

// Session is the signed-in state on this machine. It implements
// cart.IdentitySource and is persisted in the same local store as the
// cart slots when one is given.
type Session struct {
	mu        sync.Mutex
	state     sessionState
	store     cart.LocalStore
	listeners map[int]func(cart.Identity)
	nextID    int
}

func NewSession(store cart.LocalStore) *Session {
	return &Session{store: store, listeners: map[int]func(cart.Identity){}}
}

// LoadSession restores a previously saved session. A missing or malformed
// record leaves the session signed out.
func LoadSession(store cart.LocalStore) (*Session, error) {
	s := NewSession(store)
	raw, err := store.Load(sessionKey)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if raw != nil {
		_ = json.Unmarshal(raw, &s.state)
	}
	return s, nil
}

func (s *Session) Current() cart.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return identityOf(s.state)
}

func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Token
}

func (s *Session) OnChange(fn func(cart.Identity)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Session) SignIn(userID, token string) error {
	return s.set(sessionState{UserID: userID, Token: token})
}

// SignOut drops the token. A guest token can be kept for ordering.
func (s *Session) SignOut(guestToken string) error {
	return s.set(sessionState{Token: guestToken})
}

func (s *Session) set(next sessionState) error {
	s.mu.Lock()
	prev := identityOf(s.state)
	s.state = next
	if err := s.saveLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	cur := identityOf(next)
	fns := make([]func(cart.Identity), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	if cur != prev {
		for _, fn := range fns {
			fn(cur)
		}
	}
	return nil
}

func (s *Session) saveLocked() error {
	if s.store == nil {
		return nil
	}
	if s.state == (sessionState{}) {
		return s.store.Delete(sessionKey)
	}
	raw, err := json.Marshal(s.state)
	if err != nil {
		return err
	}
	return s.store.Save(sessionKey, raw)
}

func identityOf(st sessionState) cart.Identity {
	if st.UserID == "" {
		return cart.Guest()
	}
	return cart.User(st.UserID)
}
