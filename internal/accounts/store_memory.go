package accounts

import (
	"context"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

type MemStore struct {
	mu      sync.RWMutex
	byEmail map[string]Account
}

func NewMemStore() *MemStore {
	return &MemStore{byEmail: make(map[string]Account)}
}

func (s *MemStore) Ping(ctx context.Context) error { return nil }

func (s *MemStore) Register(ctx context.Context, acct Account, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	acct.Hash = hash

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEmail[acct.Email]; ok {
		return ErrEmailTaken
	}

	s.byEmail[acct.Email] = acct
	return nil
}

func (s *MemStore) Authenticate(ctx context.Context, email, password string) (Account, error) {
	s.mu.RLock()
	acct, ok := s.byEmail[email]
	s.mu.RUnlock()

	if !ok {
		return Account{}, ErrBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword(acct.Hash, []byte(password)); err != nil {
		return Account{}, ErrBadCredentials
	}

	return acct, nil
}
