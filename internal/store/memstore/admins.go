package memstore

import (
	"context"
	"time"

	"contest-arena/internal/store"
)

func (s *Store) CreateAdmin(_ context.Context, a store.Admin) (*store.Admin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.admins {
		if existing.Username == a.Username || existing.Email == a.Email || existing.Mobile == a.Mobile || existing.APIKeyHash == a.APIKeyHash {
			return nil, store.ErrDuplicateKey
		}
	}
	if a.ID == "" {
		a.ID = store.NewID()
	}
	a.CreatedAt = s.now()
	cp := a
	s.admins[a.ID] = &cp
	return &a, nil
}

func (s *Store) findAdmin(match func(*store.Admin) bool) (*store.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.admins {
		if match(a) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) GetAdminByAPIKeyHash(_ context.Context, hash string) (*store.Admin, error) {
	return s.findAdmin(func(a *store.Admin) bool { return a.APIKeyHash == hash })
}

func (s *Store) GetAdminByEmailOrMobile(_ context.Context, v string) (*store.Admin, error) {
	return s.findAdmin(func(a *store.Admin) bool { return a.Email == v || a.Mobile == v })
}

func (s *Store) SetAdminResetToken(_ context.Context, adminID, tokenHash string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.admins[adminID]
	if !ok {
		return store.ErrNotFound
	}
	exp := expiresAt
	a.ResetTokenHash = tokenHash
	a.ResetExpiresAt = &exp
	return nil
}

func (s *Store) ResetAdminPassword(_ context.Context, tokenHash, passwordHash string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.admins {
		if a.ResetTokenHash == "" || a.ResetTokenHash != tokenHash || a.ResetExpiresAt == nil {
			continue
		}
		if !a.ResetExpiresAt.After(now) {
			return store.ErrNotFound
		}
		a.PasswordHash = passwordHash
		a.ResetTokenHash = ""
		a.ResetExpiresAt = nil
		return nil
	}
	return store.ErrNotFound
}

func (s *Store) PurgeExpiredResetTokens(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, a := range s.admins {
		if a.ResetExpiresAt != nil && !a.ResetExpiresAt.After(now) {
			a.ResetTokenHash = ""
			a.ResetExpiresAt = nil
			n++
		}
	}
	return n, nil
}
