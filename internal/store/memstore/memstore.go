// Package memstore is an in-process implementation of store.Repository. It
// backs tests and STORE_DRIVER=memory.
package memstore

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"contest-arena/internal/store"
)

type Store struct {
	// locks serializes writers per contest and per account. Join takes the
	// contest key before the account key.
	locks keyedMutex

	mu            sync.RWMutex
	accounts      map[string]*store.Account
	admins        map[string]*store.Admin
	contests      map[string]*store.Contest
	registrations map[string][]store.Registration
	seats         map[string]map[string]string
	idempotency   map[string]string
	regByID       map[string]store.Registration
	ledger        []store.LedgerEntry
	results       map[string][]store.ContestResult
	votes         map[string]store.Vote

	now func() time.Time
}

func New() *Store {
	return &Store{
		locks:         keyedMutex{locks: map[string]*sync.Mutex{}},
		accounts:      map[string]*store.Account{},
		admins:        map[string]*store.Admin{},
		contests:      map[string]*store.Contest{},
		registrations: map[string][]store.Registration{},
		seats:         map[string]map[string]string{},
		idempotency:   map[string]string{},
		regByID:       map[string]store.Registration{},
		results:       map[string][]store.ContestResult{},
		votes:         map[string]store.Vote{},
		now:           time.Now,
	}
}

var _ store.Repository = (*Store)(nil)

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (k *keyedMutex) get(key string) *sync.Mutex {
	k.mu.Lock()
	defer k.mu.Unlock()
	if _, ok := k.locks[key]; !ok {
		k.locks[key] = &sync.Mutex{}
	}
	return k.locks[key]
}

func (k *keyedMutex) lock(key string) func() {
	m := k.get(key)
	m.Lock()
	return m.Unlock
}

func contestKey(id string) string { return "contest:" + id }
func accountKey(id string) string { return "account:" + id }

func idemKey(accountID, key string) string { return accountID + "\x00" + key }

// Accounts

func (s *Store) CreateAccount(ctx context.Context, a store.Account) (*store.Account, error) {
	return s.CreateFundedAccount(ctx, a, store.OpeningCredit{})
}

func (s *Store) CreateFundedAccount(_ context.Context, a store.Account, credit store.OpeningCredit) (*store.Account, error) {
	if credit.Amount < 0 {
		return nil, store.ErrInvalidAmount
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.accounts {
		if existing.Username == a.Username || existing.Mobile == a.Mobile || existing.APIKeyHash == a.APIKeyHash {
			return nil, store.ErrDuplicateKey
		}
	}
	if a.ID == "" {
		a.ID = store.NewID()
	}
	now := s.now()
	a.Balance = 0
	a.CreatedAt, a.UpdatedAt = now, now
	cp := a
	s.accounts[a.ID] = &cp
	if credit.Amount > 0 {
		bal, _, err := s.adjustBalanceLocked(a.ID, credit.Amount, store.DirectionCredit, credit.Reason, credit.RefType, credit.RefID)
		if err != nil {
			delete(s.accounts, a.ID)
			return nil, err
		}
		a.Balance = bal
	}
	return &a, nil
}

func (s *Store) GetAccount(_ context.Context, id string) (*store.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *Store) findAccount(match func(*store.Account) bool) (*store.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.accounts {
		if match(a) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) GetAccountByUsername(_ context.Context, username string) (*store.Account, error) {
	return s.findAccount(func(a *store.Account) bool { return a.Username == username })
}

func (s *Store) GetAccountByAPIKeyHash(_ context.Context, hash string) (*store.Account, error) {
	return s.findAccount(func(a *store.Account) bool { return a.APIKeyHash == hash })
}

func (s *Store) ListAccounts(_ context.Context, search string, limit, offset int) ([]store.Account, error) {
	q := strings.ToLower(strings.TrimSpace(search))
	s.mu.RLock()
	out := []store.Account{}
	for _, a := range s.accounts {
		if q == "" || strings.Contains(strings.ToLower(a.Username), q) || strings.Contains(strings.ToLower(a.Mobile), q) {
			out = append(out, *a)
		}
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return page(out, limit, offset), nil
}

func (s *Store) UpdateAccountPassword(_ context.Context, id, passwordHash string) error {
	unlock := s.locks.lock(accountKey(id))
	defer unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return store.ErrNotFound
	}
	a.PasswordHash = passwordHash
	a.UpdatedAt = s.now()
	return nil
}

func (s *Store) AdjustBalance(_ context.Context, accountID string, amount int64, direction, reason, refType, refID string) (int64, error) {
	unlock := s.locks.lock(accountKey(accountID))
	defer unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	newBal, _, err := s.adjustBalanceLocked(accountID, amount, direction, reason, refType, refID)
	return newBal, err
}

// adjustBalanceLocked requires s.mu held for writing.
func (s *Store) adjustBalanceLocked(accountID string, amount int64, direction, reason, refType, refID string) (int64, string, error) {
	if amount <= 0 {
		return 0, "", store.ErrInvalidAmount
	}
	a, ok := s.accounts[accountID]
	if !ok {
		return 0, "", store.ErrNotFound
	}
	newBal := a.Balance
	switch direction {
	case store.DirectionCredit:
		if amount > math.MaxInt64-newBal {
			return 0, "", store.ErrBalanceLimit
		}
		newBal += amount
	case store.DirectionDebit:
		if a.Balance < amount {
			return 0, "", store.ErrInsufficientBalance
		}
		newBal -= amount
	default:
		return 0, "", store.ErrInvalidAmount
	}
	now := s.now()
	a.Balance = newBal
	a.UpdatedAt = now
	entry := store.LedgerEntry{
		ID:           store.NewID(),
		AccountID:    accountID,
		Direction:    direction,
		Amount:       amount,
		BalanceAfter: newBal,
		Reason:       reason,
		RefType:      refType,
		RefID:        refID,
		CreatedAt:    now,
	}
	s.ledger = append(s.ledger, entry)
	return newBal, entry.ID, nil
}

// Ledger

func (s *Store) ListLedgerEntries(_ context.Context, f store.LedgerFilter, limit, offset int) ([]store.LedgerEntry, error) {
	s.mu.RLock()
	out := []store.LedgerEntry{}
	for _, e := range s.ledger {
		if f.AccountID != "" && e.AccountID != f.AccountID {
			continue
		}
		if f.Reason != "" && e.Reason != f.Reason {
			continue
		}
		if f.From != nil && e.CreatedAt.Before(*f.From) {
			continue
		}
		if f.To != nil && !e.CreatedAt.Before(*f.To) {
			continue
		}
		out = append(out, e)
	}
	s.mu.RUnlock()
	if !f.Ascending {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	if limit <= 0 {
		limit = 50
	}
	return page(out, limit, offset), nil
}

func page[T any](items []T, limit, offset int) []T {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
