package account

import (
	"context"
	"errors"
	"time"

	"contest-arena/internal/auth"
	"contest-arena/internal/store"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidRequest  = errors.New("invalid_request")
	ErrAccountNotFound = errors.New("account_not_found")
	ErrWrongPassword   = errors.New("wrong_password")
	ErrForbidden       = errors.New("forbidden")
)

type Profile struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Mobile    string    `json:"mobile"`
	Balance   int64     `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
}

type Transaction struct {
	ID           string    `json:"id"`
	Direction    string    `json:"direction"`
	Amount       int64     `json:"amount"`
	BalanceAfter int64     `json:"balance_after"`
	Reason       string    `json:"reason"`
	RefType      string    `json:"ref_type,omitempty"`
	RefID        string    `json:"ref_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type TransactionsResponse struct {
	Items  []Transaction `json:"items"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

type Service struct {
	store store.Repository
}

func NewService(st store.Repository) *Service {
	return &Service{store: st}
}

func (s *Service) load(ctx context.Context, p auth.Principal) (*store.Account, error) {
	if p.Kind != auth.KindRegular {
		return nil, ErrForbidden
	}
	a, err := s.store.GetAccount(ctx, p.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return a, nil
}

func (s *Service) Me(ctx context.Context, p auth.Principal) (*Profile, error) {
	a, err := s.load(ctx, p)
	if err != nil {
		return nil, err
	}
	return &Profile{ID: a.ID, Username: a.Username, Mobile: a.Mobile, Balance: a.Balance, CreatedAt: a.CreatedAt}, nil
}

// Transactions lists the caller's ledger, newest first.
func (s *Service) Transactions(ctx context.Context, p auth.Principal, limit, offset int) (*TransactionsResponse, error) {
	if p.Kind != auth.KindRegular {
		return nil, ErrForbidden
	}
	entries, err := s.store.ListLedgerEntries(ctx, store.LedgerFilter{AccountID: p.ID}, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]Transaction, 0, len(entries))
	for _, e := range entries {
		out = append(out, Transaction{
			ID: e.ID, Direction: e.Direction, Amount: e.Amount, BalanceAfter: e.BalanceAfter,
			Reason: e.Reason, RefType: e.RefType, RefID: e.RefID, CreatedAt: e.CreatedAt,
		})
	}
	return &TransactionsResponse{Items: out, Limit: limit, Offset: offset}, nil
}

func (s *Service) ChangePassword(ctx context.Context, p auth.Principal, current, next string) error {
	if len(next) < 6 || current == next {
		return ErrInvalidRequest
	}
	a, err := s.load(ctx, p)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(current)) != nil {
		return ErrWrongPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.store.UpdateAccountPassword(ctx, a.ID, string(hash))
}
