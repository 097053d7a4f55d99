package ledger

import (
	"context"

	"contest-arena/internal/store"
)

const (
	ReasonAdminCredit  = "admin_credit"
	ReasonAdminDebit   = "admin_debit"
	ReasonContestEntry = "contest_entry"

	refTypeAdmin = "admin"
	foldPageSize = 200
)

type Repository interface {
	AdjustBalance(ctx context.Context, accountID string, amount int64, direction, reason, refType, refID string) (int64, error)
	ListLedgerEntries(ctx context.Context, f store.LedgerFilter, limit, offset int) ([]store.LedgerEntry, error)
}

type Ledger struct {
	Store Repository
}

func New(s Repository) *Ledger {
	return &Ledger{Store: s}
}

// AdminCredit tops up an account; adminID is recorded as the reference.
func (l *Ledger) AdminCredit(ctx context.Context, accountID, adminID string, amount int64) (int64, error) {
	return l.Store.AdjustBalance(ctx, accountID, amount, store.DirectionCredit, ReasonAdminCredit, refTypeAdmin, adminID)
}

// AdminOpeningCredit describes the first credit of an account created by
// adminID.
func AdminOpeningCredit(adminID string, amount int64) store.OpeningCredit {
	return store.OpeningCredit{Amount: amount, Reason: ReasonAdminCredit, RefType: refTypeAdmin, RefID: adminID}
}

func (l *Ledger) AdminDebit(ctx context.Context, accountID, adminID string, amount int64) (int64, error) {
	return l.Store.AdjustBalance(ctx, accountID, amount, store.DirectionDebit, ReasonAdminDebit, refTypeAdmin, adminID)
}

// Fold returns the balance implied by entries.
func Fold(entries []store.LedgerEntry) int64 {
	var bal int64
	for _, e := range entries {
		switch e.Direction {
		case store.DirectionCredit:
			bal += e.Amount
		case store.DirectionDebit:
			bal -= e.Amount
		}
	}
	return bal
}

// Replay folds the full history of accountID, oldest first.
func (l *Ledger) Replay(ctx context.Context, accountID string) (int64, error) {
	var bal int64
	for offset := 0; ; offset += foldPageSize {
		page, err := l.Store.ListLedgerEntries(ctx, store.LedgerFilter{AccountID: accountID, Ascending: true}, foldPageSize, offset)
		if err != nil {
			return 0, err
		}
		bal += Fold(page)
		if len(page) < foldPageSize {
			return bal, nil
		}
	}
}
