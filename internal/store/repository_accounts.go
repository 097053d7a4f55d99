package store

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/jackc/pgx/v5"
)

const accountColumns = `id, username, mobile, password_hash, api_key_hash, balance, created_at, updated_at`

func scanAccount(row pgx.Row) (*Account, error) {
	var a Account
	if err := row.Scan(&a.ID, &a.Username, &a.Mobile, &a.PasswordHash, &a.APIKeyHash, &a.Balance, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, mapNotFound(err)
	}
	return &a, nil
}

// CreateAccount inserts a with a fresh id and zero balance.
func (s *Store) CreateAccount(ctx context.Context, a Account) (*Account, error) {
	return s.CreateFundedAccount(ctx, a, OpeningCredit{})
}

// CreateFundedAccount inserts a and applies the opening credit in the same
// transaction, so an account never exists without its opening entry.
func (s *Store) CreateFundedAccount(ctx context.Context, a Account, credit OpeningCredit) (*Account, error) {
	if credit.Amount < 0 {
		return nil, ErrInvalidAmount
	}
	if a.ID == "" {
		a.ID = NewID()
	}
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `INSERT INTO accounts (id, username, mobile, password_hash, api_key_hash)
		VALUES ($1, $2, $3, $4, $5) RETURNING `+accountColumns,
		a.ID, a.Username, a.Mobile, a.PasswordHash, a.APIKeyHash)
	out, err := scanAccount(row)
	if err != nil {
		if isUniqueViolation(err, "") {
			return nil, ErrDuplicateKey
		}
		return nil, err
	}
	if credit.Amount > 0 {
		bal, _, err := adjustBalanceTx(ctx, tx, out.ID, credit.Amount, DirectionCredit, credit.Reason, credit.RefType, credit.RefID)
		if err != nil {
			return nil, err
		}
		out.Balance = bal
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, mapWriteError(err)
	}
	return out, nil
}

func (s *Store) GetAccount(ctx context.Context, id string) (*Account, error) {
	return scanAccount(s.Pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id))
}

func (s *Store) GetAccountByUsername(ctx context.Context, username string) (*Account, error) {
	return scanAccount(s.Pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE username = $1`, username))
}

func (s *Store) GetAccountByAPIKeyHash(ctx context.Context, hash string) (*Account, error) {
	return scanAccount(s.Pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE api_key_hash = $1`, hash))
}

func (s *Store) ListAccounts(ctx context.Context, search string, limit, offset int) ([]Account, error) {
	limit, offset = clampPage(limit, offset)
	pattern := ""
	if q := strings.TrimSpace(search); q != "" {
		pattern = "%" + q + "%"
	}
	rows, err := s.Pool.Query(ctx, `SELECT `+accountColumns+` FROM accounts
		WHERE ($1 = '' OR username ILIKE $1 OR mobile ILIKE $1)
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`, pattern, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Account{}
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (s *Store) UpdateAccountPassword(ctx context.Context, id, passwordHash string) error {
	tag, err := s.Pool.Exec(ctx, `UPDATE accounts SET password_hash = $2, updated_at = now() WHERE id = $1`, id, passwordHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AdjustBalance moves amount in direction and appends exactly one ledger
// entry. The balance never goes negative.
func (s *Store) AdjustBalance(ctx context.Context, accountID string, amount int64, direction, reason, refType, refID string) (int64, error) {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	newBal, _, err := adjustBalanceTx(ctx, tx, accountID, amount, direction, reason, refType, refID)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, mapWriteError(err)
	}
	return newBal, nil
}

func adjustBalanceTx(ctx context.Context, tx pgx.Tx, accountID string, amount int64, direction, reason, refType, refID string) (int64, string, error) {
	if amount <= 0 {
		return 0, "", ErrInvalidAmount
	}
	var bal int64
	if err := tx.QueryRow(ctx, `SELECT balance FROM accounts WHERE id = $1 FOR UPDATE`, accountID).Scan(&bal); err != nil {
		return 0, "", mapWriteError(mapNotFound(err))
	}
	var newBal int64
	switch direction {
	case DirectionCredit:
		if amount > math.MaxInt64-bal {
			return 0, "", ErrBalanceLimit
		}
		newBal = bal + amount
	case DirectionDebit:
		if bal < amount {
			return 0, "", ErrInsufficientBalance
		}
		newBal = bal - amount
	default:
		return 0, "", fmt.Errorf("unknown ledger direction %q", direction)
	}
	if _, err := tx.Exec(ctx, `UPDATE accounts SET balance = $2, updated_at = now() WHERE id = $1`, accountID, newBal); err != nil {
		return 0, "", mapWriteError(err)
	}
	entryID := NewID()
	if _, err := tx.Exec(ctx, `INSERT INTO ledger_entries (id, account_id, direction, amount, balance_after, reason, ref_type, ref_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		entryID, accountID, direction, amount, newBal, reason, refType, refID); err != nil {
		return 0, "", mapWriteError(err)
	}
	return newBal, entryID, nil
}

// mapWriteError folds lock conflicts and constraint races into ErrConflict so
// callers can retry the whole operation.
func mapWriteError(err error) error {
	if err == nil {
		return nil
	}
	if isRetryable(err) || isCheckViolation(err) {
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return err
}
