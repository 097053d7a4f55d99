package store

import (
	"context"
)

func (s *Store) ListLedgerEntries(ctx context.Context, f LedgerFilter, limit, offset int) ([]LedgerEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	order := "DESC"
	if f.Ascending {
		order = "ASC"
	}
	rows, err := s.Pool.Query(ctx, `SELECT id, account_id, direction, amount, balance_after, reason, ref_type, ref_id, created_at
		FROM ledger_entries
		WHERE ($1 = '' OR account_id = $1)
		  AND ($2 = '' OR reason = $2)
		  AND ($3::timestamptz IS NULL OR created_at >= $3)
		  AND ($4::timestamptz IS NULL OR created_at < $4)
		ORDER BY created_at `+order+`, id `+order+`
		LIMIT $5 OFFSET $6`,
		f.AccountID, f.Reason, timeParam(f.From), timeParam(f.To), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []LedgerEntry{}
	for rows.Next() {
		var e LedgerEntry
		if err := rows.Scan(&e.ID, &e.AccountID, &e.Direction, &e.Amount, &e.BalanceAfter, &e.Reason, &e.RefType, &e.RefID, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
