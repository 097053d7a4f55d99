package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

const (
	reasonContestEntry = "contest_entry"
	refTypeContest     = "contest"

	playersContestExternalKey = "registration_players_contest_external_key"
	registrationsIdemKey      = "registrations_idempotency_idx"
)

// JoinContest commits a registration in one transaction. The contest row is
// locked before the account row on every path.
func (s *Store) JoinContest(ctx context.Context, p JoinParams) (*JoinResult, error) {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var (
		fee        int64
		capacity   int
		rosterSize int
		start      time.Time
	)
	if err := tx.QueryRow(ctx, `SELECT entry_fee, capacity, roster_size, start_time FROM contests WHERE id = $1 FOR UPDATE`,
		p.ContestID).Scan(&fee, &capacity, &rosterSize, &start); err != nil {
		return nil, mapWriteError(mapNotFound(err))
	}

	// Looked up under the contest lock: a concurrent attempt with the same key
	// has either committed by now or will find this one's row.
	if p.IdempotencyKey != "" {
		res, err := replayedJoin(ctx, tx, p.AccountID, p.IdempotencyKey)
		if err == nil {
			return res, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}
	if !p.Now.Before(start) {
		return nil, ErrContestStarted
	}
	if rosterSize >= capacity {
		return nil, ErrContestFull
	}

	var balance int64
	if err := tx.QueryRow(ctx, `SELECT balance FROM accounts WHERE id = $1 FOR UPDATE`, p.AccountID).Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, mapWriteError(err)
	}
	if balance < fee {
		return nil, ErrInsufficientBalance
	}

	ids := make([]string, 0, len(p.Players))
	for _, pl := range p.Players {
		ids = append(ids, pl.ExternalID)
	}
	taken, err := findRegistered(ctx, tx, p.ContestID, ids)
	if err != nil {
		return nil, err
	}
	if len(taken) > 0 {
		return nil, &DuplicatePlayersError{ExternalIDs: taken}
	}

	regID := NewID()
	if _, err := tx.Exec(ctx, `INSERT INTO registrations (id, contest_id, account_id, team_name, idempotency_key)
		VALUES ($1, $2, $3, $4, $5)`, regID, p.ContestID, p.AccountID, p.TeamName, textParam(p.IdempotencyKey)); err != nil {
		return nil, mapJoinError(err)
	}
	batch := &pgx.Batch{}
	for i, pl := range p.Players {
		batch.Queue(`INSERT INTO registration_players (registration_id, contest_id, position, display_name, external_id)
			VALUES ($1, $2, $3, $4, $5)`, regID, p.ContestID, i, pl.DisplayName, pl.ExternalID)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return nil, mapJoinError(err)
	}

	res := &JoinResult{RegistrationID: regID, ContestID: p.ContestID, Balance: balance, EntryFee: fee}
	if fee > 0 {
		newBal, entryID, err := adjustBalanceTx(ctx, tx, p.AccountID, fee, DirectionDebit, reasonContestEntry, refTypeContest, p.ContestID)
		if err != nil {
			return nil, err
		}
		res.Balance = newBal
		res.LedgerEntryID = entryID
	}
	if _, err := tx.Exec(ctx, `UPDATE contests SET roster_size = roster_size + 1, updated_at = now() WHERE id = $1`, p.ContestID); err != nil {
		return nil, mapJoinError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, mapJoinError(err)
	}
	return res, nil
}

func replayedJoin(ctx context.Context, tx pgx.Tx, accountID, key string) (*JoinResult, error) {
	res := &JoinResult{Replayed: true}
	err := tx.QueryRow(ctx, `SELECT r.id, r.contest_id, c.entry_fee, a.balance
		FROM registrations r
		JOIN contests c ON c.id = r.contest_id
		JOIN accounts a ON a.id = r.account_id
		WHERE r.account_id = $1 AND r.idempotency_key = $2`, accountID, key).Scan(&res.RegistrationID, &res.ContestID, &res.EntryFee, &res.Balance)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return res, nil
}

// mapJoinError turns races that slipped past the locked checks into
// ErrConflict. A concurrent insert of the same player or idempotency key is
// resolved on retry by the locked duplicate check or the replay lookup.
func mapJoinError(err error) error {
	if isUniqueViolation(err, playersContestExternalKey) || isUniqueViolation(err, registrationsIdemKey) {
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return mapWriteError(err)
}

func findRegistered(ctx context.Context, q interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}, contestID string, externalIDs []string) ([]string, error) {
	if len(externalIDs) == 0 {
		return []string{}, nil
	}
	rows, err := q.Query(ctx, `SELECT external_id FROM registration_players
		WHERE contest_id = $1 AND external_id = ANY($2)
		ORDER BY external_id`, contestID, externalIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (s *Store) GetRegistrationByIdempotencyKey(ctx context.Context, accountID, key string) (*Registration, error) {
	var r Registration
	err := s.Pool.QueryRow(ctx, `SELECT r.id, r.contest_id, r.account_id, a.username, r.team_name, r.idempotency_key, r.created_at
		FROM registrations r
		JOIN accounts a ON a.id = r.account_id
		WHERE r.account_id = $1 AND r.idempotency_key = $2`, accountID, key).
		Scan(&r.ID, &r.ContestID, &r.AccountID, &r.AccountUsername, &r.TeamName, &r.IdempotencyKey, &r.CreatedAt)
	if err != nil {
		return nil, mapNotFound(err)
	}
	rows, err := s.Pool.Query(ctx, `SELECT display_name, external_id FROM registration_players
		WHERE registration_id = $1 ORDER BY position`, r.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	r.Players = []Player{}
	for rows.Next() {
		var pl Player
		if err := rows.Scan(&pl.DisplayName, &pl.ExternalID); err != nil {
			return nil, err
		}
		r.Players = append(r.Players, pl)
	}
	return &r, rows.Err()
}

// FindRegisteredExternalIDs returns the subset of externalIDs already holding
// a seat in the contest.
func (s *Store) FindRegisteredExternalIDs(ctx context.Context, contestID string, externalIDs []string) ([]string, error) {
	return findRegistered(ctx, s.Pool, contestID, externalIDs)
}

func (s *Store) ListRegistrations(ctx context.Context, contestID string) ([]Registration, error) {
	rows, err := s.Pool.Query(ctx, `SELECT r.id, r.contest_id, r.account_id, a.username, r.team_name,
			COALESCE(r.idempotency_key, ''), r.created_at
		FROM registrations r
		JOIN accounts a ON a.id = r.account_id
		WHERE r.contest_id = $1
		ORDER BY r.created_at ASC, r.id ASC`, contestID)
	if err != nil {
		return nil, err
	}
	regs := []Registration{}
	index := map[string]int{}
	for rows.Next() {
		var r Registration
		if err := rows.Scan(&r.ID, &r.ContestID, &r.AccountID, &r.AccountUsername, &r.TeamName, &r.IdempotencyKey, &r.CreatedAt); err != nil {
			rows.Close()
			return nil, err
		}
		r.Players = []Player{}
		index[r.ID] = len(regs)
		regs = append(regs, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(regs) == 0 {
		return regs, nil
	}

	prow, err := s.Pool.Query(ctx, `SELECT registration_id, display_name, external_id
		FROM registration_players WHERE contest_id = $1
		ORDER BY registration_id, position`, contestID)
	if err != nil {
		return nil, err
	}
	defer prow.Close()
	for prow.Next() {
		var regID string
		var pl Player
		if err := prow.Scan(&regID, &pl.DisplayName, &pl.ExternalID); err != nil {
			return nil, err
		}
		if i, ok := index[regID]; ok {
			regs[i].Players = append(regs[i].Players, pl)
		}
	}
	return regs, prow.Err()
}

func (s *Store) ListContestsByAccount(ctx context.Context, accountID string) ([]Contest, error) {
	rows, err := s.Pool.Query(ctx, `SELECT `+contestColumns+` FROM contests
		WHERE id IN (SELECT contest_id FROM registrations WHERE account_id = $1)
		ORDER BY start_time DESC, id DESC`, accountID)
	if err != nil {
		return nil, err
	}
	return collectContests(rows)
}
