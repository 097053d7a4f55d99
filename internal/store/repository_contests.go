package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
)

const contestColumns = `id, title, game_mode, team_type, view_type, map, entry_fee, total_prize, per_kill_reward,
	prize_breakup, capacity, roster_size, start_time, room_id, room_password, created_at, updated_at`

func scanContest(row pgx.Row) (*Contest, error) {
	var c Contest
	if err := row.Scan(&c.ID, &c.Title, &c.GameMode, &c.TeamType, &c.ViewType, &c.Map, &c.EntryFee, &c.TotalPrize,
		&c.PerKillReward, &c.PrizeBreakup, &c.Capacity, &c.RosterSize, &c.StartTime, &c.RoomID, &c.RoomPassword,
		&c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, mapNotFound(err)
	}
	return &c, nil
}

func collectContests(rows pgx.Rows) ([]Contest, error) {
	defer rows.Close()
	out := []Contest{}
	for rows.Next() {
		c, err := scanContest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (s *Store) CreateContest(ctx context.Context, c Contest) (*Contest, error) {
	if c.ID == "" {
		c.ID = NewID()
	}
	row := s.Pool.QueryRow(ctx, `INSERT INTO contests (id, title, game_mode, team_type, view_type, map, entry_fee,
			total_prize, per_kill_reward, prize_breakup, capacity, start_time, room_id, room_password)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING `+contestColumns,
		c.ID, c.Title, c.GameMode, c.TeamType, c.ViewType, c.Map, c.EntryFee, c.TotalPrize, c.PerKillReward,
		c.PrizeBreakup, c.Capacity, c.StartTime, c.RoomID, c.RoomPassword)
	return scanContest(row)
}

func (s *Store) GetContest(ctx context.Context, id string) (*Contest, error) {
	return scanContest(s.Pool.QueryRow(ctx, `SELECT `+contestColumns+` FROM contests WHERE id = $1`, id))
}

func (s *Store) ListContests(ctx context.Context, f ContestFilter, limit, offset int) ([]Contest, error) {
	limit, offset = clampPage(limit, offset)
	order := "DESC"
	if f.Ascending {
		order = "ASC"
	}
	rows, err := s.Pool.Query(ctx, `SELECT `+contestColumns+` FROM contests
		WHERE ($1 = '' OR game_mode = $1)
		  AND ($2 = '' OR team_type = $2)
		  AND ($3::timestamptz IS NULL OR start_time > $3)
		  AND ($4::timestamptz IS NULL OR start_time <= $4)
		ORDER BY start_time `+order+`, id `+order+`
		LIMIT $5 OFFSET $6`,
		f.GameMode, f.TeamType, timeParam(f.StartAfter), timeParam(f.StartBefore), limit, offset)
	if err != nil {
		return nil, err
	}
	return collectContests(rows)
}

// UpdateContest applies patch under a row lock. Once the contest has started
// only room details may change; once a seat is sold the fee and team type are
// fixed.
func (s *Store) UpdateContest(ctx context.Context, id string, patch ContestPatch, now time.Time) (*Contest, error) {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	c, err := scanContest(tx.QueryRow(ctx, `SELECT `+contestColumns+` FROM contests WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, mapWriteError(err)
	}
	if patch.TouchesDescriptive() && !now.Before(c.StartTime) {
		return nil, ErrContestStarted
	}
	if patch.TouchesPricing() && c.RosterSize > 0 {
		return nil, ErrSeatsSold
	}
	applyContestPatch(c, patch)
	updated, err := scanContest(tx.QueryRow(ctx, `UPDATE contests SET title = $2, game_mode = $3, team_type = $4,
			view_type = $5, map = $6, entry_fee = $7, total_prize = $8, per_kill_reward = $9, prize_breakup = $10,
			start_time = $11, room_id = $12, room_password = $13, updated_at = now()
		WHERE id = $1
		RETURNING `+contestColumns,
		c.ID, c.Title, c.GameMode, c.TeamType, c.ViewType, c.Map, c.EntryFee, c.TotalPrize, c.PerKillReward,
		c.PrizeBreakup, c.StartTime, c.RoomID, c.RoomPassword))
	if err != nil {
		return nil, mapWriteError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, mapWriteError(err)
	}
	return updated, nil
}

// applyContestPatch copies the set fields of patch onto c.
func applyContestPatch(c *Contest, patch ContestPatch) {
	if patch.Title != nil {
		c.Title = *patch.Title
	}
	if patch.GameMode != nil {
		c.GameMode = *patch.GameMode
	}
	if patch.TeamType != nil {
		c.TeamType = *patch.TeamType
	}
	if patch.ViewType != nil {
		c.ViewType = *patch.ViewType
	}
	if patch.Map != nil {
		c.Map = *patch.Map
	}
	if patch.EntryFee != nil {
		c.EntryFee = *patch.EntryFee
	}
	if patch.TotalPrize != nil {
		c.TotalPrize = *patch.TotalPrize
	}
	if patch.PerKillReward != nil {
		c.PerKillReward = *patch.PerKillReward
	}
	if patch.PrizeBreakup != nil {
		c.PrizeBreakup = *patch.PrizeBreakup
	}
	if patch.StartTime != nil {
		c.StartTime = *patch.StartTime
	}
	if patch.RoomID != nil {
		c.RoomID = *patch.RoomID
	}
	if patch.RoomPassword != nil {
		c.RoomPassword = *patch.RoomPassword
	}
}

func (s *Store) ReplaceContestResults(ctx context.Context, contestID string, results []ContestResult) error {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT true FROM contests WHERE id = $1 FOR UPDATE`, contestID).Scan(&exists); err != nil {
		return mapNotFound(err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM contest_results WHERE contest_id = $1`, contestID); err != nil {
		return err
	}
	batch := &pgx.Batch{}
	for _, r := range results {
		batch.Queue(`INSERT INTO contest_results (contest_id, external_id, rank, game_username, kills, prize)
			VALUES ($1, $2, $3, $4, $5, $6)`, contestID, r.ExternalID, r.Rank, r.GameUsername, r.Kills, r.Prize)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			if isUniqueViolation(err, "") {
				return ErrDuplicateKey
			}
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *Store) ListContestResults(ctx context.Context, contestID string) ([]ContestResult, error) {
	rows, err := s.Pool.Query(ctx, `SELECT contest_id, external_id, rank, game_username, kills, prize
		FROM contest_results WHERE contest_id = $1 ORDER BY rank ASC, external_id ASC`, contestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []ContestResult{}
	for rows.Next() {
		var r ContestResult
		if err := rows.Scan(&r.ContestID, &r.ExternalID, &r.Rank, &r.GameUsername, &r.Kills, &r.Prize); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
