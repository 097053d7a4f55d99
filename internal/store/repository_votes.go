package store

import "context"

func (s *Store) CastVote(ctx context.Context, accountID, gameMode string) error {
	_, err := s.Pool.Exec(ctx, `INSERT INTO votes (account_id, game_mode) VALUES ($1, $2)`, accountID, gameMode)
	if isUniqueViolation(err, "") {
		return ErrDuplicateKey
	}
	return err
}

func (s *Store) CountVotes(ctx context.Context, gameMode string) (int64, error) {
	var n int64
	err := s.Pool.QueryRow(ctx, `SELECT count(*) FROM votes WHERE game_mode = $1`, gameMode).Scan(&n)
	return n, err
}

func (s *Store) HasVoted(ctx context.Context, accountID, gameMode string) (bool, error) {
	var ok bool
	err := s.Pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM votes WHERE account_id = $1 AND game_mode = $2)`,
		accountID, gameMode).Scan(&ok)
	return ok, err
}
