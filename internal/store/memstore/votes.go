package memstore

import (
	"context"

	"contest-arena/internal/store"
)

func voteKey(accountID, gameMode string) string { return accountID + "\x00" + gameMode }

func (s *Store) CastVote(_ context.Context, accountID, gameMode string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[accountID]; !ok {
		return store.ErrNotFound
	}
	k := voteKey(accountID, gameMode)
	if _, ok := s.votes[k]; ok {
		return store.ErrDuplicateKey
	}
	s.votes[k] = store.Vote{AccountID: accountID, GameMode: gameMode, CreatedAt: s.now()}
	return nil
}

func (s *Store) CountVotes(_ context.Context, gameMode string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, v := range s.votes {
		if v.GameMode == gameMode {
			n++
		}
	}
	return n, nil
}

func (s *Store) HasVoted(_ context.Context, accountID, gameMode string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.votes[voteKey(accountID, gameMode)]
	return ok, nil
}
