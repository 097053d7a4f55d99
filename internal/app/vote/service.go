package vote

import (
	"context"
	"errors"

	"contest-arena/internal/auth"
	"contest-arena/internal/store"
)

var (
	ErrInvalidGameMode = errors.New("invalid_game_mode")
	ErrAlreadyVoted    = errors.New("already_voted")
	ErrForbidden       = errors.New("forbidden")
)

// Modes players can ask to have added to the schedule.
var votableModes = map[string]bool{"clash_squad": true, "lone_wolf": true}

type StatusResponse struct {
	GameMode   string `json:"game_mode"`
	TotalVotes int64  `json:"total_votes"`
	HasVoted   bool   `json:"has_voted"`
}

type Service struct {
	store store.VoteRepository
}

func NewService(st store.VoteRepository) *Service {
	return &Service{store: st}
}

func (s *Service) Cast(ctx context.Context, p auth.Principal, gameMode string) (*StatusResponse, error) {
	if !votableModes[gameMode] {
		return nil, ErrInvalidGameMode
	}
	if p.Kind != auth.KindRegular {
		return nil, ErrForbidden
	}
	if err := s.store.CastVote(ctx, p.ID, gameMode); err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			return nil, ErrAlreadyVoted
		}
		return nil, err
	}
	return s.Status(ctx, p, gameMode)
}

func (s *Service) Status(ctx context.Context, p auth.Principal, gameMode string) (*StatusResponse, error) {
	if !votableModes[gameMode] {
		return nil, ErrInvalidGameMode
	}
	total, err := s.store.CountVotes(ctx, gameMode)
	if err != nil {
		return nil, err
	}
	voted := false
	if p.Kind == auth.KindRegular {
		if voted, err = s.store.HasVoted(ctx, p.ID, gameMode); err != nil {
			return nil, err
		}
	}
	return &StatusResponse{GameMode: gameMode, TotalVotes: total, HasVoted: voted}, nil
}
