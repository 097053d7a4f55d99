package admin

import (
	"context"
	"errors"
	"strings"

	"contest-arena/internal/app/contest"
	"contest-arena/internal/store"
)

func (s *Service) CreateContest(ctx context.Context, in ContestInput) (*ContestView, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.ViewType == "" {
		in.ViewType = "tpp"
	}
	if in.Title == "" || !contest.ValidGameMode(in.GameMode) || !contest.ValidTeamType(in.TeamType) ||
		!contest.ValidViewType(in.ViewType) || in.EntryFee < 0 || in.TotalPrize < 0 || in.PerKillReward < 0 ||
		in.Capacity <= 0 || in.StartTime.IsZero() {
		return nil, ErrInvalidRequest
	}
	if !s.now().Before(in.StartTime) {
		return nil, ErrInvalidRequest
	}
	c, err := s.store.CreateContest(ctx, store.Contest{
		Title:         in.Title,
		GameMode:      in.GameMode,
		TeamType:      in.TeamType,
		ViewType:      in.ViewType,
		Map:           strings.TrimSpace(in.Map),
		EntryFee:      in.EntryFee,
		TotalPrize:    in.TotalPrize,
		PerKillReward: in.PerKillReward,
		PrizeBreakup:  in.PrizeBreakup,
		Capacity:      in.Capacity,
		StartTime:     in.StartTime.UTC(),
	})
	if err != nil {
		return nil, err
	}
	v := contestView(*c)
	return &v, nil
}

// UpdateContest changes descriptive fields before start and room details at
// any time. Fee and team type are refused once a seat is sold.
func (s *Service) UpdateContest(ctx context.Context, id string, in ContestUpdate) (*ContestView, error) {
	if in.GameMode != nil && !contest.ValidGameMode(*in.GameMode) {
		return nil, ErrInvalidRequest
	}
	if in.TeamType != nil && !contest.ValidTeamType(*in.TeamType) {
		return nil, ErrInvalidRequest
	}
	if in.ViewType != nil && !contest.ValidViewType(*in.ViewType) {
		return nil, ErrInvalidRequest
	}
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return nil, ErrInvalidRequest
	}
	for _, v := range []*int64{in.EntryFee, in.TotalPrize, in.PerKillReward} {
		if v != nil && *v < 0 {
			return nil, ErrInvalidRequest
		}
	}
	c, err := s.store.UpdateContest(ctx, id, store.ContestPatch{
		Title: in.Title, GameMode: in.GameMode, TeamType: in.TeamType, ViewType: in.ViewType, Map: in.Map,
		EntryFee: in.EntryFee, TotalPrize: in.TotalPrize, PerKillReward: in.PerKillReward,
		PrizeBreakup: in.PrizeBreakup, StartTime: in.StartTime, RoomID: in.RoomID, RoomPassword: in.RoomPassword,
	}, s.now())
	if err != nil {
		return nil, mapContestError(err)
	}
	v := contestView(*c)
	return &v, nil
}

func (s *Service) SetRoom(ctx context.Context, id string, in RoomInput) (*ContestView, error) {
	roomID := strings.TrimSpace(in.RoomID)
	pass := strings.TrimSpace(in.RoomPassword)
	if roomID == "" {
		return nil, ErrInvalidRequest
	}
	c, err := s.store.UpdateContest(ctx, id, store.ContestPatch{RoomID: &roomID, RoomPassword: &pass}, s.now())
	if err != nil {
		return nil, mapContestError(err)
	}
	v := contestView(*c)
	return &v, nil
}

// PublishResults replaces the leaderboard of a started contest.
func (s *Service) PublishResults(ctx context.Context, id string, results []ResultInput) error {
	if len(results) == 0 {
		return ErrInvalidRequest
	}
	c, err := s.store.GetContest(ctx, id)
	if err != nil {
		return mapContestError(err)
	}
	if s.now().Before(c.StartTime) {
		return ErrContestNotStarted
	}
	out := make([]store.ContestResult, 0, len(results))
	seen := map[string]bool{}
	for _, r := range results {
		extID, ok := contest.CanonicalExternalID(r.ExternalID)
		if !ok || r.Rank <= 0 || r.Kills < 0 || r.Prize < 0 || seen[extID] {
			return ErrInvalidRequest
		}
		seen[extID] = true
		out = append(out, store.ContestResult{
			ContestID: id, ExternalID: extID, Rank: r.Rank, GameUsername: strings.TrimSpace(r.GameUsername), Kills: r.Kills, Prize: r.Prize,
		})
	}
	if err := s.store.ReplaceContestResults(ctx, id, out); err != nil {
		return mapContestError(err)
	}
	return nil
}

func (s *Service) Players(ctx context.Context, id string) (*PlayersResponse, error) {
	if _, err := s.store.GetContest(ctx, id); err != nil {
		return nil, mapContestError(err)
	}
	regs, err := s.store.ListRegistrations(ctx, id)
	if err != nil {
		return nil, err
	}
	out := []RegisteredPlayer{}
	for _, r := range regs {
		for _, p := range r.Players {
			out = append(out, RegisteredPlayer{
				RegistrationID: r.ID,
				AccountID:      r.AccountID,
				Owner:          r.AccountUsername,
				TeamName:       r.TeamName,
				DisplayName:    p.DisplayName,
				ExternalID:     p.ExternalID,
			})
		}
	}
	return &PlayersResponse{ContestID: id, Items: out}, nil
}

func contestView(c store.Contest) ContestView {
	return ContestView{
		ID: c.ID, Title: c.Title, GameMode: c.GameMode, TeamType: c.TeamType, ViewType: c.ViewType, Map: c.Map,
		EntryFee: c.EntryFee, TotalPrize: c.TotalPrize, PerKillReward: c.PerKillReward, PrizeBreakup: c.PrizeBreakup,
		Capacity: c.Capacity, RosterSize: c.RosterSize, StartTime: c.StartTime, RoomID: c.RoomID, RoomPassword: c.RoomPassword,
	}
}

func mapContestError(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return ErrContestNotFound
	case errors.Is(err, store.ErrContestStarted):
		return ErrContestStarted
	case errors.Is(err, store.ErrSeatsSold):
		return ErrSeatsSold
	case errors.Is(err, store.ErrDuplicateKey):
		return ErrInvalidRequest
	default:
		return err
	}
}
