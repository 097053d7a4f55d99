package memstore

import (
	"context"
	"sort"
	"time"

	"contest-arena/internal/store"
)

func (s *Store) CreateContest(_ context.Context, c store.Contest) (*store.Contest, error) {
	if c.ID == "" {
		c.ID = store.NewID()
	}
	now := s.now()
	c.RosterSize = 0
	c.CreatedAt, c.UpdatedAt = now, now
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.contests[c.ID]; ok {
		return nil, store.ErrDuplicateKey
	}
	cp := c
	s.contests[c.ID] = &cp
	return &c, nil
}

func (s *Store) GetContest(_ context.Context, id string) (*store.Contest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.contests[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *Store) ListContests(_ context.Context, f store.ContestFilter, limit, offset int) ([]store.Contest, error) {
	s.mu.RLock()
	out := []store.Contest{}
	for _, c := range s.contests {
		if f.GameMode != "" && c.GameMode != f.GameMode {
			continue
		}
		if f.TeamType != "" && c.TeamType != f.TeamType {
			continue
		}
		if f.StartAfter != nil && !c.StartTime.After(*f.StartAfter) {
			continue
		}
		if f.StartBefore != nil && c.StartTime.After(*f.StartBefore) {
			continue
		}
		out = append(out, *c)
	}
	s.mu.RUnlock()
	sortContests(out, f.Ascending)
	return page(out, limit, offset), nil
}

func sortContests(items []store.Contest, ascending bool) {
	sort.Slice(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if !a.StartTime.Equal(b.StartTime) {
			if ascending {
				return a.StartTime.Before(b.StartTime)
			}
			return a.StartTime.After(b.StartTime)
		}
		if ascending {
			return a.ID < b.ID
		}
		return a.ID > b.ID
	})
}

func (s *Store) UpdateContest(_ context.Context, id string, patch store.ContestPatch, now time.Time) (*store.Contest, error) {
	unlock := s.locks.lock(contestKey(id))
	defer unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contests[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if patch.TouchesDescriptive() && !now.Before(c.StartTime) {
		return nil, store.ErrContestStarted
	}
	if patch.TouchesPricing() && c.RosterSize > 0 {
		return nil, store.ErrSeatsSold
	}
	next := *c
	if patch.Title != nil {
		next.Title = *patch.Title
	}
	if patch.GameMode != nil {
		next.GameMode = *patch.GameMode
	}
	if patch.TeamType != nil {
		next.TeamType = *patch.TeamType
	}
	if patch.ViewType != nil {
		next.ViewType = *patch.ViewType
	}
	if patch.Map != nil {
		next.Map = *patch.Map
	}
	if patch.EntryFee != nil {
		next.EntryFee = *patch.EntryFee
	}
	if patch.TotalPrize != nil {
		next.TotalPrize = *patch.TotalPrize
	}
	if patch.PerKillReward != nil {
		next.PerKillReward = *patch.PerKillReward
	}
	if patch.PrizeBreakup != nil {
		next.PrizeBreakup = *patch.PrizeBreakup
	}
	if patch.StartTime != nil {
		next.StartTime = *patch.StartTime
	}
	if patch.RoomID != nil {
		next.RoomID = *patch.RoomID
	}
	if patch.RoomPassword != nil {
		next.RoomPassword = *patch.RoomPassword
	}
	next.UpdatedAt = s.now()
	*c = next
	return &next, nil
}

func (s *Store) ReplaceContestResults(_ context.Context, contestID string, results []store.ContestResult) error {
	unlock := s.locks.lock(contestKey(contestID))
	defer unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.contests[contestID]; !ok {
		return store.ErrNotFound
	}
	seen := map[string]bool{}
	out := make([]store.ContestResult, 0, len(results))
	for _, r := range results {
		if seen[r.ExternalID] {
			return store.ErrDuplicateKey
		}
		seen[r.ExternalID] = true
		r.ContestID = contestID
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Rank != out[j].Rank {
			return out[i].Rank < out[j].Rank
		}
		return out[i].ExternalID < out[j].ExternalID
	})
	s.results[contestID] = out
	return nil
}

func (s *Store) ListContestResults(_ context.Context, contestID string) ([]store.ContestResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]store.ContestResult{}, s.results[contestID]...), nil
}
