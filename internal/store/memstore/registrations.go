package memstore

import (
	"context"
	"sort"

	"contest-arena/internal/store"
)

const (
	reasonContestEntry = "contest_entry"
	refTypeContest     = "contest"
)

// JoinContest locks the contest then the account, validates against the
// current state and applies every write under one state lock so readers
// never observe a partial registration.
func (s *Store) JoinContest(ctx context.Context, p store.JoinParams) (*store.JoinResult, error) {
	unlockContest := s.locks.lock(contestKey(p.ContestID))
	defer unlockContest()
	unlockAccount := s.locks.lock(accountKey(p.AccountID))
	defer unlockAccount()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.IdempotencyKey != "" {
		if res, ok := s.replayedJoin(p.AccountID, p.IdempotencyKey); ok {
			return res, nil
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.contests[p.ContestID]
	if !ok {
		return nil, store.ErrNotFound
	}
	if !p.Now.Before(c.StartTime) {
		return nil, store.ErrContestStarted
	}
	if c.RosterSize >= c.Capacity {
		return nil, store.ErrContestFull
	}
	a, ok := s.accounts[p.AccountID]
	if !ok {
		return nil, store.ErrAccountNotFound
	}
	if a.Balance < c.EntryFee {
		return nil, store.ErrInsufficientBalance
	}
	taken := s.registeredLocked(p.ContestID, externalIDs(p.Players))
	if len(taken) > 0 {
		return nil, &store.DuplicatePlayersError{ExternalIDs: taken}
	}

	reg := store.Registration{
		ID:              store.NewID(),
		ContestID:       p.ContestID,
		AccountID:       p.AccountID,
		AccountUsername: a.Username,
		TeamName:        p.TeamName,
		Players:         append([]store.Player{}, p.Players...),
		IdempotencyKey:  p.IdempotencyKey,
		CreatedAt:       s.now(),
	}
	res := &store.JoinResult{RegistrationID: reg.ID, ContestID: reg.ContestID, Balance: a.Balance, EntryFee: c.EntryFee}
	if c.EntryFee > 0 {
		newBal, entryID, err := s.adjustBalanceLocked(p.AccountID, c.EntryFee, store.DirectionDebit, reasonContestEntry, refTypeContest, p.ContestID)
		if err != nil {
			return nil, err
		}
		res.Balance = newBal
		res.LedgerEntryID = entryID
	}

	s.registrations[p.ContestID] = append(s.registrations[p.ContestID], reg)
	s.regByID[reg.ID] = reg
	seats := s.seats[p.ContestID]
	if seats == nil {
		seats = map[string]string{}
		s.seats[p.ContestID] = seats
	}
	for _, pl := range reg.Players {
		seats[pl.ExternalID] = reg.ID
	}
	if p.IdempotencyKey != "" {
		s.idempotency[idemKey(p.AccountID, p.IdempotencyKey)] = reg.ID
	}
	c.RosterSize++
	c.UpdatedAt = reg.CreatedAt
	return res, nil
}

func (s *Store) replayedJoin(accountID, key string) (*store.JoinResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	regID, ok := s.idempotency[idemKey(accountID, key)]
	if !ok {
		return nil, false
	}
	reg := s.regByID[regID]
	res := &store.JoinResult{RegistrationID: regID, ContestID: reg.ContestID, Replayed: true}
	if c, ok := s.contests[reg.ContestID]; ok {
		res.EntryFee = c.EntryFee
	}
	if a, ok := s.accounts[accountID]; ok {
		res.Balance = a.Balance
	}
	return res, true
}

func (s *Store) GetRegistrationByIdempotencyKey(_ context.Context, accountID, key string) (*store.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	regID, ok := s.idempotency[idemKey(accountID, key)]
	if !ok {
		return nil, store.ErrNotFound
	}
	reg := s.regByID[regID]
	reg.Players = append([]store.Player{}, reg.Players...)
	return &reg, nil
}

func externalIDs(players []store.Player) []string {
	out := make([]string, 0, len(players))
	for _, p := range players {
		out = append(out, p.ExternalID)
	}
	return out
}

// registeredLocked requires s.mu held.
func (s *Store) registeredLocked(contestID string, ids []string) []string {
	seats := s.seats[contestID]
	out := []string{}
	seen := map[string]bool{}
	for _, id := range ids {
		if _, ok := seats[id]; ok && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

func (s *Store) FindRegisteredExternalIDs(_ context.Context, contestID string, ids []string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registeredLocked(contestID, ids), nil
}

func (s *Store) ListRegistrations(_ context.Context, contestID string) ([]store.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	regs := s.registrations[contestID]
	out := make([]store.Registration, 0, len(regs))
	for _, r := range regs {
		r.Players = append([]store.Player{}, r.Players...)
		out = append(out, r)
	}
	return out, nil
}

func (s *Store) ListContestsByAccount(_ context.Context, accountID string) ([]store.Contest, error) {
	s.mu.RLock()
	out := []store.Contest{}
	for contestID, regs := range s.registrations {
		for _, r := range regs {
			if r.AccountID == accountID {
				if c, ok := s.contests[contestID]; ok {
					out = append(out, *c)
				}
				break
			}
		}
	}
	s.mu.RUnlock()
	sortContests(out, false)
	return out, nil
}
