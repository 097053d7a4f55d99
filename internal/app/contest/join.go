package contest

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"time"

	"contest-arena/internal/auth"
	"contest-arena/internal/events"
	"contest-arena/internal/store"

	"github.com/rs/zerolog/log"
)

// Join registers a team for a contest and charges the entry fee.
//
// Preconditions are checked on committed state first so ordinary rejections
// cost no locks. The store then re-validates start time, capacity, balance and
// player uniqueness under the contest and account row locks and applies every
// write in one transaction. Lost races surface as store.ErrConflict and the
// whole attempt is retried with fresh reads.
func (s *Service) Join(ctx context.Context, p auth.Principal, in JoinInput) (*JoinResponse, error) {
	metricJoinAttemptsTotal.Add(1)
	if p.Kind != auth.KindRegular || p.ID == "" {
		return nil, ErrRegularAccountNeeded
	}
	in.ContestID = strings.TrimSpace(in.ContestID)
	in.TeamName = strings.TrimSpace(in.TeamName)
	in.IdempotencyKey = strings.TrimSpace(in.IdempotencyKey)
	if in.ContestID == "" || len(in.Players) == 0 || len(in.Players) > 4 || len(in.IdempotencyKey) > 128 {
		return nil, ErrInvalidRequest
	}
	players, err := normalizePlayers(in.Players)
	if err != nil {
		return nil, err
	}

	if in.IdempotencyKey != "" {
		if resp, err := s.replay(ctx, p.ID, in.IdempotencyKey, in.ContestID); err == nil {
			return resp, nil
		} else if !errors.Is(err, store.ErrNotFound) {
			recordRejection(err)
			return nil, err
		}
	}

	for attempt := 1; ; attempt++ {
		resp, err := s.attemptJoin(ctx, p, in, players)
		if err == nil {
			if resp.Replayed {
				metricJoinReplayedTotal.Add(1)
			} else {
				metricJoinCommittedTotal.Add(1)
				s.publishJoined(ctx, p, resp, players)
			}
			return resp, nil
		}
		if in.IdempotencyKey != "" && causedBySibling(err) {
			// An earlier attempt with the same key may have committed after
			// the first lookup; its seats and debit look like a rejection here.
			if resp, rerr := s.replay(ctx, p.ID, in.IdempotencyKey, in.ContestID); rerr == nil {
				return resp, nil
			}
		}
		if !errors.Is(err, store.ErrConflict) {
			recordRejection(err)
			return nil, err
		}
		metricJoinConflictsTotal.Add(1)
		if attempt >= s.opts.MaxAttempts {
			log.Warn().Err(err).Str("contest_id", in.ContestID).Int("attempts", attempt).Msg("join gave up after conflicts")
			recordRejection(ErrConflict)
			return nil, ErrConflict
		}
		if err := sleepWithContext(ctx, s.backoff(attempt)); err != nil {
			return nil, err
		}
	}
}

func (s *Service) attemptJoin(ctx context.Context, p auth.Principal, in JoinInput, players []store.Player) (*JoinResponse, error) {
	now := s.now()

	c, err := s.store.GetContest(ctx, in.ContestID)
	if err != nil {
		return nil, mapLookupError(err)
	}
	if !now.Before(c.StartTime) {
		return nil, ErrAlreadyStarted
	}
	if c.RosterSize >= c.Capacity {
		return nil, ErrContestFull
	}
	acct, err := s.store.GetAccount(ctx, p.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	if acct.Balance < c.EntryFee {
		return nil, ErrInsufficientBalance
	}
	if len(players) != TeamSize(c.TeamType) {
		return nil, ErrTeamSizeMismatch
	}
	if c.TeamType != TeamSolo && in.TeamName == "" {
		return nil, ErrTeamNameRequired
	}
	if repeated := repeatedIDs(players); len(repeated) > 0 {
		return nil, &DuplicatePlayerError{ExternalIDs: repeated}
	}
	ids := make([]string, 0, len(players))
	for _, pl := range players {
		ids = append(ids, pl.ExternalID)
	}
	taken, err := s.store.FindRegisteredExternalIDs(ctx, c.ID, ids)
	if err != nil {
		return nil, err
	}
	if len(taken) > 0 {
		return nil, &DuplicatePlayerError{ExternalIDs: taken}
	}

	// Past this point the commit runs to completion even if the caller goes
	// away; a cancelled request must not leave half a registration behind.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	commitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.CommitTimeout)
	defer cancel()

	teamName := in.TeamName
	if c.TeamType == TeamSolo {
		teamName = ""
	}
	res, err := s.store.JoinContest(commitCtx, store.JoinParams{
		ContestID:      c.ID,
		AccountID:      p.ID,
		TeamName:       teamName,
		Players:        players,
		IdempotencyKey: in.IdempotencyKey,
		Now:            now,
	})
	if err != nil {
		return nil, mapCommitError(err)
	}
	if res.Replayed && res.ContestID != c.ID {
		return nil, ErrIdempotencyKeyReused
	}
	return &JoinResponse{
		RegistrationID: res.RegistrationID,
		ContestID:      c.ID,
		EntryFee:       res.EntryFee,
		Balance:        res.Balance,
		Replayed:       res.Replayed,
	}, nil
}

func (s *Service) replay(ctx context.Context, accountID, key, contestID string) (*JoinResponse, error) {
	reg, err := s.store.GetRegistrationByIdempotencyKey(ctx, accountID, key)
	if err != nil {
		return nil, err
	}
	if reg.ContestID != contestID {
		return nil, ErrIdempotencyKeyReused
	}
	resp := &JoinResponse{RegistrationID: reg.ID, ContestID: reg.ContestID, Replayed: true}
	if c, err := s.store.GetContest(ctx, reg.ContestID); err == nil {
		resp.EntryFee = c.EntryFee
	}
	if a, err := s.store.GetAccount(ctx, accountID); err == nil {
		resp.Balance = a.Balance
	}
	metricJoinReplayedTotal.Add(1)
	return resp, nil
}

// causedBySibling reports rejections that a concurrent attempt with the same
// idempotency key would produce once it commits.
func causedBySibling(err error) bool {
	return errors.Is(err, ErrDuplicatePlayer) || errors.Is(err, ErrContestFull) ||
		errors.Is(err, ErrInsufficientBalance) || errors.Is(err, store.ErrConflict)
}

func mapCommitError(err error) error {
	var dup *store.DuplicatePlayersError
	switch {
	case errors.As(err, &dup):
		return &DuplicatePlayerError{ExternalIDs: dup.ExternalIDs}
	case errors.Is(err, store.ErrAccountNotFound):
		return ErrAccountNotFound
	case errors.Is(err, store.ErrNotFound):
		return ErrContestNotFound
	case errors.Is(err, store.ErrContestStarted):
		return ErrAlreadyStarted
	case errors.Is(err, store.ErrContestFull):
		return ErrContestFull
	case errors.Is(err, store.ErrInsufficientBalance):
		return ErrInsufficientBalance
	default:
		return err
	}
}

func (s *Service) publishJoined(ctx context.Context, p auth.Principal, resp *JoinResponse, players []store.Player) {
	ids := make([]string, 0, len(players))
	for _, pl := range players {
		ids = append(ids, pl.ExternalID)
	}
	err := s.publisher.Publish(context.WithoutCancel(ctx), events.Event{
		Type:       events.TypeContestJoined,
		Key:        resp.ContestID,
		OccurredAt: s.now().UTC(),
		Payload: events.ContestJoined{
			ContestID:      resp.ContestID,
			RegistrationID: resp.RegistrationID,
			AccountID:      p.ID,
			EntryFee:       resp.EntryFee,
			ExternalIDs:    ids,
		},
	})
	if err != nil {
		log.Warn().Err(err).Str("registration_id", resp.RegistrationID).Msg("publish contest.joined failed")
	}
}

// backoff grows exponentially with up to 100% jitter.
func (s *Service) backoff(attempt int) time.Duration {
	d := s.opts.RetryBase * time.Duration(1<<(attempt-1))
	return d + time.Duration(rand.Int64N(int64(d)+1))
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func recordRejection(err error) {
	kind := "internal_error"
	for _, known := range []error{
		ErrInvalidRequest, ErrContestNotFound, ErrAccountNotFound, ErrAlreadyStarted, ErrContestFull,
		ErrInsufficientBalance, ErrTeamSizeMismatch, ErrTeamNameRequired, ErrDuplicatePlayer, ErrConflict,
		ErrRegularAccountNeeded,
	} {
		if errors.Is(err, known) {
			kind = known.Error()
			break
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		kind = "cancelled"
	}
	metricJoinRejectedTotal.Add(kind, 1)
}
