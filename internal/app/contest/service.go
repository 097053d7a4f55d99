package contest

import (
	"context"
	"errors"
	"time"

	"contest-arena/internal/auth"
	"contest-arena/internal/events"
	"contest-arena/internal/store"
)

type Options struct {
	MaxAttempts   int
	CommitTimeout time.Duration
	RetryBase     time.Duration
}

type Service struct {
	store     store.Repository
	publisher events.Publisher
	opts      Options
	now       func() time.Time
}

func NewService(st store.Repository, pub events.Publisher, opts Options) *Service {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.CommitTimeout <= 0 {
		opts.CommitTimeout = 5 * time.Second
	}
	if opts.RetryBase <= 0 {
		opts.RetryBase = 20 * time.Millisecond
	}
	if pub == nil {
		pub = events.Nop{}
	}
	return &Service{store: st, publisher: pub, opts: opts, now: time.Now}
}

// SetClock overrides the time source.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// List filters the catalog by status, game mode and team type. Admins see
// room details on every contest.
func (s *Service) List(ctx context.Context, p auth.Principal, q ListQuery) (*ListResponse, error) {
	if q.GameMode != "" && !ValidGameMode(q.GameMode) {
		return nil, ErrInvalidRequest
	}
	if q.TeamType != "" && !ValidTeamType(q.TeamType) {
		return nil, ErrInvalidRequest
	}
	now := s.now()
	f := store.ContestFilter{GameMode: q.GameMode, TeamType: q.TeamType}
	switch Status(q.Status) {
	case "":
	case StatusUpcoming:
		f.StartAfter = &now
		f.Ascending = true
	case StatusLive:
		from := now.Add(-LiveWindow)
		f.StartAfter = &from
		f.StartBefore = &now
	case StatusFinished:
		until := now.Add(-LiveWindow)
		f.StartBefore = &until
	default:
		return nil, ErrInvalidRequest
	}
	items, err := s.store.ListContests(ctx, f, q.Limit, q.Offset)
	if err != nil {
		return nil, err
	}
	joined, err := s.joinedSet(ctx, p)
	if err != nil {
		return nil, err
	}
	out := make([]ContestView, 0, len(items))
	for _, c := range items {
		v := toView(c, now, joined[c.ID] || p.IsAdmin())
		v.Joined = joined[c.ID]
		out = append(out, v)
	}
	return &ListResponse{Items: out, Limit: q.Limit, Offset: q.Offset}, nil
}

func (s *Service) Get(ctx context.Context, p auth.Principal, id string) (*ContestView, error) {
	c, err := s.store.GetContest(ctx, id)
	if err != nil {
		return nil, mapLookupError(err)
	}
	joined := false
	if p.Kind == auth.KindRegular {
		regs, err := s.store.ListRegistrations(ctx, id)
		if err != nil {
			return nil, err
		}
		for _, r := range regs {
			if r.AccountID == p.ID {
				joined = true
				break
			}
		}
	}
	v := toView(*c, s.now(), joined || p.IsAdmin())
	v.Joined = joined
	return &v, nil
}

func (s *Service) Participants(ctx context.Context, id string) (*ParticipantsResponse, error) {
	if _, err := s.store.GetContest(ctx, id); err != nil {
		return nil, mapLookupError(err)
	}
	regs, err := s.store.ListRegistrations(ctx, id)
	if err != nil {
		return nil, err
	}
	out := make([]ParticipantView, 0, len(regs))
	for _, r := range regs {
		players := make([]PlayerView, 0, len(r.Players))
		for _, pl := range r.Players {
			players = append(players, PlayerView{DisplayName: pl.DisplayName, ExternalID: pl.ExternalID})
		}
		out = append(out, ParticipantView{
			RegistrationID: r.ID,
			TeamName:       r.TeamName,
			Owner:          r.AccountUsername,
			Players:        players,
		})
	}
	return &ParticipantsResponse{ContestID: id, Items: out}, nil
}

// CheckParticipants reports which of externalIDs already hold a seat. It is
// advisory; Join re-checks under lock.
func (s *Service) CheckParticipants(ctx context.Context, id string, externalIDs []string) (*CheckParticipantsResponse, error) {
	if len(externalIDs) == 0 || len(externalIDs) > 4 {
		return nil, ErrInvalidRequest
	}
	ids, err := normalizeExternalIDs(externalIDs)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.GetContest(ctx, id); err != nil {
		return nil, mapLookupError(err)
	}
	taken, err := s.store.FindRegisteredExternalIDs(ctx, id, ids)
	if err != nil {
		return nil, err
	}
	return &CheckParticipantsResponse{ContestID: id, ExternalIDs: taken}, nil
}

func (s *Service) MyContests(ctx context.Context, p auth.Principal) (*ListResponse, error) {
	if p.Kind != auth.KindRegular {
		return nil, ErrRegularAccountNeeded
	}
	items, err := s.store.ListContestsByAccount(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]ContestView, 0, len(items))
	for _, c := range items {
		out = append(out, toView(c, now, true))
	}
	return &ListResponse{Items: out, Limit: len(out)}, nil
}

func (s *Service) Leaderboard(ctx context.Context, id string) (*LeaderboardResponse, error) {
	if _, err := s.store.GetContest(ctx, id); err != nil {
		return nil, mapLookupError(err)
	}
	results, err := s.store.ListContestResults(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, ErrResultsNotPublished
	}
	out := make([]ResultView, 0, len(results))
	for _, r := range results {
		out = append(out, ResultView{Rank: r.Rank, ExternalID: r.ExternalID, GameUsername: r.GameUsername, Kills: r.Kills, Prize: r.Prize})
	}
	return &LeaderboardResponse{ContestID: id, Items: out}, nil
}

func (s *Service) joinedSet(ctx context.Context, p auth.Principal) (map[string]bool, error) {
	out := map[string]bool{}
	if p.Kind != auth.KindRegular {
		return out, nil
	}
	mine, err := s.store.ListContestsByAccount(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	for _, c := range mine {
		out[c.ID] = true
	}
	return out, nil
}

// toView exposes room credentials only to registered players.
func toView(c store.Contest, now time.Time, joined bool) ContestView {
	v := ContestView{
		ID:            c.ID,
		Title:         c.Title,
		GameMode:      c.GameMode,
		TeamType:      c.TeamType,
		ViewType:      c.ViewType,
		Map:           c.Map,
		EntryFee:      c.EntryFee,
		TotalPrize:    c.TotalPrize,
		PerKillReward: c.PerKillReward,
		PrizeBreakup:  c.PrizeBreakup,
		Capacity:      c.Capacity,
		RosterSize:    c.RosterSize,
		SpotsLeft:     c.Capacity - c.RosterSize,
		StartTime:     c.StartTime,
		Status:        StatusAt(c.StartTime, now),
		Joined:        joined,
	}
	if joined {
		v.RoomID = c.RoomID
		v.RoomPassword = c.RoomPassword
	}
	return v
}

func mapLookupError(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrContestNotFound
	}
	return err
}
