package contest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"contest-arena/internal/auth"
	"contest-arena/internal/events"
	"contest-arena/internal/ledger"
	"contest-arena/internal/store"
	"contest-arena/internal/store/memstore"
)

type fixture struct {
	st  *memstore.Store
	svc *Service
	pub *events.Recorder
	now time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := memstore.New()
	pub := &events.Recorder{}
	svc := NewService(st, pub, Options{MaxAttempts: 3, RetryBase: time.Millisecond})
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	svc.SetClock(func() time.Time { return now })
	return &fixture{st: st, svc: svc, pub: pub, now: now}
}

func (f *fixture) account(t *testing.T, username string, balance int64) auth.Principal {
	t.Helper()
	a, err := f.st.CreateAccount(context.Background(), store.Account{Username: username, Mobile: "m-" + username, APIKeyHash: store.HashAPIKey(username)})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	if balance > 0 {
		if _, err := ledger.New(f.st).AdminCredit(context.Background(), a.ID, "seed", balance); err != nil {
			t.Fatalf("seed balance: %v", err)
		}
	}
	return auth.Principal{Kind: auth.KindRegular, ID: a.ID, Name: username}
}

func (f *fixture) contest(t *testing.T, teamType string, fee int64, capacity int, startIn time.Duration) string {
	t.Helper()
	c, err := f.st.CreateContest(context.Background(), store.Contest{
		Title: "Sunday scrim", GameMode: "battle_royale", TeamType: teamType, ViewType: "tpp",
		EntryFee: fee, Capacity: capacity, StartTime: f.now.Add(startIn),
	})
	if err != nil {
		t.Fatalf("create contest: %v", err)
	}
	return c.ID
}

func solo(id string) []PlayerInput {
	return []PlayerInput{{DisplayName: "p" + id, ExternalID: id}}
}

func (f *fixture) balance(t *testing.T, p auth.Principal) int64 {
	t.Helper()
	a, err := f.st.GetAccount(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	return a.Balance
}

func (f *fixture) rosterSize(t *testing.T, contestID string) int {
	t.Helper()
	c, err := f.st.GetContest(context.Background(), contestID)
	if err != nil {
		t.Fatalf("get contest: %v", err)
	}
	return c.RosterSize
}

func (f *fixture) ledgerLen(t *testing.T, p auth.Principal) int {
	t.Helper()
	entries, err := f.st.ListLedgerEntries(context.Background(), store.LedgerFilter{AccountID: p.ID}, 500, 0)
	if err != nil {
		t.Fatalf("list ledger: %v", err)
	}
	return len(entries)
}

func TestJoinConcurrentCapacityTwo(t *testing.T) {
	f := newFixture(t)
	contestID := f.contest(t, TeamSolo, 10, 2, time.Hour)
	principals := []auth.Principal{f.account(t, "a", 50), f.account(t, "b", 50), f.account(t, "c", 50)}

	var wg sync.WaitGroup
	errs := make([]error, len(principals))
	for i, p := range principals {
		wg.Add(1)
		go func(i int, p auth.Principal) {
			defer wg.Done()
			_, errs[i] = f.svc.Join(context.Background(), p, JoinInput{ContestID: contestID, Players: solo(fmt.Sprintf("%d", 100+i))})
		}(i, p)
	}
	wg.Wait()

	ok, full := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrContestFull):
			full++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 2 || full != 1 {
		t.Fatalf("ok=%d full=%d, want 2 and 1", ok, full)
	}
	if got := f.rosterSize(t, contestID); got != 2 {
		t.Fatalf("roster = %d, want 2", got)
	}
}

func TestJoinCapacityUnderHeavyContention(t *testing.T) {
	f := newFixture(t)
	const capacity = 5
	contestID := f.contest(t, TeamSolo, 1, capacity, time.Hour)

	var wg sync.WaitGroup
	var mu sync.Mutex
	committed := 0
	for i := 0; i < 40; i++ {
		p := f.account(t, fmt.Sprintf("racer%d", i), 10)
		wg.Add(1)
		go func(i int, p auth.Principal) {
			defer wg.Done()
			_, err := f.svc.Join(context.Background(), p, JoinInput{ContestID: contestID, Players: solo(fmt.Sprintf("%d", 5000+i))})
			if err == nil {
				mu.Lock()
				committed++
				mu.Unlock()
				return
			}
			if !errors.Is(err, ErrContestFull) {
				t.Errorf("unexpected error: %v", err)
			}
		}(i, p)
	}
	wg.Wait()
	if committed != capacity || f.rosterSize(t, contestID) != capacity {
		t.Fatalf("committed=%d roster=%d, want %d", committed, f.rosterSize(t, contestID), capacity)
	}
}

func TestJoinExactBalanceDrainsToZero(t *testing.T) {
	f := newFixture(t)
	p := f.account(t, "exact", 100)
	contestID := f.contest(t, TeamSolo, 100, 10, time.Hour)

	resp, err := f.svc.Join(context.Background(), p, JoinInput{ContestID: contestID, Players: solo("7")})
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if resp.Balance != 0 || f.balance(t, p) != 0 {
		t.Fatalf("balance = %d, want 0", f.balance(t, p))
	}
	entries, _ := f.st.ListLedgerEntries(context.Background(), store.LedgerFilter{AccountID: p.ID, Reason: ledger.ReasonContestEntry}, 10, 0)
	if len(entries) != 1 || entries[0].Direction != store.DirectionDebit || entries[0].Amount != 100 || entries[0].RefID != contestID {
		t.Fatalf("unexpected entry ledger %+v", entries)
	}
	if evs := f.pub.Events(); len(evs) != 1 || evs[0].Type != events.TypeContestJoined {
		t.Fatalf("expected one contest.joined event, got %+v", evs)
	}
}

func TestJoinInsufficientBalanceHasNoSideEffects(t *testing.T) {
	f := newFixture(t)
	p := f.account(t, "short", 50)
	contestID := f.contest(t, TeamSolo, 100, 10, time.Hour)
	before := f.ledgerLen(t, p)

	_, err := f.svc.Join(context.Background(), p, JoinInput{ContestID: contestID, Players: solo("8")})
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected insufficient balance, got %v", err)
	}
	if f.balance(t, p) != 50 || f.rosterSize(t, contestID) != 0 || f.ledgerLen(t, p) != before {
		t.Fatalf("state changed after rejected join")
	}
	regs, _ := f.st.ListRegistrations(context.Background(), contestID)
	if len(regs) != 0 {
		t.Fatalf("expected no registrations, got %d", len(regs))
	}
	if len(f.pub.Events()) != 0 {
		t.Fatalf("rejected join published an event")
	}
}

func TestJoinConcurrentOverlappingPlayers(t *testing.T) {
	f := newFixture(t)
	contestID := f.contest(t, TeamDuo, 0, 10, time.Hour)
	p1 := f.account(t, "team1", 0)
	p2 := f.account(t, "team2", 0)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	inputs := []JoinInput{
		{ContestID: contestID, TeamName: "Red", Players: []PlayerInput{{DisplayName: "x", ExternalID: "111"}, {DisplayName: "y", ExternalID: "222"}}},
		{ContestID: contestID, TeamName: "Blue", Players: []PlayerInput{{DisplayName: "z", ExternalID: "333"}, {DisplayName: "y", ExternalID: "222"}}},
	}
	for i, p := range []auth.Principal{p1, p2} {
		wg.Add(1)
		go func(i int, p auth.Principal) {
			defer wg.Done()
			_, errs[i] = f.svc.Join(context.Background(), p, inputs[i])
		}(i, p)
	}
	wg.Wait()

	var ok int
	var dup *DuplicatePlayerError
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		if !errors.As(err, &dup) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || dup == nil {
		t.Fatalf("expected one success and one duplicate, errs=%v", errs)
	}
	if len(dup.ExternalIDs) != 1 || dup.ExternalIDs[0] != "222" {
		t.Fatalf("collisions = %v, want [222]", dup.ExternalIDs)
	}
	if !errors.Is(dup, ErrDuplicatePlayer) {
		t.Fatalf("duplicate error does not unwrap to ErrDuplicatePlayer")
	}
}

func TestJoinAfterStartRejected(t *testing.T) {
	f := newFixture(t)
	p := f.account(t, "late", 100)
	contestID := f.contest(t, TeamSolo, 10, 10, -time.Minute)

	if _, err := f.svc.Join(context.Background(), p, JoinInput{ContestID: contestID, Players: solo("9")}); !errors.Is(err, ErrAlreadyStarted) {
		t.Fatalf("expected already started, got %v", err)
	}
	exactly := f.contest(t, TeamSolo, 10, 10, 0)
	if _, err := f.svc.Join(context.Background(), p, JoinInput{ContestID: exactly, Players: solo("9")}); !errors.Is(err, ErrAlreadyStarted) {
		t.Fatalf("expected already started at start time, got %v", err)
	}
	if f.balance(t, p) != 100 {
		t.Fatalf("balance changed")
	}
}

func TestJoinSquadWithThreePlayers(t *testing.T) {
	f := newFixture(t)
	p := f.account(t, "squad", 100)
	contestID := f.contest(t, TeamSquad, 10, 10, time.Hour)
	players := []PlayerInput{{DisplayName: "a", ExternalID: "1"}, {DisplayName: "b", ExternalID: "2"}, {DisplayName: "c", ExternalID: "3"}}

	if _, err := f.svc.Join(context.Background(), p, JoinInput{ContestID: contestID, TeamName: "Wolves", Players: players}); !errors.Is(err, ErrTeamSizeMismatch) {
		t.Fatalf("expected team size mismatch, got %v", err)
	}
}

func TestJoinPreconditionOrder(t *testing.T) {
	f := newFixture(t)
	p := f.account(t, "order", 5)
	started := f.contest(t, TeamSquad, 100, 1, -time.Minute)
	duo := f.contest(t, TeamDuo, 0, 5, time.Hour)
	pricey := f.contest(t, TeamDuo, 100, 5, time.Hour)

	tests := []struct {
		name string
		in   JoinInput
		want error
	}{
		{name: "missing contest", in: JoinInput{ContestID: "nope", Players: solo("1")}, want: ErrContestNotFound},
		{name: "started beats size", in: JoinInput{ContestID: started, Players: solo("1")}, want: ErrAlreadyStarted},
		{name: "balance beats size", in: JoinInput{ContestID: pricey, Players: solo("1")}, want: ErrInsufficientBalance},
		{name: "size beats team name", in: JoinInput{ContestID: duo, Players: solo("1")}, want: ErrTeamSizeMismatch},
		{name: "team name required", in: JoinInput{ContestID: duo, Players: []PlayerInput{{DisplayName: "a", ExternalID: "1"}, {DisplayName: "b", ExternalID: "2"}}}, want: ErrTeamNameRequired},
		{name: "repeated id in request", in: JoinInput{ContestID: duo, TeamName: "T", Players: []PlayerInput{{DisplayName: "a", ExternalID: "01"}, {DisplayName: "b", ExternalID: "1"}}}, want: ErrDuplicatePlayer},
		{name: "bad external id", in: JoinInput{ContestID: duo, TeamName: "T", Players: []PlayerInput{{DisplayName: "a", ExternalID: "abc"}, {DisplayName: "b", ExternalID: "1"}}}, want: ErrInvalidRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Join(context.Background(), p, tt.in)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestJoinFullContestReportsFull(t *testing.T) {
	f := newFixture(t)
	contestID := f.contest(t, TeamSolo, 0, 1, time.Hour)
	if _, err := f.svc.Join(context.Background(), f.account(t, "first", 0), JoinInput{ContestID: contestID, Players: solo("1")}); err != nil {
		t.Fatalf("first join: %v", err)
	}
	if _, err := f.svc.Join(context.Background(), f.account(t, "second", 0), JoinInput{ContestID: contestID, Players: solo("2")}); !errors.Is(err, ErrContestFull) {
		t.Fatalf("expected full, got %v", err)
	}
}

func TestJoinZeroFeeWritesNoLedgerEntry(t *testing.T) {
	f := newFixture(t)
	p := f.account(t, "free", 0)
	contestID := f.contest(t, TeamSolo, 0, 10, time.Hour)
	resp, err := f.svc.Join(context.Background(), p, JoinInput{ContestID: contestID, Players: solo("77")})
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if resp.EntryFee != 0 || f.ledgerLen(t, p) != 0 {
		t.Fatalf("zero fee join wrote ledger entries")
	}
}

func TestJoinCancelledBeforeCommitTouchesNothing(t *testing.T) {
	f := newFixture(t)
	p := f.account(t, "gone", 100)
	contestID := f.contest(t, TeamSolo, 10, 10, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := f.svc.Join(ctx, p, JoinInput{ContestID: contestID, Players: solo("5")}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}
	if f.balance(t, p) != 100 || f.rosterSize(t, contestID) != 0 {
		t.Fatalf("cancelled join changed state")
	}
}

type conflictingStore struct {
	*memstore.Store
	mu        sync.Mutex
	conflicts int
	calls     int
}

func (c *conflictingStore) JoinContest(ctx context.Context, p store.JoinParams) (*store.JoinResult, error) {
	c.mu.Lock()
	c.calls++
	fail := c.calls <= c.conflicts
	c.mu.Unlock()
	if fail {
		return nil, store.ErrConflict
	}
	return c.Store.JoinContest(ctx, p)
}

func TestJoinRetriesConflicts(t *testing.T) {
	f := newFixture(t)
	cs := &conflictingStore{Store: f.st, conflicts: 2}
	svc := NewService(cs, nil, Options{MaxAttempts: 3, RetryBase: time.Millisecond})
	svc.SetClock(f.svc.now)
	p := f.account(t, "retry", 100)
	contestID := f.contest(t, TeamSolo, 10, 10, time.Hour)

	if _, err := svc.Join(context.Background(), p, JoinInput{ContestID: contestID, Players: solo("1")}); err != nil {
		t.Fatalf("join after conflicts: %v", err)
	}
	if cs.calls != 3 {
		t.Fatalf("calls = %d, want 3", cs.calls)
	}

	cs.calls, cs.conflicts = 0, 10
	if _, err := svc.Join(context.Background(), f.account(t, "retry2", 100), JoinInput{ContestID: contestID, Players: solo("2")}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if f.rosterSize(t, contestID) != 1 {
		t.Fatalf("roster = %d, want 1", f.rosterSize(t, contestID))
	}
}

func TestJoinIdempotencyKeyPreventsDoubleCharge(t *testing.T) {
	f := newFixture(t)
	p := f.account(t, "retrying", 100)
	contestID := f.contest(t, TeamSolo, 40, 1, time.Hour)
	in := JoinInput{ContestID: contestID, Players: solo("31"), IdempotencyKey: "abc-123"}

	first, err := f.svc.Join(context.Background(), p, in)
	if err != nil {
		t.Fatalf("first join: %v", err)
	}
	second, err := f.svc.Join(context.Background(), p, in)
	if err != nil {
		t.Fatalf("replayed join: %v", err)
	}
	if !second.Replayed || second.RegistrationID != first.RegistrationID {
		t.Fatalf("expected replay of %s, got %+v", first.RegistrationID, second)
	}
	if f.balance(t, p) != 60 || f.rosterSize(t, contestID) != 1 {
		t.Fatalf("replay charged twice or added a seat")
	}
}

func TestJoinBalanceEqualsLedgerFold(t *testing.T) {
	f := newFixture(t)
	p := f.account(t, "folder", 95)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		contestID := f.contest(t, TeamSolo, 20, 3, time.Hour)
		wg.Add(1)
		go func(i int, contestID string) {
			defer wg.Done()
			_, _ = f.svc.Join(context.Background(), p, JoinInput{ContestID: contestID, Players: solo(fmt.Sprintf("%d", i+1))})
		}(i, contestID)
	}
	wg.Wait()

	bal := f.balance(t, p)
	if bal < 0 || bal != 15 {
		t.Fatalf("balance = %d, want 15", bal)
	}
	folded, err := ledger.New(f.st).Replay(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if folded != bal {
		t.Fatalf("ledger fold %d != balance %d", folded, bal)
	}
}

func TestJoinRejectsAdminPrincipal(t *testing.T) {
	f := newFixture(t)
	contestID := f.contest(t, TeamSolo, 0, 10, time.Hour)
	admin := auth.Principal{Kind: auth.KindAdmin, ID: "root"}
	if _, err := f.svc.Join(context.Background(), admin, JoinInput{ContestID: contestID, Players: solo("1")}); !errors.Is(err, ErrRegularAccountNeeded) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

// lateCommitStore lets an earlier attempt with the same idempotency key
// commit right after the first key lookup misses.
type lateCommitStore struct {
	*memstore.Store
	earlier store.JoinParams
	once    sync.Once
}

func (s *lateCommitStore) GetRegistrationByIdempotencyKey(ctx context.Context, accountID, key string) (*store.Registration, error) {
	var (
		missed  bool
		joinErr error
	)
	s.once.Do(func() {
		missed = true
		_, joinErr = s.Store.JoinContest(ctx, s.earlier)
	})
	if joinErr != nil {
		return nil, joinErr
	}
	if missed {
		return nil, store.ErrNotFound
	}
	return s.Store.GetRegistrationByIdempotencyKey(ctx, accountID, key)
}

func TestJoinRetryRacingEarlierAttemptReplays(t *testing.T) {
	f := newFixture(t)
	p := f.account(t, "racer", 100)
	contestID := f.contest(t, TeamSolo, 10, 5, time.Hour)
	players := []store.Player{{DisplayName: "p111", ExternalID: "111"}}

	ls := &lateCommitStore{Store: f.st, earlier: store.JoinParams{
		ContestID: contestID, AccountID: p.ID, Players: players, IdempotencyKey: "k-1", Now: f.now,
	}}
	svc := NewService(ls, nil, Options{MaxAttempts: 3, RetryBase: time.Millisecond})
	svc.SetClock(f.svc.now)

	resp, err := svc.Join(context.Background(), p, JoinInput{ContestID: contestID, Players: solo("111"), IdempotencyKey: "k-1"})
	if err != nil {
		t.Fatalf("retried join: %v", err)
	}
	reg, err := f.st.GetRegistrationByIdempotencyKey(context.Background(), p.ID, "k-1")
	if err != nil {
		t.Fatalf("lookup earlier registration: %v", err)
	}
	if !resp.Replayed || resp.RegistrationID != reg.ID || resp.ContestID != contestID {
		t.Fatalf("expected replay of %s, got %+v", reg.ID, resp)
	}
	if f.balance(t, p) != 90 || f.rosterSize(t, contestID) != 1 || f.ledgerLen(t, p) != 2 {
		t.Fatalf("balance=%d roster=%d ledger=%d", f.balance(t, p), f.rosterSize(t, contestID), f.ledgerLen(t, p))
	}
}

func TestJoinKeyReusedForAnotherContest(t *testing.T) {
	f := newFixture(t)
	p := f.account(t, "reuser", 100)
	first := f.contest(t, TeamSolo, 10, 5, time.Hour)
	second := f.contest(t, TeamSolo, 10, 5, time.Hour)

	if _, err := f.svc.Join(context.Background(), p, JoinInput{ContestID: first, Players: solo("1"), IdempotencyKey: "same"}); err != nil {
		t.Fatalf("first join: %v", err)
	}
	_, err := f.svc.Join(context.Background(), p, JoinInput{ContestID: second, Players: solo("2"), IdempotencyKey: "same"})
	if !errors.Is(err, ErrIdempotencyKeyReused) || !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected key reuse rejected as invalid_request, got %v", err)
	}
	if f.balance(t, p) != 90 || f.rosterSize(t, second) != 0 {
		t.Fatalf("reused key charged or seated: balance=%d roster=%d", f.balance(t, p), f.rosterSize(t, second))
	}
}

// vanishingAccountStore reports the account during prechecks but the
// commit finds it gone.
type vanishingAccountStore struct {
	*memstore.Store
}

func (s *vanishingAccountStore) JoinContest(ctx context.Context, p store.JoinParams) (*store.JoinResult, error) {
	p.AccountID = "gone-" + p.AccountID
	return s.Store.JoinContest(ctx, p)
}

func TestJoinMissingAccountAtCommit(t *testing.T) {
	f := newFixture(t)
	p := f.account(t, "ghost", 100)
	contestID := f.contest(t, TeamSolo, 10, 5, time.Hour)
	svc := NewService(&vanishingAccountStore{Store: f.st}, nil, Options{MaxAttempts: 1, RetryBase: time.Millisecond})
	svc.SetClock(f.svc.now)

	_, err := svc.Join(context.Background(), p, JoinInput{ContestID: contestID, Players: solo("5")})
	if !errors.Is(err, ErrAccountNotFound) || errors.Is(err, ErrContestNotFound) {
		t.Fatalf("expected account_not_found, got %v", err)
	}
	if f.rosterSize(t, contestID) != 0 {
		t.Fatalf("roster = %d, want 0", f.rosterSize(t, contestID))
	}
}
