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
	"contest-arena/internal/testutil"
)

func TestJoinCapacityOnEveryBackend(t *testing.T) {
	testutil.ForEachBackend(t, func(t *testing.T, st store.Repository) {
		svc := NewService(st, events.Nop{}, Options{MaxAttempts: 5, RetryBase: 2 * time.Millisecond})
		contestID := testutil.SeedContest(t, st, TeamSolo, 10, 3, time.Now().Add(time.Hour))

		players := make([]auth.Principal, 8)
		for i := range players {
			id := testutil.SeedAccount(t, st, fmt.Sprintf("cap%d", i), 100)
			players[i] = auth.Principal{Kind: auth.KindRegular, ID: id}
		}

		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			success int
		)
		for i, p := range players {
			wg.Add(1)
			go func(i int, p auth.Principal) {
				defer wg.Done()
				_, err := svc.Join(context.Background(), p, JoinInput{ContestID: contestID, Players: solo(fmt.Sprintf("%d", 1000+i))})
				switch {
				case err == nil:
					mu.Lock()
					success++
					mu.Unlock()
				case errors.Is(err, ErrContestFull), errors.Is(err, ErrConflict):
				default:
					t.Errorf("unexpected join error: %v", err)
				}
			}(i, p)
		}
		wg.Wait()

		if success != 3 {
			t.Fatalf("successful joins = %d, want 3", success)
		}
		c, err := st.GetContest(context.Background(), contestID)
		if err != nil {
			t.Fatalf("get contest: %v", err)
		}
		if c.RosterSize != 3 {
			t.Fatalf("roster size = %d, want 3", c.RosterSize)
		}

		var total int64
		for _, p := range players {
			a, err := st.GetAccount(context.Background(), p.ID)
			if err != nil {
				t.Fatalf("get account: %v", err)
			}
			folded, err := ledger.New(st).Replay(context.Background(), p.ID)
			if err != nil {
				t.Fatalf("replay: %v", err)
			}
			if folded != a.Balance {
				t.Fatalf("ledger fold %d != balance %d", folded, a.Balance)
			}
			total += a.Balance
		}
		if total != 8*100-3*10 {
			t.Fatalf("total balance = %d", total)
		}
	})
}

func TestJoinSamePlayerOnEveryBackend(t *testing.T) {
	testutil.ForEachBackend(t, func(t *testing.T, st store.Repository) {
		svc := NewService(st, events.Nop{}, Options{MaxAttempts: 5, RetryBase: 2 * time.Millisecond})
		contestID := testutil.SeedContest(t, st, TeamSolo, 5, 10, time.Now().Add(time.Hour))

		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			success int
		)
		for i := 0; i < 4; i++ {
			id := testutil.SeedAccount(t, st, fmt.Sprintf("dup%d", i), 50)
			p := auth.Principal{Kind: auth.KindRegular, ID: id}
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := svc.Join(context.Background(), p, JoinInput{ContestID: contestID, Players: solo("777")})
				switch {
				case err == nil:
					mu.Lock()
					success++
					mu.Unlock()
				case errors.Is(err, ErrDuplicatePlayer), errors.Is(err, ErrConflict):
				default:
					t.Errorf("unexpected join error: %v", err)
				}
			}()
		}
		wg.Wait()
		if success != 1 {
			t.Fatalf("successful joins = %d, want 1", success)
		}
		regs, err := st.ListRegistrations(context.Background(), contestID)
		if err != nil {
			t.Fatalf("list registrations: %v", err)
		}
		if len(regs) != 1 {
			t.Fatalf("registrations = %d, want 1", len(regs))
		}
	})
}

func TestJoinSameKeyConcurrentlyOnEveryBackend(t *testing.T) {
	testutil.ForEachBackend(t, func(t *testing.T, st store.Repository) {
		ctx := context.Background()
		accountID := testutil.SeedAccount(t, st, "twice", 100)
		contestID := testutil.SeedContest(t, st, TeamSolo, 25, 10, time.Now().Add(time.Hour))
		params := store.JoinParams{
			ContestID:      contestID,
			AccountID:      accountID,
			Players:        []store.Player{{DisplayName: "dup", ExternalID: "4242"}},
			IdempotencyKey: "submit-1",
			Now:            time.Now(),
		}

		const attempts = 4
		var wg sync.WaitGroup
		results := make([]*store.JoinResult, attempts)
		errs := make([]error, attempts)
		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i], errs[i] = st.JoinContest(ctx, params)
			}(i)
		}
		wg.Wait()

		regID := ""
		fresh := 0
		for i, err := range errs {
			if err != nil {
				t.Fatalf("attempt %d: %v", i, err)
			}
			if !results[i].Replayed {
				fresh++
			}
			if results[i].ContestID != contestID {
				t.Fatalf("attempt %d contest = %q", i, results[i].ContestID)
			}
			if regID == "" {
				regID = results[i].RegistrationID
			} else if results[i].RegistrationID != regID {
				t.Fatalf("registration ids differ: %s vs %s", regID, results[i].RegistrationID)
			}
		}
		if fresh != 1 {
			t.Fatalf("fresh registrations = %d, want 1", fresh)
		}
		a, err := st.GetAccount(ctx, accountID)
		if err != nil {
			t.Fatalf("get account: %v", err)
		}
		if a.Balance != 75 {
			t.Fatalf("balance = %d, want 75", a.Balance)
		}
	})
}

func TestJoinUnknownAccountOnEveryBackend(t *testing.T) {
	testutil.ForEachBackend(t, func(t *testing.T, st store.Repository) {
		contestID := testutil.SeedContest(t, st, TeamSolo, 0, 10, time.Now().Add(time.Hour))
		_, err := st.JoinContest(context.Background(), store.JoinParams{
			ContestID: contestID,
			AccountID: "no-such-account",
			Players:   []store.Player{{DisplayName: "x", ExternalID: "9"}},
			Now:       time.Now(),
		})
		if !errors.Is(err, store.ErrAccountNotFound) {
			t.Fatalf("expected account not found, got %v", err)
		}
	})
}
