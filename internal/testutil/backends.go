package testutil

import (
	"context"
	"testing"
	"time"

	"contest-arena/internal/store"
	"contest-arena/internal/store/memstore"
)

// ForEachBackend runs fn once per available store backend as a subtest.
// The Postgres run is skipped without TEST_POSTGRES_DSN.
func ForEachBackend(t *testing.T, fn func(t *testing.T, st store.Repository)) {
	t.Run("memory", func(t *testing.T) {
		fn(t, memstore.New())
	})
	t.Run("postgres", func(t *testing.T) {
		st, cleanup := OpenTestStore(t)
		defer cleanup()
		fn(t, st)
	})
}

func SeedAccount(t *testing.T, st store.Repository, username string, balance int64) string {
	t.Helper()
	ctx := context.Background()
	a, err := st.CreateAccount(ctx, store.Account{
		Username:     username,
		Mobile:       "m-" + username,
		PasswordHash: "x",
		APIKeyHash:   store.HashAPIKey("key-" + username),
	})
	if err != nil {
		t.Fatalf("create account %s: %v", username, err)
	}
	if balance > 0 {
		if _, err := st.AdjustBalance(ctx, a.ID, balance, store.DirectionCredit, "admin_credit", "admin", "seed"); err != nil {
			t.Fatalf("seed balance %s: %v", username, err)
		}
	}
	return a.ID
}

func SeedContest(t *testing.T, st store.Repository, teamType string, fee int64, capacity int, start time.Time) string {
	t.Helper()
	c, err := st.CreateContest(context.Background(), store.Contest{
		Title:     "seeded " + teamType,
		GameMode:  "battle_royale",
		TeamType:  teamType,
		ViewType:  "tpp",
		EntryFee:  fee,
		Capacity:  capacity,
		StartTime: start,
	})
	if err != nil {
		t.Fatalf("create contest: %v", err)
	}
	return c.ID
}
