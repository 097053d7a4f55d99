package vote

import (
	"context"
	"errors"
	"testing"

	"contest-arena/internal/auth"
	"contest-arena/internal/store"
	"contest-arena/internal/store/memstore"
)

func TestCastOncePerMode(t *testing.T) {
	st := memstore.New()
	a, err := st.CreateAccount(context.Background(), store.Account{Username: "voter", Mobile: "1", APIKeyHash: "k"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	p := auth.Principal{Kind: auth.KindRegular, ID: a.ID}
	svc := NewService(st)

	status, err := svc.Cast(context.Background(), p, "lone_wolf")
	if err != nil {
		t.Fatalf("cast: %v", err)
	}
	if status.TotalVotes != 1 || !status.HasVoted {
		t.Fatalf("status = %+v", status)
	}
	if _, err := svc.Cast(context.Background(), p, "lone_wolf"); !errors.Is(err, ErrAlreadyVoted) {
		t.Fatalf("expected already voted, got %v", err)
	}
	if _, err := svc.Cast(context.Background(), p, "clash_squad"); err != nil {
		t.Fatalf("vote other mode: %v", err)
	}
	if _, err := svc.Status(context.Background(), p, "battle_royale"); !errors.Is(err, ErrInvalidGameMode) {
		t.Fatalf("expected invalid mode, got %v", err)
	}
}
