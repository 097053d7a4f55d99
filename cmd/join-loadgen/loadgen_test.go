package main

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	appaccount "contest-arena/internal/app/account"
	appadmin "contest-arena/internal/app/admin"
	appcontest "contest-arena/internal/app/contest"
	appvote "contest-arena/internal/app/vote"
	"contest-arena/internal/auth"
	"contest-arena/internal/config"
	"contest-arena/internal/events"
	"contest-arena/internal/notify"
	"contest-arena/internal/store/memstore"
	httptransport "contest-arena/internal/transport/http"
)

func TestLoadgenAgainstMemoryServer(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	adminSvc := appadmin.NewService(st, notify.LogMailer{}, events.Nop{}, "")
	root := auth.Principal{Kind: auth.KindAdmin, ID: "root"}

	tokens := make([]string, 0, 6)
	for _, name := range []string{"a", "b", "c", "d", "e", "f"} {
		resp, err := adminSvc.CreateAccount(ctx, root, appadmin.CreateAccountInput{
			Username: "lg-" + name, Mobile: "90000" + name, Password: "secret-pw", InitialBalance: 100,
		})
		if err != nil {
			t.Fatalf("create account: %v", err)
		}
		tokens = append(tokens, resp.Token)
	}
	c, err := adminSvc.CreateContest(ctx, appadmin.ContestInput{
		Title: "load", GameMode: "battle_royale", TeamType: "solo", EntryFee: 25, Capacity: 4,
		StartTime: time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("create contest: %v", err)
	}

	srv := httptest.NewServer(httptransport.NewRouter(httptransport.Deps{
		Store:    st,
		Verifier: auth.NewStoreVerifier(st, "k"),
		Contests: appcontest.NewService(st, events.Nop{}, appcontest.Options{RetryBase: time.Millisecond}),
		Accounts: appaccount.NewService(st),
		Votes:    appvote.NewService(st),
		Admin:    adminSvc,
	}))
	defer srv.Close()

	sum, err := run(ctx, config.LoadgenConfig{
		BaseURL:     srv.URL,
		ContestID:   c.ID,
		Tokens:      tokens,
		Concurrency: 6,
		Requests:    12,
		Timeout:     5 * time.Second,
		IDBase:      7000,
	}, srv.Client())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if sum.Total != 12 || sum.Joined != 4 {
		t.Fatalf("summary = %+v", sum)
	}
	if sum.Rejected["contest_full"] != 8 {
		t.Fatalf("rejections = %v", sum.Rejected)
	}
}
