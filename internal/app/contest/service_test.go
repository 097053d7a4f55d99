package contest

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"contest-arena/internal/auth"
	"contest-arena/internal/store"
)

func TestStatusAt(t *testing.T) {
	start := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		now  time.Time
		want Status
	}{
		{name: "before start", now: start.Add(-time.Second), want: StatusUpcoming},
		{name: "at start", now: start, want: StatusLive},
		{name: "inside window", now: start.Add(59 * time.Minute), want: StatusLive},
		{name: "window end", now: start.Add(LiveWindow), want: StatusFinished},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusAt(start, tt.now); got != tt.want {
				t.Fatalf("status = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestCanonicalExternalID(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{in: "00123", want: "123", ok: true},
		{in: " 42 ", want: "42", ok: true},
		{in: "000", want: "0", ok: true},
		{in: "12a", ok: false},
		{in: "", ok: false},
		{in: "123456789012345678901", ok: false},
	}
	for _, tt := range tests {
		got, ok := CanonicalExternalID(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Fatalf("CanonicalExternalID(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestListFiltersByStatus(t *testing.T) {
	f := newFixture(t)
	p := f.account(t, "viewer", 0)
	upcoming := f.contest(t, TeamSolo, 0, 5, 2*time.Hour)
	soon := f.contest(t, TeamSolo, 0, 5, time.Hour)
	live := f.contest(t, TeamDuo, 0, 5, -30*time.Minute)
	finished := f.contest(t, TeamSquad, 0, 5, -3*time.Hour)

	tests := []struct {
		status string
		want   []string
	}{
		{status: "upcoming", want: []string{soon, upcoming}},
		{status: "live", want: []string{live}},
		{status: "finished", want: []string{finished}},
		{status: "", want: []string{upcoming, soon, live, finished}},
	}
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			resp, err := f.svc.List(context.Background(), p, ListQuery{Status: tt.status})
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			var got []string
			for _, it := range resp.Items {
				got = append(got, it.ID)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("ids = %v, want %v", got, tt.want)
			}
		})
	}

	if _, err := f.svc.List(context.Background(), p, ListQuery{Status: "soon"}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected invalid status rejected, got %v", err)
	}
	resp, err := f.svc.List(context.Background(), p, ListQuery{TeamType: TeamDuo})
	if err != nil || len(resp.Items) != 1 || resp.Items[0].ID != live {
		t.Fatalf("team type filter = %+v, %v", resp, err)
	}
}

func TestCheckParticipantsIsStableRead(t *testing.T) {
	f := newFixture(t)
	p := f.account(t, "owner", 0)
	contestID := f.contest(t, TeamSolo, 0, 5, time.Hour)
	if _, err := f.svc.Join(context.Background(), p, JoinInput{ContestID: contestID, Players: solo("555")}); err != nil {
		t.Fatalf("join: %v", err)
	}

	first, err := f.svc.CheckParticipants(context.Background(), contestID, []string{"0555", "666"})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	second, err := f.svc.CheckParticipants(context.Background(), contestID, []string{"0555", "666"})
	if err != nil {
		t.Fatalf("check again: %v", err)
	}
	if !reflect.DeepEqual(first, second) || len(first.ExternalIDs) != 1 || first.ExternalIDs[0] != "555" {
		t.Fatalf("first=%+v second=%+v", first, second)
	}
	if _, err := f.svc.CheckParticipants(context.Background(), "missing", []string{"1"}); !errors.Is(err, ErrContestNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestGetShowsRoomOnlyToRegisteredPlayers(t *testing.T) {
	f := newFixture(t)
	member := f.account(t, "member", 0)
	outsider := f.account(t, "outsider", 0)
	contestID := f.contest(t, TeamSolo, 0, 5, time.Hour)
	room, pass := "room-9", "pw"
	if _, err := f.st.UpdateContest(context.Background(), contestID, store.ContestPatch{RoomID: &room, RoomPassword: &pass}, f.now); err != nil {
		t.Fatalf("set room: %v", err)
	}
	if _, err := f.svc.Join(context.Background(), member, JoinInput{ContestID: contestID, Players: solo("1")}); err != nil {
		t.Fatalf("join: %v", err)
	}

	v, err := f.svc.Get(context.Background(), member, contestID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !v.Joined || v.RoomID != room || v.SpotsLeft != 4 {
		t.Fatalf("member view = %+v", v)
	}
	v, err = f.svc.Get(context.Background(), outsider, contestID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if v.Joined || v.RoomID != "" {
		t.Fatalf("outsider view leaks room: %+v", v)
	}
	if _, err := f.svc.Get(context.Background(), outsider, "missing"); !errors.Is(err, ErrContestNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestMyContestsAndParticipants(t *testing.T) {
	f := newFixture(t)
	p := f.account(t, "captain", 0)
	duo := f.contest(t, TeamDuo, 0, 5, time.Hour)
	f.contest(t, TeamSolo, 0, 5, time.Hour)
	in := JoinInput{ContestID: duo, TeamName: "Owls", Players: []PlayerInput{{DisplayName: "a", ExternalID: "10"}, {DisplayName: "b", ExternalID: "20"}}}
	if _, err := f.svc.Join(context.Background(), p, in); err != nil {
		t.Fatalf("join: %v", err)
	}

	mine, err := f.svc.MyContests(context.Background(), p)
	if err != nil {
		t.Fatalf("my contests: %v", err)
	}
	if len(mine.Items) != 1 || mine.Items[0].ID != duo || !mine.Items[0].Joined {
		t.Fatalf("my contests = %+v", mine.Items)
	}
	roster, err := f.svc.Participants(context.Background(), duo)
	if err != nil {
		t.Fatalf("participants: %v", err)
	}
	if len(roster.Items) != 1 || roster.Items[0].Owner != "captain" || roster.Items[0].TeamName != "Owls" || len(roster.Items[0].Players) != 2 {
		t.Fatalf("roster = %+v", roster.Items)
	}
	if _, err := f.svc.MyContests(context.Background(), auth.Principal{Kind: auth.KindAdmin}); !errors.Is(err, ErrRegularAccountNeeded) {
		t.Fatalf("expected forbidden for admin, got %v", err)
	}
}

func TestLeaderboard(t *testing.T) {
	f := newFixture(t)
	contestID := f.contest(t, TeamSolo, 0, 5, -2*time.Hour)
	if _, err := f.svc.Leaderboard(context.Background(), contestID); !errors.Is(err, ErrResultsNotPublished) {
		t.Fatalf("expected not published, got %v", err)
	}
	err := f.st.ReplaceContestResults(context.Background(), contestID, []store.ContestResult{
		{ExternalID: "2", Rank: 2, GameUsername: "two", Kills: 3},
		{ExternalID: "1", Rank: 1, GameUsername: "one", Kills: 7, Prize: 500},
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	lb, err := f.svc.Leaderboard(context.Background(), contestID)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(lb.Items) != 2 || lb.Items[0].Rank != 1 || lb.Items[0].Prize != 500 {
		t.Fatalf("leaderboard = %+v", lb.Items)
	}
}
