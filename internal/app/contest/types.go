package contest

import "time"

type Status string

const (
	StatusUpcoming Status = "upcoming"
	StatusLive     Status = "live"
	StatusFinished Status = "finished"
)

const (
	TeamSolo  = "solo"
	TeamDuo   = "duo"
	TeamSquad = "squad"
)

// LiveWindow is how long after start a contest is reported as live.
const LiveWindow = time.Hour

var (
	gameModes = map[string]bool{"battle_royale": true, "clash_squad": true, "lone_wolf": true}
	teamSizes = map[string]int{TeamSolo: 1, TeamDuo: 2, TeamSquad: 4}
	viewTypes = map[string]bool{"tpp": true, "fpp": true}
)

func ValidGameMode(v string) bool { return gameModes[v] }
func ValidTeamType(v string) bool { _, ok := teamSizes[v]; return ok }
func ValidViewType(v string) bool { return viewTypes[v] }

// TeamSize returns the number of players a registration needs, or 0 for an
// unknown team type.
func TeamSize(teamType string) int { return teamSizes[teamType] }

func StatusAt(start, now time.Time) Status {
	switch {
	case now.Before(start):
		return StatusUpcoming
	case now.Before(start.Add(LiveWindow)):
		return StatusLive
	default:
		return StatusFinished
	}
}

type PlayerInput struct {
	DisplayName string `json:"display_name"`
	ExternalID  string `json:"external_id"`
}

type JoinInput struct {
	ContestID      string
	TeamName       string
	Players        []PlayerInput
	IdempotencyKey string
}

type JoinResponse struct {
	RegistrationID string `json:"registration_id"`
	ContestID      string `json:"contest_id"`
	EntryFee       int64  `json:"entry_fee"`
	Balance        int64  `json:"balance"`
	Replayed       bool   `json:"replayed,omitempty"`
}

type ListQuery struct {
	Status   string
	GameMode string
	TeamType string
	Limit    int
	Offset   int
}

type ContestView struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	GameMode      string    `json:"game_mode"`
	TeamType      string    `json:"team_type"`
	ViewType      string    `json:"view_type"`
	Map           string    `json:"map"`
	EntryFee      int64     `json:"entry_fee"`
	TotalPrize    int64     `json:"total_prize"`
	PerKillReward int64     `json:"per_kill_reward"`
	PrizeBreakup  string    `json:"prize_breakup,omitempty"`
	Capacity      int       `json:"capacity"`
	RosterSize    int       `json:"roster_size"`
	SpotsLeft     int       `json:"spots_left"`
	StartTime     time.Time `json:"start_time"`
	Status        Status    `json:"status"`
	Joined        bool      `json:"joined"`
	RoomID        string    `json:"room_id,omitempty"`
	RoomPassword  string    `json:"room_password,omitempty"`
}

type ListResponse struct {
	Items  []ContestView `json:"items"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

type PlayerView struct {
	DisplayName string `json:"display_name"`
	ExternalID  string `json:"external_id"`
}

type ParticipantView struct {
	RegistrationID string       `json:"registration_id"`
	TeamName       string       `json:"team_name,omitempty"`
	Owner          string       `json:"owner"`
	Players        []PlayerView `json:"players"`
}

type ParticipantsResponse struct {
	ContestID string            `json:"contest_id"`
	Items     []ParticipantView `json:"items"`
}

type CheckParticipantsResponse struct {
	ContestID   string   `json:"contest_id"`
	ExternalIDs []string `json:"external_ids"`
}

type ResultView struct {
	Rank         int    `json:"rank"`
	ExternalID   string `json:"external_id"`
	GameUsername string `json:"game_username"`
	Kills        int    `json:"kills"`
	Prize        int64  `json:"prize"`
}

type LeaderboardResponse struct {
	ContestID string       `json:"contest_id"`
	Items     []ResultView `json:"items"`
}
