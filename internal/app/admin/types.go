package admin

import "time"

const (
	ActionAdd      = "add"
	ActionSubtract = "subtract"

	resetTokenTTL     = 15 * time.Minute
	minPasswordLength = 6

	// MaxAmount bounds a single credit, debit or opening balance.
	MaxAmount int64 = 1_000_000_000_000
)

type CreateAccountInput struct {
	Username       string `json:"username"`
	Mobile         string `json:"mobile"`
	Password       string `json:"password"`
	InitialBalance int64  `json:"initial_balance"`
}

type AccountView struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Mobile    string    `json:"mobile"`
	Balance   int64     `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
}

// AccountDetail adds the balance recomputed from the ledger. Reconciled is
// false when the stored balance and the ledger disagree.
type AccountDetail struct {
	AccountView
	FoldedBalance int64 `json:"folded_balance"`
	Reconciled    bool  `json:"reconciled"`
}

// CreateAccountResponse carries the bearer token; it is never shown again.
type CreateAccountResponse struct {
	Account AccountView `json:"account"`
	Token   string      `json:"token"`
}

type AccountsResponse struct {
	Items  []AccountView `json:"items"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

type CreateAdminInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Mobile   string `json:"mobile"`
	Password string `json:"password"`
}

type CreateAdminResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Token    string `json:"token"`
}

type BalanceInput struct {
	Username string `json:"username"`
	Amount   int64  `json:"amount"`
	Action   string `json:"action"`
}

type BalanceResponse struct {
	AccountID string `json:"account_id"`
	Username  string `json:"username"`
	Balance   int64  `json:"balance"`
}

type TransactionsQuery struct {
	Username string
	Reason   string
	From     *time.Time
	To       *time.Time
	Limit    int
	Offset   int
}

type TransactionView struct {
	ID           string    `json:"id"`
	AccountID    string    `json:"account_id"`
	Direction    string    `json:"direction"`
	Amount       int64     `json:"amount"`
	BalanceAfter int64     `json:"balance_after"`
	Reason       string    `json:"reason"`
	RefType      string    `json:"ref_type,omitempty"`
	RefID        string    `json:"ref_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type TransactionsResponse struct {
	Items  []TransactionView `json:"items"`
	Limit  int               `json:"limit"`
	Offset int               `json:"offset"`
}

type ContestInput struct {
	Title         string    `json:"title"`
	GameMode      string    `json:"game_mode"`
	TeamType      string    `json:"team_type"`
	ViewType      string    `json:"view_type"`
	Map           string    `json:"map"`
	EntryFee      int64     `json:"entry_fee"`
	TotalPrize    int64     `json:"total_prize"`
	PerKillReward int64     `json:"per_kill_reward"`
	PrizeBreakup  string    `json:"prize_breakup"`
	Capacity      int       `json:"capacity"`
	StartTime     time.Time `json:"start_time"`
}

// ContestUpdate has no capacity field: capacity is fixed at creation.
type ContestUpdate struct {
	Title         *string    `json:"title"`
	GameMode      *string    `json:"game_mode"`
	TeamType      *string    `json:"team_type"`
	ViewType      *string    `json:"view_type"`
	Map           *string    `json:"map"`
	EntryFee      *int64     `json:"entry_fee"`
	TotalPrize    *int64     `json:"total_prize"`
	PerKillReward *int64     `json:"per_kill_reward"`
	PrizeBreakup  *string    `json:"prize_breakup"`
	StartTime     *time.Time `json:"start_time"`
	RoomID        *string    `json:"room_id"`
	RoomPassword  *string    `json:"room_password"`
}

type RoomInput struct {
	RoomID       string `json:"room_id"`
	RoomPassword string `json:"room_password"`
}

type ResultInput struct {
	ExternalID   string `json:"external_id"`
	Rank         int    `json:"rank"`
	GameUsername string `json:"game_username"`
	Kills        int    `json:"kills"`
	Prize        int64  `json:"prize"`
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
	PrizeBreakup  string    `json:"prize_breakup"`
	Capacity      int       `json:"capacity"`
	RosterSize    int       `json:"roster_size"`
	StartTime     time.Time `json:"start_time"`
	RoomID        string    `json:"room_id"`
	RoomPassword  string    `json:"room_password"`
}

type RegisteredPlayer struct {
	RegistrationID string `json:"registration_id"`
	AccountID      string `json:"account_id"`
	Owner          string `json:"owner"`
	TeamName       string `json:"team_name,omitempty"`
	DisplayName    string `json:"display_name"`
	ExternalID     string `json:"external_id"`
}

type PlayersResponse struct {
	ContestID string             `json:"contest_id"`
	Items     []RegisteredPlayer `json:"items"`
}
