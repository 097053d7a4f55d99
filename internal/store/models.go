package store

import "time"

type Account struct {
	ID           string
	Username     string
	Mobile       string
	PasswordHash string
	APIKeyHash   string
	Balance      int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Admin struct {
	ID             string
	Username       string
	Email          string
	Mobile         string
	PasswordHash   string
	APIKeyHash     string
	ResetTokenHash string
	ResetExpiresAt *time.Time
	CreatedAt      time.Time
}

// Contest is a scheduled match. Capacity never changes after creation and
// RosterSize counts committed registrations.
type Contest struct {
	ID            string
	Title         string
	GameMode      string
	TeamType      string
	ViewType      string
	Map           string
	EntryFee      int64
	TotalPrize    int64
	PerKillReward int64
	PrizeBreakup  string
	Capacity      int
	RosterSize    int
	StartTime     time.Time
	RoomID        string
	RoomPassword  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ContestPatch carries optional field updates; nil means unchanged.
type ContestPatch struct {
	Title         *string
	GameMode      *string
	TeamType      *string
	ViewType      *string
	Map           *string
	EntryFee      *int64
	TotalPrize    *int64
	PerKillReward *int64
	PrizeBreakup  *string
	StartTime     *time.Time
	RoomID        *string
	RoomPassword  *string
}

// TouchesPricing reports whether the patch changes what a seat costs or how
// many players it holds.
func (p ContestPatch) TouchesPricing() bool {
	return p.TeamType != nil || p.EntryFee != nil
}

// TouchesDescriptive reports whether the patch changes anything besides room details.
func (p ContestPatch) TouchesDescriptive() bool {
	return p.Title != nil || p.GameMode != nil || p.TeamType != nil || p.ViewType != nil ||
		p.Map != nil || p.EntryFee != nil || p.TotalPrize != nil || p.PerKillReward != nil ||
		p.PrizeBreakup != nil || p.StartTime != nil
}

// OpeningCredit is the ledger entry written together with a new account.
// A zero Amount writes nothing.
type OpeningCredit struct {
	Amount  int64
	Reason  string
	RefType string
	RefID   string
}

type ContestFilter struct {
	GameMode    string
	TeamType    string
	StartAfter  *time.Time
	StartBefore *time.Time
	Ascending   bool
}

type Player struct {
	DisplayName string
	ExternalID  string
}

type Registration struct {
	ID              string
	ContestID       string
	AccountID       string
	AccountUsername string
	TeamName        string
	Players         []Player
	IdempotencyKey  string
	CreatedAt       time.Time
}

// JoinParams is the commit request for a registration. The store re-checks
// start time, capacity, balance and player uniqueness under lock.
type JoinParams struct {
	ContestID      string
	AccountID      string
	TeamName       string
	Players        []Player
	IdempotencyKey string
	Now            time.Time
}

type JoinResult struct {
	RegistrationID string
	ContestID      string
	Balance        int64
	EntryFee       int64
	LedgerEntryID  string
	Replayed       bool
}

const (
	DirectionCredit = "credit"
	DirectionDebit  = "debit"
)

type LedgerEntry struct {
	ID           string
	AccountID    string
	Direction    string
	Amount       int64
	BalanceAfter int64
	Reason       string
	RefType      string
	RefID        string
	CreatedAt    time.Time
}

type LedgerFilter struct {
	AccountID string
	Reason    string
	From      *time.Time
	To        *time.Time
	// Ascending lists oldest first; the default is newest first.
	Ascending bool
}

type ContestResult struct {
	ContestID    string
	ExternalID   string
	Rank         int
	GameUsername string
	Kills        int
	Prize        int64
}

type Vote struct {
	AccountID string
	GameMode  string
	CreatedAt time.Time
}
