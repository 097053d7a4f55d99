package store

import (
	"context"
	"time"
)

type AccountRepository interface {
	CreateAccount(ctx context.Context, a Account) (*Account, error)
	CreateFundedAccount(ctx context.Context, a Account, credit OpeningCredit) (*Account, error)
	GetAccount(ctx context.Context, id string) (*Account, error)
	GetAccountByUsername(ctx context.Context, username string) (*Account, error)
	GetAccountByAPIKeyHash(ctx context.Context, hash string) (*Account, error)
	ListAccounts(ctx context.Context, search string, limit, offset int) ([]Account, error)
	UpdateAccountPassword(ctx context.Context, id, passwordHash string) error
	AdjustBalance(ctx context.Context, accountID string, amount int64, direction, reason, refType, refID string) (int64, error)
}

type LedgerRepository interface {
	ListLedgerEntries(ctx context.Context, f LedgerFilter, limit, offset int) ([]LedgerEntry, error)
}

type ContestRepository interface {
	CreateContest(ctx context.Context, c Contest) (*Contest, error)
	GetContest(ctx context.Context, id string) (*Contest, error)
	ListContests(ctx context.Context, f ContestFilter, limit, offset int) ([]Contest, error)
	UpdateContest(ctx context.Context, id string, patch ContestPatch, now time.Time) (*Contest, error)
	ReplaceContestResults(ctx context.Context, contestID string, results []ContestResult) error
	ListContestResults(ctx context.Context, contestID string) ([]ContestResult, error)
}

type RegistrationRepository interface {
	JoinContest(ctx context.Context, p JoinParams) (*JoinResult, error)
	GetRegistrationByIdempotencyKey(ctx context.Context, accountID, key string) (*Registration, error)
	FindRegisteredExternalIDs(ctx context.Context, contestID string, externalIDs []string) ([]string, error)
	ListRegistrations(ctx context.Context, contestID string) ([]Registration, error)
	ListContestsByAccount(ctx context.Context, accountID string) ([]Contest, error)
}

type AdminRepository interface {
	CreateAdmin(ctx context.Context, a Admin) (*Admin, error)
	GetAdminByAPIKeyHash(ctx context.Context, hash string) (*Admin, error)
	GetAdminByEmailOrMobile(ctx context.Context, v string) (*Admin, error)
	SetAdminResetToken(ctx context.Context, adminID, tokenHash string, expiresAt time.Time) error
	ResetAdminPassword(ctx context.Context, tokenHash, passwordHash string, now time.Time) error
	PurgeExpiredResetTokens(ctx context.Context, now time.Time) (int64, error)
}

type VoteRepository interface {
	CastVote(ctx context.Context, accountID, gameMode string) error
	CountVotes(ctx context.Context, gameMode string) (int64, error)
	HasVoted(ctx context.Context, accountID, gameMode string) (bool, error)
}

// Repository is implemented by the Postgres Store and by memstore.
type Repository interface {
	Ping(ctx context.Context) error
	AccountRepository
	LedgerRepository
	ContestRepository
	RegistrationRepository
	AdminRepository
	VoteRepository
}

var _ Repository = (*Store)(nil)
