package store

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrContestStarted      = errors.New("contest already started")
	ErrContestFull         = errors.New("contest full")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrConflict            = errors.New("write conflict")
	ErrDuplicateKey        = errors.New("duplicate key")
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrBalanceLimit        = errors.New("balance limit exceeded")
	ErrAccountNotFound     = errors.New("account not found")
	ErrSeatsSold           = errors.New("contest has registrations")
)

// DuplicatePlayersError lists external ids that already hold a seat in the
// contest.
type DuplicatePlayersError struct {
	ExternalIDs []string
}

func (e *DuplicatePlayersError) Error() string {
	return fmt.Sprintf("players already registered: %s", strings.Join(e.ExternalIDs, ","))
}
