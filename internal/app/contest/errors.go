package contest

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidRequest       = errors.New("invalid_request")
	ErrContestNotFound      = errors.New("not_found")
	ErrAccountNotFound      = errors.New("account_not_found")
	ErrAlreadyStarted       = errors.New("already_started")
	ErrContestFull          = errors.New("contest_full")
	ErrInsufficientBalance  = errors.New("insufficient_balance")
	ErrTeamSizeMismatch     = errors.New("team_size_mismatch")
	ErrTeamNameRequired     = errors.New("team_name_required")
	ErrDuplicatePlayer      = errors.New("duplicate_player")
	ErrConflict             = errors.New("conflict")
	ErrResultsNotPublished  = errors.New("results_not_published")
	ErrRegularAccountNeeded = errors.New("forbidden")

	ErrIdempotencyKeyReused = fmt.Errorf("%w: idempotency key belongs to another contest", ErrInvalidRequest)
)

// DuplicatePlayerError carries the external ids that collided, either with
// an existing registration or inside the same request.
type DuplicatePlayerError struct {
	ExternalIDs []string
}

func (e *DuplicatePlayerError) Error() string {
	return ErrDuplicatePlayer.Error() + ": " + strings.Join(e.ExternalIDs, ",")
}

func (e *DuplicatePlayerError) Unwrap() error {
	return ErrDuplicatePlayer
}

// Message returns the terse user-facing text for a domain error kind.
func Message(err error) string {
	var dup *DuplicatePlayerError
	switch {
	case errors.As(err, &dup):
		return "players already registered for this contest: " + strings.Join(dup.ExternalIDs, ", ")
	case errors.Is(err, ErrContestNotFound):
		return "contest not found"
	case errors.Is(err, ErrAccountNotFound):
		return "account not found"
	case errors.Is(err, ErrAlreadyStarted):
		return "contest has already started"
	case errors.Is(err, ErrContestFull):
		return "contest is full"
	case errors.Is(err, ErrInsufficientBalance):
		return "insufficient balance"
	case errors.Is(err, ErrTeamSizeMismatch):
		return "number of players does not match the contest team size"
	case errors.Is(err, ErrTeamNameRequired):
		return "team name is required"
	case errors.Is(err, ErrConflict):
		return "contest is busy, please retry"
	case errors.Is(err, ErrResultsNotPublished):
		return "results are not published yet"
	case errors.Is(err, ErrRegularAccountNeeded):
		return "a player account is required"
	case errors.Is(err, ErrIdempotencyKeyReused):
		return "idempotency key was already used for another contest"
	case errors.Is(err, ErrInvalidRequest):
		return "invalid request"
	default:
		return "internal error"
	}
}
