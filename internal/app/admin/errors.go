package admin

import "errors"

var (
	ErrInvalidRequest    = errors.New("invalid_request")
	ErrAccountNotFound   = errors.New("account_not_found")
	ErrAccountExists     = errors.New("account_exists")
	ErrAdminExists       = errors.New("admin_exists")
	ErrContestNotFound   = errors.New("not_found")
	ErrContestStarted    = errors.New("already_started")
	ErrContestNotStarted = errors.New("contest_not_started")
	ErrInsufficientFunds = errors.New("insufficient_balance")
	ErrBalanceLimit      = errors.New("balance_limit_exceeded")
	ErrSeatsSold         = errors.New("seats_sold")
	ErrInvalidResetToken = errors.New("invalid_reset_token")
)
