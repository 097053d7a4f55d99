package mcpserver

import (
	"errors"
	"fmt"

	appaccount "contest-arena/internal/app/account"
	appcontest "contest-arena/internal/app/contest"

	"github.com/mark3labs/mcp-go/mcp"
)

func toolResult(data any) *mcp.CallToolResult {
	return mcp.NewToolResultStructuredOnly(data)
}

func toolError(code, message string) *mcp.CallToolResult {
	return toolErrorWith(code, message, nil)
}

func toolErrorWith(code, message string, extra map[string]any) *mcp.CallToolResult {
	body := map[string]any{
		"code":    code,
		"message": message,
	}
	for k, v := range extra {
		body[k] = v
	}
	result := mcp.NewToolResultStructured(
		map[string]any{"error": body},
		fmt.Sprintf("%s: %s", code, message),
	)
	result.IsError = true
	return result
}

func mapDomainError(err error) *mcp.CallToolResult {
	var dup *appcontest.DuplicatePlayerError
	switch {
	case err == nil:
		return toolError("internal_error", "unknown error")
	case errors.As(err, &dup):
		return toolErrorWith(appcontest.ErrDuplicatePlayer.Error(), appcontest.Message(err), map[string]any{"external_ids": dup.ExternalIDs})
	case errors.Is(err, appcontest.ErrContestNotFound):
		return toolError("not_found", appcontest.Message(err))
	case errors.Is(err, appcontest.ErrAccountNotFound),
		errors.Is(err, appaccount.ErrAccountNotFound):
		return toolError("account_not_found", "account not found")
	case errors.Is(err, appcontest.ErrInvalidRequest),
		errors.Is(err, appcontest.ErrAlreadyStarted),
		errors.Is(err, appcontest.ErrContestFull),
		errors.Is(err, appcontest.ErrInsufficientBalance),
		errors.Is(err, appcontest.ErrTeamSizeMismatch),
		errors.Is(err, appcontest.ErrTeamNameRequired),
		errors.Is(err, appcontest.ErrConflict),
		errors.Is(err, appcontest.ErrResultsNotPublished),
		errors.Is(err, appcontest.ErrRegularAccountNeeded):
		return toolError(kindOf(err), appcontest.Message(err))
	default:
		return toolError("internal_error", "internal error")
	}
}

// kindOf returns the sentinel text at the root of a wrapped error chain.
func kindOf(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}
