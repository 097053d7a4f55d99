package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"

	appaccount "contest-arena/internal/app/account"
	appadmin "contest-arena/internal/app/admin"
	appcontest "contest-arena/internal/app/contest"
	appvote "contest-arena/internal/app/vote"

	"github.com/rs/zerolog/log"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

type errorBody struct {
	Error       string   `json:"error"`
	Message     string   `json:"message,omitempty"`
	ExternalIDs []string `json:"external_ids,omitempty"`
}

func WriteHTTPError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: code, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeDomainError maps any service error to a status and error body.
// Unknown errors are logged and surface as internal_error.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		dup *appcontest.DuplicatePlayerError
		ve  *jsonschema.ValidationError
	)
	switch {
	case errors.As(err, &dup):
		writeJSON(w, http.StatusBadRequest, errorBody{
			Error:       appcontest.ErrDuplicatePlayer.Error(),
			Message:     appcontest.Message(err),
			ExternalIDs: dup.ExternalIDs,
		})
		return
	case errors.As(err, &ve):
		WriteHTTPError(w, http.StatusBadRequest, "invalid_request", ve.Error())
		return
	case errors.Is(err, errBodyInvalid):
		WriteHTTPError(w, http.StatusBadRequest, "invalid_json", "request body is not valid JSON")
		return
	}
	if status, code, ok := mapContestError(err); ok {
		WriteHTTPError(w, status, code, appcontest.Message(err))
		return
	}
	if status, code, ok := mapOtherError(err); ok {
		WriteHTTPError(w, status, code, "")
		return
	}
	metricInternalErrors.Add(1)
	log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	WriteHTTPError(w, http.StatusInternalServerError, "internal_error", "internal error")
}

func mapContestError(err error) (int, string, bool) {
	badRequest := []error{
		appcontest.ErrInvalidRequest,
		appcontest.ErrAlreadyStarted,
		appcontest.ErrContestFull,
		appcontest.ErrInsufficientBalance,
		appcontest.ErrTeamSizeMismatch,
		appcontest.ErrTeamNameRequired,
		appcontest.ErrDuplicatePlayer,
		appcontest.ErrResultsNotPublished,
	}
	for _, target := range badRequest {
		if errors.Is(err, target) {
			return http.StatusBadRequest, target.Error(), true
		}
	}
	switch {
	case errors.Is(err, appcontest.ErrContestNotFound):
		return http.StatusNotFound, "not_found", true
	case errors.Is(err, appcontest.ErrAccountNotFound):
		return http.StatusNotFound, appcontest.ErrAccountNotFound.Error(), true
	case errors.Is(err, appcontest.ErrConflict):
		return http.StatusConflict, appcontest.ErrConflict.Error(), true
	case errors.Is(err, appcontest.ErrRegularAccountNeeded):
		return http.StatusForbidden, "forbidden", true
	}
	return 0, "", false
}

func mapOtherError(err error) (int, string, bool) {
	table := []struct {
		target error
		status int
	}{
		{appadmin.ErrInvalidRequest, http.StatusBadRequest},
		{appadmin.ErrAccountNotFound, http.StatusNotFound},
		{appadmin.ErrAccountExists, http.StatusConflict},
		{appadmin.ErrAdminExists, http.StatusConflict},
		{appadmin.ErrContestNotFound, http.StatusNotFound},
		{appadmin.ErrContestStarted, http.StatusBadRequest},
		{appadmin.ErrContestNotStarted, http.StatusBadRequest},
		{appadmin.ErrInsufficientFunds, http.StatusBadRequest},
		{appadmin.ErrBalanceLimit, http.StatusBadRequest},
		{appadmin.ErrSeatsSold, http.StatusConflict},
		{appadmin.ErrInvalidResetToken, http.StatusBadRequest},
		{appaccount.ErrInvalidRequest, http.StatusBadRequest},
		{appaccount.ErrAccountNotFound, http.StatusNotFound},
		{appaccount.ErrWrongPassword, http.StatusBadRequest},
		{appaccount.ErrForbidden, http.StatusForbidden},
		{appvote.ErrInvalidGameMode, http.StatusBadRequest},
		{appvote.ErrAlreadyVoted, http.StatusConflict},
		{appvote.ErrForbidden, http.StatusForbidden},
	}
	for _, tt := range table {
		if errors.Is(err, tt.target) {
			return tt.status, tt.target.Error(), true
		}
	}
	return 0, "", false
}
