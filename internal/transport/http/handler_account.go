package httptransport

import (
	"net/http"

	appaccount "contest-arena/internal/app/account"
	appvote "contest-arena/internal/app/vote"

	"github.com/go-chi/chi/v5"
)

type AccountHandlers struct {
	accounts *appaccount.Service
	votes    *appvote.Service
}

func NewAccountHandlers(accounts *appaccount.Service, votes *appvote.Service) *AccountHandlers {
	return &AccountHandlers{accounts: accounts, votes: votes}
}

func (h *AccountHandlers) Me() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, err := h.accounts.Me(r.Context(), principal(r))
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func (h *AccountHandlers) Transactions() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, offset := ParsePagination(r)
		resp, err := h.accounts.Transactions(r.Context(), principal(r), limit, offset)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func (h *AccountHandlers) ChangePassword() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			CurrentPassword string `json:"current_password"`
			NewPassword     string `json:"new_password"`
		}
		if err := decodeJSON(r, &body); err != nil {
			writeDomainError(w, r, err)
			return
		}
		if err := h.accounts.ChangePassword(r.Context(), principal(r), body.CurrentPassword, body.NewPassword); err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	}
}

func (h *AccountHandlers) VoteStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, err := h.votes.Status(r.Context(), principal(r), chi.URLParam(r, "game_mode"))
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func (h *AccountHandlers) CastVote() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, err := h.votes.Cast(r.Context(), principal(r), chi.URLParam(r, "game_mode"))
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, resp)
	}
}
