package httptransport

import (
	"net/http"
	"strings"

	appcontest "contest-arena/internal/app/contest"

	"github.com/go-chi/chi/v5"
)

type ContestHandlers struct {
	svc *appcontest.Service
}

func NewContestHandlers(svc *appcontest.Service) *ContestHandlers {
	return &ContestHandlers{svc: svc}
}

func (h *ContestHandlers) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, offset := ParsePagination(r)
		q := r.URL.Query()
		resp, err := h.svc.List(r.Context(), principal(r), appcontest.ListQuery{
			Status:   q.Get("status"),
			GameMode: q.Get("game_mode"),
			TeamType: q.Get("team_type"),
			Limit:    limit,
			Offset:   offset,
		})
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func (h *ContestHandlers) Mine() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, err := h.svc.MyContests(r.Context(), principal(r))
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func (h *ContestHandlers) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, err := h.svc.Get(r.Context(), principal(r), chi.URLParam(r, "id"))
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func (h *ContestHandlers) Participants() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, err := h.svc.Participants(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func (h *ContestHandlers) Leaderboard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, err := h.svc.Leaderboard(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func (h *ContestHandlers) CheckParticipants() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			ExternalIDs []string `json:"external_ids"`
		}
		if err := decodeValidated(r, checkSchema, &body); err != nil {
			writeDomainError(w, r, err)
			return
		}
		resp, err := h.svc.CheckParticipants(r.Context(), chi.URLParam(r, "id"), body.ExternalIDs)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// Join accepts the idempotency key either in the body or in the
// Idempotency-Key header; the header wins.
func (h *ContestHandlers) Join() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			TeamName       string                   `json:"team_name"`
			Players        []appcontest.PlayerInput `json:"players"`
			IdempotencyKey string                   `json:"idempotency_key"`
		}
		if err := decodeValidated(r, joinSchema, &body); err != nil {
			writeDomainError(w, r, err)
			return
		}
		key := body.IdempotencyKey
		if v := strings.TrimSpace(r.Header.Get("Idempotency-Key")); v != "" {
			key = v
		}
		resp, err := h.svc.Join(r.Context(), principal(r), appcontest.JoinInput{
			ContestID:      chi.URLParam(r, "id"),
			TeamName:       body.TeamName,
			Players:        body.Players,
			IdempotencyKey: key,
		})
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		status := http.StatusCreated
		if resp.Replayed {
			status = http.StatusOK
		}
		writeJSON(w, status, resp)
	}
}
