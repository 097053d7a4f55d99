package httptransport

import (
	"context"
	"net/http"
	"time"

	appadmin "contest-arena/internal/app/admin"

	"github.com/go-chi/chi/v5"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type AdminHandlers struct {
	svc   *appadmin.Service
	store pinger
}

func NewAdminHandlers(svc *appadmin.Service, st pinger) *AdminHandlers {
	return &AdminHandlers{svc: svc, store: st}
}

func (h *AdminHandlers) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.store.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false, "db": "down"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "db": "up"})
	}
}

func (h *AdminHandlers) Accounts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, offset := ParsePagination(r)
		resp, err := h.svc.ListAccounts(r.Context(), r.URL.Query().Get("search"), limit, offset)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func (h *AdminHandlers) Account() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, err := h.svc.GetAccount(r.Context(), chi.URLParam(r, "username"))
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func (h *AdminHandlers) CreateAccount() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body appadmin.CreateAccountInput
		if err := decodeJSON(r, &body); err != nil {
			writeDomainError(w, r, err)
			return
		}
		resp, err := h.svc.CreateAccount(r.Context(), principal(r), body)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, resp)
	}
}

func (h *AdminHandlers) CreateAdmin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body appadmin.CreateAdminInput
		if err := decodeJSON(r, &body); err != nil {
			writeDomainError(w, r, err)
			return
		}
		resp, err := h.svc.CreateAdmin(r.Context(), body)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, resp)
	}
}

func (h *AdminHandlers) Balance() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body appadmin.BalanceInput
		if err := decodeJSON(r, &body); err != nil {
			writeDomainError(w, r, err)
			return
		}
		resp, err := h.svc.ManageBalance(r.Context(), principal(r), body)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func (h *AdminHandlers) Transactions() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, offset := ParsePagination(r)
		q := appadmin.TransactionsQuery{
			Username: r.URL.Query().Get("username"),
			Reason:   r.URL.Query().Get("reason"),
			Limit:    limit,
			Offset:   offset,
		}
		if v := r.URL.Query().Get("from"); v != "" {
			if t, err := time.Parse(time.RFC3339, v); err == nil {
				q.From = &t
			}
		}
		if v := r.URL.Query().Get("to"); v != "" {
			if t, err := time.Parse(time.RFC3339, v); err == nil {
				q.To = &t
			}
		}
		resp, err := h.svc.Transactions(r.Context(), q)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// ForgotPassword always answers 200 so callers cannot enumerate admins.
func (h *AdminHandlers) ForgotPassword() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			EmailOrMobile string `json:"email_or_mobile"`
		}
		if err := decodeJSON(r, &body); err != nil {
			writeDomainError(w, r, err)
			return
		}
		if err := h.svc.ForgotPassword(r.Context(), body.EmailOrMobile); err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	}
}

func (h *AdminHandlers) ResetPassword() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Password string `json:"password"`
		}
		if err := decodeJSON(r, &body); err != nil {
			writeDomainError(w, r, err)
			return
		}
		if err := h.svc.ResetPassword(r.Context(), chi.URLParam(r, "token"), body.Password); err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	}
}

func (h *AdminHandlers) CreateContest() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body appadmin.ContestInput
		if err := decodeJSON(r, &body); err != nil {
			writeDomainError(w, r, err)
			return
		}
		resp, err := h.svc.CreateContest(r.Context(), body)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, resp)
	}
}

func (h *AdminHandlers) UpdateContest() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body appadmin.ContestUpdate
		if err := decodeJSON(r, &body); err != nil {
			writeDomainError(w, r, err)
			return
		}
		resp, err := h.svc.UpdateContest(r.Context(), chi.URLParam(r, "id"), body)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func (h *AdminHandlers) SetRoom() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body appadmin.RoomInput
		if err := decodeJSON(r, &body); err != nil {
			writeDomainError(w, r, err)
			return
		}
		resp, err := h.svc.SetRoom(r.Context(), chi.URLParam(r, "id"), body)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func (h *AdminHandlers) PublishResults() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Results []appadmin.ResultInput `json:"results"`
		}
		if err := decodeJSON(r, &body); err != nil {
			writeDomainError(w, r, err)
			return
		}
		if err := h.svc.PublishResults(r.Context(), chi.URLParam(r, "id"), body.Results); err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "count": len(body.Results)})
	}
}

func (h *AdminHandlers) Players() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, err := h.svc.Players(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
