package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"contest-arena/internal/store"
	"contest-arena/internal/store/memstore"
)

func newVerifier(t *testing.T) (*StoreVerifier, string) {
	t.Helper()
	st := memstore.New()
	a, err := st.CreateAccount(context.Background(), store.Account{Username: "player1", Mobile: "1", APIKeyHash: store.HashAPIKey("acct-token")})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	if _, err := st.CreateAdmin(context.Background(), store.Admin{Username: "ops", Email: "ops@x", Mobile: "2", APIKeyHash: store.HashAPIKey("admin-token")}); err != nil {
		t.Fatalf("create admin: %v", err)
	}
	return NewStoreVerifier(st, "static-key"), a.ID
}

func TestVerifyResolvesKinds(t *testing.T) {
	v, accountID := newVerifier(t)
	tests := []struct {
		name  string
		token string
		kind  Kind
		err   error
	}{
		{name: "account token", token: "acct-token", kind: KindRegular},
		{name: "admin token", token: "admin-token", kind: KindAdmin},
		{name: "static admin key", token: "static-key", kind: KindAdmin},
		{name: "unknown", token: "nope", err: ErrUnauthenticated},
		{name: "empty", token: "", err: ErrUnauthenticated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := v.Verify(context.Background(), tt.token)
			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Fatalf("err = %v, want %v", err, tt.err)
				}
				return
			}
			if err != nil {
				t.Fatalf("verify: %v", err)
			}
			if p.Kind != tt.kind {
				t.Fatalf("kind = %s, want %s", p.Kind, tt.kind)
			}
			if tt.kind == KindRegular && p.ID != accountID {
				t.Fatalf("id = %s, want %s", p.ID, accountID)
			}
		})
	}
}

func TestRequireMiddlewareStatusCodes(t *testing.T) {
	v, _ := newVerifier(t)
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, found := FromContext(r.Context()); !found {
			t.Fatalf("principal missing from context")
		}
		w.WriteHeader(http.StatusNoContent)
	})
	tests := []struct {
		name   string
		mw     func(http.Handler) http.Handler
		token  string
		status int
	}{
		{name: "regular ok", mw: RequireRegular(v), token: "acct-token", status: http.StatusNoContent},
		{name: "regular missing", mw: RequireRegular(v), token: "", status: http.StatusUnauthorized},
		{name: "admin on regular route", mw: RequireRegular(v), token: "admin-token", status: http.StatusForbidden},
		{name: "regular on admin route", mw: RequireAdmin(v), token: "acct-token", status: http.StatusForbidden},
		{name: "admin ok", mw: RequireAdmin(v), token: "static-key", status: http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rec := httptest.NewRecorder()
			tt.mw(ok).ServeHTTP(rec, req)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}
}
