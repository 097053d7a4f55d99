// Package auth resolves bearer tokens to principals. Token issuance lives in
// the admin service; this package only verifies.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"contest-arena/internal/store"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
)

type Kind int

const (
	KindRegular Kind = iota + 1
	KindAdmin
)

func (k Kind) String() string {
	switch k {
	case KindRegular:
		return "regular"
	case KindAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

// Principal is the authenticated caller. For KindRegular, ID is the account id.
type Principal struct {
	Kind Kind
	ID   string
	Name string
}

func (p Principal) IsAdmin() bool { return p.Kind == KindAdmin }

type Verifier interface {
	Verify(ctx context.Context, token string) (Principal, error)
}

type lookup interface {
	GetAccountByAPIKeyHash(ctx context.Context, hash string) (*store.Account, error)
	GetAdminByAPIKeyHash(ctx context.Context, hash string) (*store.Admin, error)
}

// StoreVerifier accepts the static admin key, admin tokens and account tokens.
type StoreVerifier struct {
	store    lookup
	adminKey string
}

func NewStoreVerifier(st lookup, adminKey string) *StoreVerifier {
	return &StoreVerifier{store: st, adminKey: adminKey}
}

func (v *StoreVerifier) Verify(ctx context.Context, token string) (Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Principal{}, ErrUnauthenticated
	}
	if v.adminKey != "" && subtle.ConstantTimeCompare([]byte(token), []byte(v.adminKey)) == 1 {
		return Principal{Kind: KindAdmin, ID: "root", Name: "root"}, nil
	}
	hash := store.HashAPIKey(token)
	if a, err := v.store.GetAccountByAPIKeyHash(ctx, hash); err == nil {
		return Principal{Kind: KindRegular, ID: a.ID, Name: a.Username}, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return Principal{}, err
	}
	if adm, err := v.store.GetAdminByAPIKeyHash(ctx, hash); err == nil {
		return Principal{Kind: KindAdmin, ID: adm.ID, Name: adm.Username}, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return Principal{}, err
	}
	return Principal{}, ErrUnauthenticated
}

type principalContextKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(Principal)
	return p, ok
}

// BearerToken extracts the token from Authorization or X-Admin-Key.
func BearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	prefix := "Bearer "
	if len(auth) > len(prefix) && strings.EqualFold(auth[:len(prefix)], prefix) {
		return strings.TrimSpace(auth[len(prefix):])
	}
	return strings.TrimSpace(r.Header.Get("X-Admin-Key"))
}
