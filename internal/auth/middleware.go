package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"
)

// RequireRegular admits only website accounts.
func RequireRegular(v Verifier) func(http.Handler) http.Handler {
	return require(v, KindRegular)
}

func RequireAdmin(v Verifier) func(http.Handler) http.Handler {
	return require(v, KindAdmin)
}

func require(v Verifier, kind Kind) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := v.Verify(r.Context(), BearerToken(r))
			if err != nil {
				if !errors.Is(err, ErrUnauthenticated) {
					log.Error().Err(err).Msg("verify token failed")
					writeError(w, http.StatusInternalServerError, "internal_error")
					return
				}
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			if p.Kind != kind {
				writeError(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

func writeError(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": code})
}
