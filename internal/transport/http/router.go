package httptransport

import (
	"expvar"
	"fmt"
	"net/http"
	"sort"
	"strings"

	appaccount "contest-arena/internal/app/account"
	appadmin "contest-arena/internal/app/admin"
	appcontest "contest-arena/internal/app/contest"
	appvote "contest-arena/internal/app/vote"
	"contest-arena/internal/auth"
	"contest-arena/internal/store"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

type Deps struct {
	Store    store.Repository
	Verifier auth.Verifier
	Contests *appcontest.Service
	Accounts *appaccount.Service
	Votes    *appvote.Service
	Admin    *appadmin.Service
	// MCP is mounted at /mcp when set.
	MCP http.Handler
}

func NewRouter(d Deps) *chi.Mux {
	contestHandlers := NewContestHandlers(d.Contests)
	accountHandlers := NewAccountHandlers(d.Accounts, d.Votes)
	adminHandlers := NewAdminHandlers(d.Admin, d.Store)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.With(APILogMiddleware()).Get("/healthz", adminHandlers.Health())
	if d.MCP != nil {
		r.With(APILogMiddleware()).MethodFunc(http.MethodOptions, "/mcp", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Allow", "POST, GET, DELETE, OPTIONS")
			w.WriteHeader(http.StatusNoContent)
		})
		r.With(APILogMiddleware()).Method(http.MethodPost, "/mcp", d.MCP)
		r.With(APILogMiddleware()).Method(http.MethodGet, "/mcp", d.MCP)
		r.With(APILogMiddleware()).Method(http.MethodDelete, "/mcp", d.MCP)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(APILogMiddleware())

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRegular(d.Verifier))
			r.Use(PrincipalLogMiddleware)

			r.Get("/contests", contestHandlers.List())
			r.Get("/contests/mine", contestHandlers.Mine())
			r.Get("/contests/{id}", contestHandlers.Get())
			r.Get("/contests/{id}/participants", contestHandlers.Participants())
			r.Get("/contests/{id}/leaderboard", contestHandlers.Leaderboard())
			r.Post("/contests/{id}/check-participants", contestHandlers.CheckParticipants())
			r.Post("/contests/{id}/join", contestHandlers.Join())

			r.Get("/me", accountHandlers.Me())
			r.Get("/me/transactions", accountHandlers.Transactions())
			r.Post("/me/password", accountHandlers.ChangePassword())

			r.Get("/votes/{game_mode}", accountHandlers.VoteStatus())
			r.Post("/votes/{game_mode}", accountHandlers.CastVote())
		})

		r.Route("/admin", func(r chi.Router) {
			r.Post("/forgot-password", adminHandlers.ForgotPassword())
			r.Post("/reset-password/{token}", adminHandlers.ResetPassword())

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireAdmin(d.Verifier))
				r.Use(PrincipalLogMiddleware)
				r.Use(BodyCaptureMiddleware(4096))

				r.Get("/accounts", adminHandlers.Accounts())
				r.Post("/accounts", adminHandlers.CreateAccount())
				r.Get("/accounts/{username}", adminHandlers.Account())
				r.Post("/admins", adminHandlers.CreateAdmin())
				r.Post("/balance", adminHandlers.Balance())
				r.Get("/transactions", adminHandlers.Transactions())

				r.Get("/contests", contestHandlers.List())
				r.Post("/contests", adminHandlers.CreateContest())
				r.Get("/contests/{id}", contestHandlers.Get())
				r.Put("/contests/{id}", adminHandlers.UpdateContest())
				r.Put("/contests/{id}/room", adminHandlers.SetRoom())
				r.Post("/contests/{id}/results", adminHandlers.PublishResults())
				r.Get("/contests/{id}/players", adminHandlers.Players())

				r.Get("/debug/vars", expvar.Handler().ServeHTTP)
			})
		})
	})
	return r
}

func LogRoutes(r chi.Router) {
	type routeDef struct {
		Method string
		Path   string
	}
	routes := make([]routeDef, 0, 32)
	err := chi.Walk(r, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		routes = append(routes, routeDef{Method: method, Path: route})
		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("walk routes failed")
		return
	}
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path == routes[j].Path {
			return routes[i].Method < routes[j].Method
		}
		return routes[i].Path < routes[j].Path
	})
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Registered routes (%d):\n", len(routes)))
	for _, rt := range routes {
		b.WriteString(fmt.Sprintf("  %-6s %s\n", rt.Method, rt.Path))
	}
	fmt.Print(b.String())
}
