package mcpserver

import (
	"context"
	"errors"
	"net/http"
	"strings"

	appaccount "contest-arena/internal/app/account"
	appcontest "contest-arena/internal/app/contest"
	"contest-arena/internal/auth"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"
)

// Server exposes the contest catalog and join flow as MCP tools. Tools that
// act for a player take that player's bearer token as the "token" argument.
type Server struct {
	contests *appcontest.Service
	accounts *appaccount.Service
	verifier auth.Verifier

	mcpServer  *server.MCPServer
	httpServer *server.StreamableHTTPServer
}

func New(contests *appcontest.Service, accounts *appaccount.Service, verifier auth.Verifier) *Server {
	mcpSrv := server.NewMCPServer(
		"contest-arena",
		"0.1.0",
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	s := &Server{
		contests:   contests,
		accounts:   accounts,
		verifier:   verifier,
		mcpServer:  mcpSrv,
		httpServer: server.NewStreamableHTTPServer(mcpSrv, server.WithStateLess(true), server.WithDisableStreaming(true)),
	}
	s.registerContestTools()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.httpServer
}

func (s *Server) authPlayer(ctx context.Context, token string) (auth.Principal, *mcp.CallToolResult) {
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Principal{}, toolError("invalid_request", "token is required")
	}
	p, err := s.verifier.Verify(ctx, token)
	if err != nil {
		if errors.Is(err, auth.ErrUnauthenticated) {
			return auth.Principal{}, toolError("unauthorized", "invalid token")
		}
		log.Error().Err(err).Msg("mcp token verification failed")
		return auth.Principal{}, toolError("internal_error", "internal error")
	}
	if p.Kind != auth.KindRegular {
		return auth.Principal{}, toolError("forbidden", "a player token is required")
	}
	return p, nil
}
