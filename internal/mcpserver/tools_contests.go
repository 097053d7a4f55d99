package mcpserver

import (
	"context"
	"encoding/json"

	appcontest "contest-arena/internal/app/contest"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerContestTools() {
	s.mcpServer.AddTool(
		mcp.NewTool(
			"list_contests",
			mcp.WithDescription("List contests with optional filters"),
			mcp.WithString("token", mcp.Required(), mcp.Description("Player bearer token")),
			mcp.WithString("status", mcp.Description("upcoming|live|finished")),
			mcp.WithString("game_mode", mcp.Description("battle_royale|clash_squad|lone_wolf")),
			mcp.WithString("team_type", mcp.Description("solo|duo|squad")),
			mcp.WithNumber("limit", mcp.Description("Page size, default 50, max 200")),
			mcp.WithNumber("offset", mcp.Description("Page offset, default 0")),
		),
		s.handleListContests,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"get_contest",
			mcp.WithDescription("Get one contest; room details are shown only to joined players"),
			mcp.WithString("token", mcp.Required(), mcp.Description("Player bearer token")),
			mcp.WithString("contest_id", mcp.Required(), mcp.Description("Contest id")),
		),
		s.handleGetContest,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"check_participants",
			mcp.WithDescription("Report which external player ids are already registered in a contest"),
			mcp.WithString("token", mcp.Required(), mcp.Description("Player bearer token")),
			mcp.WithString("contest_id", mcp.Required(), mcp.Description("Contest id")),
			mcp.WithArray("external_ids", mcp.Required(), mcp.Description("1 to 4 numeric in-game ids"), mcp.WithStringItems()),
		),
		s.handleCheckParticipants,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"join_contest",
			mcp.WithDescription("Register a team and pay the entry fee"),
			mcp.WithString("token", mcp.Required(), mcp.Description("Player bearer token")),
			mcp.WithString("contest_id", mcp.Required(), mcp.Description("Contest id")),
			mcp.WithString("team_name", mcp.Description("Required for duo and squad")),
			mcp.WithArray("players", mcp.Required(), mcp.Description("Players as {display_name, external_id}"),
				mcp.Items(map[string]any{
					"type":     "object",
					"required": []string{"display_name", "external_id"},
					"properties": map[string]any{
						"display_name": map[string]any{"type": "string"},
						"external_id":  map[string]any{"type": "string"},
					},
				}),
			),
			mcp.WithString("idempotency_key", mcp.Description("Repeat-safe key; a retried call returns the first result")),
		),
		s.handleJoinContest,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"get_balance",
			mcp.WithDescription("Get the caller's profile and wallet balance"),
			mcp.WithString("token", mcp.Required(), mcp.Description("Player bearer token")),
		),
		s.handleGetBalance,
	)
}

func (s *Server) handleListContests(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, errResp := s.authPlayer(ctx, request.GetString("token", ""))
	if errResp != nil {
		return errResp, nil
	}
	limit, offset := clampPagination(request.GetInt("limit", defaultPageLimit), request.GetInt("offset", 0), maxPageLimit)
	resp, err := s.contests.List(ctx, p, appcontest.ListQuery{
		Status:   request.GetString("status", ""),
		GameMode: request.GetString("game_mode", ""),
		TeamType: request.GetString("team_type", ""),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		return mapDomainError(err), nil
	}
	return toolResult(resp), nil
}

func (s *Server) handleGetContest(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, errResp := s.authPlayer(ctx, request.GetString("token", ""))
	if errResp != nil {
		return errResp, nil
	}
	resp, err := s.contests.Get(ctx, p, request.GetString("contest_id", ""))
	if err != nil {
		return mapDomainError(err), nil
	}
	return toolResult(resp), nil
}

func (s *Server) handleCheckParticipants(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if _, errResp := s.authPlayer(ctx, request.GetString("token", "")); errResp != nil {
		return errResp, nil
	}
	ids := request.GetStringSlice("external_ids", nil)
	resp, err := s.contests.CheckParticipants(ctx, request.GetString("contest_id", ""), ids)
	if err != nil {
		return mapDomainError(err), nil
	}
	return toolResult(resp), nil
}

func (s *Server) handleJoinContest(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, errResp := s.authPlayer(ctx, request.GetString("token", ""))
	if errResp != nil {
		return errResp, nil
	}
	var players []appcontest.PlayerInput
	raw, err := json.Marshal(request.GetArguments()["players"])
	if err != nil || json.Unmarshal(raw, &players) != nil {
		return toolError("invalid_request", "players must be a list of {display_name, external_id}"), nil
	}
	resp, err := s.contests.Join(ctx, p, appcontest.JoinInput{
		ContestID:      request.GetString("contest_id", ""),
		TeamName:       request.GetString("team_name", ""),
		Players:        players,
		IdempotencyKey: request.GetString("idempotency_key", ""),
	})
	if err != nil {
		return mapDomainError(err), nil
	}
	return toolResult(resp), nil
}

func (s *Server) handleGetBalance(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, errResp := s.authPlayer(ctx, request.GetString("token", ""))
	if errResp != nil {
		return errResp, nil
	}
	resp, err := s.accounts.Me(ctx, p)
	if err != nil {
		return mapDomainError(err), nil
	}
	return toolResult(resp), nil
}
