package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"contest-arena/internal/config"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

type summary struct {
	Total    int
	Joined   int
	Replayed int
	Rejected map[string]int
	Elapsed  time.Duration
}

type joinBody struct {
	TeamName string       `json:"team_name,omitempty"`
	Players  []joinPlayer `json:"players"`
}

type joinPlayer struct {
	DisplayName string `json:"display_name"`
	ExternalID  string `json:"external_id"`
}

// run sends cfg.Requests solo join requests, cfg.Concurrency at a time.
// Request i uses token i mod len(tokens) and external id IDBase+i.
func run(ctx context.Context, cfg config.LoadgenConfig, client *http.Client) (summary, error) {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	sum := summary{Rejected: map[string]int{}}
	var mu sync.Mutex
	start := time.Now()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Concurrency)
	for i := 0; i < cfg.Requests; i++ {
		g.Go(func() error {
			token := cfg.Tokens[i%len(cfg.Tokens)]
			extID := strconv.FormatInt(cfg.IDBase+int64(i), 10)
			status, kind, err := joinOnce(ctx, client, cfg.BaseURL, cfg.ContestID, token, fmt.Sprintf("lg-%d", i), extID)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			sum.Total++
			switch {
			case status == http.StatusCreated:
				sum.Joined++
			case status == http.StatusOK:
				sum.Replayed++
			default:
				sum.Rejected[kind]++
			}
			return nil
		})
	}
	err := g.Wait()
	sum.Elapsed = time.Since(start)
	return sum, err
}

func joinOnce(ctx context.Context, client *http.Client, baseURL, contestID, token, key, externalID string) (int, string, error) {
	body, err := json.Marshal(joinBody{Players: []joinPlayer{{DisplayName: "lg-" + externalID, ExternalID: externalID}}})
	if err != nil {
		return 0, "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/api/contests/"+contestID+"/join", bytes.NewReader(body))
	if err != nil {
		return 0, "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Idempotency-Key", key)
	resp, err := client.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	var out struct {
		Error string `json:"error"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	if resp.StatusCode >= 500 {
		log.Warn().Int("status", resp.StatusCode).Str("error", out.Error).Msg("join request failed")
	}
	return resp.StatusCode, out.Error, nil
}
