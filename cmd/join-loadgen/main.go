// Command join-loadgen fires concurrent join requests at one contest and
// reports how they were answered. It is meant for checking capacity and
// balance behaviour under contention against a running server.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"contest-arena/internal/config"
	"contest-arena/internal/logging"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("load .env failed")
	}
	logCfg, err := config.LoadLog()
	if err != nil {
		panic(err)
	}
	logging.Init(logCfg)
	cfg, err := config.LoadLoadgen()
	if err != nil {
		log.Fatal().Err(err).Msg("load loadgen config failed")
	}
	if cfg.ContestID == "" || len(cfg.Tokens) == 0 {
		log.Fatal().Msg("LOADGEN_CONTEST_ID and LOADGEN_TOKENS are required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sum, err := run(ctx, cfg, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("loadgen failed")
	}
	ev := log.Info().Int("requests", sum.Total).Int("joined", sum.Joined).Int("replayed", sum.Replayed)
	for kind, n := range sum.Rejected {
		ev = ev.Int("rejected_"+kind, n)
	}
	ev.Dur("elapsed", sum.Elapsed).Msg("loadgen finished")
}
