package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appaccount "contest-arena/internal/app/account"
	appadmin "contest-arena/internal/app/admin"
	appcontest "contest-arena/internal/app/contest"
	appvote "contest-arena/internal/app/vote"
	"contest-arena/internal/auth"
	"contest-arena/internal/config"
	"contest-arena/internal/events"
	"contest-arena/internal/janitor"
	"contest-arena/internal/logging"
	"contest-arena/internal/mcpserver"
	"contest-arena/internal/notify"
	"contest-arena/internal/store"
	"contest-arena/internal/store/memstore"
	httptransport "contest-arena/internal/transport/http"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("load .env failed")
	}
	cfg, err := config.LoadRuntime()
	if err != nil {
		log.Fatal().Err(err).Msg("load config failed")
	}
	logging.Init(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, closeStore := openStore(ctx, cfg.Server)
	defer closeStore()

	pub := events.New(cfg.Server.KafkaBrokers, cfg.Server.KafkaTopic)
	defer func() {
		if err := pub.Close(); err != nil {
			log.Error().Err(err).Msg("close event publisher failed")
		}
	}()

	var mailer notify.Mailer = notify.LogMailer{}
	if cfg.Server.MailWebhookURL != "" {
		mailer = notify.NewWebhookMailer(cfg.Server.MailWebhookURL, 10*time.Second)
	}
	dispatcher := notify.NewDispatcher(mailer, notify.DispatcherConfig{RetryMax: cfg.Server.MailRetryMax})
	dispatcher.Start(ctx)
	defer dispatcher.Stop()

	verifier := auth.NewStoreVerifier(st, cfg.Server.AdminAPIKey)
	contests := appcontest.NewService(st, pub, appcontest.Options{
		MaxAttempts:   cfg.Server.JoinMaxAttempts,
		CommitTimeout: cfg.Server.JoinCommitTimeout,
	})
	accounts := appaccount.NewService(st)
	adminSvc := appadmin.NewService(st, dispatcher, pub, cfg.Server.FrontendURL)

	jan, err := janitor.New(adminSvc, cfg.Server.JanitorInterval)
	if err != nil {
		log.Fatal().Err(err).Msg("janitor init failed")
	}
	jan.Start()
	defer func() { _ = jan.Stop() }()

	deps := httptransport.Deps{
		Store:    st,
		Verifier: verifier,
		Contests: contests,
		Accounts: accounts,
		Votes:    appvote.NewService(st),
		Admin:    adminSvc,
	}
	if cfg.Server.MCPEnabled {
		deps.MCP = mcpserver.New(contests, accounts, verifier).Handler()
	}
	r := httptransport.NewRouter(deps)
	httptransport.LogRoutes(r)

	server := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("http shutdown failed")
		}
	}()

	log.Info().Str("addr", cfg.Server.HTTPAddr).Str("store", cfg.Server.StoreDriver).Msg("contest server listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("server stopped")
		return
	}
	log.Info().Msg("server stopped")
}

func openStore(ctx context.Context, cfg config.ServerConfig) (store.Repository, func()) {
	if cfg.StoreDriver == "memory" {
		log.Warn().Msg("using in-memory store; data is lost on exit")
		return memstore.New(), func() {}
	}
	st, err := store.New(cfg.PostgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("store init failed")
	}
	if err := st.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("db ping failed")
	}
	return st, st.Close
}
