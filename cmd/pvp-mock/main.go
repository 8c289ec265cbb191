package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/smartstocks/pvp-tui/internal/config"
	"github.com/smartstocks/pvp-tui/internal/mock"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to config file")
	addr := flag.String("addr", "", "Override listen address")
	rounds := flag.Int("rounds", 0, "Override rounds per match")
	abandon := flag.Int("abandon-at", -1, "Bot leaves at this round (0 disables)")
	seed := flag.Int64("seed", 0, "Fixed random seed (0 picks one)")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.ApplyEnv(); err != nil {
		log.Fatal().Err(err).Msg("failed to read environment")
	}
	if *addr != "" {
		cfg.Mock.Addr = *addr
	}
	if *rounds > 0 {
		cfg.Mock.Match.Rounds = *rounds
	}
	if *abandon >= 0 {
		cfg.Mock.Match.AbandonAtRound = *abandon
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	// The mock always logs to the console.
	cfg.Log.File = ""
	logger, _, err := cfg.Log.Logger(os.Stderr)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up logging")
	}
	log.Logger = logger
	zerolog.DefaultContextLogger = &logger

	opts := []mock.Option{mock.WithLogger(logger.With().Str("component", "mock").Logger())}
	if *seed != 0 {
		opts = append(opts, mock.WithSeed(*seed))
	}
	srv := mock.NewServer(cfg.Mock.Match, opts...)
	if cfg.Mock.Token != "" {
		u := srv.Register(cfg.Mock.Token, cfg.Mock.User)
		log.Info().Str("user", u.Username).Str("token", cfg.Mock.Token).Msg("registered fixed token")
	}

	httpSrv := &http.Server{
		Addr:              cfg.Mock.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().
			Str("addr", cfg.Mock.Addr).
			Int("rounds", cfg.Mock.Match.Rounds).
			Int("time_limit", cfg.Mock.Match.TimeLimit).
			Float64("bot_accuracy", cfg.Mock.Match.BotAccuracy).
			Msg("starting mock pvp server")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}
