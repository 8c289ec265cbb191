package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/smartstocks/pvp-tui/internal/app"
	"github.com/smartstocks/pvp-tui/internal/client"
	"github.com/smartstocks/pvp-tui/internal/config"
	"github.com/smartstocks/pvp-tui/internal/profile"
	"github.com/smartstocks/pvp-tui/internal/session"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to config file")
	apiURL := flag.String("url", "", "Override REST base URL (e.g. http://127.0.0.1:8081)")
	wsURL := flag.String("ws-url", "", "Override WebSocket base URL")
	token := flag.String("token", "", "Access token; skips login")
	email := flag.String("email", "", "Login email")
	password := flag.String("password", "", "Login password")
	flag.Parse()

	// Startup errors go to the terminal; once the TUI owns it, the log file.
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).With().Timestamp().Logger()

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
	if *apiURL != "" {
		cfg.API.BaseURL = *apiURL
	}
	if *wsURL != "" {
		cfg.API.WSURL = *wsURL
	}
	if *token != "" {
		cfg.Auth.Token = *token
	}
	if *email != "" {
		cfg.Auth.Email = *email
	}
	if *password != "" {
		cfg.Auth.Password = *password
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	logger, closeLog, err := cfg.Log.Logger(io.Discard)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up logging")
	}
	defer closeLog()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	httpClient := client.NewHTTPClient(cfg.API.BaseURL, cfg.Auth.Token)
	store := profile.NewStore()
	if err := login(ctx, cfg, httpClient, store); err != nil {
		log.Fatal().Err(err).Msg("login failed")
	}
	logger.Info().
		Str("api", cfg.API.BaseURL).
		Str("ws", cfg.WSBase()).
		Str("user", store.User().Username).
		Msg("pvp client starting")

	ctrl := session.NewController(httpClient,
		session.WithLogger(logger.With().Str("component", "session").Logger()),
		session.WithProfile(store),
		session.WithTokenSource(httpClient.Token),
	)
	ws := client.NewWSClient(cfg.WSBase(), ctrl.TransportHandlers(),
		client.WithPingInterval(cfg.Session.PingInterval),
		client.WithLogger(logger.With().Str("component", "ws").Logger()),
	)
	ctrl.SetConnector(ws)

	runDone := make(chan error, 1)
	go func() { runDone <- ctrl.Run(ctx) }()

	m := app.New(ctx, ctrl, store, httpClient, cfg.Session.HistoryLimit)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, runErr := p.Run()

	// Run tears the session down on cancel, which leaves the queue and
	// closes the socket.
	cancel()
	select {
	case <-runDone:
	case <-time.After(2 * time.Second):
		logger.Warn().Msg("session did not stop in time")
	}

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", runErr)
		os.Exit(1)
	}
}

// login exchanges credentials for a token when they are set. A bare token is
// used as is and the profile stays empty until the first match result.
func login(ctx context.Context, cfg *config.Config, c *client.HTTPClient, store *profile.Store) error {
	if cfg.Auth.Email == "" || cfg.Auth.Password == "" {
		if cfg.Auth.Token == "" {
			return errors.New("set auth.token or auth.email and auth.password")
		}
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	resp, err := c.Login(ctx, cfg.Auth.Email, cfg.Auth.Password)
	if err != nil {
		return err
	}
	store.SetLogin(resp)
	return nil
}
