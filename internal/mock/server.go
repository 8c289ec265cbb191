// Package mock is an in-process stand-in for the SmartStocks PvP backend. It
// serves the same REST and WebSocket surface as the real server and pits
// every queued player against a bot.
package mock

import (
	"encoding/json"
	"errors"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/smartstocks/pvp-tui/internal/client"
)

// Config tunes the mock matches.
type Config struct {
	Rounds         int           `yaml:"rounds" env:"ROUNDS"`
	TimeLimit      int           `yaml:"time_limit_seconds" env:"TIME_LIMIT"`
	MatchDelay     time.Duration `yaml:"match_delay" env:"MATCH_DELAY"`
	Grace          time.Duration `yaml:"grace" env:"GRACE"`
	BotAccuracy    float64       `yaml:"bot_accuracy" env:"BOT_ACCURACY"`
	BotMinThink    time.Duration `yaml:"bot_min_think" env:"BOT_MIN_THINK"`
	BotMaxThink    time.Duration `yaml:"bot_max_think" env:"BOT_MAX_THINK"`
	AbandonAtRound int           `yaml:"abandon_at_round" env:"ABANDON_AT_ROUND"`
	StartingPoints int           `yaml:"starting_points" env:"STARTING_POINTS"`
}

// DefaultConfig returns a five-round match against a fairly good bot.
func DefaultConfig() Config {
	return Config{
		Rounds:         5,
		TimeLimit:      15,
		MatchDelay:     2 * time.Second,
		Grace:          2 * time.Second,
		BotAccuracy:    0.6,
		BotMinThink:    2 * time.Second,
		BotMaxThink:    10 * time.Second,
		StartingPoints: 1000,
	}
}

var (
	errUnauthorized = errors.New("unauthorized")
	errNoMatch      = errors.New("no active match")
	errStaleRound   = errors.New("round is not open")
	errDuplicate    = errors.New("decision already submitted")
)

type player struct {
	user    client.User
	stats   client.UserStats
	peer    *peer
	match   *match
	history []client.HistoryEntry
}

// Server implements the PvP REST routes and the /pvp/ws endpoint.
type Server struct {
	cfg   Config
	clock clockwork.Clock
	log   zerolog.Logger

	rngMu sync.Mutex
	rng   *rand.Rand

	mu      sync.Mutex
	players map[string]*player // by token
}

// Option configures a Server.
type Option func(*Server)

// WithClock sets the clock driving match pacing.
func WithClock(c clockwork.Clock) Option {
	return func(s *Server) { s.clock = c }
}

// WithLogger sets the server logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) { s.log = l }
}

// WithSeed makes scenario and bot choices reproducible.
func WithSeed(seed int64) Option {
	return func(s *Server) { s.rng = rand.New(rand.NewSource(seed)) }
}

// NewServer creates a server with no registered players.
func NewServer(cfg Config, opts ...Option) *Server {
	if cfg.Rounds <= 0 {
		cfg.Rounds = DefaultConfig().Rounds
	}
	if cfg.TimeLimit <= 0 {
		cfg.TimeLimit = DefaultConfig().TimeLimit
	}
	s := &Server{
		cfg:     cfg,
		clock:   clockwork.NewRealClock(),
		log:     zerolog.Nop(),
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		players: make(map[string]*player),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Register adds a player under a fixed token and returns it. Used for
// pre-provisioned tokens so clients can skip login.
func (s *Server) Register(token, username string) client.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.players[token]; ok {
		return p.user
	}
	p := s.newPlayer(username, username+"@smartstocks.local")
	s.players[token] = p
	return p.user
}

func (s *Server) newPlayer(username, email string) *player {
	id := uuid.NewString()
	return &player{
		user: client.User{ID: id, Username: username, Email: email},
		stats: client.UserStats{
			UserID:      id,
			SmartPoints: s.cfg.StartingPoints,
			RankTier:    Tier(s.cfg.StartingPoints),
		},
	}
}

// SetupRoutes registers every endpoint under /api/v1.
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/auth/login", s.handleLogin)
	mux.HandleFunc("POST /api/v1/pvp/queue/join", s.handleJoin)
	mux.HandleFunc("POST /api/v1/pvp/queue/leave", s.handleLeave)
	mux.HandleFunc("POST /api/v1/pvp/submit", s.handleSubmit)
	mux.HandleFunc("GET /api/v1/pvp/history", s.handleHistory)
	mux.HandleFunc("GET /api/v1/pvp/ws", s.handleWS)
}

// Handler returns a mux with all routes registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.SetupRoutes(mux)
	return mux
}

func (s *Server) intn(n int) int {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.Intn(n)
}

func (s *Server) float() float64 {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.Float64()
}

// authorize resolves the caller from the bearer header or the token query
// parameter.
func (s *Server) authorize(r *http.Request) (string, *player, bool) {
	token := r.URL.Query().Get("token")
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		token = strings.TrimPrefix(auth, "Bearer ")
	}
	if token == "" {
		return "", nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[token]
	return token, p, ok
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req client.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	username := req.Email
	if at := strings.IndexByte(username, '@'); at > 0 {
		username = username[:at]
	}

	token := uuid.NewString()
	s.mu.Lock()
	p := s.findByEmail(req.Email)
	if p == nil {
		p = s.newPlayer(username, req.Email)
	}
	s.players[token] = p
	user, stats := p.user, p.stats
	s.mu.Unlock()

	s.log.Info().Str("user", user.Username).Msg("login")
	writeData(w, http.StatusOK, client.LoginResponse{
		AccessToken:  token,
		RefreshToken: uuid.NewString(),
		User:         &user,
		Stats:        &stats,
	})
}

func (s *Server) findByEmail(email string) *player {
	for _, p := range s.players {
		if p.user.Email == email {
			return p
		}
	}
	return nil
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	_, p, ok := s.authorize(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, errUnauthorized.Error())
		return
	}

	s.mu.Lock()
	if p.match != nil {
		s.mu.Unlock()
		writeError(w, http.StatusConflict, "already queued or in a match")
		return
	}
	m := s.newMatch(p)
	p.match = m
	s.mu.Unlock()

	go s.play(m)

	pos := 1
	writeData(w, http.StatusOK, client.JoinQueueResponse{Message: "Joined queue", Position: &pos})
}

func (s *Server) handleLeave(w http.ResponseWriter, r *http.Request) {
	_, p, ok := s.authorize(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, errUnauthorized.Error())
		return
	}

	s.mu.Lock()
	m := p.match
	s.mu.Unlock()
	if m != nil && !m.started() {
		m.cancel()
	}
	writeData(w, http.StatusOK, map[string]string{"message": "Left queue"})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	_, p, ok := s.authorize(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, errUnauthorized.Error())
		return
	}
	var req client.SubmitDecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if !req.Decision.Valid() {
		writeError(w, http.StatusBadRequest, "invalid decision")
		return
	}

	s.mu.Lock()
	m := p.match
	s.mu.Unlock()
	if m == nil || m.id != req.MatchID {
		writeError(w, http.StatusNotFound, errNoMatch.Error())
		return
	}
	if err := m.submit(req); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeData(w, http.StatusOK, map[string]string{"message": "Decision received"})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	_, p, ok := s.authorize(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, errUnauthorized.Error())
		return
	}
	limit := 20
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = v
	}

	s.mu.Lock()
	resp := client.HistoryResponse{TotalMatches: len(p.history)}
	for i := len(p.history) - 1; i >= 0; i-- {
		e := p.history[i]
		switch e.Result {
		case "win":
			resp.Wins++
		case "loss":
			resp.Losses++
		default:
			resp.Draws++
		}
		if len(resp.Matches) < limit {
			resp.Matches = append(resp.Matches, e)
		}
	}
	s.mu.Unlock()

	if resp.Matches == nil {
		resp.Matches = []client.HistoryEntry{}
	}
	writeData(w, http.StatusOK, resp)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	token, p, ok := s.authorize(r)
	if !ok {
		http.Error(w, errUnauthorized.Error(), http.StatusUnauthorized)
		return
	}

	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("ws upgrade")
		return
	}

	pe := newPeer(conn)
	s.mu.Lock()
	old := p.peer
	p.peer = pe
	s.mu.Unlock()
	if old != nil {
		old.close()
	}
	s.log.Info().Str("user", p.user.Username).Str("remote", r.RemoteAddr).Msg("ws connected")

	go func() {
		defer func() {
			s.mu.Lock()
			if p.peer == pe {
				p.peer = nil
			}
			m := p.match
			s.mu.Unlock()
			pe.close()
			if m != nil {
				m.cancel()
			}
			s.log.Info().Str("user", p.user.Username).Str("token", token[:min(8, len(token))]).Msg("ws disconnected")
		}()
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var msg client.Message
			if json.Unmarshal(data, &msg) != nil {
				continue
			}
			if msg.Type == client.MsgPing {
				pe.send(client.MsgPong, nil, s.clock.Now())
			}
		}
	}()
}

// push sends a frame to the player's current connection, if any.
func (s *Server) push(p *player, t client.MessageType, data any) {
	s.mu.Lock()
	pe := p.peer
	s.mu.Unlock()
	if pe == nil {
		return
	}
	pe.send(t, data, s.clock.Now())
}

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func writeData(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: false, Error: msg})
}
