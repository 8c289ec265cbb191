package mock

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/smartstocks/pvp-tui/internal/client"
)

var botNames = []string{"WallStreetBot", "BullRunner", "BearTrap", "PaperHands", "DiamondHands"}

type submission struct {
	decision client.Decision
	elapsed  float64
}

// match is one player against one bot. play drives it; HTTP handlers only
// touch it through submit, started and cancel.
type match struct {
	id     string
	player *player
	bot    client.User

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	begun     bool
	round     int
	open      bool
	submitted bool
	submits   chan submission
}

func (s *Server) newMatch(p *player) *match {
	ctx, cancel := context.WithCancel(context.Background())
	return &match{
		id:     uuid.NewString(),
		player: p,
		bot: client.User{
			ID:       "bot-" + uuid.NewString()[:8],
			Username: botNames[s.intn(len(botNames))],
		},
		ctx:     ctx,
		cancel:  cancel,
		submits: make(chan submission, 1),
	}
}

func (m *match) started() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.begun
}

func (m *match) openRound(n int) {
	m.mu.Lock()
	m.begun = true
	m.round = n
	m.open = true
	m.submitted = false
	m.mu.Unlock()
}

func (m *match) closeRound() {
	m.mu.Lock()
	m.open = false
	select {
	case <-m.submits:
	default:
	}
	m.mu.Unlock()
}

func (m *match) submit(req client.SubmitDecisionRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.open || req.RoundNumber != m.round {
		return errStaleRound
	}
	if m.submitted {
		return errDuplicate
	}
	m.submitted = true
	m.submits <- submission{decision: req.Decision, elapsed: req.TimeElapsed}
	return nil
}

// play runs the whole match: pairing delay, every round, and the final
// result. Cancelling the match context abandons it silently.
func (s *Server) play(m *match) {
	p := m.player
	log := s.log.With().Str("match_id", m.id).Str("user", p.user.Username).Logger()
	defer func() {
		s.mu.Lock()
		if p.match == m {
			p.match = nil
		}
		s.mu.Unlock()
		m.cancel()
	}()

	if s.cfg.MatchDelay > 0 {
		select {
		case <-m.ctx.Done():
			log.Debug().Msg("left queue before pairing")
			return
		case <-s.clock.After(s.cfg.MatchDelay):
		}
	}

	m.mu.Lock()
	m.begun = true
	m.mu.Unlock()

	bot := m.bot
	s.push(p, client.MsgMatchFound, client.MatchFoundPayload{
		MatchID:     m.id,
		OpponentID:  bot.ID,
		Opponent:    &bot,
		TotalRounds: s.cfg.Rounds,
		Message:     "Match found",
	})
	log.Info().Str("opponent", bot.Username).Msg("match started")

	var yourScore, botScore int
	for round := 1; round <= s.cfg.Rounds; round++ {
		if s.cfg.AbandonAtRound == round {
			s.push(p, client.MsgOpponentLeft, map[string]string{"message": "Opponent left the match"})
			log.Info().Int("round", round).Msg("bot abandoned")
			return
		}
		res, ok := s.playRound(m, round)
		if !ok {
			log.Debug().Int("round", round).Msg("match cancelled")
			return
		}
		yourScore += res.YourPoints
		botScore += res.OpponentPoints
		s.push(p, client.MsgRoundResult, res)
	}

	s.finish(m, yourScore, botScore)
	log.Info().Int("you", yourScore).Int("bot", botScore).Msg("match finished")
}

func (s *Server) playRound(m *match, round int) (client.RoundResultPayload, bool) {
	def := scenarioCatalog[s.intn(len(scenarioCatalog))]
	scenario := newScenario(s.scenarioRand(), def, uuid.NewString())
	limit := s.cfg.TimeLimit

	m.openRound(round)
	defer m.closeRound()
	s.push(m.player, client.MsgRoundStart, client.RoundStartPayload{
		MatchID:          m.id,
		RoundNumber:      round,
		TotalRounds:      s.cfg.Rounds,
		Scenario:         scenario,
		TimeLimitSeconds: limit,
	})

	botChoice := s.botDecision(def.correct)
	think := s.botThink()
	botDone := think <= 0
	var botC <-chan time.Time
	if botDone {
		s.push(m.player, client.MsgOpponentDecided, client.OpponentDecidedPayload{RoundNumber: round})
	} else {
		t := s.clock.NewTimer(think)
		defer t.Stop()
		botC = t.Chan()
	}
	deadline := s.clock.NewTimer(time.Duration(limit)*time.Second + s.cfg.Grace)
	defer deadline.Stop()

	var yours *submission
	for yours == nil || !botDone {
		select {
		case <-m.ctx.Done():
			return client.RoundResultPayload{}, false
		case sub := <-m.submits:
			yours = &sub
		case <-botC:
			botDone = true
			s.push(m.player, client.MsgOpponentDecided, client.OpponentDecidedPayload{RoundNumber: round})
		case <-deadline.Chan():
			if yours == nil {
				yours = &submission{decision: client.DecisionHold, elapsed: float64(limit)}
			}
			botDone = true
		}
	}

	botElapsed := min(think.Seconds(), float64(limit))
	yourElapsed := max(0, min(yours.elapsed, float64(limit)))
	return client.RoundResultPayload{
		MatchID:          m.id,
		RoundNumber:      round,
		YourDecision:     yours.decision,
		OpponentDecision: botChoice,
		CorrectDecision:  def.correct,
		YourPoints:       RoundPoints(yours.decision == def.correct, yourElapsed, limit),
		OpponentPoints:   RoundPoints(botChoice == def.correct, botElapsed, limit),
		Explanation:      def.explanation,
	}, true
}

func (s *Server) finish(m *match, yourScore, botScore int) {
	p := m.player
	winner, result := "tie", "draw"
	switch {
	case yourScore > botScore:
		winner, result = "you", "win"
	case yourScore < botScore:
		winner, result = "opponent", "loss"
	}

	s.mu.Lock()
	st := &p.stats
	gained := MatchPoints(winner, st.WinStreak)
	st.SmartPoints = max(0, st.SmartPoints+gained)
	st.RankTier = Tier(st.SmartPoints)
	switch winner {
	case "you":
		st.TotalWins++
		st.WinStreak++
	case "opponent":
		st.TotalLosses++
		st.WinStreak = 0
	}
	p.history = append(p.history, client.HistoryEntry{
		MatchID:          m.id,
		OpponentUsername: m.bot.Username,
		YourScore:        yourScore,
		OpponentScore:    botScore,
		Result:           result,
		PointsEarned:     gained,
		PlayedAt:         s.clock.Now(),
	})
	payload := client.MatchResultPayload{
		MatchID:            m.id,
		Winner:             winner,
		YourFinalScore:     yourScore,
		OpponentFinalScore: botScore,
		PointsGained:       gained,
		NewTotalPoints:     st.SmartPoints,
		NewRankTier:        st.RankTier,
		WinStreak:          st.WinStreak,
	}
	s.mu.Unlock()

	s.push(p, client.MsgMatchResult, payload)
}

func (s *Server) botDecision(correct client.Decision) client.Decision {
	if s.float() < s.cfg.BotAccuracy {
		return correct
	}
	var wrong []client.Decision
	for _, d := range []client.Decision{client.DecisionBuy, client.DecisionSell, client.DecisionHold} {
		if d != correct {
			wrong = append(wrong, d)
		}
	}
	return wrong[s.intn(len(wrong))]
}

func (s *Server) botThink() time.Duration {
	lo, hi := s.cfg.BotMinThink, s.cfg.BotMaxThink
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(s.intn(int(hi-lo)))
}

// scenarioRand returns a generator seeded from the server's, so the price
// walk stays reproducible under WithSeed without holding rngMu while used.
func (s *Server) scenarioRand() *rand.Rand {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return rand.New(rand.NewSource(s.rng.Int63()))
}
