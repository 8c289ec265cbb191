package session

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/smartstocks/pvp-tui/internal/client"
)

// Machine is the session state machine. Apply is total over Event and does no
// I/O; the effects it returns are carried out by the Controller.
type Machine struct {
	s      Session
	gen    Gen
	userID string
	log    zerolog.Logger
}

// NewMachine returns a machine in the idle state.
func NewMachine(log zerolog.Logger) *Machine {
	return &Machine{s: newSession(), log: log}
}

// Session returns a copy of the current session.
func (m *Machine) Session() Session { return m.s.clone() }

// Apply feeds one event through the machine.
func (m *Machine) Apply(ev Event) []Effect {
	switch ev := ev.(type) {
	case JoinQueue:
		return m.joinQueue(ev)
	case Connected:
		if !m.queuing(ev.Gen) || !m.s.Connecting {
			return nil
		}
		m.s.Connecting = false
		return []Effect{RequestJoin{Gen: m.gen}}
	case ConnectFailed:
		if !m.queuing(ev.Gen) {
			return nil
		}
		return m.teardown(notice(LevelError, "Could not connect to the game server: %v", ev.Err))
	case QueueJoined:
		if !m.queuing(ev.Gen) {
			return nil
		}
		if ev.Position != nil && *ev.Position > 0 {
			m.s.QueuePosition = *ev.Position
		}
		return nil
	case QueueJoinFailed:
		if !m.queuing(ev.Gen) {
			return nil
		}
		return m.teardown(notice(LevelError, "Could not join the queue: %v", ev.Err))
	case QueueUpdated:
		if m.s.Status == StatusQueuing && ev.Position > 0 {
			m.s.QueuePosition = ev.Position
		}
		return nil
	case LeaveFailed:
		m.log.Warn().Err(ev.Err).Msg("leave queue request failed")
		return nil
	case SubmitFailed:
		m.log.Warn().Err(ev.Err).Int("round", m.s.CurrentRound).Msg("decision submit failed")
		if m.s.Status == StatusIdle {
			return nil
		}
		return []Effect{notice(LevelError, "Could not submit your decision: %v", ev.Err)}
	case TransportOpened:
		if m.s.Status == StatusIdle {
			return nil
		}
		return []Effect{notice(LevelSuccess, "Connected to server")}
	case TransportError:
		m.log.Warn().Err(ev.Err).Msg("transport error")
		// Dial failures are reported by ConnectFailed.
		if m.s.Status == StatusIdle || m.s.Connecting {
			return nil
		}
		return []Effect{notice(LevelError, "Connection error")}
	case Disconnected:
		if ev.Requested || m.s.Status == StatusIdle {
			return nil
		}
		m.log.Warn().Err(ev.Err).Str("status", string(m.s.Status)).Msg("connection lost")
		return m.teardown(notice(LevelError, "Disconnected from server"))
	case MatchFound:
		return m.matchFound(ev)
	case RoundStarted:
		return m.roundStarted(ev)
	case SubmitDecision:
		if m.s.Status != StatusPlaying || m.s.Decision.Set() || !ev.Choice.Valid() {
			return nil
		}
		elapsed := m.s.TimeLimitSeconds - m.s.TimeRemaining
		if elapsed < 0 {
			elapsed = 0
		}
		return m.commit(ev.Choice, float64(elapsed))
	case TimerTick:
		if m.s.Status != StatusPlaying || ev.Round != m.s.CurrentRound {
			return nil
		}
		m.s.TimeRemaining = max(ev.Remaining, 0)
		return nil
	case TimerExpired:
		if m.s.Status != StatusPlaying || ev.Round != m.s.CurrentRound || m.s.Decision.Set() {
			return nil
		}
		m.s.TimeRemaining = 0
		return m.commit(client.DecisionHold, float64(m.s.TimeLimitSeconds))
	case OpponentDecided:
		if (m.s.Status == StatusPlaying || m.s.Status == StatusWaitingOpponent) && ev.Round == m.s.CurrentRound {
			m.s.OpponentDecided = true
		}
		return nil
	case RoundResolved:
		return m.roundResolved(ev)
	case MatchEnded:
		return m.matchEnded(ev)
	case OpponentLeft:
		if m.s.Status == StatusIdle {
			return nil
		}
		return m.teardown(notice(LevelError, "Your opponent disconnected"))
	case ServerError:
		text := ev.Text
		if text == "" {
			text = "Game error"
		}
		return []Effect{Notify{Notice{Level: LevelError, Text: text}}}
	case Leave:
		if m.s.Status == StatusQueuing {
			return append([]Effect{RequestLeave{}}, m.teardown()...)
		}
		return m.teardown()
	case Reset:
		return m.teardown()
	}
	return nil
}

func (m *Machine) joinQueue(ev JoinQueue) []Effect {
	if m.s.Status != StatusIdle {
		return nil
	}
	m.s = newSession()
	m.gen++
	m.userID = ev.UserID
	m.s.Status = StatusQueuing
	m.s.Connecting = true
	return []Effect{Connect{Gen: m.gen}}
}

// queuing reports whether an outcome for attempt gen still applies.
func (m *Machine) queuing(gen Gen) bool {
	if gen != m.gen {
		m.log.Debug().Uint64("gen", uint64(gen)).Uint64("current", uint64(m.gen)).Msg("ignoring outcome of an earlier attempt")
		return false
	}
	return m.s.Status == StatusQueuing
}

func (m *Machine) matchFound(ev MatchFound) []Effect {
	if m.s.Status != StatusQueuing {
		m.log.Debug().Str("status", string(m.s.Status)).Msg("ignoring match_found")
		return nil
	}
	m.s.Status = StatusMatched
	m.s.Connecting = false
	m.s.QueuePosition = 0
	m.s.MatchID = ev.MatchID
	m.s.Opponent = ev.Opponent
	if ev.TotalRounds > 0 {
		m.s.TotalRounds = ev.TotalRounds
	}
	m.s.CurrentRound = 0
	m.s.YourScore = 0
	m.s.OpponentScore = 0
	return []Effect{notice(LevelSuccess, "Opponent found!")}
}

func (m *Machine) roundStarted(ev RoundStarted) []Effect {
	if !m.s.Status.InMatch() {
		return nil
	}
	if ev.RoundNumber != m.s.CurrentRound+1 || ev.RoundNumber > m.s.TotalRounds {
		m.log.Debug().Int("round", ev.RoundNumber).Int("current", m.s.CurrentRound).Msg("ignoring stale round_start")
		return nil
	}
	limit := ev.TimeLimitSeconds
	if limit <= 0 {
		limit = defaultTimeLimit
	}
	sc := ev.Scenario
	m.s.Status = StatusPlaying
	m.s.CurrentRound = ev.RoundNumber
	m.s.Scenario = &sc
	m.s.TimeLimitSeconds = limit
	m.s.TimeRemaining = limit
	m.s.Decision = Decision{}
	m.s.OpponentDecided = false
	m.s.RoundResult = nil
	return []Effect{StartTimer{Round: ev.RoundNumber, Seconds: limit}}
}

// commit records the first decision of the round and submits it.
func (m *Machine) commit(choice client.Decision, elapsed float64) []Effect {
	m.s.Decision = Decision{Choice: choice, Elapsed: elapsed, Phase: PhaseProposed}
	m.s.Status = StatusWaitingOpponent
	return []Effect{
		StopTimer{},
		RequestSubmit{client.SubmitDecisionRequest{
			MatchID:     m.s.MatchID,
			RoundNumber: m.s.CurrentRound,
			Decision:    choice,
			TimeElapsed: elapsed,
		}},
	}
}

func (m *Machine) roundResolved(ev RoundResolved) []Effect {
	if m.s.Status != StatusPlaying && m.s.Status != StatusWaitingOpponent {
		return nil
	}
	if ev.RoundNumber != m.s.CurrentRound {
		m.log.Debug().Int("round", ev.RoundNumber).Int("current", m.s.CurrentRound).Msg("ignoring stale round_result")
		return nil
	}
	if ev.YourPoints < 0 || ev.OpponentPoints < 0 {
		m.log.Warn().Int("your_points", ev.YourPoints).Int("opponent_points", ev.OpponentPoints).Msg("negative round points clamped")
	}
	m.s.YourScore += max(ev.YourPoints, 0)
	m.s.OpponentScore += max(ev.OpponentPoints, 0)

	res := ev.RoundResultPayload
	m.s.RoundResult = &res
	if !m.s.Decision.Set() {
		m.s.Decision.Choice = ev.YourDecision
	}
	m.s.Decision.Phase = PhaseConfirmed
	m.s.Status = StatusRoundResult
	return []Effect{StopTimer{}}
}

func (m *Machine) matchEnded(ev MatchEnded) []Effect {
	if !m.s.Status.InMatch() {
		return nil
	}
	if ev.YourFinalScore != m.s.YourScore || ev.OpponentFinalScore != m.s.OpponentScore {
		m.log.Warn().
			Int("your_final", ev.YourFinalScore).Int("your_sum", m.s.YourScore).
			Int("opponent_final", ev.OpponentFinalScore).Int("opponent_sum", m.s.OpponentScore).
			Msg("final scores differ from round totals")
	}
	outcome := Classify(ev.MatchResultPayload, m.userID)
	m.s.Status = StatusMatchEnd
	m.s.MatchResult = &MatchSummary{
		MatchResultPayload: ev.MatchResultPayload,
		Outcome:            outcome,
	}
	return []Effect{
		StopTimer{},
		UpdateProfile{Points: ev.NewTotalPoints, Tier: ev.NewRankTier, Outcome: outcome, WinStreak: ev.WinStreak},
	}
}

// teardown closes the transport, stops the timer and returns to idle, in that
// order, then appends any extra effects.
func (m *Machine) teardown(extra ...Effect) []Effect {
	m.s = newSession()
	return append([]Effect{CloseTransport{}, StopTimer{}}, extra...)
}

// Classify decides the outcome of a match for the local player. Equal final
// scores are a draw whatever the winner field says.
func Classify(p client.MatchResultPayload, userID string) Outcome {
	if p.YourFinalScore == p.OpponentFinalScore {
		return OutcomeDraw
	}
	switch p.Winner {
	case "you":
		return OutcomeWin
	case "opponent":
		return OutcomeLoss
	case "", "tie":
		if p.YourFinalScore > p.OpponentFinalScore {
			return OutcomeWin
		}
		return OutcomeLoss
	}
	if userID != "" && p.Winner == userID {
		return OutcomeWin
	}
	return OutcomeLoss
}

func notice(level Level, format string, args ...any) Effect {
	return Notify{Notice{Level: level, Text: fmt.Sprintf(format, args...)}}
}
