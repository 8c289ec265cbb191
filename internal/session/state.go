// Package session implements the client side of a PvP match: the state
// machine that reconciles server pushes with local intents, the per-round
// countdown, and the controller that runs both on a single event loop.
package session

import "github.com/smartstocks/pvp-tui/internal/client"

const (
	defaultTotalRounds = 5
	defaultTimeLimit   = 15
)

// Status is the screen the session is on.
type Status string

const (
	StatusIdle            Status = "idle"
	StatusQueuing         Status = "queuing"
	StatusMatched         Status = "matched"
	StatusPlaying         Status = "playing"
	StatusWaitingOpponent Status = "waiting_opponent"
	StatusRoundResult     Status = "round_result"
	StatusMatchEnd        Status = "match_end"
)

// InMatch reports whether a match has been found and not yet finished.
func (s Status) InMatch() bool {
	switch s {
	case StatusMatched, StatusPlaying, StatusWaitingOpponent, StatusRoundResult:
		return true
	}
	return false
}

// Phase tracks a local decision from proposal to server confirmation.
type Phase int

const (
	PhaseNone      Phase = iota
	PhaseProposed        // recorded locally and submitted
	PhaseConfirmed       // round_result received for the round
)

func (p Phase) String() string {
	switch p {
	case PhaseProposed:
		return "proposed"
	case PhaseConfirmed:
		return "confirmed"
	default:
		return "none"
	}
}

// Decision is the local player's choice for the current round.
type Decision struct {
	Choice  client.Decision
	Elapsed float64
	Phase   Phase
}

// Set reports whether a decision has been made this round.
func (d Decision) Set() bool { return d.Phase != PhaseNone }

// Outcome classifies a finished match from the local player's side.
type Outcome string

const (
	OutcomeWin  Outcome = "win"
	OutcomeLoss Outcome = "loss"
	OutcomeDraw Outcome = "draw"
)

// MatchSummary is the final match payload plus the local classification.
type MatchSummary struct {
	client.MatchResultPayload
	Outcome Outcome
}

// Session is the client-held state of one match attempt. Only Machine
// mutates it; everyone else works on copies.
type Session struct {
	Status     Status
	Connecting bool

	QueuePosition int // 0 when unknown

	MatchID      string
	Opponent     *client.User
	CurrentRound int
	TotalRounds  int

	YourScore     int
	OpponentScore int

	Scenario         *client.Scenario
	TimeLimitSeconds int
	TimeRemaining    int

	OpponentDecided bool
	Decision        Decision

	RoundResult *client.RoundResultPayload
	MatchResult *MatchSummary
}

func newSession() Session {
	return Session{
		Status:           StatusIdle,
		TotalRounds:      defaultTotalRounds,
		TimeLimitSeconds: defaultTimeLimit,
	}
}

// clone returns a copy that shares no pointers with s.
func (s Session) clone() Session {
	out := s
	if s.Opponent != nil {
		o := *s.Opponent
		out.Opponent = &o
	}
	if s.Scenario != nil {
		sc := *s.Scenario
		sc.ChartData.Labels = append([]string(nil), s.Scenario.ChartData.Labels...)
		sc.ChartData.Prices = append([]float64(nil), s.Scenario.ChartData.Prices...)
		out.Scenario = &sc
	}
	if s.RoundResult != nil {
		r := *s.RoundResult
		out.RoundResult = &r
	}
	if s.MatchResult != nil {
		m := *s.MatchResult
		out.MatchResult = &m
	}
	return out
}
