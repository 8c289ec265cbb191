package session

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartstocks/pvp-tui/internal/client"
)

func newMachine() *Machine { return NewMachine(zerolog.Nop()) }

// inMatch drives a fresh machine to matched against bob.
func inMatch(t *testing.T, rounds int) *Machine {
	t.Helper()
	m := newMachine()
	require.Equal(t, []Effect{Connect{Gen: 1}}, m.Apply(JoinQueue{UserID: "u1"}))
	require.Equal(t, []Effect{RequestJoin{Gen: 1}}, m.Apply(Connected{Gen: 1}))
	m.Apply(MatchFound{client.MatchFoundPayload{
		MatchID:     "m1",
		Opponent:    &client.User{ID: "u2", Username: "bob"},
		TotalRounds: rounds,
	}})
	require.Equal(t, StatusMatched, m.Session().Status)
	return m
}

func startRound(m *Machine, n, limit int) []Effect {
	return m.Apply(RoundStarted{client.RoundStartPayload{
		RoundNumber:      n,
		TimeLimitSeconds: limit,
		Scenario:         client.Scenario{ScenarioID: "s", ChartData: client.ChartData{Ticker: "AAPL"}},
	}})
}

func submits(effects []Effect) []client.SubmitDecisionRequest {
	var out []client.SubmitDecisionRequest
	for _, e := range effects {
		if r, ok := e.(RequestSubmit); ok {
			out = append(out, r.SubmitDecisionRequest)
		}
	}
	return out
}

func notices(effects []Effect) []Notice {
	var out []Notice
	for _, e := range effects {
		if n, ok := e.(Notify); ok {
			out = append(out, n.Notice)
		}
	}
	return out
}

func TestJoinFromIdleOnly(t *testing.T) {
	m := newMachine()
	assert.Equal(t, []Effect{Connect{Gen: 1}}, m.Apply(JoinQueue{}))
	s := m.Session()
	assert.Equal(t, StatusQueuing, s.Status)
	assert.True(t, s.Connecting)

	assert.Nil(t, m.Apply(JoinQueue{}), "second join while queuing")
}

func TestQueuePosition(t *testing.T) {
	m := newMachine()
	m.Apply(JoinQueue{})
	m.Apply(Connected{Gen: 1})

	pos := 3
	m.Apply(QueueJoined{Gen: 1, Position: &pos})
	assert.Equal(t, 3, m.Session().QueuePosition)

	m.Apply(QueueJoined{Gen: 1})
	assert.Equal(t, 3, m.Session().QueuePosition, "missing position keeps the last one")

	m.Apply(QueueUpdated{Position: 1})
	assert.Equal(t, 1, m.Session().QueuePosition)
}

func TestConnectFailureTearsDown(t *testing.T) {
	m := newMachine()
	m.Apply(JoinQueue{})
	effects := m.Apply(ConnectFailed{Gen: 1, Err: errors.New("refused")})

	require.Len(t, effects, 3)
	assert.Equal(t, CloseTransport{}, effects[0])
	assert.Equal(t, StopTimer{}, effects[1])
	n := notices(effects)
	require.Len(t, n, 1)
	assert.Equal(t, LevelError, n[0].Level)
	assert.Contains(t, n[0].Text, "refused")
	assert.Equal(t, StatusIdle, m.Session().Status)
}

func TestQueueJoinFailureTearsDown(t *testing.T) {
	m := newMachine()
	m.Apply(JoinQueue{})
	m.Apply(Connected{Gen: 1})
	effects := m.Apply(QueueJoinFailed{Gen: 1, Err: errors.New("already queued")})
	assert.Equal(t, CloseTransport{}, effects[0])
	assert.Equal(t, StatusIdle, m.Session().Status)
}

func TestOutcomesOfAbandonedAttemptIgnored(t *testing.T) {
	m := newMachine()
	m.Apply(JoinQueue{})
	m.Apply(Connected{Gen: 1})
	m.Apply(Leave{})

	require.Equal(t, []Effect{Connect{Gen: 2}}, m.Apply(JoinQueue{}))
	require.Equal(t, []Effect{RequestJoin{Gen: 2}}, m.Apply(Connected{Gen: 2}))
	pos := 3
	m.Apply(QueueJoined{Gen: 2, Position: &pos})

	stale := 9
	tests := []struct {
		name string
		ev   Event
	}{
		{"join failed", QueueJoinFailed{Gen: 1, Err: errors.New("timeout")}},
		{"connect failed", ConnectFailed{Gen: 1, Err: errors.New("refused")}},
		{"joined", QueueJoined{Gen: 1, Position: &stale}},
		{"connected", Connected{Gen: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Nil(t, m.Apply(tt.ev))
			s := m.Session()
			assert.Equal(t, StatusQueuing, s.Status)
			assert.Equal(t, 3, s.QueuePosition)
		})
	}
}

func TestTransportErrorNotifies(t *testing.T) {
	m := newMachine()
	assert.Nil(t, m.Apply(TransportError{Err: errors.New("reset")}), "idle")

	m.Apply(JoinQueue{})
	assert.Nil(t, m.Apply(TransportError{Err: errors.New("dial")}), "connecting")

	m.Apply(Connected{Gen: 1})
	n := notices(m.Apply(TransportError{Err: errors.New("reset")}))
	require.Len(t, n, 1)
	assert.Equal(t, LevelError, n[0].Level)
	assert.Equal(t, StatusQueuing, m.Session().Status, "errors alone do not tear down")
}

func TestLeaveWhileQueuingRequestsLeave(t *testing.T) {
	m := newMachine()
	m.Apply(JoinQueue{})
	effects := m.Apply(Leave{})
	assert.Equal(t, []Effect{RequestLeave{}, CloseTransport{}, StopTimer{}}, effects)
	assert.Equal(t, StatusIdle, m.Session().Status)
}

func TestLeaveDuringMatchDoesNotCallQueueLeave(t *testing.T) {
	m := inMatch(t, 5)
	startRound(m, 1, 15)
	assert.Equal(t, []Effect{CloseTransport{}, StopTimer{}}, m.Apply(Leave{}))
}

// Scenario A: join, then match_found.
func TestMatchFoundResetsScores(t *testing.T) {
	m := inMatch(t, 5)
	s := m.Session()
	assert.Equal(t, "m1", s.MatchID)
	assert.Equal(t, "bob", s.Opponent.Username)
	assert.Equal(t, 5, s.TotalRounds)
	assert.Zero(t, s.YourScore)
	assert.Zero(t, s.OpponentScore)
	assert.Zero(t, s.CurrentRound)
}

func TestMatchFoundIgnoredOutsideQueue(t *testing.T) {
	m := newMachine()
	assert.Nil(t, m.Apply(MatchFound{client.MatchFoundPayload{MatchID: "x"}}))
	assert.Equal(t, StatusIdle, m.Session().Status)
}

func TestMatchFoundKeepsDefaultRounds(t *testing.T) {
	m := newMachine()
	m.Apply(JoinQueue{})
	m.Apply(MatchFound{client.MatchFoundPayload{MatchID: "m"}})
	assert.Equal(t, 5, m.Session().TotalRounds)
}

func TestRoundStartArmsTimer(t *testing.T) {
	m := inMatch(t, 5)
	effects := startRound(m, 1, 15)
	assert.Equal(t, []Effect{StartTimer{Round: 1, Seconds: 15}}, effects)

	s := m.Session()
	assert.Equal(t, StatusPlaying, s.Status)
	assert.Equal(t, 1, s.CurrentRound)
	assert.Equal(t, 15, s.TimeRemaining)
	assert.Equal(t, "AAPL", s.Scenario.ChartData.Ticker)
	assert.False(t, s.Decision.Set())
}

func TestRoundStartDefaultsTimeLimit(t *testing.T) {
	m := inMatch(t, 5)
	assert.Equal(t, []Effect{StartTimer{Round: 1, Seconds: 15}}, startRound(m, 1, 0))
}

func TestSubmitRecordsElapsed(t *testing.T) {
	m := inMatch(t, 5)
	startRound(m, 1, 15)
	for r := 14; r >= 11; r-- {
		m.Apply(TimerTick{Round: 1, Remaining: r})
	}

	effects := m.Apply(SubmitDecision{Choice: client.DecisionBuy})
	require.Equal(t, StopTimer{}, effects[0])
	assert.Equal(t, []client.SubmitDecisionRequest{{
		MatchID:     "m1",
		RoundNumber: 1,
		Decision:    client.DecisionBuy,
		TimeElapsed: 4,
	}}, submits(effects))

	s := m.Session()
	assert.Equal(t, StatusWaitingOpponent, s.Status)
	assert.Equal(t, PhaseProposed, s.Decision.Phase)
}

func TestSubmitRejectsInvalidChoice(t *testing.T) {
	m := inMatch(t, 5)
	startRound(m, 1, 15)
	assert.Nil(t, m.Apply(SubmitDecision{Choice: "short"}))
	assert.Equal(t, StatusPlaying, m.Session().Status)
}

// Only the first decision of a round counts.
func TestAtMostOneDecisionPerRound(t *testing.T) {
	m := inMatch(t, 5)
	startRound(m, 1, 15)

	first := m.Apply(SubmitDecision{Choice: client.DecisionSell})
	require.Len(t, submits(first), 1)

	for _, d := range []client.Decision{client.DecisionBuy, client.DecisionHold, client.DecisionSell} {
		assert.Nil(t, m.Apply(SubmitDecision{Choice: d}))
	}
	assert.Nil(t, m.Apply(TimerExpired{Round: 1}), "expiry after a decision")
	assert.Equal(t, client.DecisionSell, m.Session().Decision.Choice)
}

// Scenario B: the countdown runs out with no action.
func TestExpiryCommitsHoldOnce(t *testing.T) {
	m := inMatch(t, 5)
	startRound(m, 1, 15)

	var all []Effect
	for r := 14; r >= 0; r-- {
		all = append(all, m.Apply(TimerTick{Round: 1, Remaining: r})...)
	}
	all = append(all, m.Apply(TimerExpired{Round: 1})...)
	all = append(all, m.Apply(TimerExpired{Round: 1})...)

	got := submits(all)
	require.Len(t, got, 1)
	assert.Equal(t, client.DecisionHold, got[0].Decision)
	assert.Equal(t, 15.0, got[0].TimeElapsed)
	assert.Equal(t, StatusWaitingOpponent, m.Session().Status)
}

func TestTimerEventsForOtherRoundsIgnored(t *testing.T) {
	m := inMatch(t, 5)
	startRound(m, 1, 15)
	m.Apply(TimerTick{Round: 0, Remaining: 2})
	assert.Equal(t, 15, m.Session().TimeRemaining)
	assert.Nil(t, m.Apply(TimerExpired{Round: 0}))
	assert.Equal(t, StatusPlaying, m.Session().Status)
}

func TestOpponentDecided(t *testing.T) {
	m := inMatch(t, 5)
	startRound(m, 1, 15)
	m.Apply(OpponentDecided{Round: 2})
	assert.False(t, m.Session().OpponentDecided)
	m.Apply(OpponentDecided{Round: 1})
	assert.True(t, m.Session().OpponentDecided)

	m.Apply(SubmitDecision{Choice: client.DecisionBuy})
	m.Apply(RoundResolved{client.RoundResultPayload{RoundNumber: 1}})
	startRound(m, 2, 15)
	assert.False(t, m.Session().OpponentDecided, "flag resets each round")
}

// Scenario C: round_result while waiting on the opponent.
func TestRoundResultAddsPoints(t *testing.T) {
	m := inMatch(t, 5)
	startRound(m, 1, 15)
	m.Apply(SubmitDecision{Choice: client.DecisionBuy})

	effects := m.Apply(RoundResolved{client.RoundResultPayload{RoundNumber: 1, YourPoints: 50, OpponentPoints: 0}})
	assert.Equal(t, []Effect{StopTimer{}}, effects)

	s := m.Session()
	assert.Equal(t, 50, s.YourScore)
	assert.Equal(t, 0, s.OpponentScore)
	assert.Equal(t, StatusRoundResult, s.Status)
	assert.Equal(t, PhaseConfirmed, s.Decision.Phase)
	require.NotNil(t, s.RoundResult)
}

func TestRoundResultWhilePlayingTakesServerDecision(t *testing.T) {
	m := inMatch(t, 5)
	startRound(m, 1, 15)
	m.Apply(RoundResolved{client.RoundResultPayload{RoundNumber: 1, YourDecision: client.DecisionHold}})

	d := m.Session().Decision
	assert.Equal(t, client.DecisionHold, d.Choice)
	assert.Equal(t, PhaseConfirmed, d.Phase)
}

// Scores only grow and end as the sum of the round points.
func TestScoresAccumulateAcrossRounds(t *testing.T) {
	rounds := []struct{ you, opp int }{{120, 0}, {0, 145}, {-30, 100}, {150, 150}, {101, 0}}
	m := inMatch(t, len(rounds))

	var wantYou, wantOpp, lastYou, lastOpp int
	for i, r := range rounds {
		n := i + 1
		startRound(m, n, 15)
		m.Apply(SubmitDecision{Choice: client.DecisionBuy})
		m.Apply(RoundResolved{client.RoundResultPayload{RoundNumber: n, YourPoints: r.you, OpponentPoints: r.opp}})

		s := m.Session()
		assert.GreaterOrEqual(t, s.YourScore, lastYou)
		assert.GreaterOrEqual(t, s.OpponentScore, lastOpp)
		lastYou, lastOpp = s.YourScore, s.OpponentScore
		wantYou += max(r.you, 0)
		wantOpp += max(r.opp, 0)
	}
	assert.Equal(t, wantYou, lastYou)
	assert.Equal(t, wantOpp, lastOpp)
}

// Messages for other rounds change nothing.
func TestStaleRoundMessagesIgnored(t *testing.T) {
	m := inMatch(t, 5)
	startRound(m, 1, 15)
	m.Apply(SubmitDecision{Choice: client.DecisionBuy})
	m.Apply(RoundResolved{client.RoundResultPayload{RoundNumber: 1, YourPoints: 100}})
	startRound(m, 2, 15)
	before := m.Session()

	tests := []struct {
		name string
		ev   Event
	}{
		{"old result", RoundResolved{client.RoundResultPayload{RoundNumber: 1, YourPoints: 100}}},
		{"future result", RoundResolved{client.RoundResultPayload{RoundNumber: 3, YourPoints: 100}}},
		{"repeated start", RoundStarted{client.RoundStartPayload{RoundNumber: 2, TimeLimitSeconds: 30}}},
		{"old start", RoundStarted{client.RoundStartPayload{RoundNumber: 1, TimeLimitSeconds: 30}}},
		{"skipped start", RoundStarted{client.RoundStartPayload{RoundNumber: 4, TimeLimitSeconds: 30}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Nil(t, m.Apply(tt.ev))
			assert.Equal(t, before, m.Session())
		})
	}
}

func TestRoundStartBeyondTotalIgnored(t *testing.T) {
	m := inMatch(t, 1)
	startRound(m, 1, 15)
	m.Apply(SubmitDecision{Choice: client.DecisionBuy})
	m.Apply(RoundResolved{client.RoundResultPayload{RoundNumber: 1}})
	assert.Nil(t, startRound(m, 2, 15))
	assert.Equal(t, StatusRoundResult, m.Session().Status)
}

// Scenario D: opponent_left mid-round.
func TestOpponentLeftTearsDown(t *testing.T) {
	m := inMatch(t, 5)
	startRound(m, 1, 15)

	effects := m.Apply(OpponentLeft{})
	require.GreaterOrEqual(t, len(effects), 3)
	assert.Equal(t, CloseTransport{}, effects[0])
	assert.Equal(t, StopTimer{}, effects[1])
	n := notices(effects)
	require.Len(t, n, 1)
	assert.Equal(t, "Your opponent disconnected", n[0].Text)
	assert.Equal(t, StatusIdle, m.Session().Status)
}

func TestUnrequestedDisconnectTearsDown(t *testing.T) {
	m := inMatch(t, 5)
	effects := m.Apply(Disconnected{Err: errors.New("eof")})
	assert.Equal(t, CloseTransport{}, effects[0])
	assert.Equal(t, "Disconnected from server", notices(effects)[0].Text)
	assert.Equal(t, StatusIdle, m.Session().Status)
}

func TestRequestedDisconnectIgnored(t *testing.T) {
	m := inMatch(t, 5)
	assert.Nil(t, m.Apply(Disconnected{Requested: true}))
	assert.Equal(t, StatusMatched, m.Session().Status)
}

// Repeated teardown always lands in idle.
func TestTeardownIdempotent(t *testing.T) {
	m := inMatch(t, 5)
	startRound(m, 1, 15)

	for _, ev := range []Event{Leave{}, Leave{}, Reset{}, Disconnected{}, Reset{}, OpponentLeft{}} {
		assert.NotPanics(t, func() { m.Apply(ev) })
		assert.Equal(t, newSession(), m.Session())
	}
}

func TestMatchResultClassifiesAndUpdatesProfile(t *testing.T) {
	m := inMatch(t, 1)
	startRound(m, 1, 15)
	m.Apply(SubmitDecision{Choice: client.DecisionBuy})
	m.Apply(RoundResolved{client.RoundResultPayload{RoundNumber: 1, YourPoints: 140}})

	effects := m.Apply(MatchEnded{client.MatchResultPayload{
		Winner:         "you",
		YourFinalScore: 140,
		PointsGained:   200,
		NewTotalPoints: 1200,
		NewRankTier:    "silver",
	}})
	assert.Equal(t, []Effect{StopTimer{}, UpdateProfile{Points: 1200, Tier: "silver", Outcome: OutcomeWin}}, effects)

	s := m.Session()
	assert.Equal(t, StatusMatchEnd, s.Status)
	require.NotNil(t, s.MatchResult)
	assert.Equal(t, OutcomeWin, s.MatchResult.Outcome)

	assert.Nil(t, m.Apply(JoinQueue{}), "join requires reset after match end")
	m.Apply(Reset{})
	assert.Equal(t, []Effect{Connect{Gen: 2}}, m.Apply(JoinQueue{}))
}

// Scenario E: the server names a winner but the scores tie. Equal scores
// win; if this fires in production the backend has a winner/score
// disagreement worth reporting.
func TestClassifyTieOverridesWinnerField(t *testing.T) {
	m := inMatch(t, 5)
	m.Apply(MatchEnded{client.MatchResultPayload{Winner: "opponent", YourFinalScore: 120, OpponentFinalScore: 120}})
	assert.Equal(t, OutcomeDraw, m.Session().MatchResult.Outcome)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		winner    string
		you, opp  int
		userID    string
		want      Outcome
	}{
		{"you", "you", 300, 200, "", OutcomeWin},
		{"opponent", "opponent", 100, 200, "", OutcomeLoss},
		{"tie equal", "tie", 150, 150, "", OutcomeDraw},
		{"empty winner higher score", "", 300, 100, "", OutcomeWin},
		{"empty winner lower score", "", 100, 300, "", OutcomeLoss},
		{"user id matches", "u1", 300, 100, "u1", OutcomeWin},
		{"other user id", "u2", 100, 300, "u1", OutcomeLoss},
		{"winner you but tied", "you", 50, 50, "", OutcomeDraw},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := client.MatchResultPayload{Winner: tt.winner, YourFinalScore: tt.you, OpponentFinalScore: tt.opp}
			assert.Equal(t, tt.want, Classify(p, tt.userID))
		})
	}
}

func TestServerErrorNotifies(t *testing.T) {
	m := newMachine()
	assert.Equal(t, []Effect{Notify{Notice{Level: LevelError, Text: "rate limited"}}}, m.Apply(ServerError{Text: "rate limited"}))
	assert.Equal(t, "Game error", notices(m.Apply(ServerError{}))[0].Text)
}

func TestSubmitFailureNotifiesWithoutTeardown(t *testing.T) {
	m := inMatch(t, 5)
	startRound(m, 1, 15)
	m.Apply(SubmitDecision{Choice: client.DecisionBuy})
	effects := m.Apply(SubmitFailed{Err: errors.New("409")})
	require.Len(t, notices(effects), 1)
	assert.Equal(t, StatusWaitingOpponent, m.Session().Status)
}

func TestSessionCopiesShareNothing(t *testing.T) {
	m := inMatch(t, 5)
	startRound(m, 1, 15)
	s := m.Session()
	s.Opponent.Username = "mallory"
	s.Scenario.ChartData.Ticker = "XXX"
	assert.Equal(t, "bob", m.Session().Opponent.Username)
	assert.Equal(t, "AAPL", m.Session().Scenario.ChartData.Ticker)
}
