package debug

import (
	"strings"
	"testing"
	"time"

	"github.com/smartstocks/pvp-tui/internal/client"
	"github.com/smartstocks/pvp-tui/internal/session"
)

var at = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func texts(m Model) []string {
	var out []string
	for _, e := range m.Entries {
		out = append(out, e.Text)
	}
	return out
}

func TestObserveMatchLifecycle(t *testing.T) {
	m := New()
	idle := session.Session{Status: session.StatusIdle}
	queuing := session.Session{Status: session.StatusQueuing}
	matched := session.Session{Status: session.StatusMatched, MatchID: "match-123456789", TotalRounds: 5,
		Opponent: &client.User{Username: "bob"}}
	playing := matched
	playing.Status = session.StatusPlaying
	playing.CurrentRound = 1
	waiting := playing
	waiting.Status = session.StatusWaitingOpponent
	waiting.Decision = session.Decision{Choice: client.DecisionSell, Elapsed: 4, Phase: session.PhaseProposed}
	result := waiting
	result.Status = session.StatusRoundResult
	result.Decision.Phase = session.PhaseConfirmed
	result.RoundResult = &client.RoundResultPayload{RoundNumber: 1, YourDecision: client.DecisionSell,
		OpponentDecision: client.DecisionHold, CorrectDecision: client.DecisionSell, YourPoints: 140}

	steps := []session.Session{idle, queuing, matched, playing, waiting, result, result}
	for i := 1; i < len(steps); i++ {
		m.Observe(steps[i-1], steps[i], at)
	}

	want := []string{
		"idle → queuing",
		"queuing → matched",
		"matched against bob, 5 rounds",
		"matched → playing",
		"playing → waiting_opponent",
		"you chose sell after 4s",
		"waiting_opponent → round_result",
		"round 1: sell +140 vs hold +0, correct sell",
	}
	got := texts(m)
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Fatalf("entries:\n%s\nwant:\n%s", strings.Join(got, "\n"), strings.Join(want, "\n"))
	}
	last := m.Entries[len(m.Entries)-1]
	if last.Where() != "match-12 R1/5" {
		t.Errorf("Where() = %q", last.Where())
	}
	if m.Entries[0].Where() != "" {
		t.Errorf("queue entry should have no match context, got %q", m.Entries[0].Where())
	}
}

func TestTeardownKeepsMatchContext(t *testing.T) {
	m := New()
	prev := session.Session{Status: session.StatusPlaying, MatchID: "m7", CurrentRound: 3, TotalRounds: 5}
	m.Observe(prev, session.Session{Status: session.StatusIdle}, at)

	e := m.Entries[0]
	if e.Status != session.StatusIdle {
		t.Errorf("Status = %s", e.Status)
	}
	if e.Where() != "m7 R3/5" {
		t.Errorf("Where() = %q", e.Where())
	}
}

func TestObserveMatchResult(t *testing.T) {
	tests := []struct {
		outcome session.Outcome
		level   session.Level
		text    string
	}{
		{session.OutcomeWin, session.LevelSuccess, "match win 300-200, +200 pts"},
		{session.OutcomeLoss, session.LevelInfo, "match loss 300-200, -100 pts"},
	}
	for _, tt := range tests {
		t.Run(string(tt.outcome), func(t *testing.T) {
			m := New()
			prev := session.Session{Status: session.StatusMatchEnd, MatchID: "m1"}
			next := prev
			points := 200
			if tt.outcome == session.OutcomeLoss {
				points = -100
			}
			next.MatchResult = &session.MatchSummary{
				MatchResultPayload: client.MatchResultPayload{YourFinalScore: 300, OpponentFinalScore: 200, PointsGained: points},
				Outcome:            tt.outcome,
			}
			m.Observe(prev, next, at)
			if len(m.Entries) != 1 {
				t.Fatalf("got %d entries", len(m.Entries))
			}
			if e := m.Entries[0]; e.Level != tt.level || e.Text != tt.text {
				t.Errorf("entry = %v %q, want %v %q", e.Level, e.Text, tt.level, tt.text)
			}
		})
	}
}

func TestNoteAndErrorFilter(t *testing.T) {
	m := New()
	s := session.Session{Status: session.StatusQueuing}
	m.Note(s, session.Notice{Level: session.LevelSuccess, Text: "Connected to server"}, at)
	m.Note(s, session.Notice{Level: session.LevelError, Text: "Could not join the queue"}, at)
	m.Note(s, session.Notice{Level: session.LevelInfo, Text: "hello"}, at)

	m.ToggleErrors()
	v := m.Visible()
	if len(v) != 1 || v[0].Text != "Could not join the queue" {
		t.Fatalf("Visible() = %+v", v)
	}
	view := m.View(100, 20)
	if !strings.Contains(view, "showing errors") || strings.Contains(view, "hello") {
		t.Errorf("filtered view:\n%s", view)
	}

	m.ToggleErrors()
	if len(m.Visible()) != 3 {
		t.Errorf("unfiltered Visible() = %d entries", len(m.Visible()))
	}
}

func TestMaxEntries(t *testing.T) {
	m := New()
	s := session.Session{Status: session.StatusIdle}
	for i := 0; i < maxEntries+50; i++ {
		m.Note(s, session.Notice{Text: "msg"}, at)
	}
	if len(m.Entries) != maxEntries {
		t.Errorf("expected %d entries, got %d", maxEntries, len(m.Entries))
	}
}

func TestScrollClampsToVisible(t *testing.T) {
	m := New()
	s := session.Session{Status: session.StatusIdle}
	for i := 0; i < 10; i++ {
		m.Note(s, session.Notice{Text: "msg"}, at)
	}
	m.Note(s, session.Notice{Level: session.LevelError, Text: "boom"}, at)
	m.Note(s, session.Notice{Level: session.LevelError, Text: "boom"}, at)

	m.Scroll(5)
	if m.Offset != 5 {
		t.Errorf("Offset = %d, want 5", m.Offset)
	}
	m.Scroll(-10)
	if m.Offset != 0 {
		t.Errorf("Offset = %d, want 0", m.Offset)
	}

	m.ToggleErrors()
	m.Scroll(100)
	if m.Offset != 1 {
		t.Errorf("Offset = %d, want 1 with two errors visible", m.Offset)
	}

	m.Note(s, session.Notice{Text: "new"}, at)
	if m.Offset != 0 {
		t.Error("a new entry should jump back to the newest")
	}
}

func TestViewEmpty(t *testing.T) {
	m := New()
	if v := m.View(80, 20); !strings.Contains(v, "Nothing has happened yet") {
		t.Errorf("empty view:\n%s", v)
	}
	m.ToggleErrors()
	if v := m.View(80, 20); !strings.Contains(v, "No errors") {
		t.Errorf("empty filtered view:\n%s", v)
	}
}

func TestViewShowsContext(t *testing.T) {
	m := New()
	s := session.Session{Status: session.StatusPlaying, MatchID: "m1", CurrentRound: 2, TotalRounds: 5}
	m.Note(s, session.Notice{Level: session.LevelError, Text: "Could not submit your decision"}, at)
	v := m.View(120, 20)
	for _, want := range []string{"SESSION LOG", "12:00:00", "✗", "playing", "m1 R2/5", "Could not submit your decision", "1 errors"} {
		if !strings.Contains(v, want) {
			t.Errorf("view missing %q:\n%s", want, v)
		}
	}
}
