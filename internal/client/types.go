// Package client provides the WebSocket connector and REST client for the
// SmartStocks PvP backend. Types mirror the backend wire protocol.
package client

import (
	"encoding/json"
	"time"
)

// MessageType identifies the kind of WebSocket frame.
type MessageType string

const (
	MsgMatchFound      MessageType = "match_found"
	MsgRoundStart      MessageType = "round_start"
	MsgRoundResult     MessageType = "round_result"
	MsgMatchResult     MessageType = "match_result"
	MsgOpponentLeft    MessageType = "opponent_left"
	MsgOpponentDecided MessageType = "opponent_decided"
	MsgQueueUpdate     MessageType = "queue_update"
	MsgError           MessageType = "error"
	MsgPing            MessageType = "ping"
	MsgPong            MessageType = "pong"
)

// Message is the envelope for all WebSocket frames, in both directions.
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp *time.Time      `json:"timestamp,omitempty"`
}

// outbound is the client→server envelope. Timestamp is always set.
type outbound struct {
	Type      MessageType `json:"type"`
	Data      any         `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// Decision is a player's action for a round.
type Decision string

const (
	DecisionBuy  Decision = "buy"
	DecisionSell Decision = "sell"
	DecisionHold Decision = "hold"
)

// Valid reports whether d is one of buy, sell or hold.
func (d Decision) Valid() bool {
	switch d {
	case DecisionBuy, DecisionSell, DecisionHold:
		return true
	}
	return false
}

// User is the public user summary sent for opponents and returned by login.
type User struct {
	ID                string  `json:"id"`
	Username          string  `json:"username"`
	Email             string  `json:"email,omitempty"`
	ProfilePictureURL *string `json:"profile_picture_url,omitempty"`
}

// UserStats holds the ranking fields of a user.
type UserStats struct {
	UserID      string `json:"user_id"`
	SmartPoints int    `json:"smartpoints"`
	RankTier    string `json:"rank_tier"`
	TotalWins   int    `json:"total_wins"`
	TotalLosses int    `json:"total_losses"`
	WinStreak   int    `json:"win_streak"`
}

// ChartData is the price series attached to a scenario.
type ChartData struct {
	Labels    []string  `json:"labels"`
	Prices    []float64 `json:"prices"`
	Ticker    string    `json:"ticker"`
	AssetName string    `json:"asset_name"`
}

// Scenario is the market news and price series a round is played on.
type Scenario struct {
	ScenarioID  string    `json:"scenario_id"`
	Difficulty  string    `json:"difficulty,omitempty"`
	NewsContent string    `json:"news_content"`
	ChartData   ChartData `json:"chart_data"`
}

// --- WebSocket payload types ---

// MatchFoundPayload is pushed when the server pairs two players.
type MatchFoundPayload struct {
	MatchID     string `json:"match_id"`
	OpponentID  string `json:"opponent_id,omitempty"`
	Opponent    *User  `json:"opponent"`
	TotalRounds int    `json:"total_rounds"`
	Message     string `json:"message,omitempty"`
}

// RoundStartPayload opens a round.
type RoundStartPayload struct {
	MatchID          string   `json:"match_id,omitempty"`
	RoundNumber      int      `json:"round_number"`
	TotalRounds      int      `json:"total_rounds,omitempty"`
	Scenario         Scenario `json:"scenario"`
	TimeLimitSeconds int      `json:"time_limit_seconds"`
}

// RoundResultPayload closes a round.
type RoundResultPayload struct {
	MatchID          string   `json:"match_id,omitempty"`
	RoundNumber      int      `json:"round_number"`
	YourDecision     Decision `json:"your_decision"`
	OpponentDecision Decision `json:"opponent_decision"`
	CorrectDecision  Decision `json:"correct_decision"`
	YourPoints       int      `json:"your_points"`
	OpponentPoints   int      `json:"opponent_points"`
	Explanation      string   `json:"explanation"`
}

// MatchResultPayload ends a match. Winner is "you", "opponent", "tie" or a
// user id, depending on the server build.
type MatchResultPayload struct {
	MatchID            string `json:"match_id,omitempty"`
	Winner             string `json:"winner"`
	YourFinalScore     int    `json:"your_final_score"`
	OpponentFinalScore int    `json:"opponent_final_score"`
	PointsGained       int    `json:"points_gained"`
	NewTotalPoints     int    `json:"new_total_points"`
	NewRankTier        string `json:"new_rank_tier"`
	WinStreak          int    `json:"win_streak,omitempty"`
}

// OpponentDecidedPayload signals that the opponent locked in a decision.
type OpponentDecidedPayload struct {
	RoundNumber int `json:"round_number"`
}

// QueueUpdatePayload reports a new queue position.
type QueueUpdatePayload struct {
	Position int `json:"position"`
}

// ErrorPayload is a server-side application error. Either field may be set.
type ErrorPayload struct {
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// Text returns the most specific error text available.
func (p ErrorPayload) Text() string {
	if p.Error != "" {
		return p.Error
	}
	return p.Message
}

// --- HTTP types ---

// apiResponse is the envelope every REST endpoint returns.
type apiResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// JoinQueueResponse is returned by POST /pvp/queue/join.
type JoinQueueResponse struct {
	Message  string `json:"message"`
	Position *int   `json:"position,omitempty"`
}

// SubmitDecisionRequest is the body of POST /pvp/submit.
type SubmitDecisionRequest struct {
	MatchID     string   `json:"match_id"`
	RoundNumber int      `json:"round_number"`
	Decision    Decision `json:"decision"`
	TimeElapsed float64  `json:"time_elapsed"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is returned by POST /auth/login.
type LoginResponse struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
	User         *User      `json:"user"`
	Stats        *UserStats `json:"stats"`
}

// HistoryEntry is one past match.
type HistoryEntry struct {
	MatchID          string    `json:"match_id"`
	OpponentUsername string    `json:"opponent_username"`
	YourScore        int       `json:"your_score"`
	OpponentScore    int       `json:"opponent_score"`
	Result           string    `json:"result"` // "win", "loss", "draw"
	PointsEarned     int       `json:"points_earned"`
	PlayedAt         time.Time `json:"played_at"`
}

// HistoryResponse is returned by GET /pvp/history.
type HistoryResponse struct {
	Matches      []HistoryEntry `json:"matches"`
	TotalMatches int            `json:"total_matches"`
	Wins         int            `json:"wins"`
	Losses       int            `json:"losses"`
	Draws        int            `json:"draws"`
}
