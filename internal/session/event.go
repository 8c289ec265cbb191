package session

import "github.com/smartstocks/pvp-tui/internal/client"

// Event is anything the state machine reacts to: user intents, transport and
// REST outcomes, server pushes and timer ticks.
type Event interface{ isEvent() }

// --- user intents ---

// JoinQueue starts a new session from idle. UserID is the local player's id,
// used to classify the match winner.
type JoinQueue struct{ UserID string }

// SubmitDecision records the local choice for the current round.
type SubmitDecision struct{ Choice client.Decision }

// Leave cancels the queue or abandons the match.
type Leave struct{}

// Reset returns to idle without a leave request (play again, unmount).
type Reset struct{}

// --- async outcomes ---

// Gen identifies the session attempt an async request was issued for. The
// machine bumps it on every join, so outcomes of an abandoned attempt no
// longer match and are dropped.
type Gen uint64

// Connected reports that Connect resolved.
type Connected struct{ Gen Gen }

// ConnectFailed reports that Connect rejected.
type ConnectFailed struct {
	Gen Gen
	Err error
}

// QueueJoined is the queue-join REST response.
type QueueJoined struct {
	Gen      Gen
	Position *int
}

// QueueJoinFailed reports a queue-join REST failure.
type QueueJoinFailed struct {
	Gen Gen
	Err error
}

// LeaveFailed reports a queue-leave REST failure.
type LeaveFailed struct{ Err error }

// SubmitFailed reports a decision-submit REST failure.
type SubmitFailed struct{ Err error }

// TransportOpened mirrors the connector's OnConnect callback.
type TransportOpened struct{}

// TransportError mirrors the connector's OnError callback.
type TransportError struct{ Err error }

// Disconnected mirrors the connector's OnDisconnect callback.
type Disconnected struct {
	Err       error
	Requested bool
}

// --- server pushes ---

type MatchFound struct{ client.MatchFoundPayload }

type RoundStarted struct{ client.RoundStartPayload }

type RoundResolved struct{ client.RoundResultPayload }

type MatchEnded struct{ client.MatchResultPayload }

type OpponentLeft struct{}

type OpponentDecided struct{ Round int }

type QueueUpdated struct{ Position int }

// ServerError is an application error frame.
type ServerError struct{ Text string }

// --- round timer ---

// TimerTick carries the seconds left in Round.
type TimerTick struct {
	Round     int
	Remaining int
}

// TimerExpired fires once when Round's countdown reaches zero.
type TimerExpired struct{ Round int }

func (JoinQueue) isEvent()       {}
func (SubmitDecision) isEvent()  {}
func (Leave) isEvent()           {}
func (Reset) isEvent()           {}
func (Connected) isEvent()       {}
func (ConnectFailed) isEvent()   {}
func (QueueJoined) isEvent()     {}
func (QueueJoinFailed) isEvent() {}
func (LeaveFailed) isEvent()     {}
func (SubmitFailed) isEvent()    {}
func (TransportOpened) isEvent() {}
func (TransportError) isEvent()  {}
func (Disconnected) isEvent()    {}
func (MatchFound) isEvent()      {}
func (RoundStarted) isEvent()    {}
func (RoundResolved) isEvent()   {}
func (MatchEnded) isEvent()      {}
func (OpponentLeft) isEvent()    {}
func (OpponentDecided) isEvent() {}
func (QueueUpdated) isEvent()    {}
func (ServerError) isEvent()     {}
func (TimerTick) isEvent()       {}
func (TimerExpired) isEvent()    {}

// Effect is an instruction the machine hands back to the controller.
type Effect interface{ isEffect() }

// Level ranks a notice for display.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelError
)

// Notice is a transient user-facing message.
type Notice struct {
	Level Level
	Text  string
}

type (
	Connect        struct{ Gen Gen }
	RequestJoin    struct{ Gen Gen }
	RequestLeave   struct{}
	RequestSubmit  struct{ client.SubmitDecisionRequest }
	CloseTransport struct{}
	StartTimer     struct{ Round, Seconds int }
	StopTimer      struct{}
	Notify         struct{ Notice }
	UpdateProfile  struct {
		Points    int
		Tier      string
		Outcome   Outcome
		WinStreak int
	}
)

func (Connect) isEffect()        {}
func (RequestJoin) isEffect()    {}
func (RequestLeave) isEffect()   {}
func (RequestSubmit) isEffect()  {}
func (CloseTransport) isEffect() {}
func (StartTimer) isEffect()     {}
func (StopTimer) isEffect()      {}
func (Notify) isEffect()         {}
func (UpdateProfile) isEffect()  {}
