package session

import (
	"encoding/json"
	"fmt"

	"github.com/smartstocks/pvp-tui/internal/client"
)

// Decode turns an inbound frame into an Event. Frames that carry no session
// meaning (ping, pong, unknown types) decode to nil with no error.
func Decode(msg client.Message) (Event, error) {
	switch msg.Type {
	case client.MsgMatchFound:
		var p client.MatchFoundPayload
		if err := unmarshal(msg, &p); err != nil {
			return nil, err
		}
		return MatchFound{p}, nil
	case client.MsgRoundStart:
		var p client.RoundStartPayload
		if err := unmarshal(msg, &p); err != nil {
			return nil, err
		}
		return RoundStarted{p}, nil
	case client.MsgRoundResult:
		var p client.RoundResultPayload
		if err := unmarshal(msg, &p); err != nil {
			return nil, err
		}
		return RoundResolved{p}, nil
	case client.MsgMatchResult:
		var p client.MatchResultPayload
		if err := unmarshal(msg, &p); err != nil {
			return nil, err
		}
		return MatchEnded{p}, nil
	case client.MsgOpponentLeft:
		return OpponentLeft{}, nil
	case client.MsgOpponentDecided:
		var p client.OpponentDecidedPayload
		if err := unmarshal(msg, &p); err != nil {
			return nil, err
		}
		return OpponentDecided{Round: p.RoundNumber}, nil
	case client.MsgQueueUpdate:
		var p client.QueueUpdatePayload
		if err := unmarshal(msg, &p); err != nil {
			return nil, err
		}
		return QueueUpdated{Position: p.Position}, nil
	case client.MsgError:
		// A malformed error payload still deserves a notice.
		var p client.ErrorPayload
		_ = unmarshal(msg, &p)
		return ServerError{Text: p.Text()}, nil
	}
	return nil, nil
}

func unmarshal(msg client.Message, out any) error {
	if len(msg.Data) == 0 || string(msg.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(msg.Data, out); err != nil {
		return fmt.Errorf("decode %s: %w", msg.Type, err)
	}
	return nil
}
