package realtime

import (
	"encoding/json"
	"fmt"

	"github.com/cvasquez/chesslink/internal/engine"
)

// Event names on the wire, client to server.
const (
	EventCreateRoom  = "create_room"
	EventJoinRoom    = "join_room"
	EventMove        = "move"
	EventSendMessage = "sendMessage"
)

// Event names on the wire, server to client.
const (
	EventPlayerColor    = "playerColor"
	EventStartGame      = "startGame"
	EventReceiveMessage = "receiveMessage"
	EventError          = "error"
)

// Envelope is the wire frame: an event name plus its raw payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// MovePayload is the outbound move frame: a locally validated move plus the
// position after applying it, scoped to a room.
type MovePayload struct {
	RoomID string      `json:"roomId"`
	Move   engine.Move `json:"move"`
	FEN    string      `json:"fen"`
}

// ChatPayload is the outbound chat frame.
type ChatPayload struct {
	RoomID   string `json:"roomId"`
	Message  string `json:"message"`
	Username string `json:"username"`
}

// Inbound is the tagged union over server events. Exactly one field is
// non-nil, so a single switch in the consumer covers the whole taxonomy.
type Inbound struct {
	PlayerColor *PlayerColorEvent
	StartGame   *StartGameEvent
	Move        *MoveEvent
	Chat        *ChatEvent
	RoomError   *RoomErrorEvent
}

// PlayerColorEvent assigns this client's side and marks session start.
type PlayerColorEvent struct {
	Color engine.Color
}

// StartGameEvent carries the initial or resync position.
type StartGameEvent struct {
	FEN string
}

// MoveEvent carries the opponent's move to mirror locally.
type MoveEvent struct {
	Move engine.Candidate
}

// ChatEvent is a delivered chat line.
type ChatEvent struct {
	Message  string `json:"message"`
	Username string `json:"username"`
}

// RoomErrorEvent reports a failed room operation; the UI returns to its
// pre-game state.
type RoomErrorEvent struct {
	Message string
}

// DecodeInbound turns a wire envelope into the tagged union. Unknown events
// are an error; the channel logs and drops them.
func DecodeInbound(env *Envelope) (*Inbound, error) {
	if env == nil {
		return nil, fmt.Errorf("nil envelope")
	}
	switch env.Event {
	case EventPlayerColor:
		var color string
		if err := json.Unmarshal(env.Data, &color); err != nil {
			return nil, fmt.Errorf("decode playerColor: %w", err)
		}
		c := engine.Color(color)
		if c != engine.White && c != engine.Black {
			return nil, fmt.Errorf("decode playerColor: unknown color %q", color)
		}
		return &Inbound{PlayerColor: &PlayerColorEvent{Color: c}}, nil
	case EventStartGame:
		var fen string
		if err := json.Unmarshal(env.Data, &fen); err != nil {
			return nil, fmt.Errorf("decode startGame: %w", err)
		}
		return &Inbound{StartGame: &StartGameEvent{FEN: fen}}, nil
	case EventMove:
		var mv engine.Candidate
		if err := json.Unmarshal(env.Data, &mv); err != nil {
			return nil, fmt.Errorf("decode move: %w", err)
		}
		return &Inbound{Move: &MoveEvent{Move: mv}}, nil
	case EventReceiveMessage:
		var chat ChatEvent
		if err := json.Unmarshal(env.Data, &chat); err != nil {
			return nil, fmt.Errorf("decode receiveMessage: %w", err)
		}
		return &Inbound{Chat: &ChatEvent{Message: chat.Message, Username: chat.Username}}, nil
	case EventError:
		var msg string
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			return nil, fmt.Errorf("decode error event: %w", err)
		}
		return &Inbound{RoomError: &RoomErrorEvent{Message: msg}}, nil
	default:
		return nil, fmt.Errorf("unknown event: %q", env.Event)
	}
}
