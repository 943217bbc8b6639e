package game

import "errors"

// Phase is the session lifecycle. Transitions are driven by server events;
// the client never moves itself into InGame.
type Phase string

const (
	PhaseUnauthenticated Phase = "unauthenticated"
	PhaseConnecting      Phase = "connecting"
	PhaseAwaitingRoom    Phase = "awaiting_room"
	PhaseInGame          Phase = "in_game"
	PhaseTerminated      Phase = "terminated"
)

// ErrNotInGame is returned for move or chat submissions outside a game.
var ErrNotInGame = errors.New("no active game")

// ErrNoRoom is returned for room operations outside the awaiting-room phase.
var ErrNoRoom = errors.New("not awaiting a room")
