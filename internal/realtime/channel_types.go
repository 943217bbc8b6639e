package realtime

import (
	"context"
	"errors"
)

// State is the lifecycle of the channel connection.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateAuthRejected State = "auth_rejected"
	StateClosed       State = "closed"
)

// ErrAuthRejected is returned or signalled when the server refuses the
// credential, at handshake time or via the auth close code.
var ErrAuthRejected = errors.New("channel authentication rejected")

// ErrNotConnected is returned for emits on a channel that is not connected.
var ErrNotConnected = errors.New("channel not connected")

// HeaderProvider injects handshake headers (the bearer token).
type HeaderProvider func() map[string]string

// EventCallback receives decoded inbound events.
type EventCallback func(in *Inbound)

// StateCallback observes connection state transitions.
type StateCallback func(state State)

// Transport is the channel surface the session controller depends on.
type Transport interface {
	Connect(ctx context.Context) error
	Close(ctx context.Context) error
	OnEvent(cb EventCallback) int
	RemoveEventCallback(id int)
	OnStateChange(cb StateCallback) int
	RemoveStateCallback(id int)
	CreateRoom(ctx context.Context, roomID string) error
	JoinRoom(ctx context.Context, roomID string) error
	SendMove(ctx context.Context, p MovePayload) error
	SendChat(ctx context.Context, p ChatPayload) error
}
