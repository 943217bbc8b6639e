package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/cvasquez/chesslink/internal/obslog"
)

// CloseStatusAuthRejected is the application close code the coordination
// server uses when the handshake credential is invalid.
const CloseStatusAuthRejected = websocket.StatusCode(4401)

var _ Transport = (*Channel)(nil)

type eventCallbackEntry struct {
	id       int
	callback EventCallback
}

type stateCallbackEntry struct {
	id       int
	callback StateCallback
}

// Channel is a single authenticated WebSocket connection to the game
// coordination server. There is no automatic reconnect: a dropped or
// rejected connection ends the session and the caller starts over.
type Channel struct {
	wsURL string

	conn   *websocket.Conn
	state  State
	stateM sync.RWMutex

	evtCbs   []eventCallbackEntry
	stateCbs []stateCallbackEntry
	cbM      sync.RWMutex

	pingInterval time.Duration
	emitTimeout  time.Duration

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	rootCtx    context.Context
	rootCancel context.CancelFunc

	headerProvider HeaderProvider
}

type ChannelOption func(*Channel)

func WithPingInterval(d time.Duration) ChannelOption {
	return func(c *Channel) { c.pingInterval = d }
}

func WithEmitTimeout(d time.Duration) ChannelOption {
	return func(c *Channel) { c.emitTimeout = d }
}

func NewChannel(wsURL string, opts ...ChannelOption) *Channel {
	c := &Channel{
		wsURL:        wsURL,
		state:        StateDisconnected,
		pingInterval: 30 * time.Second,
		emitTimeout:  5 * time.Second,
		stopCh:       make(chan struct{}),
		evtCbs:       make([]eventCallbackEntry, 0),
		stateCbs:     make([]stateCallbackEntry, 0),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetHeaderProvider injects handshake headers, typically the bearer token.
func (c *Channel) SetHeaderProvider(h HeaderProvider) {
	c.headerProvider = h
}

// Connect dials the server. ErrAuthRejected is returned when the server
// refuses the credential at handshake time.
func (c *Channel) Connect(ctx context.Context) error {
	c.stateM.Lock()
	if c.state == StateConnected || c.state == StateConnecting {
		c.stateM.Unlock()
		return nil
	}
	c.stateM.Unlock()

	c.rootCtx, c.rootCancel = context.WithCancel(context.Background())
	c.setState(StateConnecting)

	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	conn, resp, err := websocket.Dial(dialCtx, c.wsURL, &websocket.DialOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
		HTTPHeader:      c.buildHeaders(),
	})
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			c.setState(StateAuthRejected)
			return ErrAuthRejected
		}
		c.setState(StateDisconnected)
		return err
	}

	c.conn = conn
	c.setState(StateConnected)

	c.wg.Add(2)
	go c.listen()
	go c.pingLoop()
	return nil
}

func (c *Channel) listen() {
	defer c.wg.Done()
	for {
		select {
		case <-c.stopCh:
			return
		default:
		}

		if c.conn == nil {
			return
		}
		var env Envelope
		if err := wsjson.Read(c.rootCtx, c.conn, &env); err != nil {
			if c.isStopping() {
				return
			}
			if websocket.CloseStatus(err) == CloseStatusAuthRejected {
				c.setState(StateAuthRejected)
			} else {
				c.setState(StateDisconnected)
			}
			_ = c.closeConn(websocket.StatusGoingAway, "read error")
			return
		}

		in, err := DecodeInbound(&env)
		if err != nil {
			obslog.L().Warn("channel_drop_frame", zap.String("event", env.Event), zap.Error(err))
			continue
		}

		c.cbM.RLock()
		callbacks := make([]eventCallbackEntry, len(c.evtCbs))
		copy(callbacks, c.evtCbs)
		c.cbM.RUnlock()
		for _, entry := range callbacks {
			if entry.callback != nil {
				entry.callback(in)
			}
		}
	}
}

func (c *Channel) pingLoop() {
	defer c.wg.Done()
	t := time.NewTicker(c.pingInterval)
	defer t.Stop()
	failures := 0
	for {
		select {
		case <-c.stopCh:
			return
		case <-t.C:
			if c.conn == nil {
				continue
			}
			ctx, cancel := context.WithTimeout(c.rootCtx, 3*time.Second)
			err := c.conn.Ping(ctx)
			cancel()
			if err != nil {
				failures++
				if failures >= 2 {
					if c.isStopping() {
						return
					}
					c.setState(StateDisconnected)
					_ = c.closeConn(websocket.StatusGoingAway, "ping failure")
					return
				}
				continue
			}
			failures = 0
		}
	}
}

// CreateRoom asks the server for a new room.
func (c *Channel) CreateRoom(ctx context.Context, roomID string) error {
	return c.emit(ctx, EventCreateRoom, roomID)
}

// JoinRoom asks the server to join an existing room.
func (c *Channel) JoinRoom(ctx context.Context, roomID string) error {
	return c.emit(ctx, EventJoinRoom, roomID)
}

// SendMove transmits an already-locally-validated move.
func (c *Channel) SendMove(ctx context.Context, p MovePayload) error {
	return c.emit(ctx, EventMove, p)
}

// SendChat broadcasts a chat line to the room.
func (c *Channel) SendChat(ctx context.Context, p ChatPayload) error {
	return c.emit(ctx, EventSendMessage, p)
}

// emit writes one envelope. Fire-and-forget with a bounded deadline; callers
// are serialized by the session controller, wsjson.Write is not safe for
// concurrent use.
func (c *Channel) emit(ctx context.Context, event string, data any) error {
	c.stateM.RLock()
	connected := c.state == StateConnected && c.conn != nil
	c.stateM.RUnlock()
	if !connected {
		return ErrNotConnected
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	dctx := ctx
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		dctx, cancel = context.WithTimeout(ctx, c.emitTimeout)
		defer cancel()
	}
	return wsjson.Write(dctx, c.conn, &Envelope{Event: event, Data: raw})
}

func (c *Channel) OnEvent(cb EventCallback) int {
	c.cbM.Lock()
	defer c.cbM.Unlock()
	id := len(c.evtCbs) + 1
	c.evtCbs = append(c.evtCbs, eventCallbackEntry{id: id, callback: cb})
	return id
}

func (c *Channel) RemoveEventCallback(id int) {
	c.cbM.Lock()
	defer c.cbM.Unlock()
	for i, cb := range c.evtCbs {
		if cb.id == id {
			c.evtCbs = append(c.evtCbs[:i], c.evtCbs[i+1:]...)
			break
		}
	}
}

func (c *Channel) OnStateChange(cb StateCallback) int {
	c.cbM.Lock()
	defer c.cbM.Unlock()
	id := len(c.stateCbs) + 1
	c.stateCbs = append(c.stateCbs, stateCallbackEntry{id: id, callback: cb})
	return id
}

func (c *Channel) RemoveStateCallback(id int) {
	c.cbM.Lock()
	defer c.cbM.Unlock()
	for i, cb := range c.stateCbs {
		if cb.id == id {
			c.stateCbs = append(c.stateCbs[:i], c.stateCbs[i+1:]...)
			break
		}
	}
}

func (c *Channel) setState(state State) {
	c.stateM.Lock()
	c.state = state
	c.stateM.Unlock()

	c.cbM.RLock()
	callbacks := make([]stateCallbackEntry, len(c.stateCbs))
	copy(callbacks, c.stateCbs)
	c.cbM.RUnlock()
	for _, entry := range callbacks {
		if entry.callback != nil {
			entry.callback(state)
		}
	}
}

// Close shuts the connection down and waits for the loops to drain.
func (c *Channel) Close(ctx context.Context) error {
	c.stopOnce.Do(func() { close(c.stopCh) })
	_ = c.closeConn(websocket.StatusNormalClosure, "close")

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		if c.rootCancel != nil {
			c.rootCancel()
		}
		c.setState(StateClosed)
		return nil
	}
}

func (c *Channel) closeConn(code websocket.StatusCode, reason string) error {
	if c.conn == nil {
		return nil
	}
	defer func() { c.conn = nil }()
	return c.conn.Close(code, reason)
}

func (c *Channel) isStopping() bool {
	select {
	case <-c.stopCh:
		return true
	default:
		return false
	}
}

func (c *Channel) buildHeaders() http.Header {
	hdr := http.Header{}
	if c.headerProvider == nil {
		return hdr
	}
	for k, v := range c.headerProvider() {
		if strings.TrimSpace(k) == "" || strings.TrimSpace(v) == "" {
			continue
		}
		hdr.Set(k, v)
	}
	return hdr
}
