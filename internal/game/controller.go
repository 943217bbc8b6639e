package game

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cvasquez/chesslink/internal/engine"
	"github.com/cvasquez/chesslink/internal/history"
	"github.com/cvasquez/chesslink/internal/msgcat"
	"github.com/cvasquez/chesslink/internal/obslog"
	"github.com/cvasquez/chesslink/internal/present"
	"github.com/cvasquez/chesslink/internal/realtime"
	"github.com/cvasquez/chesslink/internal/session"
)

// Deps is everything the controller drives. History is optional; the rest is
// required.
type Deps struct {
	Store     session.Store
	Transport realtime.Transport
	Engine    *engine.Adapter
	Presenter present.Presenter
	Catalog   *msgcat.Catalog
	History   *history.Repository
	Username  string
}

// Controller owns the session state machine: connect, wait for a room, play
// one game, terminate. All event handling is serialized under one mutex, so
// local submissions and remote events never interleave mid-update.
type Controller struct {
	mu sync.Mutex

	deps  Deps
	phase Phase

	color     engine.Color
	roomID    string
	startedAt time.Time

	evtCbID   int
	stateCbID int
}

func NewController(deps Deps) *Controller {
	return &Controller{
		deps:  deps,
		phase: PhaseUnauthenticated,
	}
}

func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

func (c *Controller) Color() engine.Color {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.color
}

func (c *Controller) RoomID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roomID
}

// Start connects the channel with the stored credential already wired into
// the transport's header provider. A rejected credential is cleared from the
// store so the next start demands a fresh login.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	c.phase = PhaseConnecting
	c.mu.Unlock()

	if err := c.deps.Transport.Connect(ctx); err != nil {
		c.mu.Lock()
		c.phase = PhaseUnauthenticated
		c.mu.Unlock()
		if errors.Is(err, realtime.ErrAuthRejected) {
			c.expireSession(ctx)
			return err
		}
		return err
	}

	c.evtCbID = c.deps.Transport.OnEvent(c.handleEvent)
	c.stateCbID = c.deps.Transport.OnStateChange(c.handleState)

	c.mu.Lock()
	c.phase = PhaseAwaitingRoom
	c.mu.Unlock()
	c.deps.Presenter.RoomPanel(true)
	return nil
}

// Close detaches callbacks and closes the channel.
func (c *Controller) Close(ctx context.Context) error {
	c.deps.Transport.RemoveEventCallback(c.evtCbID)
	c.deps.Transport.RemoveStateCallback(c.stateCbID)
	return c.deps.Transport.Close(ctx)
}

// CreateRoom requests a new room. An empty id gets a generated one.
func (c *Controller) CreateRoom(ctx context.Context, roomID string) error {
	c.mu.Lock()
	if c.phase != PhaseAwaitingRoom {
		c.mu.Unlock()
		return ErrNoRoom
	}
	roomID = strings.TrimSpace(roomID)
	if roomID == "" {
		roomID = uuid.NewString()
	}
	c.roomID = roomID
	c.mu.Unlock()

	c.deps.Presenter.Status(c.deps.Catalog.MustRender("room.creating", map[string]any{"Room": roomID}), false)
	return c.deps.Transport.CreateRoom(ctx, roomID)
}

// JoinRoom requests membership in an existing room.
func (c *Controller) JoinRoom(ctx context.Context, roomID string) error {
	c.mu.Lock()
	if c.phase != PhaseAwaitingRoom {
		c.mu.Unlock()
		return ErrNoRoom
	}
	roomID = strings.TrimSpace(roomID)
	if roomID == "" {
		c.mu.Unlock()
		return errors.New("room id is required")
	}
	c.roomID = roomID
	c.mu.Unlock()

	c.deps.Presenter.Status(c.deps.Catalog.MustRender("room.joining", map[string]any{"Room": roomID}), false)
	return c.deps.Transport.JoinRoom(ctx, roomID)
}

// SubmitMove runs a local move through the guards and the rule oracle. A
// refused move redraws the prior position and emits nothing on the wire; an
// accepted move is shown immediately and then broadcast.
func (c *Controller) SubmitMove(ctx context.Context, cand engine.Candidate) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase != PhaseInGame && c.phase != PhaseTerminated {
		return ErrNotInGame
	}

	// three independent refusals, each checked on its own
	if c.deps.Engine.IsGameOver() {
		c.deps.Presenter.Snapback(c.deps.Engine.FEN())
		return nil
	}
	if c.deps.Engine.CurrentTurn() != c.color {
		c.deps.Presenter.Snapback(c.deps.Engine.FEN())
		return nil
	}
	if owner, ok := c.deps.Engine.PieceColorAt(cand.From); !ok || owner != c.color {
		c.deps.Presenter.Snapback(c.deps.Engine.FEN())
		return nil
	}

	mv, err := c.deps.Engine.ApplyMove(cand)
	if errors.Is(err, engine.ErrIllegalMove) {
		c.deps.Presenter.Snapback(c.deps.Engine.FEN())
		return nil
	}
	if err != nil {
		return err
	}

	fen := c.deps.Engine.FEN()
	if err := c.deps.Transport.SendMove(ctx, realtime.MovePayload{
		RoomID: c.roomID,
		Move:   *mv,
		FEN:    fen,
	}); err != nil {
		obslog.L().Warn("move_broadcast_failed", zap.String("room", c.roomID), zap.Error(err))
	}

	c.deps.Presenter.Position(fen)
	c.projectStatus(ctx)
	return nil
}

// SendChat broadcasts a chat line. Chat stays open after the game ends.
func (c *Controller) SendChat(ctx context.Context, message string) error {
	c.mu.Lock()
	if c.phase != PhaseInGame && c.phase != PhaseTerminated {
		c.mu.Unlock()
		return ErrNotInGame
	}
	roomID := c.roomID
	c.mu.Unlock()

	message = strings.TrimSpace(message)
	if message == "" {
		return nil
	}
	return c.deps.Transport.SendChat(ctx, realtime.ChatPayload{
		RoomID:   roomID,
		Message:  message,
		Username: c.deps.Username,
	})
}

func (c *Controller) handleEvent(in *realtime.Inbound) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx := context.Background()
	switch {
	case in.PlayerColor != nil:
		c.color = in.PlayerColor.Color
		c.phase = PhaseInGame
		c.startedAt = time.Now()
		c.deps.Presenter.Orient(c.color)
		c.deps.Presenter.RoomPanel(false)
		c.deps.Presenter.Status(c.deps.Catalog.MustRender("status.game_started", map[string]any{
			"Color": string(c.color),
		}), false)
		c.deps.Presenter.Position(c.deps.Engine.FEN())

	case in.StartGame != nil:
		if err := c.deps.Engine.LoadPosition(in.StartGame.FEN); err != nil {
			obslog.L().Warn("start_position_rejected", zap.String("fen", in.StartGame.FEN), zap.Error(err))
			return
		}
		c.deps.Presenter.Position(c.deps.Engine.FEN())
		c.projectStatus(ctx)

	case in.Move != nil:
		// the sender already validated; apply without re-checking whose
		// turn we believe it is
		if _, err := c.deps.Engine.ApplyMove(in.Move.Move); err != nil {
			obslog.L().Warn("remote_move_rejected",
				zap.String("from", in.Move.Move.From),
				zap.String("to", in.Move.Move.To),
				zap.Error(err))
			return
		}
		c.deps.Presenter.Position(c.deps.Engine.FEN())
		c.projectStatus(ctx)

	case in.Chat != nil:
		c.deps.Presenter.Chat(c.deps.Catalog.MustRender("chat.line", map[string]any{
			"Username": in.Chat.Username,
			"Message":  in.Chat.Message,
		}))

	case in.RoomError != nil:
		c.deps.Presenter.Alert(in.RoomError.Message)
		c.roomID = ""
		c.phase = PhaseAwaitingRoom
		c.deps.Presenter.RoomPanel(true)
	}
}

func (c *Controller) handleState(state realtime.State) {
	if state != realtime.StateAuthRejected {
		return
	}
	c.mu.Lock()
	c.phase = PhaseUnauthenticated
	c.mu.Unlock()
	c.expireSession(context.Background())
}

// expireSession clears the stored credential after a server-side rejection.
func (c *Controller) expireSession(ctx context.Context) {
	if err := c.deps.Store.Clear(ctx); err != nil {
		obslog.L().Warn("session_clear_failed", zap.Error(err))
	}
	c.deps.Presenter.Alert(c.deps.Catalog.MustRender("auth.session_expired", nil))
}

// projectStatus derives the status line from the oracle and, on a terminal
// position, ends the session and archives the game. Callers hold the mutex.
func (c *Controller) projectStatus(ctx context.Context) {
	eng := c.deps.Engine
	cat := c.deps.Catalog

	if eng.IsGameOver() {
		if winner, ok := eng.Winner(); ok && eng.IsCheckmate() {
			c.deps.Presenter.Status(cat.MustRender("status.game_over_win", map[string]any{
				"Winner": titleColor(winner),
			}), false)
			c.finishGame(ctx, string(winner), "checkmate")
			return
		}
		c.deps.Presenter.Status(cat.MustRender("status.game_over_draw", nil), false)
		c.finishGame(ctx, "draw", "draw")
		return
	}

	key := "status.white_to_move"
	if eng.CurrentTurn() == engine.Black {
		key = "status.black_to_move"
	}
	text := cat.MustRender(key, nil)
	check := eng.IsCheck()
	if check {
		text += cat.MustRender("status.check_suffix", nil)
	}
	c.deps.Presenter.Status(text, check)
}

func (c *Controller) finishGame(ctx context.Context, result, method string) {
	if c.phase == PhaseTerminated {
		return
	}
	c.phase = PhaseTerminated

	if c.deps.History == nil {
		return
	}
	rec := &history.Record{
		RoomID:    c.roomID,
		Username:  c.deps.Username,
		Color:     string(c.color),
		Result:    result,
		Method:    method,
		MovesSAN:  c.deps.Engine.SANHistory(),
		FinalFEN:  c.deps.Engine.FEN(),
		StartedAt: c.startedAt,
		EndedAt:   time.Now(),
	}
	saveCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := c.deps.History.SaveResult(saveCtx, rec); err != nil {
		obslog.L().Warn("history_save_failed", zap.String("room", rec.RoomID), zap.Error(err))
	}
}

func titleColor(c engine.Color) string {
	switch c {
	case engine.White:
		return "White"
	case engine.Black:
		return "Black"
	default:
		return string(c)
	}
}
