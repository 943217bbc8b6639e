package present

import (
	"fmt"
	"io"
	"sync"

	"github.com/cvasquez/chesslink/internal/engine"
)

// Presenter is the display surface the session controller drives. The
// controller never formats terminal output itself; everything a player sees
// goes through this interface.
type Presenter interface {
	// Orient sets which side is at the bottom of the board.
	Orient(color engine.Color)
	// Position redraws the board from a FEN string.
	Position(fen string)
	// Snapback redraws a rejected local move away, restoring fen.
	Snapback(fen string)
	// Status shows the turn/outcome line; check marks the highlighted variant.
	Status(text string, check bool)
	// Chat appends a delivered chat line.
	Chat(line string)
	// Alert surfaces an error or notice outside the normal status line.
	Alert(text string)
	// RoomPanel toggles the create/join controls; hidden once a game starts.
	RoomPanel(visible bool)
}

var _ Presenter = (*Console)(nil)

// Console renders to a terminal writer. Board frames are redrawn in full on
// every position change.
type Console struct {
	mu     sync.Mutex
	w      io.Writer
	bottom engine.Color
}

func NewConsole(w io.Writer) *Console {
	return &Console{w: w, bottom: engine.White}
}

func (c *Console) Orient(color engine.Color) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bottom = color
}

func (c *Console) Position(fen string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draw(fen)
}

func (c *Console) Snapback(fen string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.w, "Move rejected.")
	c.draw(fen)
}

func (c *Console) Status(text string, check bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.w, text)
}

func (c *Console) Chat(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.w, line)
}

func (c *Console) Alert(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, "! %s\n", text)
}

func (c *Console) RoomPanel(visible bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if visible {
		fmt.Fprintln(c.w, "Commands: create [room] | join <room>")
	}
}

func (c *Console) draw(fen string) {
	board, err := RenderBoard(fen, c.bottom)
	if err != nil {
		fmt.Fprintf(c.w, "bad position: %v\n", err)
		return
	}
	fmt.Fprint(c.w, board)
}
