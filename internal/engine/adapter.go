package engine

import (
	"errors"
	"fmt"
	"strings"

	nchess "github.com/corentings/chess/v2"
)

// Color identifies a chess side.
type Color string

const (
	White Color = "white"
	Black Color = "black"
)

// Opponent returns the other side.
func (c Color) Opponent() Color {
	if c == White {
		return Black
	}
	return White
}

// Candidate is a move proposal before legality has been checked. An empty
// Promotion defaults to queen, matching the drag-drop submission behavior.
type Candidate struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Promotion string `json:"promotion,omitempty"`
}

// Move is a legality-checked, applied move with its derived flags.
type Move struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Promotion string `json:"promotion,omitempty"`
	SAN       string `json:"san"`
	UCI       string `json:"uci"`
	Capture   bool   `json:"capture,omitempty"`
	EnPassant bool   `json:"enPassant,omitempty"`
	Castle    bool   `json:"castle,omitempty"`
	Promoted  bool   `json:"promoted,omitempty"`
	Check     bool   `json:"check,omitempty"`
}

// ErrIllegalMove signals that a candidate was rejected; the position and turn
// are guaranteed unchanged.
var ErrIllegalMove = errors.New("illegal move")

// Adapter is a thin pass-through over the rule oracle. It owns no game state
// beyond what the oracle maintains, plus the last applied move for check
// reporting.
type Adapter struct {
	game *nchess.Game
	last *nchess.Move
}

// New returns an adapter at the standard initial position.
func New() *Adapter {
	return &Adapter{game: nchess.NewGame()}
}

// CurrentTurn reports the side to move.
func (a *Adapter) CurrentTurn() Color {
	if a.game.Position().Turn() == nchess.White {
		return White
	}
	return Black
}

// IsGameOver reports whether the position is terminal.
func (a *Adapter) IsGameOver() bool {
	return a.game.Outcome() != nchess.NoOutcome
}

func (a *Adapter) IsCheckmate() bool {
	return a.game.Method() == nchess.Checkmate
}

func (a *Adapter) IsDraw() bool {
	return a.game.Outcome() == nchess.Draw
}

// IsCheck reports whether the last applied move gave check. Positions loaded
// via FEN start with no move history, so a pending check is reported again
// once the next move lands.
func (a *Adapter) IsCheck() bool {
	return a.last != nil && a.last.HasTag(nchess.Check)
}

// Winner returns the winning side once checkmate has been reached.
func (a *Adapter) Winner() (Color, bool) {
	switch a.game.Outcome() {
	case nchess.WhiteWon:
		return White, true
	case nchess.BlackWon:
		return Black, true
	default:
		return "", false
	}
}

// FEN encodes the current position.
func (a *Adapter) FEN() string {
	return a.game.FEN()
}

// SANHistory returns the applied moves in algebraic notation.
func (a *Adapter) SANHistory() []string {
	moves := a.game.Moves()
	if len(moves) == 0 {
		return nil
	}
	replay := nchess.NewGame()
	out := make([]string, 0, len(moves))
	for _, mv := range moves {
		out = append(out, nchess.AlgebraicNotation{}.Encode(replay.Position(), mv))
		_ = replay.Move(mv, nil)
	}
	return out
}

// LoadPosition replaces the current position. Loading the FEN of the current
// position is a no-op, so repeated start/resync frames are idempotent.
func (a *Adapter) LoadPosition(fen string) error {
	fen = strings.TrimSpace(fen)
	if fen == "" {
		return fmt.Errorf("empty fen")
	}
	if fen == a.game.FEN() {
		return nil
	}
	opt, err := nchess.FEN(fen)
	if err != nil {
		return fmt.Errorf("parse fen: %w", err)
	}
	a.game = nchess.NewGame(opt)
	a.last = nil
	return nil
}

// Reset returns the adapter to the standard initial position.
func (a *Adapter) Reset() {
	a.game = nchess.NewGame()
	a.last = nil
}

// PieceColorAt reports the color of the piece on an algebraic square, and
// false when the square is empty or malformed.
func (a *Adapter) PieceColorAt(square string) (Color, bool) {
	sq, ok := parseSquare(square)
	if !ok {
		return "", false
	}
	piece := a.game.Position().Board().Piece(sq)
	if piece == nchess.NoPiece {
		return "", false
	}
	if piece.Color() == nchess.White {
		return White, true
	}
	return Black, true
}

// ApplyMove validates and applies a candidate. On rejection it returns
// ErrIllegalMove and mutates nothing. A promotion suffix is only consulted
// when the plain from-to move does not decode, so "e7e8" promotes to the
// default queen while "e2e4q" still plays e2e4.
func (a *Adapter) ApplyMove(c Candidate) (*Move, error) {
	from := strings.ToLower(strings.TrimSpace(c.From))
	to := strings.ToLower(strings.TrimSpace(c.To))
	if from == "" || to == "" {
		return nil, ErrIllegalMove
	}
	promo := strings.ToLower(strings.TrimSpace(c.Promotion))
	if promo == "" {
		promo = "q"
	}

	pos := a.game.Position()
	notation := nchess.UCINotation{}

	uci := from + to
	mv, err := notation.Decode(pos, uci)
	if err != nil {
		uci = from + to + promo
		mv, err = notation.Decode(pos, uci)
		if err != nil {
			return nil, ErrIllegalMove
		}
	}

	san := nchess.AlgebraicNotation{}.Encode(pos, mv)
	if err := a.game.Move(mv, nil); err != nil {
		return nil, ErrIllegalMove
	}
	a.last = mv

	applied := &Move{
		From:      from,
		To:        to,
		SAN:       san,
		UCI:       uci,
		Capture:   mv.HasTag(nchess.Capture) || mv.HasTag(nchess.EnPassant),
		EnPassant: mv.HasTag(nchess.EnPassant),
		Castle:    mv.HasTag(nchess.KingSideCastle) || mv.HasTag(nchess.QueenSideCastle),
		Check:     mv.HasTag(nchess.Check),
	}
	if mv.Promo() != nchess.NoPieceType {
		applied.Promoted = true
		applied.Promotion = promo
	}
	return applied, nil
}

func parseSquare(s string) (nchess.Square, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) != 2 {
		return 0, false
	}
	file := int(s[0] - 'a')
	rank := int(s[1] - '1')
	if file < 0 || file > 7 || rank < 0 || rank > 7 {
		return 0, false
	}
	return nchess.Square(rank*8 + file), true
}
