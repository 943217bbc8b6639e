package engine

import (
	"errors"
	"testing"
)

func mustApply(t *testing.T, a *Adapter, from, to string) *Move {
	t.Helper()
	mv, err := a.ApplyMove(Candidate{From: from, To: to})
	if err != nil {
		t.Fatalf("ApplyMove %s%s: %v", from, to, err)
	}
	return mv
}

func TestApplyMoveLegal(t *testing.T) {
	a := New()
	mv := mustApply(t, a, "e2", "e4")
	if mv.SAN != "e4" || mv.UCI != "e2e4" {
		t.Fatalf("unexpected encoding: %+v", mv)
	}
	if a.CurrentTurn() != Black {
		t.Fatalf("expected black to move, got %s", a.CurrentTurn())
	}
}

func TestApplyMoveIllegalLeavesStateUnchanged(t *testing.T) {
	a := New()
	before := a.FEN()
	turn := a.CurrentTurn()

	_, err := a.ApplyMove(Candidate{From: "e2", To: "e5"})
	if !errors.Is(err, ErrIllegalMove) {
		t.Fatalf("expected ErrIllegalMove, got %v", err)
	}
	if a.FEN() != before {
		t.Fatalf("position mutated on rejected move:\n%s\n%s", before, a.FEN())
	}
	if a.CurrentTurn() != turn {
		t.Fatalf("turn mutated on rejected move")
	}
}

func TestApplyMoveMalformedSquares(t *testing.T) {
	a := New()
	for _, c := range []Candidate{{From: "", To: "e4"}, {From: "z9", To: "e4"}, {From: "e2", To: "x0"}} {
		if _, err := a.ApplyMove(c); !errors.Is(err, ErrIllegalMove) {
			t.Fatalf("expected ErrIllegalMove for %+v, got %v", c, err)
		}
	}
}

func TestSequentialEqualsBatchReplay(t *testing.T) {
	// Applying moves one at a time must yield the same FEN as replaying the
	// same sequence on a fresh adapter.
	seq := [][2]string{{"e2", "e4"}, {"e7", "e5"}, {"g1", "f3"}, {"b8", "c6"}, {"f1", "b5"}}

	a := New()
	for _, m := range seq {
		mustApply(t, a, m[0], m[1])
	}

	b := New()
	for _, m := range seq {
		mustApply(t, b, m[0], m[1])
	}

	if a.FEN() != b.FEN() {
		t.Fatalf("sequential application diverged:\n%s\n%s", a.FEN(), b.FEN())
	}
}

func TestCaptureFlags(t *testing.T) {
	a := New()
	mustApply(t, a, "e2", "e4")
	mustApply(t, a, "d7", "d5")
	mv := mustApply(t, a, "e4", "d5")
	if !mv.Capture {
		t.Fatalf("expected capture flag on exd5: %+v", mv)
	}
	if mv.EnPassant || mv.Castle || mv.Promoted {
		t.Fatalf("unexpected flags: %+v", mv)
	}
}

func TestDefaultQueenPromotion(t *testing.T) {
	a := New()
	// Position with a white pawn one step from promotion.
	if err := a.LoadPosition("8/4P1k1/8/8/8/8/8/4K3 w - - 0 1"); err != nil {
		t.Fatalf("LoadPosition: %v", err)
	}
	mv, err := a.ApplyMove(Candidate{From: "e7", To: "e8"})
	if err != nil {
		t.Fatalf("ApplyMove promotion: %v", err)
	}
	if !mv.Promoted || mv.Promotion != "q" {
		t.Fatalf("expected default queen promotion, got %+v", mv)
	}
}

func TestCheckmateDetection(t *testing.T) {
	a := New()
	for _, m := range [][2]string{{"f2", "f3"}, {"e7", "e5"}, {"g2", "g4"}, {"d8", "h4"}} {
		mustApply(t, a, m[0], m[1])
	}
	if !a.IsGameOver() || !a.IsCheckmate() {
		t.Fatalf("expected checkmate after fool's mate")
	}
	winner, ok := a.Winner()
	if !ok || winner != Black {
		t.Fatalf("expected black winner, got %s ok=%v", winner, ok)
	}
	if a.IsDraw() {
		t.Fatalf("checkmate reported as draw")
	}
}

func TestLoadPositionIdempotent(t *testing.T) {
	a := New()
	mustApply(t, a, "e2", "e4")
	fen := a.FEN()

	if err := a.LoadPosition(fen); err != nil {
		t.Fatalf("LoadPosition: %v", err)
	}
	if err := a.LoadPosition(fen); err != nil {
		t.Fatalf("second LoadPosition: %v", err)
	}
	if a.FEN() != fen {
		t.Fatalf("position changed after repeated load:\n%s\n%s", fen, a.FEN())
	}
	if a.CurrentTurn() != Black {
		t.Fatalf("turn changed after repeated load")
	}
}

func TestPieceColorAt(t *testing.T) {
	a := New()
	if c, ok := a.PieceColorAt("e2"); !ok || c != White {
		t.Fatalf("expected white pawn on e2, got %s ok=%v", c, ok)
	}
	if c, ok := a.PieceColorAt("e7"); !ok || c != Black {
		t.Fatalf("expected black pawn on e7, got %s ok=%v", c, ok)
	}
	if _, ok := a.PieceColorAt("e4"); ok {
		t.Fatalf("expected empty square e4")
	}
	if _, ok := a.PieceColorAt("nope"); ok {
		t.Fatalf("expected malformed square to report false")
	}
}

func TestCheckFlag(t *testing.T) {
	a := New()
	mustApply(t, a, "e2", "e4")
	mustApply(t, a, "f7", "f6")
	mv := mustApply(t, a, "d1", "h5")
	if !mv.Check {
		t.Fatalf("expected check flag on Qh5+: %+v", mv)
	}
	if !a.IsCheck() {
		t.Fatalf("adapter should report check after Qh5+")
	}
}
