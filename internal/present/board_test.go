package present

import (
	"strings"
	"testing"

	"github.com/cvasquez/chesslink/internal/engine"
)

const initialFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

func TestRenderBoardWhiteOrientation(t *testing.T) {
	out, err := RenderBoard(initialFEN, engine.White)
	if err != nil {
		t.Fatalf("RenderBoard: %v", err)
	}
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 9 {
		t.Fatalf("expected 8 ranks + file row, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "8 ") || !strings.Contains(lines[0], "♜") {
		t.Fatalf("rank 8 should lead with black rook: %q", lines[0])
	}
	if !strings.HasPrefix(lines[7], "1 ") || !strings.Contains(lines[7], "♖") {
		t.Fatalf("rank 1 should hold white rook: %q", lines[7])
	}
	if !strings.HasPrefix(strings.TrimSpace(lines[8]), "a") {
		t.Fatalf("file row should start at a: %q", lines[8])
	}
}

func TestRenderBoardBlackOrientationFlips(t *testing.T) {
	out, err := RenderBoard(initialFEN, engine.Black)
	if err != nil {
		t.Fatalf("RenderBoard: %v", err)
	}
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if !strings.HasPrefix(lines[0], "1 ") || !strings.Contains(lines[0], "♖") {
		t.Fatalf("flipped board should show rank 1 on top: %q", lines[0])
	}
	if !strings.HasPrefix(strings.TrimSpace(lines[8]), "h") {
		t.Fatalf("flipped file row should start at h: %q", lines[8])
	}
}

func TestRenderBoardRejectsMalformed(t *testing.T) {
	for _, fen := range []string{"", "only/seven/ranks/a/b/c/d", "9/8/8/8/8/8/8/8 w - - 0 1"} {
		if _, err := RenderBoard(fen, engine.White); err == nil {
			t.Errorf("expected error for %q", fen)
		}
	}
}
