package present

import (
	"fmt"
	"strings"

	"github.com/cvasquez/chesslink/internal/engine"
)

var pieceGlyphs = map[rune]rune{
	'K': '♔', 'Q': '♕', 'R': '♖', 'B': '♗', 'N': '♘', 'P': '♙',
	'k': '♚', 'q': '♛', 'r': '♜', 'b': '♝', 'n': '♞', 'p': '♟',
}

// RenderBoard draws the piece-placement field of a FEN as a unicode text
// board. With black at the bottom the board is flipped so each player sees
// their own pieces nearest to them.
func RenderBoard(fen string, bottom engine.Color) (string, error) {
	placement := strings.Fields(strings.TrimSpace(fen))
	if len(placement) == 0 {
		return "", fmt.Errorf("empty fen")
	}
	rows := strings.Split(placement[0], "/")
	if len(rows) != 8 {
		return "", fmt.Errorf("fen has %d ranks", len(rows))
	}

	// grid[0] is rank 8 in FEN order
	var grid [8][8]rune
	for i, row := range rows {
		file := 0
		for _, ch := range row {
			if ch >= '1' && ch <= '8' {
				n := int(ch - '0')
				for j := 0; j < n && file < 8; j++ {
					grid[i][file] = '·'
					file++
				}
				continue
			}
			glyph, ok := pieceGlyphs[ch]
			if !ok || file > 7 {
				return "", fmt.Errorf("bad fen rank %q", row)
			}
			grid[i][file] = glyph
			file++
		}
		if file != 8 {
			return "", fmt.Errorf("bad fen rank %q", row)
		}
	}

	var b strings.Builder
	for i := 0; i < 8; i++ {
		ri := i
		if bottom == engine.Black {
			ri = 7 - i
		}
		fmt.Fprintf(&b, "%d ", 8-ri)
		for j := 0; j < 8; j++ {
			fj := j
			if bottom == engine.Black {
				fj = 7 - j
			}
			b.WriteRune(grid[ri][fj])
			b.WriteByte(' ')
		}
		b.WriteByte('\n')
	}
	b.WriteString("  ")
	for j := 0; j < 8; j++ {
		file := byte('a' + j)
		if bottom == engine.Black {
			file = byte('h' - j)
		}
		b.WriteByte(file)
		b.WriteByte(' ')
	}
	b.WriteByte('\n')
	return b.String(), nil
}
