package cli

import (
	"testing"

	"github.com/cvasquez/chesslink/internal/engine"
)

func TestParseMoveForms(t *testing.T) {
	cases := []struct {
		args []string
		want engine.Candidate
	}{
		{[]string{"e2e4"}, engine.Candidate{From: "e2", To: "e4"}},
		{[]string{"e2", "e4"}, engine.Candidate{From: "e2", To: "e4"}},
		{[]string{"E2E4"}, engine.Candidate{From: "e2", To: "e4"}},
		{[]string{"e7e8q"}, engine.Candidate{From: "e7", To: "e8", Promotion: "q"}},
		{[]string{"e7", "e8", "n"}, engine.Candidate{From: "e7", To: "e8", Promotion: "n"}},
		{[]string{"e7e8"}, engine.Candidate{From: "e7", To: "e8", Promotion: "q"}},
		{[]string{"d2d1"}, engine.Candidate{From: "d2", To: "d1", Promotion: "q"}},
	}
	for _, tc := range cases {
		got, err := ParseMove(tc.args, "q")
		if err != nil {
			t.Errorf("ParseMove(%v): %v", tc.args, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseMove(%v) = %+v, want %+v", tc.args, got, tc.want)
		}
	}
}

func TestParseMoveRejectsMalformed(t *testing.T) {
	for _, args := range [][]string{
		{},
		{"e2"},
		{"z9x0"},
		{"e2e4qq"},
		{"knight", "f3"},
	} {
		if _, err := ParseMove(args, "q"); err == nil {
			t.Errorf("expected error for %v", args)
		}
	}
}
