package msgcat

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEmbeddedDefaultsLoad(t *testing.T) {
	c, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got, err := c.Render("status.game_started", map[string]any{"Color": "white"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got != "Game Started! You are white." {
		t.Fatalf("unexpected render: %q", got)
	}
}

func TestOverrideDirWins(t *testing.T) {
	dir := t.TempDir()
	override := "status:\n  white_to_move: \"White moves\"\n"
	if err := os.WriteFile(filepath.Join(dir, "override.yaml"), []byte(override), 0o644); err != nil {
		t.Fatalf("write override: %v", err)
	}

	c, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := c.MustRender("status.white_to_move", nil); got != "White moves" {
		t.Fatalf("override not applied: %q", got)
	}
	// untouched keys keep their embedded value
	if got := c.MustRender("status.black_to_move", nil); got != "Black to move" {
		t.Fatalf("embedded key lost: %q", got)
	}
}

func TestMustRenderFallsBackToKey(t *testing.T) {
	c, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := c.MustRender("no.such.key", nil); got != "no.such.key" {
		t.Fatalf("unexpected fallback: %q", got)
	}
}

func TestRenderMissingDataErrors(t *testing.T) {
	c, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := c.Render("auth.logged_in", map[string]any{}); err == nil {
		t.Fatalf("expected missingkey error")
	}
}
