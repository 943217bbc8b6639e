package session

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
)

func newTestRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(func() { mr.Close() })
	s, err := NewRedisStore(fmt.Sprintf("redis://%s/0", mr.Addr()))
	if err != nil {
		t.Fatalf("NewRedisStore: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	s, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	ctx := context.Background()

	if got, err := s.Load(ctx); err != nil || got != nil {
		t.Fatalf("expected empty store, got %v err=%v", got, err)
	}

	cred := &Credential{Token: "tok-123", Username: "alice"}
	if err := s.Save(ctx, cred); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Load(ctx)
	if err != nil || got == nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Token != "tok-123" || got.Username != "alice" {
		t.Fatalf("unexpected credential: %+v", got)
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if got, err := s.Load(ctx); err != nil || got != nil {
		t.Fatalf("expected cleared store, got %v err=%v", got, err)
	}
	// clearing twice is fine
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("second Clear: %v", err)
	}
}

func TestFileStoreRejectsEmptyToken(t *testing.T) {
	s, err := NewFileStore(filepath.Join(t.TempDir(), "session.json"))
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if err := s.Save(context.Background(), &Credential{Username: "bob"}); err == nil {
		t.Fatalf("expected error for empty token")
	}
}

func TestRedisStoreRoundTrip(t *testing.T) {
	s := newTestRedisStore(t)
	ctx := context.Background()

	if got, err := s.Load(ctx); err != nil || got != nil {
		t.Fatalf("expected empty store, got %v err=%v", got, err)
	}
	if err := s.Save(ctx, &Credential{Token: "tok-9", Username: "carol"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Load(ctx)
	if err != nil || got == nil || got.Token != "tok-9" || got.Username != "carol" {
		t.Fatalf("Load mismatch: %+v err=%v", got, err)
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if got, err := s.Load(ctx); err != nil || got != nil {
		t.Fatalf("expected cleared store, got %v err=%v", got, err)
	}
}

func TestParseRedisURLRejectsScheme(t *testing.T) {
	if _, err := parseRedisURL("http://localhost:6379"); err == nil {
		t.Fatalf("expected scheme error")
	}
}
