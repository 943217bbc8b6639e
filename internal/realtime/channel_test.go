package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestConnectSendsAuthHeaderAndReceivesEvents(t *testing.T) {
	gotAuth := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth <- r.Header.Get("Authorization")
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "done")

		ctx := r.Context()
		raw, _ := json.Marshal("white")
		_ = wsjson.Write(ctx, conn, &Envelope{Event: EventPlayerColor, Data: raw})

		// then read one outbound frame from the client
		var env Envelope
		if err := wsjson.Read(ctx, conn, &env); err != nil {
			return
		}
		if env.Event != EventCreateRoom {
			t.Errorf("expected create_room, got %q", env.Event)
		}
		var room string
		_ = json.Unmarshal(env.Data, &room)
		if room != "room-7" {
			t.Errorf("unexpected room: %q", room)
		}
		// hold the connection open until the client closes
		_, _, _ = conn.Read(ctx)
	}))
	defer srv.Close()

	ch := NewChannel(wsURL(srv))
	ch.SetHeaderProvider(func() map[string]string {
		return map[string]string{"Authorization": "Bearer tok-1"}
	})

	events := make(chan *Inbound, 4)
	ch.OnEvent(func(in *Inbound) { events <- in })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := ch.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer ch.Close(context.Background())

	select {
	case auth := <-gotAuth:
		if auth != "Bearer tok-1" {
			t.Fatalf("unexpected auth header: %q", auth)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no handshake observed")
	}

	select {
	case in := <-events:
		if in.PlayerColor == nil || in.PlayerColor.Color != "white" {
			t.Fatalf("unexpected inbound: %+v", in)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no inbound event delivered")
	}

	if err := ch.CreateRoom(ctx, "room-7"); err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}
}

func TestConnectAuthRejectedAtHandshake(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad token", http.StatusUnauthorized)
	}))
	defer srv.Close()

	ch := NewChannel(wsURL(srv))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := ch.Connect(ctx)
	if !errors.Is(err, ErrAuthRejected) {
		t.Fatalf("expected ErrAuthRejected, got %v", err)
	}
}

func TestAuthRejectedCloseCodeSignalsState(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		_ = conn.Close(CloseStatusAuthRejected, "token expired")
	}))
	defer srv.Close()

	ch := NewChannel(wsURL(srv))
	states := make(chan State, 8)
	ch.OnStateChange(func(s State) { states <- s })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := ch.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer ch.Close(context.Background())

	deadline := time.After(3 * time.Second)
	for {
		select {
		case s := <-states:
			if s == StateAuthRejected {
				return
			}
		case <-deadline:
			t.Fatalf("auth-rejected state never observed")
		}
	}
}

func TestEmitWhenDisconnected(t *testing.T) {
	ch := NewChannel("ws://127.0.0.1:0")
	err := ch.JoinRoom(context.Background(), "room-1")
	if !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}
