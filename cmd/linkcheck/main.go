package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/valyala/fasthttp"

	appcfg "github.com/cvasquez/chesslink/internal/config"
	"github.com/cvasquez/chesslink/internal/realtime"
	"github.com/cvasquez/chesslink/internal/session"
)

// linkcheck probes the backend: is the HTTP API reachable, does the stored
// credential pass the channel handshake, and do any events arrive.
func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	probeHTTP(cfg.ServerBaseURL)

	store, err := session.NewFileStore(cfg.SessionFile)
	if err != nil {
		log.Fatalf("session store error: %v", err)
	}
	cred, err := store.Load(context.Background())
	if err != nil {
		log.Fatalf("session load error: %v", err)
	}
	if cred == nil {
		log.Println("no stored credential; skipping channel check")
		return
	}

	ch := realtime.NewChannel(cfg.ServerWSURL)
	token := cred.Token
	ch.SetHeaderProvider(func() map[string]string {
		return map[string]string{"Authorization": "Bearer " + token}
	})
	ch.OnStateChange(func(state realtime.State) {
		log.Printf("channel state: %s", state)
	})
	ch.OnEvent(func(in *realtime.Inbound) {
		switch {
		case in.PlayerColor != nil:
			fmt.Printf("event playerColor=%s\n", in.PlayerColor.Color)
		case in.StartGame != nil:
			fmt.Printf("event startGame fen=%q\n", in.StartGame.FEN)
		case in.Chat != nil:
			fmt.Printf("event chat from=%s\n", in.Chat.Username)
		case in.RoomError != nil:
			fmt.Printf("event error %q\n", in.RoomError.Message)
		}
	})

	cctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := ch.Connect(cctx); err != nil {
		if errors.Is(err, realtime.ErrAuthRejected) {
			log.Printf("channel rejected the stored credential; login again")
			return
		}
		log.Printf("channel connect error: %v", err)
		return
	}
	log.Printf("channel connected as %s", cred.Username)

	// observe for a short window
	t := time.NewTimer(10 * time.Second)
	<-t.C

	_ = ch.Close(context.Background())
}

func probeHTTP(baseURL string) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(fasthttp.MethodGet)
	req.SetRequestURI(baseURL)
	client := &fasthttp.Client{ReadTimeout: 5 * time.Second, WriteTimeout: 5 * time.Second}
	if err := client.DoDeadline(req, resp, time.Now().Add(5*time.Second)); err != nil {
		log.Printf("http probe error: %v", err)
		return
	}
	log.Printf("http probe ok: status=%d", resp.StatusCode())
}
