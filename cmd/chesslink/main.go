package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	appcfg "github.com/cvasquez/chesslink/internal/config"

	"github.com/cvasquez/chesslink/internal/authclient"
	"github.com/cvasquez/chesslink/internal/cli"
	"github.com/cvasquez/chesslink/internal/history"
	"github.com/cvasquez/chesslink/internal/msgcat"
	"github.com/cvasquez/chesslink/internal/obslog"
	"github.com/cvasquez/chesslink/internal/session"
)

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer func() { _ = obslog.L().Sync() }()

	store, closeStore, err := buildStore(cfg)
	if err != nil {
		log.Fatalf("session store init error: %v", err)
	}
	defer closeStore()

	catalog, err := msgcat.New(os.Getenv("CHESSLINK_MESSAGES_DIR"))
	if err != nil {
		log.Fatalf("message catalog error: %v", err)
	}

	auth := authclient.NewClient(cfg.ServerBaseURL,
		authclient.WithTimeout(time.Duration(cfg.HTTPTimeoutSec)*time.Second))

	// Optional game archive; the client plays fine without a database.
	var histRep *history.Repository
	if cfg.DatabaseURL != "" {
		histRep, err = history.NewRepository(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("history repo init error: %v", err)
		}
		defer func() { _ = histRep.Close() }()
	}

	app := cli.NewApp(cfg, store, auth, catalog, histRep, os.Stdin, os.Stdout)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
		os.Exit(0)
	}()

	if err := app.Run(ctx); err != nil {
		log.Fatalf("run error: %v", err)
	}
}

func buildStore(cfg *appcfg.AppConfig) (session.Store, func(), error) {
	if cfg.SessionBackend == "redis" {
		rs, err := session.NewRedisStore(cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return rs, func() { _ = rs.Close() }, nil
	}
	fs, err := session.NewFileStore(cfg.SessionFile)
	if err != nil {
		return nil, nil, err
	}
	return fs, func() {}, nil
}
