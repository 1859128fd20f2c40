package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	registry := NewRegistry(cfg.SubscriberBuffer)
	reaper := NewReaper(registry, cfg.SweepInterval, logger)
	go reaper.Run(context.Background())

	srv := newServer(cfg, logger, registry, reaper)

	logger.Info("listening", "addr", cfg.Addr, "sweep", cfg.SweepInterval)
	log.Fatal(http.ListenAndServe(cfg.Addr, srv.routes()))
}
