package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"omnigrade/internal/config"
	"omnigrade/internal/listener"
	"omnigrade/internal/pipeline"
	"omnigrade/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	engine := pipeline.NewOCREngine(cfg, logger)
	if st := engine.Status(); !st.Available {
		logger.Warn("ocr.unavailable", "err", st.Error)
	}

	svc := listener.NewService(db, cfg, engine, logger)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	must(svc.Run(ctx))
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
