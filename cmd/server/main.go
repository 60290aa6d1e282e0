package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/keywatch/keywatch/internal/server/di"
	"github.com/keywatch/keywatch/internal/server/httpapi"
	"github.com/keywatch/keywatch/internal/shared/config"
	"github.com/samber/do/v2"
	slogmulti "github.com/samber/slog-multi"
)

func main() {
	// Structured logging fanned out to both handlers
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	jsonHandler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	})
	logger := slog.New(slogmulti.Fanout(textHandler, jsonHandler))
	slog.SetDefault(logger)

	injector, err := di.Setup()
	if err != nil {
		slog.Error("Failed to setup dependency injection", "error", err)
		os.Exit(1)
	}

	cfg := do.MustInvoke[*config.Config](injector)
	server := do.MustInvoke[*httpapi.Server](injector)

	go func() {
		if err := server.Start(); err != nil {
			slog.Error("Failed to start API server", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Server started", "port", cfg.HTTPPort)
	slog.Info("Press Ctrl+C to stop")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	<-ctx.Done()
	slog.Info("Shutting down...")
}
