package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/keywatch/keywatch/internal/agent/api"
	"github.com/keywatch/keywatch/internal/agent/capture"
	"github.com/keywatch/keywatch/internal/agent/keywords"
	"github.com/keywatch/keywatch/internal/agent/monitor"
	"github.com/keywatch/keywatch/internal/agent/state"
	"github.com/keywatch/keywatch/internal/shared/config"
	slogmulti "github.com/samber/slog-multi"
)

func main() {
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	jsonHandler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	})
	logger := slog.New(slogmulti.Fanout(textHandler, jsonHandler))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	identity, err := state.Load(cfg.StatePath, cfg.DeviceRemark)
	if err != nil {
		slog.Error("Failed to load device identity", "error", err)
		os.Exit(1)
	}

	client := api.NewClient(cfg.ServerURL, cfg.ClientTimeout())
	cache := keywords.NewCache(client, cfg.RefreshEvery())
	source := capture.NewReaderSource(os.Stdin)

	mon := monitor.New(identity, cache, source, client, cfg.HeartbeatEvery())

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	slog.Info("Agent started",
		"device_id", identity.DeviceID,
		"device_name", identity.DeviceName,
		"server_url", cfg.ServerURL)

	mon.Run(ctx)
	slog.Info("Shutting down...")
}
