package main

import (
	"log/slog"
	"os"

	"scorecard/internal/app/server"
	"scorecard/internal/platform/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}
	if err := server.Run(cfg); err != nil {
		slog.Error("server failed", "err", err)
		os.Exit(1)
	}
}
