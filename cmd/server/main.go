// Command server runs the fraudguard API: fraud record management,
// risk assessment, and the realtime event feed.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/avedra/fraudguard/internal/config"
	"github.com/avedra/fraudguard/internal/logging"
	"github.com/avedra/fraudguard/internal/server"
)

// Set by ldflags at build time.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	logger := logging.New("info", "text")
	if err := run(logger); err != nil {
		logger.Error("fraudguard exited", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	logger.Info("starting fraudguard",
		"version", Version,
		"commit", Commit,
		"build_time", BuildTime,
	)

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger.Info("configuration loaded",
		"env", cfg.Env,
		"port", cfg.Port,
		"rate_limit_rpm", cfg.RateLimitRPM,
	)

	srv, err := server.New(cfg, server.WithLogger(logger))
	if err != nil {
		return err
	}
	return srv.Run(context.Background())
}
