// AngelaMos | 2026
// main.go

// Command sweeper deletes expired token blacklist rows and one-time codes.
// It runs once and exits, so schedule it from cron or a Kubernetes CronJob.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/carterperez-dev/retail-backend/internal/auth"
	"github.com/carterperez-dev/retail-backend/internal/config"
	"github.com/carterperez-dev/retail-backend/internal/core"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	timeout := flag.Duration("timeout", time.Minute, "maximum run time")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(*configPath, *timeout, logger); err != nil {
		logger.Error("sweep failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath string, timeout time.Duration, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck // process exits right after

	svc := auth.NewService(auth.ServiceDeps{
		OTPs:      auth.NewOTPRepository(db.DB),
		Blacklist: auth.NewBlacklistRepository(db.DB),
		OTP:       cfg.OTP,
		Logger:    logger,
	})

	result, err := svc.CleanupExpired(ctx, time.Now().UTC())
	if err != nil {
		return err
	}

	logger.Info("sweep complete", "tokens", result.Tokens, "otps", result.OTPs)
	return nil
}
