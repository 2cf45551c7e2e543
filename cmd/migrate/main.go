// AngelaMos | 2026
// main.go

// Command migrate applies or rolls back the embedded SQL migrations.
//
//	migrate up
//	migrate down [-steps N]
//	migrate version
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/carterperez-dev/retail-backend/internal/config"
	"github.com/carterperez-dev/retail-backend/internal/core"
	"github.com/carterperez-dev/retail-backend/internal/migration"
	"github.com/carterperez-dev/retail-backend/migrations"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	steps := flag.Int("steps", 1, "number of migrations to roll back")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	if err := run(*configPath, flag.Arg(0), *steps, logger); err != nil {
		logger.Error("migration failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath, command string, steps int, logger *slog.Logger) (err error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}

	m, err := migration.New(db.DB.DB, migrations.FS, logger)
	if err != nil {
		return errors.Join(err, db.Close())
	}
	defer func() {
		err = errors.Join(err, m.Close())
	}()

	switch command {
	case "up", "":
		return m.Up()
	case "down":
		return m.Down(steps)
	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			return err
		}
		logger.Info("current migration", "version", version, "dirty", dirty)
		return nil
	default:
		return fmt.Errorf("unknown command %q (want up, down or version)", command)
	}
}
