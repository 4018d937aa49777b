// Command server runs the devconnector HTTP API.
//
// Configuration comes from the environment (see internal/config). If the
// store cannot be opened or migrated the process logs the error and exits
// with status 1; there is no degraded mode without a database.
package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sakif/devconnector/internal/config"
	"github.com/sakif/devconnector/internal/logger"
	sqliteRepo "github.com/sakif/devconnector/internal/repository/sqlite"
	"github.com/sakif/devconnector/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log := logger.Setup(os.Stdout, cfg.LogFormat, cfg.LogLevel)
	slog.SetDefault(log)

	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Error("failed to create database directory",
				slog.String("dir", dir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		log.Error("failed to open database",
			slog.String("path", cfg.DBPath),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	srv, err := server.New(cfg, db, log)
	if err != nil {
		db.Close()
		log.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := srv.Start(); err != nil {
		log.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
