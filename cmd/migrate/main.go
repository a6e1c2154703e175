package main

import (
	"log/slog"
	"os"
	"time"

	"geocell/config"
	"geocell/logging"
	"geocell/migration"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("loading config", "err", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	if err := migration.WaitForDB(cfg.DB.DSN(), 10, 3*time.Second); err != nil {
		slog.Error("migration error", "err", err)
		os.Exit(1)
	}
	if err := migration.Run(cfg.DB.URL()); err != nil {
		slog.Error("migration error", "err", err)
		os.Exit(1)
	}
}
