package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"

	"geocell/api"
	"geocell/cache"
	"geocell/config"
	"geocell/database"
	"geocell/geoindex"
	"geocell/logging"
	"geocell/proximity"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "err", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.DB)
	if err != nil {
		return err
	}
	defer db.Close()

	rdb, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	cells := cache.NewCellCache(rdb)
	defer cells.Close()

	index, err := geoindex.New(geoindex.Technique(cfg.Index.Technique))
	if err != nil {
		return err
	}
	svc, err := proximity.NewService(database.NewPlaceStore(db), cells, index, proximity.Options{
		Precision:  cfg.Index.Precision,
		MaxRetries: cfg.Index.MaxRetries,
		Logger:     slog.Default(),
	})
	if err != nil {
		return err
	}
	if err := svc.Warm(ctx); err != nil {
		return fmt.Errorf("warming index: %w", err)
	}

	health := func(ctx context.Context) error {
		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		if err := cells.Ping(ctx); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		return nil
	}
	router := api.RegisterRoutes(api.NewHandler(svc, health, slog.Default()))

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handlers.CombinedLoggingHandler(os.Stdout, router),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		slog.Info("server started", "addr", cfg.Server.Addr, "technique", cfg.Index.Technique, "precision", cfg.Index.Precision)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
