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

	"github.com/dukerupert/tripquest/internal/catalog"
	"github.com/dukerupert/tripquest/internal/config"
	"github.com/dukerupert/tripquest/internal/database"
	"github.com/dukerupert/tripquest/internal/logging"
	"github.com/dukerupert/tripquest/internal/server"
	"github.com/dukerupert/tripquest/internal/trip"
	"github.com/dukerupert/tripquest/internal/weather"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "tripquest: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	c, err := catalog.Load(cfg.Catalog)
	if err != nil {
		return err
	}

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	weatherCfg := weather.Config{Units: cfg.Weather.Units}
	if dest, ok := c.Destination(); ok {
		weatherCfg.Place = dest.Name
		weatherCfg.Latitude = dest.Lat
		weatherCfg.Longitude = dest.Lng
	} else {
		logger.Warn("catalog has no destination; weather will be unavailable")
	}
	weatherSvc := weather.NewService(weatherCfg, logger)

	srv := server.New(db, c, weatherSvc, server.Options{
		Defaults:  trip.Settings{Departure: cfg.Departure, Rates: cfg.Rates},
		S3:        cfg.S3,
		WSOrigins: cfg.WSOrigins,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv.RateLimiter().StartCleanup(ctx, 5*time.Minute)
	srv.BackupManager().Start(ctx)

	httpServer := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("tripquest listening",
			slog.String("addr", httpServer.Addr),
			slog.String("trip", c.Trip.Name),
			slog.Int("items", len(c.Checklist)),
			slog.String("backup", string(srv.BackupManager().Status().State)),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	srv.Hub().Close()
	srv.BackupManager().Stop()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
