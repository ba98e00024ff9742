package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pipe-rack-manager/internal/config"
	"pipe-rack-manager/internal/database"
	"pipe-rack-manager/internal/docstore"
	"pipe-rack-manager/internal/identity"
	"pipe-rack-manager/internal/logging"
	"pipe-rack-manager/internal/metrics"
	"pipe-rack-manager/internal/server"

	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Default("server").WithError(err).Error("failed to load configuration")
		os.Exit(1)
	}
	logger := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Component: "server"})

	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Error("server stopped")
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *logging.Logger) error {
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	db, err := database.Open(cfg, logger.Named("database"))
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(db); err != nil {
			logger.WithError(err).Warn("error closing database connection")
		}
	}()

	if cfg.AdminPassword != "" {
		_, err := database.SeedAdmin(db, cfg.AdminEmail, cfg.AdminPassword, "Administrator", logger.Named("seed"))
		switch {
		case errors.Is(err, database.ErrAdminExists):
			logger.Debug("admin already present, skipping seed")
		case err != nil:
			return err
		}
	}

	bus, err := server.NewBus(cfg, logger)
	if err != nil {
		return err
	}
	defer bus.Close()

	m := metrics.New()
	store := docstore.New(db, bus, logger.Named("docstore"))
	store.OnWriteFailure(m.WriteFailed)

	live, stopLive := context.WithCancel(context.Background())
	defer stopLive()

	engine, err := server.NewRouter(server.Deps{
		Config:   cfg,
		Identity: identity.NewService(db, logger.Named("identity")),
		Store:    store,
		Bus:      bus,
		Metrics:  m,
		Logger:   logger,
		Shutdown: live,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv.RegisterOnShutdown(stopLive)

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", srv.Addr, "driver", cfg.DBDriver, "redis", cfg.RedisURL != "")
		serverErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case sig := <-shutdown:
		logger.Info("received signal, shutting down", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		// Live sockets are hijacked; Shutdown reaches them through stopLive.
		if err := srv.Shutdown(ctx); err != nil {
			logger.WithError(err).Warn("graceful shutdown failed, forcing")
			if err := srv.Close(); err != nil {
				return err
			}
		}
		logger.Info("server shutdown complete")
	}
	return nil
}
