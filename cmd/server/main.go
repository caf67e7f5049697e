/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the overtime engine server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load layered configuration (defaults, file, env)
  2. Configure structured logging
  3. Open the selected store (memory, sqlite, or postgres)
  4. Wire the engine and API handler
  5. Start server with graceful shutdown

CONFIGURATION:
  OVERTIME_CONFIG        Optional YAML config file path
  OVERTIME_ADDR          Listen address (default :8080)
  OVERTIME_LOG_LEVEL     debug | info | warn | error
  OVERTIME_STORE_DRIVER  memory | sqlite | postgres
  OVERTIME_SQLITE_PATH   SQLite database path (":memory:" works)
  OVERTIME_POSTGRES_DSN  Postgres connection string

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close the store
  4. Exit

SEE ALSO:
  - api/server.go: Router configuration
  - config/config.go: Layered configuration
*/
package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/overtime-engine/api"
	"github.com/warp/overtime-engine/config"
	"github.com/warp/overtime-engine/overtime"
	"github.com/warp/overtime-engine/payroll"
	"github.com/warp/overtime-engine/punch"
	"github.com/warp/overtime-engine/store/memory"
	"github.com/warp/overtime-engine/store/postgres"
	"github.com/warp/overtime-engine/store/sqlite"
)

// store is the full storage surface the service needs.
type store interface {
	payroll.DirectoryAdmin
	overtime.TimesheetStore
	punch.Store
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	st, err := openStore(cfg)
	if err != nil {
		logger.Error("failed to open store", "driver", cfg.StoreDriver, "error", err)
		os.Exit(1)
	}
	if closer, ok := st.(io.Closer); ok {
		defer closer.Close()
	}

	engine := overtime.NewEngine(st, st, st, logger)
	handler := api.NewHandler(engine, st, st, st, logger)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", "addr", cfg.Addr, "store", cfg.StoreDriver)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

func openStore(cfg *config.Config) (store, error) {
	switch cfg.StoreDriver {
	case config.DriverSQLite:
		return sqlite.New(cfg.SQLitePath)
	case config.DriverPostgres:
		return postgres.New(cfg.PostgresDSN)
	default:
		return memory.New(), nil
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
