package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/beaudelaire1/trait-d-union-sub000/internal/config"
	"github.com/beaudelaire1/trait-d-union-sub000/internal/db"
)

var (
	migrateOnlyFlag = flag.Bool("migrate-only", false, "Run DB migrations and exit")
	seedOnlyFlag    = flag.Bool("seed-only", false, "Run DB seed and exit")
)

func main() {
	flag.Parse()

	// Load environment variables from .env file
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := newLogger(cfg.App.Dev)
	slog.SetDefault(logger)

	conn, err := db.Open(cfg.Database, cfg.App.DBDebug, logger)
	if err != nil {
		fatal(logger, "failed to connect to database", err)
	}

	if *migrateOnlyFlag {
		if err := migrate(cfg, conn); err != nil {
			fatal(logger, "migration failed", err)
		}
		logger.Info("migrations completed")
		return
	}
	if *seedOnlyFlag {
		if err := db.Seed(conn, cfg.App.AdminEmail, cfg.App.AdminPassword); err != nil {
			fatal(logger, "seeding failed", err)
		}
		logger.Info("seeding completed")
		return
	}

	if err := migrate(cfg, conn); err != nil {
		fatal(logger, "migration failed", err)
	}
	if cfg.App.Seed {
		if err := db.Seed(conn, cfg.App.AdminEmail, cfg.App.AdminPassword); err != nil {
			fatal(logger, "seeding failed", err)
		}
	}

	app, err := NewApp(cfg, conn, logger)
	if err != nil {
		fatal(logger, "failed to build application", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go app.PurgeCounters(ctx, 10*time.Minute)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      app.Handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Server.Port, "dev", cfg.App.Dev, "driver", cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal(logger, "server error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("error during shutdown", "error", err)
	}
	logger.Info("server stopped gracefully")
}

// migrate applies the SQL migrations when enabled, then lets gorm align the
// schema with the models. The SQL files target PostgreSQL.
func migrate(cfg *config.Config, conn *gorm.DB) error {
	if cfg.App.Migrations && !cfg.Database.IsSQLite() {
		if err := db.RunSQLMigrations(cfg.App.MigrationsDir, cfg.Database.URL()); err != nil {
			return err
		}
	}
	return db.Migrate(conn)
}

func newLogger(dev bool) *slog.Logger {
	if dev {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "error", err)
	os.Exit(1)
}
