package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"booksapi/db"
	"booksapi/internal/book"
	"booksapi/internal/config"
	"booksapi/internal/httpx"
	"booksapi/internal/logger"
	"booksapi/internal/platform/database"
	"booksapi/internal/server"

	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		Environment: cfg.Environment,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.WithError(err).Error("server stopped")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *logrus.Logger) error {
	repo, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	opts := server.Options{
		MaxBodyBytes:      cfg.MaxBodyBytes,
		AllowedOrigins:    cfg.AllowedOrigins(),
		EnableHSTS:        cfg.EnableHSTS,
		MetricsEnabled:    cfg.MetricsEnabled,
		TrustProxyHeaders: cfg.TrustProxyHeaders,
	}
	if cfg.RateLimitRPS > 0 {
		opts.RateLimiter = httpx.NewRateLimitMiddleware(ctx, cfg.RateLimitRPS, cfg.RateLimitBurst)
	}

	handler := server.New(book.NewService(repo), log, opts)

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{"addr": cfg.Addr, "store": cfg.StoreDriver}).Info("starting server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	log.Info("graceful shutdown complete")
	return nil
}

// openStore builds the configured repository and returns a func releasing its resources.
func openStore(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (book.Repository, func(), error) {
	if cfg.StoreDriver == config.StoreMemory {
		repo, err := book.NewMemoryRepo()
		if err != nil {
			return nil, nil, err
		}
		log.Warn("using in-memory store; data is lost on restart")
		return repo, func() {}, nil
	}

	pool, err := database.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, nil, err
	}
	log.WithField("dsn", database.RedactDSN(cfg.DatabaseDSN)).Info("database connection OK")

	if cfg.AutoMigrate {
		if cfg.MigrationsDir != "" {
			err = database.Migrate(ctx, pool, nil, cfg.MigrationsDir)
		} else {
			err = database.Migrate(ctx, pool, db.Migrations, db.MigrationsDir)
		}
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
	}

	return book.NewPostgresRepo(pool, cfg.DBTimeout), pool.Close, nil
}
