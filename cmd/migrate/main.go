package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"booksapi/internal/config"
	"booksapi/internal/logger"
	"booksapi/internal/platform/database"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"
)

func main() {
	var (
		command = flag.String("command", "up", "Migration command: up, down, status, create")
		name    = flag.String("name", "", "Name for 'create' command")
	)
	flag.Parse()

	config.LoadEnvFiles()
	log := logger.New(logger.Config{Level: os.Getenv("LOG_LEVEL"), Format: os.Getenv("LOG_FORMAT")})

	if err := run(context.Background(), log, *command, *name); err != nil {
		log.WithError(err).WithField("command", *command).Fatal("migration failed")
	}
}

func run(ctx context.Context, log logrus.FieldLogger, command, name string) error {
	dir := migrationsDir()

	if command == "create" {
		if name == "" {
			return fmt.Errorf("name is required for 'create' command")
		}
		if err := goose.Create(nil, dir, name, "sql"); err != nil {
			return fmt.Errorf("creating migration: %w", err)
		}
		log.WithField("name", name).Info("migration created")
		return nil
	}

	dsn := databaseDSN()
	pool, err := database.Open(ctx, dsn)
	if err != nil {
		return err
	}
	defer pool.Close()
	log.WithField("dsn", database.RedactDSN(dsn)).Info("database connection OK")

	switch command {
	case "up":
		if err := database.Migrate(ctx, pool, nil, dir); err != nil {
			return err
		}
		log.Info("migrations applied successfully")
		return nil
	case "down", "status":
	default:
		return fmt.Errorf("unknown command %q; use: up, down, status, create", command)
	}

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}

	if command == "down" {
		if err := goose.DownContext(ctx, db, dir); err != nil {
			return fmt.Errorf("rolling back migration: %w", err)
		}
		log.Info("migration rolled back successfully")
		return nil
	}
	if err := goose.StatusContext(ctx, db, dir); err != nil {
		return fmt.Errorf("checking migration status: %w", err)
	}
	return nil
}
