// Package main is the entry point for costctl, the admin CLI.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx" driver for database/sql

	"github.com/plantops/indirect-costs/internal/cli"
	"github.com/plantops/indirect-costs/internal/config"
	"github.com/plantops/indirect-costs/internal/repo"
	"github.com/plantops/indirect-costs/internal/service"
	"github.com/plantops/indirect-costs/migrations"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	if os.Getenv("LOG_LEVEL") != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(os.Getenv("LOG_LEVEL"))); err == nil {
			logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		}
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := cli.NewRootCmd(cli.Deps{
		Log:          logger,
		OpenServices: openServices,
		OpenMigrator: openMigrator,
	})
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func openServices(ctx context.Context) (cli.Services, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return cli.Services{}, nil, err
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return cli.Services{}, nil, fmt.Errorf("open database pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return cli.Services{}, nil, fmt.Errorf("connect to database: %w", err)
	}

	store := repo.NewStore(pool)
	return cli.Services{
		Plants:         service.NewPlantService(store.Plants, store.Operations),
		Operations:     service.NewOperationService(store.Repos, store),
		Matrices:       service.NewMatrixService(store.Plants, store.Operations, cfg.DefaultThresholds),
		SeedThresholds: cfg.SeedThresholds,
	}, pool.Close, nil
}

func openMigrator(ctx context.Context) (cli.Migrator, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	provider, err := migrations.NewProvider(db)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return provider, func() { _ = db.Close() }, nil
}
