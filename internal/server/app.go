// Package server wires configuration, storage and the HTTP API into a
// runnable sync server.
package server

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/pressly/goose/v3"

	"github.com/slwang/voiceledger/internal/logging"
	"github.com/slwang/voiceledger/internal/server/audio"
	"github.com/slwang/voiceledger/internal/server/config"
	"github.com/slwang/voiceledger/internal/server/expenses"
	"github.com/slwang/voiceledger/internal/server/httpapi"
	"github.com/slwang/voiceledger/internal/server/migrations"
	"github.com/slwang/voiceledger/internal/server/users"
	"github.com/slwang/voiceledger/internal/server/voice"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// RunMigrations applies the embedded schema migrations.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// Run boots the server and blocks until ctx is cancelled, then drains
// in-flight requests within the configured shutdown timeout.
//
// parser is the deployment's speech parsing backend; pass nil to run without
// voice parsing.
func Run(ctx context.Context, cfg *config.Config, logger logging.Logger, parser voice.Parser) error {
	db, err := sql.Open("pgx", cfg.Postgres.URL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	userService := users.NewService(users.NewPostgresRepository(db), cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	expenseService := expenses.NewService(expenses.NewPostgresRepository(db))
	presigner := audio.NewPresigner(cfg.S3)

	if cfg.Application.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	handlers := httpapi.NewHandlers(userService, expenseService, presigner, parser, logger)
	router := httpapi.NewRouter(handlers, []byte(cfg.Auth.JWTSecret), logger)
	srv := httpapi.NewServer(cfg.Server, router, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(ctx)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	return <-errCh
}
