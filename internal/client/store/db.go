// Package store opens the local SQLite database, applies migrations and
// bundles the client repositories.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/slwang/voiceledger/internal/client/migrations"
	"github.com/slwang/voiceledger/internal/client/repositories/expenses"
	"github.com/slwang/voiceledger/internal/client/repositories/metadata"
	"github.com/slwang/voiceledger/internal/client/repositories/tombstones"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

type Repositories struct {
	Expenses   expenses.Repository
	Metadata   metadata.Repository
	Tombstones tombstones.Repository
	DB         *sql.DB
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

func InitDatabase(ctx context.Context, dsn string) (*Repositories, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}

	if err := RunMigrations(ctx, db); err != nil {
		return nil, err
	}

	repos := &Repositories{
		Expenses:   expenses.NewSQLiteRepository(db),
		Metadata:   metadata.NewSQLiteRepository(db),
		Tombstones: tombstones.NewSQLiteRepository(db),
		DB:         db,
	}
	return repos, nil
}
