package tombstones

import (
	"context"
	"fmt"
	"time"

	"github.com/slwang/voiceledger/internal/client/models"
	"github.com/slwang/voiceledger/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Enqueue(ctx context.Context, t *models.Tombstone) error {
	query := `INSERT INTO tombstones (expense_id, queued_at) VALUES (?, ?)
		ON CONFLICT(expense_id) DO NOTHING`
	_, err := r.db.ExecContext(ctx, query, t.ExpenseID, t.QueuedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to enqueue tombstone: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetAll(ctx context.Context) ([]models.Tombstone, error) {
	query := `select expense_id, queued_at from tombstones order by queued_at`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select tombstones: %w", err)
	}
	defer rows.Close()

	var result []models.Tombstone
	for rows.Next() {
		var t models.Tombstone
		var queuedAt string
		if err := rows.Scan(&t.ExpenseID, &queuedAt); err != nil {
			return nil, err
		}
		if t.QueuedAt, err = time.Parse(time.RFC3339Nano, queuedAt); err != nil {
			return nil, fmt.Errorf("bad timestamp %q: %w", queuedAt, err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) Remove(ctx context.Context, expenseID string) error {
	_, err := r.db.ExecContext(ctx, `delete from tombstones where expense_id=?`, expenseID)
	if err != nil {
		return fmt.Errorf("failed to remove tombstone: %w", err)
	}
	return nil
}
