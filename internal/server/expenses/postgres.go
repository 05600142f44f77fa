package expenses

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/slwang/voiceledger/internal/dbx"
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const expenseColumns = `id, user_id, amount, title, category, notes, occurred_at, created_at, updated_at`

// upsertQuery is the last-writer-wins write. The WHERE clause makes stale
// revisions a silent no-op and refuses to touch rows owned by someone else.
const upsertQuery = `
	INSERT INTO expenses (` + expenseColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (id) DO UPDATE SET
		amount = excluded.amount,
		title = excluded.title,
		category = excluded.category,
		notes = excluded.notes,
		occurred_at = excluded.occurred_at,
		updated_at = excluded.updated_at
	WHERE expenses.user_id = excluded.user_id
	  AND excluded.updated_at > expenses.updated_at
`

func (r *PostgresRepository) UpsertBatch(ctx context.Context, userID string, batch []Expense) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for _, e := range batch {
			_, err := tx.ExecContext(ctx, upsertQuery,
				e.ID, userID, e.Amount.String(), e.Title, e.Category, e.Notes,
				e.OccurredAt.UTC(), e.CreatedAt.UTC(), e.UpdatedAt.UTC())
			if err != nil {
				return fmt.Errorf("failed to upsert expense %s: %w", e.ID, err)
			}
		}
		return nil
	})
}

func (r *PostgresRepository) GetChangedSince(ctx context.Context, userID string, since *time.Time) ([]Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses
	          WHERE user_id = $1 AND ($2::timestamptz IS NULL OR updated_at > $2)
	          ORDER BY updated_at`

	var sinceArg any
	if since != nil {
		sinceArg = since.UTC()
	}

	rows, err := r.db.QueryContext(ctx, query, userID, sinceArg)
	if err != nil {
		return nil, fmt.Errorf("failed to select expenses: %w", err)
	}
	defer rows.Close()

	var result []Expense
	for rows.Next() {
		var e Expense
		var amount string
		err := rows.Scan(&e.ID, &e.UserID, &amount, &e.Title, &e.Category, &e.Notes,
			&e.OccurredAt, &e.CreatedAt, &e.UpdatedAt)
		if err != nil {
			return nil, err
		}
		if e.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("bad amount %q: %w", amount, err)
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, userID string, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM expenses WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete expense: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
