package expenses

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/slwang/voiceledger/internal/client/models"
	"github.com/slwang/voiceledger/internal/common"
	"github.com/slwang/voiceledger/internal/dbx"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or
// *sql.Tx), so a whole sync pass can run inside one transaction.
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const expenseColumns = `id, user_id, amount, title, category, notes, occurred_at, created_at, updated_at, sync_status`

// CreateOrUpdate upserts an expense by id. On conflict all mutable columns are
// replaced, including the sync bookkeeping, so a field change and its status
// flip land in a single write.
func (r *SQLiteRepository) CreateOrUpdate(ctx context.Context, e *models.Expense) error {
	query := ` INSERT INTO expenses (` + expenseColumns + `)
			values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET user_id = excluded.user_id,
				amount = excluded.amount,
				title = excluded.title,
				category = excluded.category,
				notes = excluded.notes,
				occurred_at = excluded.occurred_at,
				updated_at = excluded.updated_at,
				sync_status = excluded.sync_status
	`
	_, err := r.db.ExecContext(ctx, query,
		e.ID, e.UserID, e.Amount.String(), e.Title, e.Category, e.Notes,
		formatTime(e.OccurredAt), formatTime(e.CreatedAt), formatTime(e.UpdatedAt),
		string(e.SyncStatus))
	if err != nil {
		return fmt.Errorf("failed to upsert expense: %w", err)
	}
	return nil
}

// GetAll lists all expenses, newest occurrence first.
func (r *SQLiteRepository) GetAll(ctx context.Context) ([]models.Expense, error) {
	query := `select ` + expenseColumns + ` from expenses order by occurred_at desc`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select expenses: %w", err)
	}
	defer rows.Close()

	var result []models.Expense
	for rows.Next() {
		item, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// GetByID returns a single expense or common.ErrorNotFound.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.Expense, error) {
	query := `select ` + expenseColumns + ` from expenses where id=?`
	row := r.db.QueryRowContext(ctx, query, id)

	e, err := scanExpense(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("query row scan failed: %w", err)
	}
	return e, nil
}

// GetAllUnsynced returns expenses awaiting upload (pending or failed).
func (r *SQLiteRepository) GetAllUnsynced(ctx context.Context) ([]*models.Expense, error) {
	query := `select ` + expenseColumns + ` from expenses where sync_status in ('pending', 'failed')`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	defer rows.Close()

	var unsynced []*models.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		unsynced = append(unsynced, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return unsynced, nil
}

// Delete removes an expense row. Deleting a missing row is not an error:
// a pull may already have removed it.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	query := `delete from expenses where id=?`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	return nil
}

// Count returns the total number of stored expenses.
func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `select count(*) from expenses`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count expenses: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (*models.Expense, error) {
	var e models.Expense
	var amount, occurredAt, createdAt, updatedAt, status string
	err := row.Scan(&e.ID, &e.UserID, &amount, &e.Title, &e.Category, &e.Notes,
		&occurredAt, &createdAt, &updatedAt, &status)
	if err != nil {
		return nil, err
	}

	if e.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("bad amount %q: %w", amount, err)
	}
	if e.OccurredAt, err = parseTime(occurredAt); err != nil {
		return nil, err
	}
	if e.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if e.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	e.SyncStatus = models.SyncStatus(status)
	return &e, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad timestamp %q: %w", s, err)
	}
	return t, nil
}
