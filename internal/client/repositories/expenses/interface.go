package expenses

import (
	"context"

	"github.com/slwang/voiceledger/internal/client/models"
)

// Repository describes CRUD and query operations for local Expense records.
// Implementations are typically backed by a local SQLite database.
type Repository interface {
	// CreateOrUpdate inserts a new expense or updates an existing one by ID.
	CreateOrUpdate(ctx context.Context, e *models.Expense) error

	// GetAll returns all expenses, newest occurrence first.
	GetAll(ctx context.Context) ([]models.Expense, error)

	// GetByID returns an expense by its identifier, or common.ErrorNotFound.
	GetByID(ctx context.Context, id string) (*models.Expense, error)

	// GetAllUnsynced returns expenses whose status is pending or failed,
	// i.e. the next push batch.
	GetAllUnsynced(ctx context.Context) ([]*models.Expense, error)

	// Delete removes an expense row. Remote propagation is the caller's
	// job (tombstone queue).
	Delete(ctx context.Context, id string) error

	// Count returns the total number of stored expenses.
	Count(ctx context.Context) (int, error)
}
