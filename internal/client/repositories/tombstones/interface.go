package tombstones

import (
	"context"

	"github.com/slwang/voiceledger/internal/client/models"
)

// Repository is the queue of remote deletes awaiting propagation.
type Repository interface {
	// Enqueue records that an expense must be deleted remotely. Enqueueing
	// the same id twice collapses to one tombstone.
	Enqueue(ctx context.Context, t *models.Tombstone) error

	// GetAll returns the queued tombstones, oldest first.
	GetAll(ctx context.Context) ([]models.Tombstone, error)

	// Remove drops a tombstone once the remote delete was acknowledged.
	Remove(ctx context.Context, expenseID string) error
}
