// Package expenses is the canonical expense store behind the sync API.
// Writes go through a last-writer-wins upsert keyed on the client-assigned
// record id, so replayed or out-of-order batches can never roll a record back.
package expenses

import (
	"context"
	"time"
)

type Repository interface {
	// UpsertBatch applies a batch of records for one user atomically.
	// A record only overwrites the stored row when its UpdatedAt is
	// strictly newer; older revisions are ignored, not errors.
	UpsertBatch(ctx context.Context, userID string, batch []Expense) error

	// GetChangedSince returns the user's records with UpdatedAt strictly
	// after since, oldest change first. A nil since returns everything.
	GetChangedSince(ctx context.Context, userID string, since *time.Time) ([]Expense, error)

	// Delete removes one record owned by the user. Reports whether a row
	// was actually deleted.
	Delete(ctx context.Context, userID string, id string) (bool, error)
}
