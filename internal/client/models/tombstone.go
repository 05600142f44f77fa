package models

import "time"

// Tombstone is a queued remote delete. Deleting an expense removes the row
// locally and enqueues a tombstone in the same transaction; the sync engine
// drains the queue against the server independently of the upload pipeline.
type Tombstone struct {
	// ExpenseID is the id of the deleted expense.
	ExpenseID string

	QueuedAt time.Time
}
