package sync

import (
	"github.com/slwang/voiceledger/internal/client/models"
)

// Resolution describes what Resolve decided for one remote record.
type Resolution int

const (
	// KeepLocal means the local copy is as new or newer; nothing to write.
	// Equal timestamps fall here, which keeps re-pulls idempotent and
	// protects a pending local edit that simply has not uploaded yet.
	KeepLocal Resolution = iota

	// ApplyRemote means the remote copy is strictly newer; its fields
	// replace the local ones and the record becomes Synced.
	ApplyRemote

	// CreateLocal means there is no local copy; the remote record is
	// materialized locally as Synced.
	CreateLocal
)

// Resolver merges a remote record against its local counterpart using
// last-writer-wins on UpdatedAt. Pure and deterministic, no I/O.
//
// A remote record that is absent locally is created; a local record absent
// remotely is left alone (remote deletions travel as explicit tombstone
// deletes, never as absence, so partial or paginated pulls are safe).
type Resolver struct{}

// Resolve returns the record to store and what to do with it. local may be
// nil. remote is the server copy, already carrying SyncStatusSynced.
func (Resolver) Resolve(local *models.Expense, remote *models.Expense) (*models.Expense, Resolution) {
	if local == nil {
		return remote, CreateLocal
	}

	if !remote.UpdatedAt.After(local.UpdatedAt) {
		// Local wins ties deterministically. A genuine remote edit with
		// an identical timestamp loses; accepted clock-collision gap.
		return local, KeepLocal
	}

	merged := *local
	merged.Amount = remote.Amount
	merged.Title = remote.Title
	merged.Category = remote.Category
	merged.Notes = remote.Notes
	merged.OccurredAt = remote.OccurredAt
	merged.UpdatedAt = remote.UpdatedAt
	merged.SyncStatus = models.SyncStatusSynced
	if merged.UserID == "" {
		merged.UserID = remote.UserID
	}
	return &merged, ApplyRemote
}
