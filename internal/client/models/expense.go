// Package models defines client-side data models used by the VoiceLedger CLI.
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SyncStatus is the cloud-sync lifecycle state of a local expense.
//
// Transitions: Pending -> {Synced, Failed}; Failed -> {Synced} on a later
// successful upload; Synced -> Pending on any local mutation. There is no
// "uploading" state: an in-flight record stays Pending/Failed until the
// response arrives, so a crash mid-upload leaves it eligible for retry.
type SyncStatus string

const (
	// SyncStatusPending means the record has local changes awaiting upload.
	SyncStatusPending SyncStatus = "pending"
	// SyncStatusSynced means the server acknowledged the current UpdatedAt.
	SyncStatusSynced SyncStatus = "synced"
	// SyncStatusFailed means the last upload attempt failed; retried like Pending.
	SyncStatusFailed SyncStatus = "failed"
)

// Expense is a single expense record persisted locally and synced with the
// server.
type Expense struct {
	// ID is a globally unique identifier, assigned at creation, immutable.
	// It is the merge key across devices.
	ID string

	// UserID is the owning account. Empty until the user authenticates.
	UserID string

	Amount   decimal.Decimal
	Title    string
	Category string
	Notes    string

	// OccurredAt is the user-assigned time of the expense itself.
	// It plays no part in conflict resolution.
	OccurredAt time.Time

	// CreatedAt is the immutable creation timestamp.
	CreatedAt time.Time

	// UpdatedAt is refreshed on every local mutation and is the single
	// source of truth for conflict resolution.
	UpdatedAt time.Time

	SyncStatus SyncStatus
}

// NewExpense returns a Pending expense with a fresh id and UTC timestamps.
func NewExpense(amount decimal.Decimal, title string, category string, occurredAt time.Time, notes string) *Expense {
	now := time.Now().UTC()
	return &Expense{
		ID:         uuid.NewString(),
		Amount:     amount,
		Title:      title,
		Category:   category,
		Notes:      notes,
		OccurredAt: occurredAt.UTC(),
		CreatedAt:  now,
		UpdatedAt:  now,
		SyncStatus: SyncStatusPending,
	}
}

// Touch records a local mutation: SyncStatus becomes Pending and UpdatedAt is
// refreshed. Callers must persist the field change and this bookkeeping in the
// same repository write so the two are never observable independently.
func (e *Expense) Touch(now time.Time) {
	e.UpdatedAt = now.UTC()
	e.SyncStatus = SyncStatusPending
}

// MarkSynced transitions to Synced only if ack equals the current UpdatedAt,
// i.e. the acknowledgment covers the exact revision that was uploaded. If the
// record was mutated again while the upload was in flight, the ack is stale
// and is discarded; the record stays Pending. Reports whether the transition
// happened.
func (e *Expense) MarkSynced(ack time.Time) bool {
	if !e.UpdatedAt.Equal(ack) {
		return false
	}
	e.SyncStatus = SyncStatusSynced
	return true
}

// MarkFailed transitions to Failed without altering UpdatedAt. Failed records
// are retried identically to Pending on the next sync pass.
func (e *Expense) MarkFailed() {
	e.SyncStatus = SyncStatusFailed
}

// NeedsUpload reports whether the record should be included in a push batch.
func (e *Expense) NeedsUpload() bool {
	return e.SyncStatus == SyncStatusPending || e.SyncStatus == SyncStatusFailed
}
