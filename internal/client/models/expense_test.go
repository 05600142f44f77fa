package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewExpense_StartsPending(t *testing.T) {
	e := NewExpense(decimal.NewFromFloat(45.0), "lunch", "food", time.Now(), "")

	require.NotEmpty(t, e.ID)
	assert.Equal(t, SyncStatusPending, e.SyncStatus)
	assert.False(t, e.UpdatedAt.IsZero())
	assert.Equal(t, e.CreatedAt, e.UpdatedAt)
	assert.Equal(t, time.UTC, e.UpdatedAt.Location())
}

func TestTouch_MarksPendingAndAdvancesUpdatedAt(t *testing.T) {
	e := NewExpense(decimal.NewFromInt(10), "coffee", "food", time.Now(), "")
	e.SyncStatus = SyncStatusSynced
	before := e.UpdatedAt

	e.Touch(before.Add(time.Second))

	assert.Equal(t, SyncStatusPending, e.SyncStatus)
	assert.True(t, e.UpdatedAt.After(before))
}

func TestMarkSynced_AckMatchesDispatchedRevision(t *testing.T) {
	e := NewExpense(decimal.NewFromInt(10), "coffee", "food", time.Now(), "")
	dispatched := e.UpdatedAt

	ok := e.MarkSynced(dispatched)

	assert.True(t, ok)
	assert.Equal(t, SyncStatusSynced, e.SyncStatus)
}

func TestMarkSynced_StaleAckIsDiscarded(t *testing.T) {
	// Record mutated after the upload was dispatched but before the ack:
	// the ack must not downgrade the newer pending revision.
	e := NewExpense(decimal.NewFromInt(10), "coffee", "food", time.Now(), "")
	dispatched := e.UpdatedAt

	e.Touch(dispatched.Add(500 * time.Millisecond))
	newer := e.UpdatedAt

	ok := e.MarkSynced(dispatched)

	assert.False(t, ok)
	assert.Equal(t, SyncStatusPending, e.SyncStatus)
	assert.True(t, e.UpdatedAt.Equal(newer))
}

func TestMarkFailed_KeepsUpdatedAt(t *testing.T) {
	e := NewExpense(decimal.NewFromInt(10), "coffee", "food", time.Now(), "")
	before := e.UpdatedAt

	e.MarkFailed()

	assert.Equal(t, SyncStatusFailed, e.SyncStatus)
	assert.True(t, e.UpdatedAt.Equal(before))
	assert.True(t, e.NeedsUpload(), "failed records retry like pending")
}

func TestNeedsUpload(t *testing.T) {
	e := NewExpense(decimal.NewFromInt(1), "x", "other", time.Now(), "")

	assert.True(t, e.NeedsUpload())

	require.True(t, e.MarkSynced(e.UpdatedAt))
	assert.False(t, e.NeedsUpload())
}
