package expenses

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRepo applies the same last-writer-wins rule as the Postgres
// implementation, in memory.
type fakeRepo struct {
	rows map[string]Expense
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{rows: make(map[string]Expense)}
}

func (f *fakeRepo) UpsertBatch(ctx context.Context, userID string, batch []Expense) error {
	for _, e := range batch {
		cur, ok := f.rows[e.ID]
		if !ok {
			f.rows[e.ID] = e
			continue
		}
		if cur.UserID == e.UserID && e.UpdatedAt.After(cur.UpdatedAt) {
			f.rows[e.ID] = e
		}
	}
	return nil
}

func (f *fakeRepo) GetChangedSince(ctx context.Context, userID string, since *time.Time) ([]Expense, error) {
	var result []Expense
	for _, e := range f.rows {
		if e.UserID != userID {
			continue
		}
		if since != nil && !e.UpdatedAt.After(*since) {
			continue
		}
		result = append(result, e)
	}
	return result, nil
}

func (f *fakeRepo) Delete(ctx context.Context, userID string, id string) (bool, error) {
	e, ok := f.rows[id]
	if !ok || e.UserID != userID {
		return false, nil
	}
	delete(f.rows, id)
	return true, nil
}

func record(id string, updatedAt time.Time) Expense {
	return Expense{
		ID:         id,
		Amount:     decimal.NewFromInt(10),
		Title:      "t",
		Category:   "c",
		OccurredAt: updatedAt,
		CreatedAt:  updatedAt,
		UpdatedAt:  updatedAt,
	}
}

func TestSync_StampsOwnership(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	ctx := context.Background()

	e := record("r1", time.Now().UTC())
	e.UserID = "someone-else" // payload lies about ownership

	require.NoError(t, svc.Sync(ctx, "u1", []Expense{e}))
	assert.Equal(t, "u1", repo.rows["r1"].UserID)
}

func TestSync_RejectsMissingID(t *testing.T) {
	svc := NewService(newFakeRepo())

	err := svc.Sync(context.Background(), "u1", []Expense{{Title: "no id"}})
	assert.Error(t, err)
}

func TestSync_StaleRevisionIsIgnored(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	ctx := context.Background()

	t1 := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	newer := record("r1", t1.Add(time.Minute))
	newer.Title = "newer"
	require.NoError(t, svc.Sync(ctx, "u1", []Expense{newer}))

	older := record("r1", t1)
	older.Title = "older replay"
	require.NoError(t, svc.Sync(ctx, "u1", []Expense{older}))

	assert.Equal(t, "newer", repo.rows["r1"].Title)
}

func TestFetch_ServerTimeReadBeforeQuery(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	ctx := context.Background()

	fixed := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	require.NoError(t, svc.Sync(ctx, "u1", []Expense{record("r1", fixed.Add(-time.Hour))}))

	changed, serverTime, err := svc.Fetch(ctx, "u1", nil)
	require.NoError(t, err)
	assert.True(t, serverTime.Equal(fixed))
	assert.Len(t, changed, 1)
}

func TestFetch_SinceFiltersAndIsolatesUsers(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	ctx := context.Background()

	t0 := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, svc.Sync(ctx, "u1", []Expense{record("old", t0), record("new", t0.Add(time.Hour))}))
	require.NoError(t, svc.Sync(ctx, "u2", []Expense{record("other", t0.Add(time.Hour))}))

	since := t0.Add(time.Minute)
	changed, _, err := svc.Fetch(ctx, "u1", &since)
	require.NoError(t, err)
	require.Len(t, changed, 1)
	assert.Equal(t, "new", changed[0].ID)
}

func TestDelete_ScopedToOwner(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	ctx := context.Background()

	require.NoError(t, svc.Sync(ctx, "u1", []Expense{record("r1", time.Now().UTC())}))

	found, err := svc.Delete(ctx, "u2", "r1")
	require.NoError(t, err)
	assert.False(t, found, "another user's delete does not touch the record")

	found, err = svc.Delete(ctx, "u1", "r1")
	require.NoError(t, err)
	assert.True(t, found)

	found, err = svc.Delete(ctx, "u1", "r1")
	require.NoError(t, err)
	assert.False(t, found, "repeat delete reports absence")
}
