package sync

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slwang/voiceledger/internal/client/models"
	"github.com/slwang/voiceledger/internal/client/repositories/expenses"
	"github.com/slwang/voiceledger/internal/client/repositories/metadata"
	"github.com/slwang/voiceledger/internal/client/repositories/tombstones"
	"github.com/slwang/voiceledger/internal/client/transport"
	"github.com/slwang/voiceledger/internal/logging"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

type fakeTransport struct {
	pushFn   func(ctx context.Context, token string, batch []transport.ExpensePayload) error
	fetchFn  func(ctx context.Context, token string, since *time.Time) (*transport.FetchResponse, error)
	deleteFn func(ctx context.Context, token string, id string) error

	pushCalls   int
	fetchCalls  int
	deleteCalls []string
}

func (f *fakeTransport) PushExpenses(ctx context.Context, token string, batch []transport.ExpensePayload) error {
	f.pushCalls++
	if f.pushFn != nil {
		return f.pushFn(ctx, token, batch)
	}
	return nil
}

func (f *fakeTransport) FetchExpenses(ctx context.Context, token string, since *time.Time) (*transport.FetchResponse, error) {
	f.fetchCalls++
	if f.fetchFn != nil {
		return f.fetchFn(ctx, token, since)
	}
	return &transport.FetchResponse{ServerTime: time.Now().UTC()}, nil
}

func (f *fakeTransport) DeleteExpense(ctx context.Context, token string, id string) error {
	f.deleteCalls = append(f.deleteCalls, id)
	if f.deleteFn != nil {
		return f.deleteFn(ctx, token, id)
	}
	return nil
}

func (f *fakeTransport) Register(ctx context.Context, email, password string) error { return nil }

func (f *fakeTransport) Login(ctx context.Context, email, password string) (*transport.LoginResponse, error) {
	return &transport.LoginResponse{}, nil
}

func (f *fakeTransport) UploadURL(ctx context.Context, token string) (*transport.UploadURLResponse, error) {
	return &transport.UploadURLResponse{}, nil
}

func (f *fakeTransport) ParseVoice(ctx context.Context, token, audioURL string) (*transport.ExpenseDraft, error) {
	return &transport.ExpenseDraft{}, nil
}

type fakeAuth struct {
	authenticated bool
	token         string
	userID        string
}

func (f *fakeAuth) IsAuthenticated() bool { return f.authenticated }
func (f *fakeAuth) AccessToken(ctx context.Context) (string, error) {
	return f.token, nil
}
func (f *fakeAuth) UserID() string { return f.userID }

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := sql.Open("sqlite3", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE expenses (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL DEFAULT '',
  amount TEXT NOT NULL,
  title TEXT NOT NULL,
  category TEXT NOT NULL,
  notes TEXT NOT NULL DEFAULT '',
  occurred_at TEXT NOT NULL,
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL,
  sync_status TEXT NOT NULL DEFAULT 'pending'
);
CREATE TABLE metadata (
  key TEXT PRIMARY KEY,
  value BLOB NOT NULL
);
CREATE TABLE tombstones (
  expense_id TEXT PRIMARY KEY,
  queued_at TEXT NOT NULL
);
`)
	require.NoError(t, err)
	return db
}

func setupEngine(t *testing.T) (*Engine, *fakeTransport, *sql.DB) {
	t.Helper()
	db := setupDB(t)
	tr := &fakeTransport{}
	auth := &fakeAuth{authenticated: true, token: "tok", userID: "u1"}
	eng := NewEngine(db, tr, auth, logging.New("error", "text"))
	return eng, tr, db
}

func seedExpense(t *testing.T, db *sql.DB, title string, status models.SyncStatus) *models.Expense {
	t.Helper()
	e := models.NewExpense(decimal.NewFromFloat(12.5), title, "food", time.Now(), "")
	e.SyncStatus = status
	require.NoError(t, expenses.NewSQLiteRepository(db).CreateOrUpdate(context.Background(), e))
	return e
}

func TestPushPending_UploadsBatchAndMarksSynced(t *testing.T) {
	eng, tr, db := setupEngine(t)
	ctx := context.Background()

	a := seedExpense(t, db, "coffee", models.SyncStatusPending)
	b := seedExpense(t, db, "retry me", models.SyncStatusFailed)
	seedExpense(t, db, "already up", models.SyncStatusSynced)

	var gotBatch []transport.ExpensePayload
	tr.pushFn = func(ctx context.Context, token string, batch []transport.ExpensePayload) error {
		require.Equal(t, "tok", token)
		gotBatch = batch
		return nil
	}

	result, err := eng.PushPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Uploaded)

	require.Len(t, gotBatch, 2)
	for _, p := range gotBatch {
		assert.Equal(t, "u1", p.UserID, "owner id is stamped before upload")
	}

	repo := expenses.NewSQLiteRepository(db)
	for _, id := range []string{a.ID, b.ID} {
		got, err := repo.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, models.SyncStatusSynced, got.SyncStatus)
	}
}

func TestPushPending_EmptyBatchSkipsNetwork(t *testing.T) {
	eng, tr, _ := setupEngine(t)

	result, err := eng.PushPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, result.Uploaded)
	assert.Equal(t, 0, tr.pushCalls)
}

func TestPushPending_FailureMarksWholeBatchFailed(t *testing.T) {
	eng, tr, db := setupEngine(t)
	ctx := context.Background()

	a := seedExpense(t, db, "one", models.SyncStatusPending)
	b := seedExpense(t, db, "two", models.SyncStatusPending)

	tr.pushFn = func(ctx context.Context, token string, batch []transport.ExpensePayload) error {
		return &transport.StatusError{StatusCode: 500, Body: "boom"}
	}

	_, err := eng.PushPending(ctx)
	assert.ErrorIs(t, err, ErrServer)

	repo := expenses.NewSQLiteRepository(db)
	for _, e := range []*models.Expense{a, b} {
		got, err := repo.GetByID(ctx, e.ID)
		require.NoError(t, err)
		assert.Equal(t, models.SyncStatusFailed, got.SyncStatus)
		assert.True(t, got.UpdatedAt.Equal(e.UpdatedAt), "a failed upload must not advance UpdatedAt")
	}
}

func TestPushPending_ConnectionErrorIsNetwork(t *testing.T) {
	eng, tr, db := setupEngine(t)
	seedExpense(t, db, "x", models.SyncStatusPending)

	tr.pushFn = func(ctx context.Context, token string, batch []transport.ExpensePayload) error {
		return fmt.Errorf("%w: dial tcp", transport.ErrUnavailable)
	}

	_, err := eng.PushPending(context.Background())
	assert.ErrorIs(t, err, ErrNetwork)
}

func TestPushPending_NotAuthenticated_TouchesNothing(t *testing.T) {
	eng, tr, db := setupEngine(t)
	eng.auth = &fakeAuth{authenticated: false}
	ctx := context.Background()

	e := seedExpense(t, db, "offline", models.SyncStatusPending)

	_, err := eng.PushPending(ctx)
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	assert.Equal(t, 0, tr.pushCalls)
	assert.Empty(t, tr.deleteCalls)

	got, err := expenses.NewSQLiteRepository(db).GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusPending, got.SyncStatus)
}

func TestPushPending_EditDuringUploadStaysPending(t *testing.T) {
	eng, tr, db := setupEngine(t)
	ctx := context.Background()

	e := seedExpense(t, db, "old title", models.SyncStatusPending)
	repo := expenses.NewSQLiteRepository(db)

	tr.pushFn = func(ctx context.Context, token string, batch []transport.ExpensePayload) error {
		// Concurrent edit while the request is in flight.
		e.Title = "new title"
		e.Touch(time.Now().Add(time.Second))
		return repo.CreateOrUpdate(ctx, e)
	}

	result, err := eng.PushPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Uploaded)

	got, err := repo.GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusPending, got.SyncStatus,
		"the stale acknowledgment must not hide the newer edit")
	assert.Equal(t, "new title", got.Title)
}

func TestPushPending_DrainsTombstoneQueue(t *testing.T) {
	eng, tr, db := setupEngine(t)
	ctx := context.Background()

	repo := tombstones.NewSQLiteRepository(db)
	require.NoError(t, repo.Enqueue(ctx, &models.Tombstone{ExpenseID: "gone-1", QueuedAt: time.Now()}))
	require.NoError(t, repo.Enqueue(ctx, &models.Tombstone{ExpenseID: "gone-2", QueuedAt: time.Now().Add(time.Second)}))

	tr.deleteFn = func(ctx context.Context, token string, id string) error {
		if id == "gone-2" {
			return errors.New("unreachable")
		}
		return nil
	}

	result, err := eng.PushPending(ctx)
	require.NoError(t, err, "tombstone failures do not fail the pass")
	assert.Equal(t, 1, result.Deleted)
	assert.Equal(t, 1, result.FailedDeletes)

	left, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "gone-2", left[0].ExpenseID, "failed delete stays queued for retry")
}

func TestPullRemote_CreatesRecordsAndAdvancesWatermark(t *testing.T) {
	eng, tr, db := setupEngine(t)
	ctx := context.Background()

	serverTime := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	tr.fetchFn = func(ctx context.Context, token string, since *time.Time) (*transport.FetchResponse, error) {
		assert.Nil(t, since, "first pull fetches everything")
		return &transport.FetchResponse{
			ServerTime: serverTime,
			Expenses: []transport.ExpensePayload{
				{ID: "r1", UserID: "u1", Amount: decimal.NewFromInt(10), Title: "hotel", Category: "travel", UpdatedAt: serverTime},
				{ID: "r2", UserID: "u1", Amount: decimal.NewFromInt(20), Title: "flight", Category: "travel", UpdatedAt: serverTime},
			},
		}, nil
	}

	result, err := eng.PullRemote(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Fetched)
	assert.Equal(t, 2, result.Created)

	got, err := expenses.NewSQLiteRepository(db).GetByID(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusSynced, got.SyncStatus)

	raw, err := metadata.NewSQLiteRepository(db).Get(ctx, metadata.KeyLastSyncTime)
	require.NoError(t, err)
	watermark, err := time.Parse(time.RFC3339Nano, string(raw))
	require.NoError(t, err)
	assert.True(t, watermark.Equal(serverTime), "watermark is the server clock, not the local one")
}

func TestPullRemote_SendsStoredWatermark(t *testing.T) {
	eng, tr, db := setupEngine(t)
	ctx := context.Background()

	last := time.Date(2026, 8, 29, 8, 0, 0, 0, time.UTC)
	require.NoError(t, metadata.NewSQLiteRepository(db).Set(ctx,
		metadata.KeyLastSyncTime, []byte(last.Format(time.RFC3339Nano))))

	tr.fetchFn = func(ctx context.Context, token string, since *time.Time) (*transport.FetchResponse, error) {
		require.NotNil(t, since)
		assert.True(t, since.Equal(last))
		return &transport.FetchResponse{ServerTime: time.Now().UTC()}, nil
	}

	_, err := eng.PullRemote(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, tr.fetchCalls)
}

func TestPullRemote_LastWriterWins(t *testing.T) {
	eng, tr, db := setupEngine(t)
	ctx := context.Background()
	repo := expenses.NewSQLiteRepository(db)

	older := seedExpense(t, db, "stale local", models.SyncStatusSynced)
	newer := seedExpense(t, db, "fresh local edit", models.SyncStatusPending)

	serverTime := time.Now().UTC()
	tr.fetchFn = func(ctx context.Context, token string, since *time.Time) (*transport.FetchResponse, error) {
		return &transport.FetchResponse{
			ServerTime: serverTime,
			Expenses: []transport.ExpensePayload{
				{ID: older.ID, Amount: decimal.NewFromInt(77), Title: "remote wins", Category: "food",
					UpdatedAt: older.UpdatedAt.Add(time.Minute)},
				{ID: newer.ID, Amount: decimal.NewFromInt(88), Title: "remote loses", Category: "food",
					UpdatedAt: newer.UpdatedAt.Add(-time.Minute)},
			},
		}, nil
	}

	result, err := eng.PullRemote(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Updated)

	won, err := repo.GetByID(ctx, older.ID)
	require.NoError(t, err)
	assert.Equal(t, "remote wins", won.Title)
	assert.Equal(t, models.SyncStatusSynced, won.SyncStatus)

	kept, err := repo.GetByID(ctx, newer.ID)
	require.NoError(t, err)
	assert.Equal(t, "fresh local edit", kept.Title)
	assert.Equal(t, models.SyncStatusPending, kept.SyncStatus)
}

func TestPullRemote_IsIdempotent(t *testing.T) {
	eng, tr, db := setupEngine(t)
	ctx := context.Background()

	serverTime := time.Now().UTC()
	tr.fetchFn = func(ctx context.Context, token string, since *time.Time) (*transport.FetchResponse, error) {
		return &transport.FetchResponse{
			ServerTime: serverTime,
			Expenses: []transport.ExpensePayload{
				{ID: "r1", Amount: decimal.NewFromInt(10), Title: "hotel", Category: "travel", UpdatedAt: serverTime},
			},
		}, nil
	}

	first, err := eng.PullRemote(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Created)

	second, err := eng.PullRemote(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Created)
	assert.Equal(t, 0, second.Updated, "re-pulling the same window changes nothing")

	all, err := expenses.NewSQLiteRepository(db).GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestPullRemote_DoesNotResurrectLocallyDeleted(t *testing.T) {
	eng, tr, db := setupEngine(t)
	ctx := context.Background()

	require.NoError(t, tombstones.NewSQLiteRepository(db).Enqueue(ctx,
		&models.Tombstone{ExpenseID: "zombie", QueuedAt: time.Now()}))
	tr.deleteFn = func(ctx context.Context, token string, id string) error {
		return errors.New("unreachable") // keep the tombstone queued
	}

	serverTime := time.Now().UTC()
	tr.fetchFn = func(ctx context.Context, token string, since *time.Time) (*transport.FetchResponse, error) {
		return &transport.FetchResponse{
			ServerTime: serverTime,
			Expenses: []transport.ExpensePayload{
				{ID: "zombie", Amount: decimal.NewFromInt(1), Title: "deleted here", UpdatedAt: serverTime},
			},
		}, nil
	}

	result, err := eng.PullRemote(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Created)

	_, err = expenses.NewSQLiteRepository(db).GetByID(ctx, "zombie")
	assert.Error(t, err)
}

func TestFullSync_PushesBeforePull(t *testing.T) {
	eng, tr, db := setupEngine(t)
	ctx := context.Background()

	seedExpense(t, db, "to upload", models.SyncStatusPending)

	order := []string{}
	tr.pushFn = func(ctx context.Context, token string, batch []transport.ExpensePayload) error {
		order = append(order, "push")
		return nil
	}
	tr.fetchFn = func(ctx context.Context, token string, since *time.Time) (*transport.FetchResponse, error) {
		order = append(order, "pull")
		return &transport.FetchResponse{ServerTime: time.Now().UTC()}, nil
	}

	result, err := eng.FullSync(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"push", "pull"}, order)
	assert.Equal(t, 1, result.Push.Uploaded)
}

func TestFullSync_FailedPushSkipsPull(t *testing.T) {
	eng, tr, db := setupEngine(t)
	seedExpense(t, db, "stuck", models.SyncStatusPending)

	tr.pushFn = func(ctx context.Context, token string, batch []transport.ExpensePayload) error {
		return &transport.StatusError{StatusCode: 503}
	}

	_, err := eng.FullSync(context.Background())
	assert.ErrorIs(t, err, ErrServer)
	assert.Equal(t, 0, tr.fetchCalls)
}

func TestEngine_SingleFlight(t *testing.T) {
	eng, tr, db := setupEngine(t)
	seedExpense(t, db, "busy", models.SyncStatusPending)

	tr.pushFn = func(ctx context.Context, token string, batch []transport.ExpensePayload) error {
		_, err := eng.PullRemote(ctx)
		assert.ErrorIs(t, err, ErrSyncInProgress)
		return nil
	}

	_, err := eng.PushPending(context.Background())
	require.NoError(t, err)

	// The guard is released once the pass finishes.
	_, err = eng.PullRemote(context.Background())
	require.NoError(t, err)
}

func TestDeleteRemote_ClearsTombstone(t *testing.T) {
	eng, tr, db := setupEngine(t)
	ctx := context.Background()

	repo := tombstones.NewSQLiteRepository(db)
	require.NoError(t, repo.Enqueue(ctx, &models.Tombstone{ExpenseID: "d1", QueuedAt: time.Now()}))

	require.NoError(t, eng.DeleteRemote(ctx, "d1"))
	assert.Equal(t, []string{"d1"}, tr.deleteCalls)

	left, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, left)
}
