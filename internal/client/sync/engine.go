// Package sync implements the client's synchronization engine: uploading
// pending local changes, pulling remote changes through last-writer-wins
// conflict resolution, and propagating queued deletes.
package sync

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/slwang/voiceledger/internal/client/models"
	"github.com/slwang/voiceledger/internal/client/repositories/expenses"
	"github.com/slwang/voiceledger/internal/client/repositories/metadata"
	"github.com/slwang/voiceledger/internal/client/repositories/tombstones"
	"github.com/slwang/voiceledger/internal/client/transport"
	"github.com/slwang/voiceledger/internal/common"
	"github.com/slwang/voiceledger/internal/dbx"
	"github.com/slwang/voiceledger/internal/logging"
)

// AuthProvider supplies the engine with session state. When IsAuthenticated
// reports false every engine operation short-circuits with
// ErrNotAuthenticated before touching the database or the network.
type AuthProvider interface {
	IsAuthenticated() bool
	AccessToken(ctx context.Context) (string, error)
	UserID() string
}

// PushResult summarizes one upload pass.
type PushResult struct {
	// Uploaded is how many records were sent and acknowledged as Synced.
	Uploaded int
	// Deleted is how many queued tombstones were propagated and removed.
	Deleted int
	// FailedDeletes is how many tombstones stayed queued after a failed
	// remote delete. They retry on the next pass.
	FailedDeletes int
}

// PullResult summarizes one download pass.
type PullResult struct {
	Fetched int
	Created int
	Updated int
}

// SyncResult is the outcome of a full bidirectional pass.
type SyncResult struct {
	Push PushResult
	Pull PullResult
}

// Engine orchestrates synchronization between the local store and the server.
// All public operations are single-flight: a call that arrives while another
// is running returns ErrSyncInProgress instead of queueing.
type Engine struct {
	db       *sql.DB
	remote   transport.Transport
	auth     AuthProvider
	log      logging.Logger
	resolver Resolver
	running  atomic.Bool
}

func NewEngine(db *sql.DB, remote transport.Transport, auth AuthProvider, logger logging.Logger) *Engine {
	return &Engine{
		db:     db,
		remote: remote,
		auth:   auth,
		log:    logger.With("component", "sync_engine"),
	}
}

func (e *Engine) begin() bool { return e.running.CompareAndSwap(false, true) }
func (e *Engine) end()        { e.running.Store(false) }

// token returns the bearer token, or ErrNotAuthenticated if there is no
// usable session. This check runs before any other work in a pass.
func (e *Engine) token(ctx context.Context) (string, error) {
	if !e.auth.IsAuthenticated() {
		return "", ErrNotAuthenticated
	}
	tok, err := e.auth.AccessToken(ctx)
	if err != nil || tok == "" {
		return "", ErrNotAuthenticated
	}
	return tok, nil
}

// PushPending uploads all pending and failed records as one batch, then
// drains the tombstone queue. See pushPending for the pass semantics.
func (e *Engine) PushPending(ctx context.Context) (*PushResult, error) {
	if !e.begin() {
		return nil, ErrSyncInProgress
	}
	defer e.end()
	return e.pushPending(ctx)
}

// PullRemote downloads records changed since the last sync watermark and
// merges them through the resolver.
func (e *Engine) PullRemote(ctx context.Context) (*PullResult, error) {
	if !e.begin() {
		return nil, ErrSyncInProgress
	}
	defer e.end()
	return e.pullRemote(ctx)
}

// FullSync pushes first, then pulls, so fresh local edits reach the server
// before its state is read back. A failed push aborts the pass; the pull
// never runs on top of unsent local changes.
func (e *Engine) FullSync(ctx context.Context) (*SyncResult, error) {
	if !e.begin() {
		return nil, ErrSyncInProgress
	}
	defer e.end()

	result := &SyncResult{}

	push, err := e.pushPending(ctx)
	if push != nil {
		result.Push = *push
	}
	if err != nil {
		return result, err
	}

	pull, err := e.pullRemote(ctx)
	if pull != nil {
		result.Pull = *pull
	}
	return result, err
}

// DeleteRemote propagates a single queued delete immediately. Deleting a
// record the server never saw still succeeds and clears the tombstone.
func (e *Engine) DeleteRemote(ctx context.Context, expenseID string) error {
	tok, err := e.token(ctx)
	if err != nil {
		return err
	}

	if err := e.remote.DeleteExpense(ctx, tok, expenseID); err != nil {
		return classify(err)
	}
	return tombstones.NewSQLiteRepository(e.db).Remove(ctx, expenseID)
}

func (e *Engine) pushPending(ctx context.Context) (*PushResult, error) {
	tok, err := e.token(ctx)
	if err != nil {
		return nil, err
	}

	result := &PushResult{}
	repo := expenses.NewSQLiteRepository(e.db)

	batch, err := repo.GetAllUnsynced(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load push batch: %w", err)
	}

	if len(batch) > 0 {
		// Snapshot each record's revision at dispatch time. MarkSynced
		// compares the acknowledgment against the revision that is current
		// when the response lands, so an edit made during the upload keeps
		// the record Pending instead of silently losing its changes.
		dispatched := make(map[string]time.Time, len(batch))
		payloads := make([]transport.ExpensePayload, 0, len(batch))
		for _, exp := range batch {
			if exp.UserID == "" {
				exp.UserID = e.auth.UserID()
			}
			dispatched[exp.ID] = exp.UpdatedAt
			payloads = append(payloads, transport.PayloadFromModel(exp))
		}

		if pushErr := e.remote.PushExpenses(ctx, tok, payloads); pushErr != nil {
			// The server gives no per-record acknowledgments, so a failed
			// request fails the batch as a whole.
			if txErr := e.markBatch(ctx, dispatched, false); txErr != nil {
				e.log.Error(ctx, "failed to mark push batch as failed", "error", txErr)
			}
			return result, classify(pushErr)
		}

		if err := e.markBatch(ctx, dispatched, true); err != nil {
			return result, fmt.Errorf("failed to finalize push batch: %w", err)
		}
		result.Uploaded = len(batch)
	}

	e.drainTombstones(ctx, tok, result)

	e.log.Info(ctx, "push pass finished",
		"uploaded", result.Uploaded, "deleted", result.Deleted, "failed_deletes", result.FailedDeletes)
	return result, nil
}

// markBatch finalizes the status of every dispatched record in one
// transaction. Records are re-read first: an edit or delete that happened
// while the request was in flight must not be overwritten by stale state.
func (e *Engine) markBatch(ctx context.Context, dispatched map[string]time.Time, synced bool) error {
	return dbx.WithTx(ctx, e.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := expenses.NewSQLiteRepository(tx)
		for id, revision := range dispatched {
			cur, err := repo.GetByID(ctx, id)
			if errors.Is(err, common.ErrorNotFound) {
				continue // deleted mid-flight
			}
			if err != nil {
				return err
			}

			if synced {
				if !cur.MarkSynced(revision) {
					e.log.Debug(ctx, "stale acknowledgment discarded", "id", id)
					continue
				}
			} else {
				if !cur.UpdatedAt.Equal(revision) {
					continue // re-edited mid-flight, already Pending again
				}
				cur.MarkFailed()
			}

			if err := repo.CreateOrUpdate(ctx, cur); err != nil {
				return err
			}
		}
		return nil
	})
}

// drainTombstones propagates queued deletes one by one. A failed delete is
// logged and left queued for the next pass; it never fails the push pass.
func (e *Engine) drainTombstones(ctx context.Context, tok string, result *PushResult) {
	repo := tombstones.NewSQLiteRepository(e.db)

	queue, err := repo.GetAll(ctx)
	if err != nil {
		e.log.Error(ctx, "failed to load tombstone queue", "error", err)
		return
	}

	for _, t := range queue {
		if err := e.remote.DeleteExpense(ctx, tok, t.ExpenseID); err != nil {
			e.log.Warn(ctx, "remote delete failed, tombstone kept", "id", t.ExpenseID, "error", err)
			result.FailedDeletes++
			continue
		}
		if err := repo.Remove(ctx, t.ExpenseID); err != nil {
			e.log.Error(ctx, "failed to remove tombstone", "id", t.ExpenseID, "error", err)
			result.FailedDeletes++
			continue
		}
		result.Deleted++
	}
}

func (e *Engine) pullRemote(ctx context.Context) (*PullResult, error) {
	tok, err := e.token(ctx)
	if err != nil {
		return nil, err
	}

	since, err := e.lastSyncTime(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := e.remote.FetchExpenses(ctx, tok, since)
	if err != nil {
		return nil, classify(err)
	}

	result := &PullResult{Fetched: len(resp.Expenses)}

	// Merge the whole response and advance the watermark atomically, so a
	// crash mid-merge re-fetches the same window instead of skipping it.
	err = dbx.WithTx(ctx, e.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := expenses.NewSQLiteRepository(tx)
		meta := metadata.NewSQLiteRepository(tx)

		queued, err := tombstones.NewSQLiteRepository(tx).GetAll(ctx)
		if err != nil {
			return err
		}
		deleted := make(map[string]bool, len(queued))
		for _, t := range queued {
			deleted[t.ExpenseID] = true
		}

		for _, p := range resp.Expenses {
			if deleted[p.ID] {
				// Locally deleted, remote delete still queued. Applying the
				// server copy would resurrect the record.
				continue
			}

			remote := p.ToModel(models.SyncStatusSynced)

			local, err := repo.GetByID(ctx, p.ID)
			if err != nil && !errors.Is(err, common.ErrorNotFound) {
				return err
			}

			merged, resolution := e.resolver.Resolve(local, remote)
			switch resolution {
			case CreateLocal:
				result.Created++
			case ApplyRemote:
				result.Updated++
			case KeepLocal:
				continue
			}
			if err := repo.CreateOrUpdate(ctx, merged); err != nil {
				return err
			}
		}

		watermark := resp.ServerTime.UTC().Format(time.RFC3339Nano)
		return meta.Set(ctx, metadata.KeyLastSyncTime, []byte(watermark))
	})
	if err != nil {
		return result, fmt.Errorf("failed to apply pulled records: %w", err)
	}

	e.log.Info(ctx, "pull pass finished",
		"fetched", result.Fetched, "created", result.Created, "updated", result.Updated)
	return result, nil
}

// lastSyncTime reads the pull watermark. A missing or unreadable watermark
// means a full fetch.
func (e *Engine) lastSyncTime(ctx context.Context) (*time.Time, error) {
	raw, err := metadata.NewSQLiteRepository(e.db).Get(ctx, metadata.KeyLastSyncTime)
	if err != nil {
		return nil, fmt.Errorf("failed to read sync watermark: %w", err)
	}
	if raw == nil {
		return nil, nil
	}

	t, err := time.Parse(time.RFC3339Nano, string(raw))
	if err != nil {
		e.log.Warn(ctx, "corrupt sync watermark, forcing full fetch", "value", string(raw))
		return nil, nil
	}
	return &t, nil
}
