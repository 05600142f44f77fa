// Package services holds the client's application services: expense CRUD on
// the local store, session management, and voice expense capture.
package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/slwang/voiceledger/internal/client/models"
	"github.com/slwang/voiceledger/internal/client/repositories/expenses"
	"github.com/slwang/voiceledger/internal/client/repositories/tombstones"
	"github.com/slwang/voiceledger/internal/dbx"
	"github.com/slwang/voiceledger/internal/logging"
)

var (
	ErrInvalidAmount = errors.New("amount must be positive")
	ErrEmptyTitle    = errors.New("title must not be empty")
)

// Notifier is told about local mutations so a sync pass can be scheduled.
// The sync scheduler implements it; a no-op suffices in tests.
type Notifier interface {
	NotifyChange()
}

// ExpenseService implements local-first expense CRUD. Every mutation is
// written to the local store immediately and reported to the notifier; upload
// happens later, asynchronously.
type ExpenseService struct {
	db       *sql.DB
	notifier Notifier
	log      logging.Logger

	now func() time.Time // test seam
}

func NewExpenseService(db *sql.DB, notifier Notifier, logger logging.Logger) *ExpenseService {
	return &ExpenseService{
		db:       db,
		notifier: notifier,
		log:      logger.With("component", "expense_service"),
		now:      time.Now,
	}
}

func validate(amount decimal.Decimal, title string) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(title) == "" {
		return ErrEmptyTitle
	}
	return nil
}

// Add creates a new Pending expense. It is usable and visible immediately,
// with or without connectivity.
func (s *ExpenseService) Add(ctx context.Context, amount decimal.Decimal, title, category string, occurredAt time.Time, notes string) (*models.Expense, error) {
	if err := validate(amount, title); err != nil {
		return nil, err
	}

	e := models.NewExpense(amount, title, category, occurredAt, notes)
	if err := expenses.NewSQLiteRepository(s.db).CreateOrUpdate(ctx, e); err != nil {
		return nil, err
	}

	s.log.Debug(ctx, "expense added", "id", e.ID)
	s.notifier.NotifyChange()
	return e, nil
}

// Update replaces the mutable fields of an expense. The field change and the
// sync bookkeeping (Pending, fresh UpdatedAt) land in one write.
func (s *ExpenseService) Update(ctx context.Context, id string, amount decimal.Decimal, title, category string, occurredAt time.Time, notes string) (*models.Expense, error) {
	if err := validate(amount, title); err != nil {
		return nil, err
	}

	var updated *models.Expense
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := expenses.NewSQLiteRepository(tx)

		e, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}

		e.Amount = amount
		e.Title = title
		e.Category = category
		e.OccurredAt = occurredAt.UTC()
		e.Notes = notes
		e.Touch(s.now())

		if err := repo.CreateOrUpdate(ctx, e); err != nil {
			return err
		}
		updated = e
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Debug(ctx, "expense updated", "id", id)
	s.notifier.NotifyChange()
	return updated, nil
}

// Delete removes the expense locally and queues a tombstone in the same
// transaction, so the remote delete can never be forgotten once the local row
// is gone.
func (s *ExpenseService) Delete(ctx context.Context, id string) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := expenses.NewSQLiteRepository(tx).Delete(ctx, id); err != nil {
			return err
		}
		return tombstones.NewSQLiteRepository(tx).Enqueue(ctx, &models.Tombstone{
			ExpenseID: id,
			QueuedAt:  s.now().UTC(),
		})
	})
	if err != nil {
		return err
	}

	s.log.Debug(ctx, "expense deleted", "id", id)
	s.notifier.NotifyChange()
	return nil
}

// List returns all local expenses, newest occurrence first.
func (s *ExpenseService) List(ctx context.Context) ([]models.Expense, error) {
	return expenses.NewSQLiteRepository(s.db).GetAll(ctx)
}

// Get returns one expense or common.ErrorNotFound.
func (s *ExpenseService) Get(ctx context.Context, id string) (*models.Expense, error) {
	return expenses.NewSQLiteRepository(s.db).GetByID(ctx, id)
}

// Count returns the total number of local expenses.
func (s *ExpenseService) Count(ctx context.Context) (int, error) {
	return expenses.NewSQLiteRepository(s.db).Count(ctx)
}
