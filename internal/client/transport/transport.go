// Package transport defines the client's view of the sync API: one explicit
// request/response schema type per endpoint, an interface the sync engine
// consumes, and an HTTP implementation.
package transport

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/slwang/voiceledger/internal/client/models"
)

// ExpensePayload is the wire form of an expense. Timestamps are ISO-8601 with
// timezone and compare as instants, never as wall-clock-local values.
type ExpensePayload struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	Amount      decimal.Decimal `json:"amount"`
	Title       string          `json:"title"`
	Category    string          `json:"category"`
	ExpenseDate time.Time       `json:"expense_date"`
	Notes       string          `json:"notes"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// SyncRequest is the body of POST /api/expenses/sync.
type SyncRequest struct {
	Expenses []ExpensePayload `json:"expenses"`
}

// FetchResponse is the body of GET /api/expenses/fetch. ServerTime is the
// server's clock at response time; the engine advances its sync watermark to
// this value, not to the local clock, to avoid clock-skew gaps.
type FetchResponse struct {
	Expenses   []ExpensePayload `json:"expenses"`
	ServerTime time.Time        `json:"server_time"`
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	UserID      string `json:"user_id"`
}

// UploadURLResponse carries a presigned PUT URL for a voice clip.
type UploadURLResponse struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

type ParseVoiceRequest struct {
	AudioKey string `json:"audio_key"`
}

// ExpenseDraft is the structured record the voice parsing service extracted
// from a clip. The client trusts it as-is and stores it as a pending expense.
type ExpenseDraft struct {
	Amount      decimal.Decimal `json:"amount"`
	Title       string          `json:"title"`
	Category    string          `json:"category"`
	ExpenseDate time.Time       `json:"expense_date"`
	Notes       string          `json:"notes"`
}

// Transport is the remote side of synchronization. The bearer token is passed
// per call; obtaining it is the auth provider's job.
type Transport interface {
	// PushExpenses uploads a batch. A non-2xx response fails the batch as
	// a whole; the server does not acknowledge individual records.
	PushExpenses(ctx context.Context, token string, batch []ExpensePayload) error

	// FetchExpenses returns records changed since the given instant, or
	// all records when since is nil.
	FetchExpenses(ctx context.Context, token string, since *time.Time) (*FetchResponse, error)

	// DeleteExpense removes a record remotely. Deleting an already absent
	// record succeeds.
	DeleteExpense(ctx context.Context, token string, id string) error

	Register(ctx context.Context, email string, password string) error
	Login(ctx context.Context, email string, password string) (*LoginResponse, error)

	// UploadURL asks the server for a presigned PUT URL for a voice clip.
	UploadURL(ctx context.Context, token string) (*UploadURLResponse, error)

	// ParseVoice sends an uploaded clip's storage key to the parsing
	// service and returns the structured draft it produced.
	ParseVoice(ctx context.Context, token string, audioKey string) (*ExpenseDraft, error)
}

// PayloadFromModel maps a local record to its wire form.
func PayloadFromModel(e *models.Expense) ExpensePayload {
	return ExpensePayload{
		ID:          e.ID,
		UserID:      e.UserID,
		Amount:      e.Amount,
		Title:       e.Title,
		Category:    e.Category,
		ExpenseDate: e.OccurredAt,
		Notes:       e.Notes,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

// ToModel maps a wire record to a local one with the given sync status.
func (p ExpensePayload) ToModel(status models.SyncStatus) *models.Expense {
	return &models.Expense{
		ID:         p.ID,
		UserID:     p.UserID,
		Amount:     p.Amount,
		Title:      p.Title,
		Category:   p.Category,
		Notes:      p.Notes,
		OccurredAt: p.ExpenseDate,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
		SyncStatus: status,
	}
}
