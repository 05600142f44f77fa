package httpapi

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/slwang/voiceledger/internal/server/expenses"
	"github.com/slwang/voiceledger/internal/server/voice"
)

type errorResponse struct {
	Error string `json:"error"`
}

type credentialsRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type registerResponse struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	UserID      string `json:"user_id"`
}

// expensePayload is the wire form of an expense, shared by sync and fetch.
type expensePayload struct {
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

type syncRequest struct {
	Expenses []expensePayload `json:"expenses"`
}

type syncResponse struct {
	Accepted int `json:"accepted"`
}

// fetchResponse reports the server clock alongside the changed records so
// clients can advance their watermark without trusting their own clocks.
type fetchResponse struct {
	Expenses   []expensePayload `json:"expenses"`
	ServerTime time.Time        `json:"server_time"`
}

type uploadURLResponse struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

type parseVoiceRequest struct {
	AudioKey string `json:"audio_key" binding:"required"`
}

type draftResponse struct {
	Amount      decimal.Decimal `json:"amount"`
	Title       string          `json:"title"`
	Category    string          `json:"category"`
	ExpenseDate time.Time       `json:"expense_date"`
	Notes       string          `json:"notes"`
}

func (p expensePayload) toModel() expenses.Expense {
	return expenses.Expense{
		ID:         p.ID,
		UserID:     p.UserID,
		Amount:     p.Amount,
		Title:      p.Title,
		Category:   p.Category,
		Notes:      p.Notes,
		OccurredAt: p.ExpenseDate,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

func payloadFromModel(e expenses.Expense) expensePayload {
	return expensePayload{
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

func draftFromParser(d *voice.Draft) draftResponse {
	return draftResponse{
		Amount:      d.Amount,
		Title:       d.Title,
		Category:    d.Category,
		ExpenseDate: d.ExpenseDate,
		Notes:       d.Notes,
	}
}
