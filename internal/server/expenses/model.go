package expenses

import (
	"time"

	"github.com/shopspring/decimal"
)

// Expense is the canonical server-side copy of a record. The client assigns
// the id and the timestamps; the server only arbitrates between revisions.
type Expense struct {
	ID         string
	UserID     string
	Amount     decimal.Decimal
	Title      string
	Category   string
	Notes      string
	OccurredAt time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
