package expenses

import (
	"context"
	"fmt"
	"time"
)

// Service wraps the repository with ownership stamping and the fetch
// watermark. Clients advance their sync watermark to the ServerTime this
// service reports, never to their own clocks.
type Service struct {
	repo Repository

	now func() time.Time // test seam
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Sync applies a pushed batch. The authenticated user owns every record in
// the batch regardless of what the payload claims.
func (s *Service) Sync(ctx context.Context, userID string, batch []Expense) error {
	for i := range batch {
		if batch[i].ID == "" {
			return fmt.Errorf("record %d has no id", i)
		}
		batch[i].UserID = userID
	}
	return s.repo.UpsertBatch(ctx, userID, batch)
}

// Fetch returns the user's records changed since the given instant along
// with the server clock at response time.
func (s *Service) Fetch(ctx context.Context, userID string, since *time.Time) ([]Expense, time.Time, error) {
	// Read the clock before the query: a record committed while the query
	// runs must land in the next window, not fall between two windows.
	serverTime := s.now().UTC()

	changed, err := s.repo.GetChangedSince(ctx, userID, since)
	if err != nil {
		return nil, time.Time{}, err
	}
	return changed, serverTime, nil
}

// Delete removes one record. Reports whether it existed.
func (s *Service) Delete(ctx context.Context, userID string, id string) (bool, error) {
	return s.repo.Delete(ctx, userID, id)
}
