package metadata

import (
	"context"
)

// Well-known keys stored by the client.
const (
	// KeyLastSyncTime is the server-reported time of the last successful
	// pull, RFC3339. Never derived from the local clock.
	KeyLastSyncTime = "last_sync_time"
	// KeyAccessToken is the cached bearer token.
	KeyAccessToken = "access_token"
	// KeyUserID is the authenticated account id.
	KeyUserID = "user_id"
	// KeyUserEmail is the authenticated account email.
	KeyUserEmail = "user_email"
)

// Repository is a small key/value store for sync bookkeeping.
type Repository interface {
	// Get returns the value for key, or nil if the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// Clear wipes all metadata (logout).
	Clear(ctx context.Context) error
}
