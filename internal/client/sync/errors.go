package sync

import (
	"errors"
	"fmt"

	"github.com/slwang/voiceledger/internal/client/transport"
)

var (
	// ErrNotAuthenticated means no valid token was obtainable. Operations
	// short-circuit before touching the repository or the network.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrNetwork marks transport-level failures. Retryable at the next
	// scheduled or manual trigger.
	ErrNetwork = errors.New("network error")

	// ErrServer marks a non-2xx response. The whole batch is treated as
	// failed; there is no per-record error granularity.
	ErrServer = errors.New("server error")

	// ErrConflict is reserved for stricter merge policies. Last-writer-wins
	// never reports it, but it is part of the taxonomy for callers.
	ErrConflict = errors.New("data conflict")

	// ErrSyncInProgress is returned when a pass is already running. The
	// trigger is dropped, never queued; the next timer tick retries.
	ErrSyncInProgress = errors.New("sync already in progress")
)

// classify translates a transport failure into the sync error taxonomy.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var se *transport.StatusError
	if errors.As(err, &se) {
		return fmt.Errorf("%w: %v", ErrServer, err)
	}
	return fmt.Errorf("%w: %v", ErrNetwork, err)
}
