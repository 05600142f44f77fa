package sync

import (
	"context"
	"errors"
	stdsync "sync"
	"time"

	"github.com/slwang/voiceledger/internal/logging"
)

// runner is the slice of the engine the scheduler drives.
type runner interface {
	PushPending(ctx context.Context) (*PushResult, error)
	FullSync(ctx context.Context) (*SyncResult, error)
}

// Scheduler decides when sync passes run. Two triggers:
//
//   - NotifyChange starts a debounce window; when it expires without another
//     change, a push-only pass uploads the accumulated edits. Every new change
//     restarts the window, so a burst of edits becomes one upload.
//   - A periodic ticker runs a full bidirectional pass to pick up remote
//     changes even when the local side is idle.
//
// Triggers that land while a pass is running are dropped, not queued. The
// engine reports that as ErrSyncInProgress and the next timer fires soon
// enough; other errors are logged and silently retried the same way.
type Scheduler struct {
	engine   runner
	log      logging.Logger
	debounce time.Duration
	interval time.Duration

	mu      stdsync.Mutex
	timer   *time.Timer
	started bool

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewScheduler returns a stopped scheduler. debounce is the quiet period after
// the last local change before a push; interval is the full-sync cadence.
func NewScheduler(engine runner, logger logging.Logger, debounce time.Duration, interval time.Duration) *Scheduler {
	if debounce <= 0 {
		debounce = 2 * time.Second
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Scheduler{
		engine:   engine,
		log:      logger.With("component", "sync_scheduler"),
		debounce: debounce,
		interval: interval,
	}
}

// Start launches the periodic loop. Starting twice is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go s.loop()
}

// Stop cancels the periodic loop, discards any pending debounce and waits for
// an in-flight tick to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	cancel()
	<-done
}

// NotifyChange records a local mutation and (re)starts the debounce window.
// Safe to call from any goroutine; calls before Start or after Stop are
// ignored.
func (s *Scheduler) NotifyChange() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}

	if s.timer != nil {
		s.timer.Stop()
	}
	ctx := s.ctx
	s.timer = time.AfterFunc(s.debounce, func() {
		s.run(ctx, "debounced push", func(ctx context.Context) error {
			_, err := s.engine.PushPending(ctx)
			return err
		})
	})
}

func (s *Scheduler) loop() {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.run(s.ctx, "periodic full sync", func(ctx context.Context) error {
				_, err := s.engine.FullSync(ctx)
				return err
			})
		}
	}
}

func (s *Scheduler) run(ctx context.Context, trigger string, pass func(ctx context.Context) error) {
	if ctx == nil || ctx.Err() != nil {
		return
	}

	err := pass(ctx)
	switch {
	case err == nil:
	case errors.Is(err, ErrSyncInProgress):
		s.log.Debug(ctx, "trigger dropped, pass already running", "trigger", trigger)
	case errors.Is(err, ErrNotAuthenticated):
		s.log.Debug(ctx, "trigger skipped, no session", "trigger", trigger)
	default:
		// Silent retry model: the failure stays visible in record statuses
		// and the next trigger tries again.
		s.log.Warn(ctx, "sync pass failed", "trigger", trigger, "error", err)
	}
}
