package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/slwang/voiceledger/internal/client/models"
	"github.com/slwang/voiceledger/internal/client/transport"
	"github.com/slwang/voiceledger/internal/logging"
)

var ErrNotLoggedIn = errors.New("not logged in")

// Recorder captures one voice clip from the microphone and returns its
// encoded bytes. Implementations are platform specific and out of scope
// here; tests and the CLI can feed pre-recorded files.
type Recorder interface {
	Record(ctx context.Context) (io.ReadCloser, error)
}

// tokenSource is the slice of AuthService the voice flow needs.
type tokenSource interface {
	IsAuthenticated() bool
	AccessToken(ctx context.Context) (string, error)
}

// VoiceService turns a voice clip into a pending expense: upload the clip to
// presigned storage, have the server's parsing service extract a draft, and
// store the draft locally like any other expense.
type VoiceService struct {
	remote   transport.Transport
	auth     tokenSource
	recorder Recorder
	expenses *ExpenseService
	client   *http.Client
	log      logging.Logger

	now func() time.Time // test seam
}

func NewVoiceService(remote transport.Transport, auth tokenSource, recorder Recorder, expenses *ExpenseService, logger logging.Logger) *VoiceService {
	return &VoiceService{
		remote:   remote,
		auth:     auth,
		recorder: recorder,
		expenses: expenses,
		client:   &http.Client{Timeout: 60 * time.Second},
		log:      logger.With("component", "voice_service"),
		now:      time.Now,
	}
}

// CaptureExpense runs the full voice flow and returns the created Pending
// expense. Unlike regular CRUD this flow needs connectivity: the parsing
// happens server side.
func (s *VoiceService) CaptureExpense(ctx context.Context) (*models.Expense, error) {
	if !s.auth.IsAuthenticated() {
		return nil, ErrNotLoggedIn
	}
	token, err := s.auth.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	clip, err := s.recorder.Record(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to record clip: %w", err)
	}
	defer clip.Close()

	up, err := s.remote.UploadURL(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to get upload url: %w", err)
	}

	if err := s.upload(ctx, up.URL, clip); err != nil {
		return nil, err
	}
	s.log.Debug(ctx, "clip uploaded", "key", up.Key)

	draft, err := s.remote.ParseVoice(ctx, token, up.Key)
	if err != nil {
		return nil, fmt.Errorf("failed to parse clip: %w", err)
	}

	occurredAt := draft.ExpenseDate
	if occurredAt.IsZero() {
		occurredAt = s.now()
	}
	return s.expenses.Add(ctx, draft.Amount, draft.Title, draft.Category, occurredAt, draft.Notes)
}

// upload PUTs the clip to the presigned URL.
func (s *VoiceService) upload(ctx context.Context, url string, clip io.Reader) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, clip)
	if err != nil {
		return fmt.Errorf("failed to build upload request: %w", err)
	}
	req.Header.Set("Content-Type", "audio/mp4")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to upload clip: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("upload rejected with status %d", resp.StatusCode)
	}
	return nil
}
