package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/slwang/voiceledger/internal/common"
)

// HTTPTransport talks to the sync server over JSON/HTTP.
type HTTPTransport struct {
	baseURL string
	client  *http.Client
}

// NewHTTPTransport returns a transport for the given base URL. A nil client
// falls back to a default with a 30s timeout; a timeout is surfaced like any
// other transport failure.
func NewHTTPTransport(baseURL string, client *http.Client) *HTTPTransport {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPTransport{baseURL: baseURL, client: client}
}

func (t *HTTPTransport) PushExpenses(ctx context.Context, token string, batch []ExpensePayload) error {
	req := SyncRequest{Expenses: batch}
	return t.do(ctx, http.MethodPost, "/api/expenses/sync", token, req, nil)
}

func (t *HTTPTransport) FetchExpenses(ctx context.Context, token string, since *time.Time) (*FetchResponse, error) {
	path := "/api/expenses/fetch"
	if since != nil {
		path += "?since=" + url.QueryEscape(since.UTC().Format(time.RFC3339Nano))
	}

	var resp FetchResponse
	if err := t.do(ctx, http.MethodGet, path, token, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (t *HTTPTransport) DeleteExpense(ctx context.Context, token string, id string) error {
	err := t.do(ctx, http.MethodDelete, "/api/expenses/"+url.PathEscape(id), token, nil, nil)

	// Already gone counts as deleted: the operation is idempotent.
	var se *StatusError
	if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
		return nil
	}
	return err
}

func (t *HTTPTransport) Register(ctx context.Context, email string, password string) error {
	req := RegisterRequest{Email: email, Password: password}
	return t.do(ctx, http.MethodPost, "/api/auth/register", "", req, nil)
}

func (t *HTTPTransport) Login(ctx context.Context, email string, password string) (*LoginResponse, error) {
	req := LoginRequest{Email: email, Password: password}

	var resp LoginResponse
	if err := t.do(ctx, http.MethodPost, "/api/auth/login", "", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (t *HTTPTransport) UploadURL(ctx context.Context, token string) (*UploadURLResponse, error) {
	var resp UploadURLResponse
	if err := t.do(ctx, http.MethodPost, "/api/voice/upload-url", token, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (t *HTTPTransport) ParseVoice(ctx context.Context, token string, audioKey string) (*ExpenseDraft, error) {
	req := ParseVoiceRequest{AudioKey: audioKey}

	var resp ExpenseDraft
	if err := t.do(ctx, http.MethodPost, "/api/voice/parse", token, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// do sends one JSON request. in == nil sends no body, out == nil discards the
// response body. Transport-level failures wrap ErrUnavailable; non-2xx
// responses come back as *StatusError.
func (t *HTTPTransport) do(ctx context.Context, method string, path string, token string, in any, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, t.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(common.AuthorizationHeader, common.BearerPrefix+token)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{StatusCode: resp.StatusCode, Body: string(b)}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
