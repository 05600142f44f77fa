package services

import (
	"context"
	"database/sql"
	"sync"

	"github.com/slwang/voiceledger/internal/client/repositories/metadata"
	"github.com/slwang/voiceledger/internal/client/transport"
	"github.com/slwang/voiceledger/internal/logging"
)

// AuthService manages the account session. The bearer token is cached in
// memory for fast access and persisted in the metadata store so a restarted
// client resumes its session without logging in again.
type AuthService struct {
	db     *sql.DB
	remote transport.Transport
	log    logging.Logger

	mu     sync.RWMutex
	token  string
	userID string
	email  string
}

func NewAuthService(db *sql.DB, remote transport.Transport, logger logging.Logger) *AuthService {
	return &AuthService{
		db:     db,
		remote: remote,
		log:    logger.With("component", "auth_service"),
	}
}

// LoadSession restores a persisted session into memory. Call once at startup;
// a missing session is not an error.
func (s *AuthService) LoadSession(ctx context.Context) error {
	repo := metadata.NewSQLiteRepository(s.db)

	token, err := repo.Get(ctx, metadata.KeyAccessToken)
	if err != nil {
		return err
	}
	userID, err := repo.Get(ctx, metadata.KeyUserID)
	if err != nil {
		return err
	}
	email, err := repo.Get(ctx, metadata.KeyUserEmail)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.token, s.userID, s.email = string(token), string(userID), string(email)
	s.mu.Unlock()

	if len(token) > 0 {
		s.log.Debug(ctx, "session restored", "email", string(email))
	}
	return nil
}

func (s *AuthService) Register(ctx context.Context, email, password string) error {
	return s.remote.Register(ctx, email, password)
}

// Login authenticates against the server and persists the session.
func (s *AuthService) Login(ctx context.Context, email, password string) error {
	resp, err := s.remote.Login(ctx, email, password)
	if err != nil {
		return err
	}

	repo := metadata.NewSQLiteRepository(s.db)
	if err := repo.Set(ctx, metadata.KeyAccessToken, []byte(resp.AccessToken)); err != nil {
		return err
	}
	if err := repo.Set(ctx, metadata.KeyUserID, []byte(resp.UserID)); err != nil {
		return err
	}
	if err := repo.Set(ctx, metadata.KeyUserEmail, []byte(email)); err != nil {
		return err
	}

	s.mu.Lock()
	s.token, s.userID, s.email = resp.AccessToken, resp.UserID, email
	s.mu.Unlock()

	s.log.Info(ctx, "logged in", "email", email)
	return nil
}

// Logout drops the session from memory and wipes all metadata, including the
// sync watermark. Local expense data stays on the device.
func (s *AuthService) Logout(ctx context.Context) error {
	if err := metadata.NewSQLiteRepository(s.db).Clear(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	s.token, s.userID, s.email = "", "", ""
	s.mu.Unlock()

	s.log.Info(ctx, "logged out")
	return nil
}

func (s *AuthService) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != ""
}

func (s *AuthService) AccessToken(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, nil
}

func (s *AuthService) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

func (s *AuthService) Email() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.email
}
