package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/slwang/voiceledger/internal/common"
	"github.com/slwang/voiceledger/internal/logging"
	"github.com/slwang/voiceledger/internal/server/expenses"
	"github.com/slwang/voiceledger/internal/server/users"
	"github.com/slwang/voiceledger/internal/server/voice"
)

// UserService is the slice of the account service the handlers need.
type UserService interface {
	Register(ctx context.Context, email, password string) (*users.User, error)
	Login(ctx context.Context, email, password string) (*users.Session, error)
}

// ExpenseService is the slice of the sync service the handlers need.
type ExpenseService interface {
	Sync(ctx context.Context, userID string, batch []expenses.Expense) error
	Fetch(ctx context.Context, userID string, since *time.Time) ([]expenses.Expense, time.Time, error)
	Delete(ctx context.Context, userID string, id string) (bool, error)
}

// AudioPresigner issues presigned object-store URLs for voice clips.
type AudioPresigner interface {
	PresignedPutURL(ctx context.Context, userID string) (string, string, error)
	PresignedGetURL(ctx context.Context, key string) (string, error)
}

type Handlers struct {
	users     UserService
	expenses  ExpenseService
	presigner AudioPresigner
	parser    voice.Parser
	log       logging.Logger
}

// NewHandlers wires the API handlers. parser may be nil when no speech
// service is configured; the parse endpoint then reports 503.
func NewHandlers(users UserService, expenses ExpenseService, presigner AudioPresigner, parser voice.Parser, logger logging.Logger) *Handlers {
	return &Handlers{
		users:     users,
		expenses:  expenses,
		presigner: presigner,
		parser:    parser,
		log:       logger.With("component", "httpapi"),
	}
}

func (h *Handlers) register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "email and password are required"})
		return
	}

	user, err := h.users.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			c.JSON(http.StatusConflict, errorResponse{Error: "email already registered"})
			return
		}
		h.log.Error(c.Request.Context(), "register failed", "error", err)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusCreated, registerResponse{UserID: user.ID, Email: user.Email})
}

func (h *Handlers) login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "email and password are required"})
		return
	}

	session, err := h.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			c.JSON(http.StatusUnauthorized, errorResponse{Error: "invalid credentials"})
			return
		}
		h.log.Error(c.Request.Context(), "login failed", "error", err)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, loginResponse{AccessToken: session.AccessToken, UserID: session.UserID})
}

func (h *Handlers) syncExpenses(c *gin.Context) {
	var req syncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	batch := make([]expenses.Expense, 0, len(req.Expenses))
	for _, p := range req.Expenses {
		batch = append(batch, p.toModel())
	}

	userID := GetUserID(c)
	if err := h.expenses.Sync(c.Request.Context(), userID, batch); err != nil {
		h.log.Error(c.Request.Context(), "sync failed", "error", err, "user_id", userID)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, syncResponse{Accepted: len(batch)})
}

func (h *Handlers) fetchExpenses(c *gin.Context) {
	var since *time.Time
	if raw := c.Query("since"); raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "since must be an RFC 3339 timestamp"})
			return
		}
		since = &t
	}

	userID := GetUserID(c)
	changed, serverTime, err := h.expenses.Fetch(c.Request.Context(), userID, since)
	if err != nil {
		h.log.Error(c.Request.Context(), "fetch failed", "error", err, "user_id", userID)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal server error"})
		return
	}

	payloads := make([]expensePayload, 0, len(changed))
	for _, e := range changed {
		payloads = append(payloads, payloadFromModel(e))
	}

	c.JSON(http.StatusOK, fetchResponse{Expenses: payloads, ServerTime: serverTime})
}

func (h *Handlers) deleteExpense(c *gin.Context) {
	userID := GetUserID(c)
	id := c.Param("id")

	found, err := h.expenses.Delete(c.Request.Context(), userID, id)
	if err != nil {
		h.log.Error(c.Request.Context(), "delete failed", "error", err, "user_id", userID, "id", id)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal server error"})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, errorResponse{Error: "not found"})
		return
	}

	c.Status(http.StatusOK)
}

func (h *Handlers) uploadURL(c *gin.Context) {
	userID := GetUserID(c)

	key, url, err := h.presigner.PresignedPutURL(c.Request.Context(), userID)
	if err != nil {
		h.log.Error(c.Request.Context(), "presign failed", "error", err, "user_id", userID)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, uploadURLResponse{Key: key, URL: url})
}

func (h *Handlers) parseVoice(c *gin.Context) {
	if h.parser == nil {
		c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "voice parsing is not configured"})
		return
	}

	var req parseVoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "audio_key is required"})
		return
	}

	// The parser downloads the clip itself; hand it a short-lived read URL
	// rather than bucket credentials.
	audioURL, err := h.presigner.PresignedGetURL(c.Request.Context(), req.AudioKey)
	if err != nil {
		h.log.Error(c.Request.Context(), "presign failed", "error", err, "key", req.AudioKey)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal server error"})
		return
	}

	draft, err := h.parser.Parse(c.Request.Context(), audioURL)
	if err != nil {
		h.log.Error(c.Request.Context(), "voice parse failed", "error", err, "key", req.AudioKey)
		c.JSON(http.StatusBadGateway, errorResponse{Error: "voice parsing failed"})
		return
	}

	c.JSON(http.StatusOK, draftFromParser(draft))
}

func (h *Handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
