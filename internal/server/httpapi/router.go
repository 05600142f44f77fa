package httpapi

import (
	"github.com/gin-gonic/gin"

	"github.com/slwang/voiceledger/internal/logging"
)

// NewRouter builds the gin engine with middleware and all API routes. The
// expense and voice routes require a valid bearer token.
func NewRouter(h *Handlers, jwtSecret []byte, logger logging.Logger) *gin.Engine {
	router := gin.New()
	router.Use(Recovery(logger), RequestLogger(logger))

	router.GET("/health", h.health)

	api := router.Group("/api")

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", h.register)
		authGroup.POST("/login", h.login)
	}

	protected := api.Group("")
	protected.Use(Auth(jwtSecret))
	{
		protected.POST("/expenses/sync", h.syncExpenses)
		protected.GET("/expenses/fetch", h.fetchExpenses)
		protected.DELETE("/expenses/:id", h.deleteExpense)

		protected.POST("/voice/upload-url", h.uploadURL)
		protected.POST("/voice/parse", h.parseVoice)
	}

	return router
}
