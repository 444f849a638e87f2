package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"scenario-server/internal/model"
	"scenario-server/internal/service"
)

// APIError представляет стандартизированный ответ об ошибке.
type APIError struct {
	Error string `json:"error"`
}

// GameHandler обрабатывает HTTP запросы игрового сервиса.
type GameHandler struct {
	service service.GameService
	logger  *zap.Logger
}

// NewGameHandler создает новый GameHandler.
func NewGameHandler(s service.GameService, logger *zap.Logger) *GameHandler {
	return &GameHandler{
		service: s,
		logger:  logger.Named("GameHandler"),
	}
}

// RegisterRoutes регистрирует маршруты сервиса.
// authMiddleware может быть nil, тогда маршруты открыты.
func (h *GameHandler) RegisterRoutes(r *gin.Engine, authMiddleware gin.HandlerFunc) {
	api := r.Group("/api")
	if authMiddleware != nil {
		api.Use(authMiddleware)
	}

	api.POST("/chat", h.submitTurn)
	api.GET("/chat", h.getChatHistory)

	api.POST("/conversation", h.appendTurn)
	api.GET("/conversation", h.getConversation)

	api.POST("/session", h.createSession)
	api.GET("/session", h.listSessions)
	api.GET("/session/:id", h.getSession)
	api.DELETE("/session/:id", h.deleteSession)

	api.POST("/scenario", h.createScenario)
	api.GET("/scenario/:id", h.getScenario)
}

// handleServiceError транслирует ошибки сервиса в HTTP статусы.
func (h *GameHandler) handleServiceError(c *gin.Context, err error) {
	var statusCode int
	var apiErr APIError

	switch {
	case errors.Is(err, model.ErrInvalidRequest):
		statusCode = http.StatusBadRequest
		apiErr = APIError{Error: err.Error()}
	case errors.Is(err, model.ErrNotFound):
		statusCode = http.StatusNotFound
		apiErr = APIError{Error: "Resource not found"}
	case errors.Is(err, model.ErrUpstreamFailure), errors.Is(err, model.ErrStreamAborted):
		statusCode = http.StatusInternalServerError
		apiErr = APIError{Error: "Failed to generate response"}
	default:
		statusCode = http.StatusInternalServerError
		apiErr = APIError{Error: "Internal server error"}
	}

	if statusCode == http.StatusInternalServerError {
		h.logger.Error("Service error", zap.Error(err))
	}
	c.JSON(statusCode, apiErr)
}
