package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// createSession обрабатывает POST /api/session: создание новой игровой
// сессии пользователя по выбранному сценарию.
func (h *GameHandler) createSession(c *gin.Context) {
	var req sessionPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIError{Error: "Invalid request body: " + err.Error()})
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, APIError{Error: "Invalid userId format"})
		return
	}
	scenarioID, err := uuid.Parse(req.ScenarioID)
	if err != nil {
		c.JSON(http.StatusBadRequest, APIError{Error: "Invalid scenarioId format"})
		return
	}

	session, err := h.service.CreateSession(c.Request.Context(), userID, scenarioID, req.InitialState)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.logger.Info("Session created",
		zap.String("sessionID", session.ID.String()),
		zap.String("userID", userID.String()),
		zap.String("scenarioID", scenarioID.String()),
	)
	c.JSON(http.StatusCreated, gin.H{"session": session})
}

// listSessions обрабатывает GET /api/session?userId=...
// Возвращает все сессии пользователя вместе с данными сценария.
func (h *GameHandler) listSessions(c *gin.Context) {
	userIDStr := c.Query("userId")
	if userIDStr == "" {
		c.JSON(http.StatusBadRequest, APIError{Error: "userId is required"})
		return
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, APIError{Error: "Invalid userId format"})
		return
	}

	sessions, err := h.service.ListSessions(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	out := make([]sessionResponse, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, toSessionResponse(s))
	}
	c.JSON(http.StatusOK, gin.H{"sessions": out})
}

// getSession обрабатывает GET /api/session/:id.
// current_state и шаблон сценария отдаются распарсенными: клиент получает
// полную структуру состояния даже если в базе лежит мусор.
func (h *GameHandler) getSession(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, APIError{Error: "Invalid session ID format"})
		return
	}

	session, err := h.service.GetSession(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"session": toParsedSessionResponse(session)})
}

// deleteSession обрабатывает DELETE /api/session/:id. Ходы диалога
// удаляются каскадом на стороне базы.
func (h *GameHandler) deleteSession(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, APIError{Error: "Invalid session ID format"})
		return
	}

	deleted, err := h.service.DeleteSession(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.logger.Info("Session deleted", zap.String("sessionID", id.String()))
	c.JSON(http.StatusOK, gin.H{"data": []sessionResponse{toSessionResponse(deleted)}})
}
