package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// getConversation обрабатывает GET /api/conversation?sessionId=...
// Возвращает полный журнал ходов сессии по возрастанию turn_number.
func (h *GameHandler) getConversation(c *gin.Context) {
	sessionIDStr := c.Query("sessionId")
	if sessionIDStr == "" {
		c.JSON(http.StatusBadRequest, APIError{Error: "sessionId is required"})
		return
	}
	sessionID, err := uuid.Parse(sessionIDStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, APIError{Error: "Invalid sessionId format"})
		return
	}

	turns, err := h.service.GetHistory(c.Request.Context(), sessionID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	messages := make([]turnResponse, 0, len(turns))
	for _, turn := range turns {
		messages = append(messages, toTurnResponse(turn))
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// appendTurn обрабатывает POST /api/conversation: ручная запись одного хода
// с явным номером (импорт истории, служебные вставки).
func (h *GameHandler) appendTurn(c *gin.Context) {
	var req conversationPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIError{Error: "Invalid request body: " + err.Error()})
		return
	}

	if req.TurnNumber == nil {
		c.JSON(http.StatusBadRequest, APIError{Error: "turnNumber is required"})
		return
	}
	sessionID, err := uuid.Parse(req.SessionID)
	if err != nil {
		c.JSON(http.StatusBadRequest, APIError{Error: "Invalid sessionId format"})
		return
	}

	turn, err := h.service.AppendTurn(c.Request.Context(), sessionID, req.Role, req.Content, *req.TurnNumber)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.logger.Debug("Turn appended",
		zap.String("sessionID", sessionID.String()),
		zap.Int("turnNumber", turn.TurnNumber),
	)
	c.JSON(http.StatusCreated, gin.H{"message": toTurnResponse(turn)})
}
