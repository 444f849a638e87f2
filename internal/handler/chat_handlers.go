package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"scenario-server/internal/model"
	"scenario-server/internal/service"
)

// submitTurn обрабатывает POST /api/chat: ход игрока и стриминг ответа
// нарратора как text/plain по мере генерации.
func (h *GameHandler) submitTurn(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIError{Error: "Invalid request body: " + err.Error()})
		return
	}

	sessionID, err := uuid.Parse(req.SessionID)
	if err != nil {
		c.JSON(http.StatusBadRequest, APIError{Error: "Invalid sessionId format"})
		return
	}

	h.logger.Info("Processing chat turn",
		zap.String("sessionID", sessionID.String()),
		zap.Int("messages", len(req.Messages)),
	)

	// Заголовки ставим только после того, как пошёл первый фрагмент:
	// до этого момента ошибка ещё может уйти обычным JSON.
	streaming := false
	flusher, canFlush := c.Writer.(http.Flusher)

	chunkHandler := func(chunk string) error {
		if !streaming {
			c.Writer.Header().Set("Content-Type", "text/plain; charset=utf-8")
			c.Writer.Header().Set("Cache-Control", "no-cache")
			c.Writer.Header().Set("Connection", "keep-alive")
			c.Writer.WriteHeader(http.StatusOK)
			streaming = true
		}
		if _, werr := c.Writer.WriteString(chunk); werr != nil {
			return werr
		}
		if canFlush {
			flusher.Flush()
		}
		return nil
	}

	err = h.service.SubmitTurn(c.Request.Context(), service.SubmitTurnRequest{
		SessionID:     sessionID,
		Messages:      req.Messages,
		D20RollResult: req.D20RollResult,
	}, chunkHandler)
	if err != nil {
		if streaming {
			// Ответ уже частично отдан, статус менять поздно. Просто рвём соединение.
			h.logger.Error("Stream aborted mid-response",
				zap.String("sessionID", sessionID.String()), zap.Error(err))
			c.Abort()
			return
		}
		if !errors.Is(err, model.ErrNotFound) && !errors.Is(err, model.ErrInvalidRequest) {
			h.logger.Error("Error processing chat turn",
				zap.String("sessionID", sessionID.String()), zap.Error(err))
		}
		h.handleServiceError(c, err)
		return
	}
}

// getChatHistory обрабатывает GET /api/chat?sessionId=...
// Отдает историю в формате сообщений чата; ходы с ролью system
// схлопываются в assistant, чтобы клиент показывал их как реплики нарратора.
func (h *GameHandler) getChatHistory(c *gin.Context) {
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

	formatted := make([]turnResponse, 0, len(turns))
	for _, turn := range turns {
		formatted = append(formatted, toChatHistoryTurn(turn))
	}

	c.JSON(http.StatusOK, formatted)
}
