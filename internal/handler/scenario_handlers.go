package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// createScenario обрабатывает POST /api/scenario: регистрация нового
// шаблона сценария. Шаблон хранится как есть, валидация структуры
// происходит лениво при чтении.
func (h *GameHandler) createScenario(c *gin.Context) {
	var req scenarioPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIError{Error: "Invalid request body: " + err.Error()})
		return
	}

	scenario, err := h.service.CreateScenario(c.Request.Context(), req.Name, req.Description, req.TemplateJSON)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.logger.Info("Scenario created",
		zap.String("scenarioID", scenario.ID.String()),
		zap.String("name", scenario.Name),
	)
	c.JSON(http.StatusCreated, gin.H{"scenario": scenario})
}

// getScenario обрабатывает GET /api/scenario/:id.
func (h *GameHandler) getScenario(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, APIError{Error: "Invalid scenario ID format"})
		return
	}

	scenario, err := h.service.GetScenario(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"scenario": scenario})
}
