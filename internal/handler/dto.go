package handler

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"scenario-server/internal/model"
)

// chatRequest - тело POST /chat.
type chatRequest struct {
	SessionID     string              `json:"sessionId"`
	Messages      []model.ChatMessage `json:"messages"`
	D20RollResult *int                `json:"d20RollResult"`
}

// conversationPostRequest - тело POST /conversation.
// TurnNumber - указатель, чтобы отличить 0 от отсутствия поля.
type conversationPostRequest struct {
	SessionID  string `json:"sessionId"`
	Role       string `json:"role"`
	Content    string `json:"content"`
	TurnNumber *int   `json:"turnNumber"`
}

// sessionPostRequest - тело POST /session.
type sessionPostRequest struct {
	UserID       string          `json:"userId"`
	ScenarioID   string          `json:"scenarioId"`
	InitialState json.RawMessage `json:"initialState"`
}

// scenarioPostRequest - тело POST /scenario.
type scenarioPostRequest struct {
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	TemplateJSON json.RawMessage `json:"templateJson"`
}

// turnResponse - один ход диалога в ответах API.
type turnResponse struct {
	ID         uuid.UUID `json:"id"`
	Role       string    `json:"role"`
	Content    string    `json:"content"`
	Timestamp  time.Time `json:"timestamp"`
	TurnNumber int       `json:"turn_number"`
}

func toTurnResponse(turn *model.ConversationTurn) turnResponse {
	return turnResponse{
		ID:         turn.ID,
		Role:       string(turn.Role),
		Content:    turn.Content,
		Timestamp:  turn.Timestamp,
		TurnNumber: turn.TurnNumber,
	}
}

// toChatHistoryTurn - ход для GET /chat: роль system схлопывается в
// assistant, остальные поля как в turnResponse.
func toChatHistoryTurn(turn *model.ConversationTurn) turnResponse {
	resp := toTurnResponse(turn)
	if turn.Role == model.TurnRoleSystem {
		resp.Role = string(model.TurnRoleAssistant)
	}
	return resp
}

// scenarioSummary - сценарий внутри ответа по сессии (JOIN).
type scenarioSummary struct {
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	TemplateJSON json.RawMessage `json:"template_json"`
}

// sessionResponse - сессия вместе со сценарием, сырое current_state.
type sessionResponse struct {
	ID           uuid.UUID       `json:"id"`
	UserID       uuid.UUID       `json:"user_id"`
	ScenarioID   uuid.UUID       `json:"scenario_id"`
	Status       string          `json:"status"`
	CurrentState json.RawMessage `json:"current_state"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	Scenarios    scenarioSummary `json:"scenarios"`
}

func toSessionResponse(s *model.SessionWithScenario) sessionResponse {
	return sessionResponse{
		ID:           s.ID,
		UserID:       s.UserID,
		ScenarioID:   s.ScenarioID,
		Status:       string(s.Status),
		CurrentState: s.CurrentState,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
		Scenarios: scenarioSummary{
			Name:         s.ScenarioName,
			Description:  s.ScenarioDescription,
			TemplateJSON: s.ScenarioTemplateJSON,
		},
	}
}

// parsedScenarioSummary - сценарий с распарсенным шаблоном.
type parsedScenarioSummary struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Template    model.ScenarioTemplate `json:"template_json"`
}

// parsedSessionResponse - сессия для GET /session/:id: current_state и
// шаблон сценария отдаются в распарсенном, тотально-дефолтном виде.
type parsedSessionResponse struct {
	ID           uuid.UUID             `json:"id"`
	UserID       uuid.UUID             `json:"user_id"`
	ScenarioID   uuid.UUID             `json:"scenario_id"`
	Status       string                `json:"status"`
	CurrentState model.CurrentState    `json:"current_state"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
	Scenarios    parsedScenarioSummary `json:"scenarios"`
}

func toParsedSessionResponse(s *model.SessionWithScenario) parsedSessionResponse {
	return parsedSessionResponse{
		ID:           s.ID,
		UserID:       s.UserID,
		ScenarioID:   s.ScenarioID,
		Status:       string(s.Status),
		CurrentState: model.ParseCurrentState(s.CurrentState),
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
		Scenarios: parsedScenarioSummary{
			Name:        s.ScenarioName,
			Description: s.ScenarioDescription,
			Template:    model.ParseScenarioTemplate(s.ScenarioTemplateJSON),
		},
	}
}
