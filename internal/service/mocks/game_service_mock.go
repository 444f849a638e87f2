package mocks

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"scenario-server/internal/ai"
	"scenario-server/internal/model"
	"scenario-server/internal/service"
)

// Mock GameService
type GameService struct {
	mock.Mock

	// Chunks, если задан, скармливается chunkHandler'у в SubmitTurn
	// перед возвратом замоканной ошибки. Имитирует стриминг нарратора.
	Chunks []string
}

func (m *GameService) SubmitTurn(ctx context.Context, req service.SubmitTurnRequest, chunkHandler ai.ChunkHandler) error {
	args := m.Called(ctx, req, chunkHandler)

	if chunkHandler != nil && args.Error(0) == nil {
		for _, chunk := range m.Chunks {
			if err := chunkHandler(chunk); err != nil {
				return err
			}
		}
	}
	return args.Error(0)
}

func (m *GameService) GetHistory(ctx context.Context, sessionID uuid.UUID) ([]*model.ConversationTurn, error) {
	args := m.Called(ctx, sessionID)
	turns, _ := args.Get(0).([]*model.ConversationTurn)
	return turns, args.Error(1)
}

func (m *GameService) AppendTurn(ctx context.Context, sessionID uuid.UUID, role, content string, turnNumber int) (*model.ConversationTurn, error) {
	args := m.Called(ctx, sessionID, role, content, turnNumber)
	turn, _ := args.Get(0).(*model.ConversationTurn)
	return turn, args.Error(1)
}

func (m *GameService) CreateSession(ctx context.Context, userID, scenarioID uuid.UUID, initialState json.RawMessage) (*model.GameSession, error) {
	args := m.Called(ctx, userID, scenarioID, initialState)
	session, _ := args.Get(0).(*model.GameSession)
	return session, args.Error(1)
}

func (m *GameService) GetSession(ctx context.Context, id uuid.UUID) (*model.SessionWithScenario, error) {
	args := m.Called(ctx, id)
	session, _ := args.Get(0).(*model.SessionWithScenario)
	return session, args.Error(1)
}

func (m *GameService) ListSessions(ctx context.Context, userID uuid.UUID) ([]*model.SessionWithScenario, error) {
	args := m.Called(ctx, userID)
	sessions, _ := args.Get(0).([]*model.SessionWithScenario)
	return sessions, args.Error(1)
}

func (m *GameService) DeleteSession(ctx context.Context, id uuid.UUID) (*model.SessionWithScenario, error) {
	args := m.Called(ctx, id)
	session, _ := args.Get(0).(*model.SessionWithScenario)
	return session, args.Error(1)
}

func (m *GameService) CreateScenario(ctx context.Context, name, description string, templateJSON json.RawMessage) (*model.Scenario, error) {
	args := m.Called(ctx, name, description, templateJSON)
	scenario, _ := args.Get(0).(*model.Scenario)
	return scenario, args.Error(1)
}

func (m *GameService) GetScenario(ctx context.Context, id uuid.UUID) (*model.Scenario, error) {
	args := m.Called(ctx, id)
	scenario, _ := args.Get(0).(*model.Scenario)
	return scenario, args.Error(1)
}
