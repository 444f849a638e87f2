package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"scenario-server/internal/model"
)

// Mock ScenarioRepository
type ScenarioRepository struct {
	mock.Mock
}

func (m *ScenarioRepository) Create(ctx context.Context, scenario *model.Scenario) error {
	args := m.Called(ctx, scenario)
	return args.Error(0)
}
func (m *ScenarioRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Scenario, error) {
	args := m.Called(ctx, id)
	scenario, _ := args.Get(0).(*model.Scenario)
	return scenario, args.Error(1)
}

// Mock GameSessionRepository
type GameSessionRepository struct {
	mock.Mock
}

func (m *GameSessionRepository) Create(ctx context.Context, session *model.GameSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}
func (m *GameSessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.SessionWithScenario, error) {
	args := m.Called(ctx, id)
	session, _ := args.Get(0).(*model.SessionWithScenario)
	return session, args.Error(1)
}
func (m *GameSessionRepository) ListByUserID(ctx context.Context, userID uuid.UUID) ([]*model.SessionWithScenario, error) {
	args := m.Called(ctx, userID)
	sessions, _ := args.Get(0).([]*model.SessionWithScenario)
	return sessions, args.Error(1)
}
func (m *GameSessionRepository) Delete(ctx context.Context, id uuid.UUID) (*model.SessionWithScenario, error) {
	args := m.Called(ctx, id)
	session, _ := args.Get(0).(*model.SessionWithScenario)
	return session, args.Error(1)
}

// Mock ConversationRepository
type ConversationRepository struct {
	mock.Mock
}

func (m *ConversationRepository) Append(ctx context.Context, turn *model.ConversationTurn) error {
	args := m.Called(ctx, turn)
	return args.Error(0)
}
func (m *ConversationRepository) AppendNext(ctx context.Context, sessionID uuid.UUID, role model.TurnRole, content string) (*model.ConversationTurn, error) {
	args := m.Called(ctx, sessionID, role, content)
	turn, _ := args.Get(0).(*model.ConversationTurn)
	return turn, args.Error(1)
}
func (m *ConversationRepository) ListBySessionID(ctx context.Context, sessionID uuid.UUID) ([]*model.ConversationTurn, error) {
	args := m.Called(ctx, sessionID)
	turns, _ := args.Get(0).([]*model.ConversationTurn)
	return turns, args.Error(1)
}
