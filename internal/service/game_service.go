// Package service реализует оркестратор сессий и диалога: прием хода игрока,
// сборку grounding-промпта, потоковый вызов нарратора и упорядоченную
// запись ходов в журнал.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"scenario-server/internal/ai"
	"scenario-server/internal/model"
	"scenario-server/internal/prompt"
	"scenario-server/internal/repository"
)

// SubmitTurnRequest - входные данные одного хода игрока.
type SubmitTurnRequest struct {
	SessionID     uuid.UUID
	Messages      []model.ChatMessage
	D20RollResult *int
}

// GameService - интерфейс оркестратора, который потребляют HTTP-обработчики.
//
//go:generate mockery --name GameService --output ./mocks --outpkg mocks --case=underscore
type GameService interface {
	// SubmitTurn обрабатывает ход игрока. Порядок побочных эффектов строгий:
	// запись хода игрока -> загрузка контекста -> сборка промпта -> стрим
	// нарратора (каждый фрагмент уходит в chunkHandler) -> запись хода
	// ассистента. Ход ассистента записывается только если стрим завершился
	// полностью; при обрыве не записывается ничего (at-most-once).
	SubmitTurn(ctx context.Context, req SubmitTurnRequest, chunkHandler ai.ChunkHandler) error

	// GetHistory возвращает все ходы сессии по возрастанию turn_number.
	GetHistory(ctx context.Context, sessionID uuid.UUID) ([]*model.ConversationTurn, error)

	// AppendTurn записывает один ход с явным номером (ручной импорт истории).
	AppendTurn(ctx context.Context, sessionID uuid.UUID, role, content string, turnNumber int) (*model.ConversationTurn, error)

	CreateSession(ctx context.Context, userID, scenarioID uuid.UUID, initialState json.RawMessage) (*model.GameSession, error)
	GetSession(ctx context.Context, id uuid.UUID) (*model.SessionWithScenario, error)
	ListSessions(ctx context.Context, userID uuid.UUID) ([]*model.SessionWithScenario, error)
	DeleteSession(ctx context.Context, id uuid.UUID) (*model.SessionWithScenario, error)

	CreateScenario(ctx context.Context, name, description string, templateJSON json.RawMessage) (*model.Scenario, error)
	GetScenario(ctx context.Context, id uuid.UUID) (*model.Scenario, error)
}

var _ GameService = (*gameService)(nil)

type gameService struct {
	scenarioRepo repository.ScenarioRepository
	sessionRepo  repository.GameSessionRepository
	convRepo     repository.ConversationRepository
	narrator     ai.NarratorClient
	logger       *zap.Logger
}

// NewGameService создает оркестратор сессий и диалога.
func NewGameService(
	scenarioRepo repository.ScenarioRepository,
	sessionRepo repository.GameSessionRepository,
	convRepo repository.ConversationRepository,
	narrator ai.NarratorClient,
	logger *zap.Logger,
) GameService {
	return &gameService{
		scenarioRepo: scenarioRepo,
		sessionRepo:  sessionRepo,
		convRepo:     convRepo,
		narrator:     narrator,
		logger:       logger.Named("GameService"),
	}
}

// SubmitTurn реализует GameService.
func (s *gameService) SubmitTurn(ctx context.Context, req SubmitTurnRequest, chunkHandler ai.ChunkHandler) error {
	if req.SessionID == uuid.Nil || len(req.Messages) == 0 {
		return fmt.Errorf("%w: sessionId and messages are required", model.ErrInvalidRequest)
	}

	log := s.logger.With(zap.String("sessionID", req.SessionID.String()))

	// Ход игрока записывается до любого обращения к нарратору.
	// Номер хода выдает хранилище; в штатном сценарии он совпадает
	// с len(messages)-1.
	lastMessage := req.Messages[len(req.Messages)-1]
	if lastMessage.Role == string(model.TurnRoleUser) {
		userTurn, err := s.convRepo.AppendNext(ctx, req.SessionID, model.TurnRoleUser, lastMessage.Content)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return model.ErrNotFound
			}
			return fmt.Errorf("%w: persisting user turn: %v", model.ErrUpstreamFailure, err)
		}
		log.Debug("User turn persisted", zap.Int("turnNumber", userTurn.TurnNumber))
	}

	session, err := s.sessionRepo.GetByID(ctx, req.SessionID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.ErrNotFound
		}
		// Любая ошибка загрузки контекста для вызывающего выглядит как 404.
		log.Error("Failed to load game session", zap.Error(err))
		return model.ErrNotFound
	}

	template := model.ParseScenarioTemplate(session.ScenarioTemplateJSON)
	state := model.ParseCurrentState(session.CurrentState)

	systemPrompt := prompt.BuildSystemPrompt(prompt.Input{
		Template:      template,
		RawState:      session.CurrentState,
		State:         state,
		D20RollResult: req.D20RollResult,
	})

	fullText, usage, err := s.narrator.GenerateStream(ctx, systemPrompt, req.Messages, chunkHandler)
	if err != nil {
		// Стрим оборвался: ход ассистента не записывается.
		log.Error("Narrator stream failed", zap.Error(err))
		if errors.Is(err, model.ErrStreamAborted) {
			return err
		}
		return fmt.Errorf("%w: %v", model.ErrUpstreamFailure, err)
	}

	assistantTurn, err := s.convRepo.AppendNext(ctx, req.SessionID, model.TurnRoleAssistant, fullText)
	if err != nil {
		log.Error("Failed to persist assistant turn", zap.Error(err))
		return fmt.Errorf("%w: persisting assistant turn: %v", model.ErrUpstreamFailure, err)
	}

	log.Info("Turn completed",
		zap.Int("assistantTurnNumber", assistantTurn.TurnNumber),
		zap.Int("promptTokens", usage.PromptTokens),
		zap.Int("completionTokens", usage.CompletionTokens),
	)
	return nil
}

// GetHistory реализует GameService.
func (s *gameService) GetHistory(ctx context.Context, sessionID uuid.UUID) ([]*model.ConversationTurn, error) {
	if sessionID == uuid.Nil {
		return nil, fmt.Errorf("%w: sessionId is required", model.ErrInvalidRequest)
	}
	return s.convRepo.ListBySessionID(ctx, sessionID)
}

// AppendTurn реализует GameService.
func (s *gameService) AppendTurn(ctx context.Context, sessionID uuid.UUID, role, content string, turnNumber int) (*model.ConversationTurn, error) {
	if sessionID == uuid.Nil || role == "" || content == "" || turnNumber < 0 {
		return nil, fmt.Errorf("%w: sessionId, role, content and turnNumber are required", model.ErrInvalidRequest)
	}
	if !model.ValidTurnRole(role) {
		return nil, fmt.Errorf("%w: unknown role %q", model.ErrInvalidRequest, role)
	}

	turn := &model.ConversationTurn{
		SessionID:  sessionID,
		Role:       model.TurnRole(role),
		Content:    content,
		TurnNumber: turnNumber,
	}
	if err := s.convRepo.Append(ctx, turn); err != nil {
		return nil, err
	}
	return turn, nil
}

// CreateSession реализует GameService.
func (s *gameService) CreateSession(ctx context.Context, userID, scenarioID uuid.UUID, initialState json.RawMessage) (*model.GameSession, error) {
	if userID == uuid.Nil || scenarioID == uuid.Nil {
		return nil, fmt.Errorf("%w: userId and scenarioId are required", model.ErrInvalidRequest)
	}

	// Сценарий должен существовать до создания сессии.
	if _, err := s.scenarioRepo.GetByID(ctx, scenarioID); err != nil {
		return nil, err
	}

	if len(initialState) == 0 {
		initialState = []byte("{}")
	}
	session := &model.GameSession{
		UserID:       userID,
		ScenarioID:   scenarioID,
		Status:       model.SessionStatusActive,
		CurrentState: initialState,
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// GetSession реализует GameService.
func (s *gameService) GetSession(ctx context.Context, id uuid.UUID) (*model.SessionWithScenario, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("%w: session id is required", model.ErrInvalidRequest)
	}
	return s.sessionRepo.GetByID(ctx, id)
}

// ListSessions реализует GameService.
func (s *gameService) ListSessions(ctx context.Context, userID uuid.UUID) ([]*model.SessionWithScenario, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: userId is required", model.ErrInvalidRequest)
	}
	return s.sessionRepo.ListByUserID(ctx, userID)
}

// DeleteSession реализует GameService.
func (s *gameService) DeleteSession(ctx context.Context, id uuid.UUID) (*model.SessionWithScenario, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("%w: session id is required", model.ErrInvalidRequest)
	}
	return s.sessionRepo.Delete(ctx, id)
}

// CreateScenario реализует GameService.
func (s *gameService) CreateScenario(ctx context.Context, name, description string, templateJSON json.RawMessage) (*model.Scenario, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: scenario name is required", model.ErrInvalidRequest)
	}
	scenario := &model.Scenario{
		Name:         name,
		Description:  description,
		TemplateJSON: templateJSON,
	}
	if err := s.scenarioRepo.Create(ctx, scenario); err != nil {
		return nil, err
	}
	return scenario, nil
}

// GetScenario реализует GameService.
func (s *gameService) GetScenario(ctx context.Context, id uuid.UUID) (*model.Scenario, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("%w: scenario id is required", model.ErrInvalidRequest)
	}
	return s.scenarioRepo.GetByID(ctx, id)
}
