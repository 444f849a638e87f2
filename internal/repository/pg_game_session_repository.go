package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"scenario-server/internal/model"
)

const (
	sessionWithScenarioFields = `
        gs.id, gs.user_id, gs.scenario_id, gs.status, gs.current_state,
        gs.created_at, gs.updated_at,
        s.name AS scenario_name,
        s.description AS scenario_description,
        s.template_json AS scenario_template_json`

	insertGameSessionQuery = `
        INSERT INTO game_sessions (id, user_id, scenario_id, status, current_state, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `
	getGameSessionByIDQuery = `
        SELECT ` + sessionWithScenarioFields + `
        FROM game_sessions gs
        JOIN scenarios s ON s.id = gs.scenario_id
        WHERE gs.id = $1
    `
	listGameSessionsByUserQuery = `
        SELECT ` + sessionWithScenarioFields + `
        FROM game_sessions gs
        JOIN scenarios s ON s.id = gs.scenario_id
        WHERE gs.user_id = $1
        ORDER BY gs.created_at DESC
    `
	deleteGameSessionQuery = `DELETE FROM game_sessions WHERE id = $1`
)

var _ GameSessionRepository = (*pgGameSessionRepository)(nil)

type pgGameSessionRepository struct {
	db     DBTX
	logger *zap.Logger
}

// NewPgGameSessionRepository создает pgx-реализацию GameSessionRepository.
func NewPgGameSessionRepository(db DBTX, logger *zap.Logger) GameSessionRepository {
	return &pgGameSessionRepository{
		db:     db,
		logger: logger.Named("PgGameSessionRepo"),
	}
}

// Create вставляет новую игровую сессию.
func (r *pgGameSessionRepository) Create(ctx context.Context, session *model.GameSession) error {
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	if session.Status == "" {
		session.Status = model.SessionStatusActive
	}
	if len(session.CurrentState) == 0 {
		session.CurrentState = []byte("{}")
	}
	now := time.Now().UTC()
	session.CreatedAt = now
	session.UpdatedAt = now

	_, err := r.db.Exec(ctx, insertGameSessionQuery,
		session.ID, session.UserID, session.ScenarioID, session.Status,
		session.CurrentState, session.CreatedAt, session.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Error creating game session",
			zap.Error(err),
			zap.String("sessionID", session.ID.String()),
			zap.String("scenarioID", session.ScenarioID.String()),
		)
		return fmt.Errorf("failed to create game session: %w", err)
	}

	r.logger.Info("Game session created",
		zap.String("sessionID", session.ID.String()),
		zap.String("userID", session.UserID.String()),
	)
	return nil
}

// GetByID возвращает сессию вместе с данными сценария.
func (r *pgGameSessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.SessionWithScenario, error) {
	var session model.SessionWithScenario
	err := pgxscan.Get(ctx, r.db, &session, getGameSessionByIDQuery, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Warn("Game session not found", zap.String("sessionID", id.String()))
			return nil, model.ErrNotFound
		}
		r.logger.Error("Error getting game session", zap.Error(err), zap.String("sessionID", id.String()))
		return nil, fmt.Errorf("failed to get game session %s: %w", id, err)
	}
	return &session, nil
}

// ListByUserID возвращает все сессии пользователя, новые первыми.
func (r *pgGameSessionRepository) ListByUserID(ctx context.Context, userID uuid.UUID) ([]*model.SessionWithScenario, error) {
	var sessions []*model.SessionWithScenario
	err := pgxscan.Select(ctx, r.db, &sessions, listGameSessionsByUserQuery, userID)
	if err != nil {
		r.logger.Error("Error listing game sessions", zap.Error(err), zap.String("userID", userID.String()))
		return nil, fmt.Errorf("failed to list game sessions for user %s: %w", userID, err)
	}
	if sessions == nil {
		sessions = []*model.SessionWithScenario{}
	}
	return sessions, nil
}

// Delete удаляет сессию и возвращает ее последнее состояние.
// Ходы диалога удаляются каскадно (ON DELETE CASCADE).
func (r *pgGameSessionRepository) Delete(ctx context.Context, id uuid.UUID) (*model.SessionWithScenario, error) {
	session, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	tag, err := r.db.Exec(ctx, deleteGameSessionQuery, id)
	if err != nil {
		r.logger.Error("Error deleting game session", zap.Error(err), zap.String("sessionID", id.String()))
		return nil, fmt.Errorf("failed to delete game session %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, model.ErrNotFound
	}

	r.logger.Info("Game session deleted", zap.String("sessionID", id.String()))
	return session, nil
}
