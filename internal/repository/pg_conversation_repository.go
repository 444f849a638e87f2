package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"scenario-server/internal/model"
)

const (
	conversationTurnFields = `id, session_id, role, content, turn_number, timestamp`

	insertTurnQuery = `
        INSERT INTO conversation_turns (id, session_id, role, content, turn_number, timestamp)
        VALUES ($1, $2, $3, $4, $5, $6)
    `
	// Номер хода вычисляется в том же INSERT: хранилище, а не клиент,
	// является источником истины для turn_number. Уникальный индекс
	// (session_id, turn_number) отсекает гонки конкурентных вставок.
	insertNextTurnQuery = `
        INSERT INTO conversation_turns (id, session_id, role, content, turn_number, timestamp)
        SELECT $1, $2, $3, $4, COALESCE(MAX(turn_number) + 1, 0), $5
        FROM conversation_turns
        WHERE session_id = $2
        RETURNING turn_number
    `
	listTurnsBySessionQuery = `
        SELECT ` + conversationTurnFields + `
        FROM conversation_turns
        WHERE session_id = $1
        ORDER BY turn_number ASC
    `
)

var _ ConversationRepository = (*pgConversationRepository)(nil)

type pgConversationRepository struct {
	db     DBTX
	logger *zap.Logger
}

// NewPgConversationRepository создает pgx-реализацию ConversationRepository.
func NewPgConversationRepository(db DBTX, logger *zap.Logger) ConversationRepository {
	return &pgConversationRepository{
		db:     db,
		logger: logger.Named("PgConversationRepo"),
	}
}

// Append вставляет ход с явно заданным turn_number.
func (r *pgConversationRepository) Append(ctx context.Context, turn *model.ConversationTurn) error {
	if turn.ID == uuid.Nil {
		turn.ID = uuid.New()
	}
	if turn.Timestamp.IsZero() {
		turn.Timestamp = time.Now().UTC()
	}

	_, err := r.db.Exec(ctx, insertTurnQuery,
		turn.ID, turn.SessionID, turn.Role, turn.Content, turn.TurnNumber, turn.Timestamp,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			r.logger.Warn("Session not found for conversation turn", zap.String("sessionID", turn.SessionID.String()))
			return model.ErrNotFound
		}
		r.logger.Error("Error appending conversation turn",
			zap.Error(err),
			zap.String("sessionID", turn.SessionID.String()),
			zap.Int("turnNumber", turn.TurnNumber),
		)
		return fmt.Errorf("failed to append conversation turn: %w", err)
	}
	return nil
}

// AppendNext вставляет ход со следующим номером в сессии.
func (r *pgConversationRepository) AppendNext(ctx context.Context, sessionID uuid.UUID, role model.TurnRole, content string) (*model.ConversationTurn, error) {
	turn := &model.ConversationTurn{
		ID:        uuid.New(),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}

	err := r.db.QueryRow(ctx, insertNextTurnQuery,
		turn.ID, turn.SessionID, turn.Role, turn.Content, turn.Timestamp,
	).Scan(&turn.TurnNumber)
	if err != nil {
		// Нарушение внешнего ключа: сессии не существует.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			r.logger.Warn("Session not found for conversation turn", zap.String("sessionID", sessionID.String()))
			return nil, model.ErrNotFound
		}
		r.logger.Error("Error appending next conversation turn",
			zap.Error(err),
			zap.String("sessionID", sessionID.String()),
			zap.String("role", string(role)),
		)
		return nil, fmt.Errorf("failed to append next conversation turn: %w", err)
	}

	r.logger.Debug("Conversation turn appended",
		zap.String("sessionID", sessionID.String()),
		zap.String("role", string(role)),
		zap.Int("turnNumber", turn.TurnNumber),
	)
	return turn, nil
}

// ListBySessionID возвращает все ходы сессии по возрастанию turn_number.
func (r *pgConversationRepository) ListBySessionID(ctx context.Context, sessionID uuid.UUID) ([]*model.ConversationTurn, error) {
	var turns []*model.ConversationTurn
	err := pgxscan.Select(ctx, r.db, &turns, listTurnsBySessionQuery, sessionID)
	if err != nil {
		r.logger.Error("Error listing conversation turns", zap.Error(err), zap.String("sessionID", sessionID.String()))
		return nil, fmt.Errorf("failed to list conversation turns for session %s: %w", sessionID, err)
	}
	if turns == nil {
		turns = []*model.ConversationTurn{}
	}
	return turns, nil
}
