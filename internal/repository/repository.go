// Package repository содержит pgx-реализации хранилищ сценариев, сессий
// и журнала диалога, а также redis-кэш сценариев.
package repository

import (
	"context"
	"embed"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"scenario-server/internal/model"
)

// MigrationsFS содержит встроенные SQL-миграции схемы.
//
//go:embed migrations/*.sql
var MigrationsFS embed.FS

// MigrationsPath - путь к миграциям внутри MigrationsFS.
const MigrationsPath = "migrations"

// DBTX абстрагирует исполнителя запросов: *pgxpool.Pool или pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ScenarioRepository - хранилище шаблонов сценариев.
// Шаблоны иммутабельны после создания.
//
//go:generate mockery --name ScenarioRepository --output ./mocks --outpkg mocks --case=underscore
type ScenarioRepository interface {
	Create(ctx context.Context, scenario *model.Scenario) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Scenario, error)
}

// GameSessionRepository - хранилище игровых сессий.
//
//go:generate mockery --name GameSessionRepository --output ./mocks --outpkg mocks --case=underscore
type GameSessionRepository interface {
	Create(ctx context.Context, session *model.GameSession) error
	// GetByID возвращает сессию вместе с данными ее сценария.
	GetByID(ctx context.Context, id uuid.UUID) (*model.SessionWithScenario, error)
	// ListByUserID возвращает сессии пользователя, новые первыми.
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]*model.SessionWithScenario, error)
	// Delete удаляет сессию; ходы диалога удаляются каскадно на уровне БД.
	// Возвращает удаленную сессию или model.ErrNotFound.
	Delete(ctx context.Context, id uuid.UUID) (*model.SessionWithScenario, error)
}

// ConversationRepository - append-only журнал ходов диалога.
//
//go:generate mockery --name ConversationRepository --output ./mocks --outpkg mocks --case=underscore
type ConversationRepository interface {
	// Append вставляет ход с явно заданным turn_number.
	Append(ctx context.Context, turn *model.ConversationTurn) error
	// AppendNext вставляет ход со следующим turn_number сессии,
	// вычисленным в той же транзакции (MAX+1, с нуля для пустой сессии).
	AppendNext(ctx context.Context, sessionID uuid.UUID, role model.TurnRole, content string) (*model.ConversationTurn, error)
	// ListBySessionID возвращает все ходы сессии по возрастанию turn_number.
	ListBySessionID(ctx context.Context, sessionID uuid.UUID) ([]*model.ConversationTurn, error)
}
