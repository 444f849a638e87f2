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
	scenarioFields = `id, name, description, template_json, created_at, updated_at`

	insertScenarioQuery = `
        INSERT INTO scenarios (id, name, description, template_json, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `
	getScenarioByIDQuery = `
        SELECT ` + scenarioFields + `
        FROM scenarios
        WHERE id = $1
    `
)

var _ ScenarioRepository = (*pgScenarioRepository)(nil)

type pgScenarioRepository struct {
	db     DBTX
	logger *zap.Logger
}

// NewPgScenarioRepository создает pgx-реализацию ScenarioRepository.
func NewPgScenarioRepository(db DBTX, logger *zap.Logger) ScenarioRepository {
	return &pgScenarioRepository{
		db:     db,
		logger: logger.Named("PgScenarioRepo"),
	}
}

// Create вставляет новый шаблон сценария.
func (r *pgScenarioRepository) Create(ctx context.Context, scenario *model.Scenario) error {
	if scenario.ID == uuid.Nil {
		scenario.ID = uuid.New()
	}
	now := time.Now().UTC()
	scenario.CreatedAt = now
	scenario.UpdatedAt = now
	if len(scenario.TemplateJSON) == 0 {
		scenario.TemplateJSON = []byte("{}")
	}

	_, err := r.db.Exec(ctx, insertScenarioQuery,
		scenario.ID, scenario.Name, scenario.Description, scenario.TemplateJSON,
		scenario.CreatedAt, scenario.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Error creating scenario", zap.Error(err), zap.String("scenarioID", scenario.ID.String()))
		return fmt.Errorf("failed to create scenario: %w", err)
	}

	r.logger.Info("Scenario created", zap.String("scenarioID", scenario.ID.String()), zap.String("name", scenario.Name))
	return nil
}

// GetByID возвращает шаблон сценария по ID.
func (r *pgScenarioRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Scenario, error) {
	var scenario model.Scenario
	err := pgxscan.Get(ctx, r.db, &scenario, getScenarioByIDQuery, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Warn("Scenario not found", zap.String("scenarioID", id.String()))
			return nil, model.ErrNotFound
		}
		r.logger.Error("Error getting scenario by ID", zap.Error(err), zap.String("scenarioID", id.String()))
		return nil, fmt.Errorf("failed to get scenario %s: %w", id, err)
	}
	return &scenario, nil
}
