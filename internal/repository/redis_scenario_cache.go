package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"scenario-server/internal/model"
)

// Шаблоны сценариев иммутабельны, поэтому кэшируются агрессивно.
const scenarioCacheTTL = 1 * time.Hour

var _ ScenarioRepository = (*redisScenarioCache)(nil)

// redisScenarioCache - read-through кэш поверх ScenarioRepository.
// Ошибки Redis не фатальны: при любой проблеме с кэшем запрос
// уходит в основное хранилище.
type redisScenarioCache struct {
	inner  ScenarioRepository
	client *redis.Client
	logger *zap.Logger
}

// NewRedisScenarioCache оборачивает репозиторий сценариев кэшем в Redis.
func NewRedisScenarioCache(inner ScenarioRepository, client *redis.Client, logger *zap.Logger) ScenarioRepository {
	return &redisScenarioCache{
		inner:  inner,
		client: client,
		logger: logger.Named("RedisScenarioCache"),
	}
}

func scenarioCacheKey(id uuid.UUID) string {
	return fmt.Sprintf("scenario:%s", id)
}

// Create прокидывает создание в основное хранилище и прогревает кэш.
func (c *redisScenarioCache) Create(ctx context.Context, scenario *model.Scenario) error {
	if err := c.inner.Create(ctx, scenario); err != nil {
		return err
	}
	c.store(ctx, scenario)
	return nil
}

// GetByID сначала смотрит в кэш, затем в основное хранилище.
func (c *redisScenarioCache) GetByID(ctx context.Context, id uuid.UUID) (*model.Scenario, error) {
	key := scenarioCacheKey(id)

	data, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var scenario model.Scenario
		if err := json.Unmarshal(data, &scenario); err == nil {
			c.logger.Debug("Scenario cache hit", zap.String("scenarioID", id.String()))
			return &scenario, nil
		}
		// Битая запись в кэше: игнорируем и перечитываем из БД.
		c.logger.Warn("Corrupted scenario cache entry", zap.String("key", key))
	} else if !errors.Is(err, redis.Nil) {
		c.logger.Warn("Redis error on scenario lookup", zap.Error(err), zap.String("key", key))
	}

	scenario, err := c.inner.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.store(ctx, scenario)
	return scenario, nil
}

func (c *redisScenarioCache) store(ctx context.Context, scenario *model.Scenario) {
	data, err := json.Marshal(scenario)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, scenarioCacheKey(scenario.ID), data, scenarioCacheTTL).Err(); err != nil {
		c.logger.Warn("Failed to cache scenario", zap.Error(err), zap.String("scenarioID", scenario.ID.String()))
	}
}
