package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// SessionStatus определяет возможные статусы игровой сессии.
// Совпадает с CHECK-ограничением на колонке status в БД.
type SessionStatus string

const (
	SessionStatusActive    SessionStatus = "active"
	SessionStatusCompleted SessionStatus = "completed"
	SessionStatusAbandoned SessionStatus = "abandoned"
)

// GameSession представляет игровую сессию пользователя по одному сценарию.
// current_state - мутабельный jsonb блоб; читается целиком и заменяется целиком.
type GameSession struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	UserID       uuid.UUID       `json:"user_id" db:"user_id"`
	ScenarioID   uuid.UUID       `json:"scenario_id" db:"scenario_id"`
	Status       SessionStatus   `json:"status" db:"status"`
	CurrentState json.RawMessage `json:"current_state" db:"current_state"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
}

// SessionWithScenario - сессия вместе с данными сценария (JOIN по scenario_id).
type SessionWithScenario struct {
	GameSession
	ScenarioName         string          `json:"-" db:"scenario_name"`
	ScenarioDescription  string          `json:"-" db:"scenario_description"`
	ScenarioTemplateJSON json.RawMessage `json:"-" db:"scenario_template_json"`
}

// Customization - выбранные при создании сессии ключи кастомизации.
// Фиксируются в current_state и дальше не меняются.
type Customization struct {
	ParentingStyle   string `json:"parentingStyle"`
	FamilyBackground string `json:"familyBackground"`
}

// CurrentState - распарсенное содержимое current_state.
// Инвариант: после ParseCurrentState каждое поле присутствует
// как пустой контейнер, даже если хранимый JSON битый или частичный.
type CurrentState struct {
	PlayerCharacterStats map[string]json.RawMessage `json:"player_character_stats"`
	CurrentLocation      string                     `json:"current_location"`
	Inventory            map[string]json.RawMessage `json:"inventory"`
	NPCsState            map[string]json.RawMessage `json:"npcs_state"`
	GameTime             string                     `json:"game_time"`
	QuestLog             []json.RawMessage          `json:"quest_log"`
	MeaningfulDecisions  []json.RawMessage          `json:"meaningful_decisions"`
	Customization        Customization              `json:"customization"`
}
