package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Scenario представляет шаблон сценария в базе данных.
// template_json хранится как jsonb и никогда не мутируется после создания.
type Scenario struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	Name         string          `json:"name" db:"name"`
	Description  string          `json:"description" db:"description"`
	TemplateJSON json.RawMessage `json:"template_json" db:"template_json"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
}

// SkillDefinition описывает базовый навык шаблона: управляющий атрибут + описание.
type SkillDefinition struct {
	Attribute   string `json:"attribute"`
	Description string `json:"description"`
}

// CustomizationOption - один вариант кастомизации игрока (стиль роли или бэкграунд семьи).
type CustomizationOption struct {
	Description    string         `json:"description"`
	AttributeBonus map[string]int `json:"attributeBonus"`
}

// CustomizationGroup - именованная группа вариантов кастомизации.
type CustomizationGroup struct {
	Description string                         `json:"description,omitempty"`
	Content     map[string]CustomizationOption `json:"content"`
}

// PlayerCustomizations - две группы кастомизации шаблона: роль и бэкграунд.
type PlayerCustomizations struct {
	Role       CustomizationGroup `json:"role"`
	Background CustomizationGroup `json:"background"`
}

// ScenarioTemplate - распарсенное содержимое template_json.
// Все поля опциональны в хранимом JSON; парсер гарантирует непустые контейнеры.
type ScenarioTemplate struct {
	Name                 string                     `json:"name"`
	Description          string                     `json:"description"`
	Attributes           map[string]string          `json:"attributes"`
	BaseSkills           map[string]SkillDefinition `json:"baseSkills"`
	PlayerCustomizations PlayerCustomizations       `json:"playerCustomizations"`
	StartingPoint        string                     `json:"startingPoint"`
}
