package model

import (
	"bytes"
	"encoding/json"
)

// Хранимые jsonb-поля (template_json, current_state) могут приходить как
// JSON-объект, как дважды закодированная JSON-строка, как null или как
// битый документ. Парсеры ниже тотальны: любой вход дает структуру со всеми
// полями, отсутствующие/невалидные поля заменяются пустыми контейнерами.

// normalizeJSON снимает один слой строковой кодировки, если он есть,
// и возвращает карту полей верхнего уровня. Для любого невалидного входа
// возвращает пустую карту.
func normalizeJSON(raw []byte) map[string]json.RawMessage {
	fields := map[string]json.RawMessage{}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return fields
	}

	// Дважды закодированный документ: сначала достаем строку.
	if trimmed[0] == '"' {
		var inner string
		if err := json.Unmarshal(trimmed, &inner); err != nil {
			return fields
		}
		trimmed = []byte(inner)
	}

	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return map[string]json.RawMessage{}
	}
	return fields
}

func stringField(fields map[string]json.RawMessage, key string) string {
	var s string
	if raw, ok := fields[key]; ok {
		_ = json.Unmarshal(raw, &s)
	}
	return s
}

func intoOrDefault(fields map[string]json.RawMessage, key string, dst interface{}) {
	raw, ok := fields[key]
	if !ok {
		return
	}
	// Ошибка поля не фатальна: поле остается значением по умолчанию.
	_ = json.Unmarshal(raw, dst)
}

// ParseScenarioTemplate парсит template_json сценария. Никогда не возвращает
// ошибку: битый вход дает шаблон с пустыми контейнерами.
func ParseScenarioTemplate(raw []byte) ScenarioTemplate {
	tmpl := ScenarioTemplate{
		Attributes: map[string]string{},
		BaseSkills: map[string]SkillDefinition{},
		PlayerCustomizations: PlayerCustomizations{
			Role:       CustomizationGroup{Content: map[string]CustomizationOption{}},
			Background: CustomizationGroup{Content: map[string]CustomizationOption{}},
		},
	}

	fields := normalizeJSON(raw)
	tmpl.Name = stringField(fields, "name")
	tmpl.Description = stringField(fields, "description")
	tmpl.StartingPoint = stringField(fields, "startingPoint")
	intoOrDefault(fields, "attributes", &tmpl.Attributes)
	intoOrDefault(fields, "baseSkills", &tmpl.BaseSkills)
	intoOrDefault(fields, "playerCustomizations", &tmpl.PlayerCustomizations)

	// Unmarshal мог занулить вложенные карты.
	if tmpl.Attributes == nil {
		tmpl.Attributes = map[string]string{}
	}
	if tmpl.BaseSkills == nil {
		tmpl.BaseSkills = map[string]SkillDefinition{}
	}
	if tmpl.PlayerCustomizations.Role.Content == nil {
		tmpl.PlayerCustomizations.Role.Content = map[string]CustomizationOption{}
	}
	if tmpl.PlayerCustomizations.Background.Content == nil {
		tmpl.PlayerCustomizations.Background.Content = map[string]CustomizationOption{}
	}
	return tmpl
}

// ParseCurrentState парсит current_state сессии с теми же гарантиями.
func ParseCurrentState(raw []byte) CurrentState {
	state := CurrentState{
		PlayerCharacterStats: map[string]json.RawMessage{},
		Inventory:            map[string]json.RawMessage{},
		NPCsState:            map[string]json.RawMessage{},
		QuestLog:             []json.RawMessage{},
		MeaningfulDecisions:  []json.RawMessage{},
	}

	fields := normalizeJSON(raw)
	state.CurrentLocation = stringField(fields, "current_location")
	state.GameTime = stringField(fields, "game_time")
	intoOrDefault(fields, "player_character_stats", &state.PlayerCharacterStats)
	intoOrDefault(fields, "inventory", &state.Inventory)
	intoOrDefault(fields, "npcs_state", &state.NPCsState)
	intoOrDefault(fields, "quest_log", &state.QuestLog)
	intoOrDefault(fields, "meaningful_decisions", &state.MeaningfulDecisions)
	intoOrDefault(fields, "customization", &state.Customization)

	if state.PlayerCharacterStats == nil {
		state.PlayerCharacterStats = map[string]json.RawMessage{}
	}
	if state.Inventory == nil {
		state.Inventory = map[string]json.RawMessage{}
	}
	if state.NPCsState == nil {
		state.NPCsState = map[string]json.RawMessage{}
	}
	if state.QuestLog == nil {
		state.QuestLog = []json.RawMessage{}
	}
	if state.MeaningfulDecisions == nil {
		state.MeaningfulDecisions = []json.RawMessage{}
	}
	return state
}
