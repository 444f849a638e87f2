package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScenarioTemplate_ValidObject(t *testing.T) {
	raw := []byte(`{
		"name": "Тестовый сценарий",
		"description": "desc",
		"startingPoint": "start",
		"attributes": {"IQ": "интеллект"},
		"baseSkills": {"Math": {"attribute": "IQ", "description": "математика"}},
		"playerCustomizations": {
			"role": {"content": {"Tiger Mom": {"description": "строгая", "attributeBonus": {"IQ": 2}}}},
			"background": {"content": {"Immigrant Family": {"description": "иммигранты", "attributeBonus": {"EQ": 1}}}}
		}
	}`)

	tmpl := ParseScenarioTemplate(raw)

	assert.Equal(t, "Тестовый сценарий", tmpl.Name)
	assert.Equal(t, "start", tmpl.StartingPoint)
	assert.Equal(t, "интеллект", tmpl.Attributes["IQ"])
	assert.Equal(t, "IQ", tmpl.BaseSkills["Math"].Attribute)
	require.Contains(t, tmpl.PlayerCustomizations.Role.Content, "Tiger Mom")
	assert.Equal(t, 2, tmpl.PlayerCustomizations.Role.Content["Tiger Mom"].AttributeBonus["IQ"])
}

func TestParseScenarioTemplate_DoubleEncoded(t *testing.T) {
	inner := `{"name":"wrapped","attributes":{"IQ":"интеллект"}}`
	raw, err := json.Marshal(inner) // строка, содержащая JSON
	require.NoError(t, err)

	tmpl := ParseScenarioTemplate(raw)

	assert.Equal(t, "wrapped", tmpl.Name)
	assert.Equal(t, "интеллект", tmpl.Attributes["IQ"])
}

func TestParseScenarioTemplate_GarbageInputs(t *testing.T) {
	inputs := map[string][]byte{
		"nil":            nil,
		"empty":          []byte(``),
		"null":           []byte(`null`),
		"invalid":        []byte(`{not json`),
		"encoded empty":  []byte(`"{}"`),
		"encoded broken": []byte(`"{oops"`),
		"number":         []byte(`42`),
	}

	for name, raw := range inputs {
		t.Run(name, func(t *testing.T) {
			tmpl := ParseScenarioTemplate(raw)

			// Контейнеры всегда непустые указателями: по ним можно итерироваться.
			assert.NotNil(t, tmpl.Attributes)
			assert.NotNil(t, tmpl.BaseSkills)
			assert.NotNil(t, tmpl.PlayerCustomizations.Role.Content)
			assert.NotNil(t, tmpl.PlayerCustomizations.Background.Content)
			assert.Empty(t, tmpl.Name)
		})
	}
}

func TestParseScenarioTemplate_NullNestedFields(t *testing.T) {
	raw := []byte(`{"name":"x","attributes":null,"baseSkills":null,"playerCustomizations":{"role":{"content":null},"background":null}}`)

	tmpl := ParseScenarioTemplate(raw)

	assert.NotNil(t, tmpl.Attributes)
	assert.NotNil(t, tmpl.BaseSkills)
	assert.NotNil(t, tmpl.PlayerCustomizations.Role.Content)
	assert.NotNil(t, tmpl.PlayerCustomizations.Background.Content)
}

func TestParseCurrentState_ValidObject(t *testing.T) {
	raw := []byte(`{
		"current_location": "дом",
		"game_time": "утро",
		"player_character_stats": {"IQ": 10},
		"inventory": {"книга": 1},
		"quest_log": ["сдать экзамен"],
		"customization": {"parentingStyle": "Tiger Mom", "familyBackground": "Immigrant Family"}
	}`)

	state := ParseCurrentState(raw)

	assert.Equal(t, "дом", state.CurrentLocation)
	assert.Equal(t, "утро", state.GameTime)
	assert.Contains(t, state.PlayerCharacterStats, "IQ")
	assert.Len(t, state.QuestLog, 1)
	assert.Equal(t, "Tiger Mom", state.Customization.ParentingStyle)
	assert.Equal(t, "Immigrant Family", state.Customization.FamilyBackground)
}

func TestParseCurrentState_GarbageInputs(t *testing.T) {
	inputs := [][]byte{nil, []byte(``), []byte(`null`), []byte(`"{}"`), []byte(`[1,2,3]`), []byte(`{broken`)}

	for _, raw := range inputs {
		state := ParseCurrentState(raw)

		assert.NotNil(t, state.PlayerCharacterStats)
		assert.NotNil(t, state.Inventory)
		assert.NotNil(t, state.NPCsState)
		assert.NotNil(t, state.QuestLog)
		assert.NotNil(t, state.MeaningfulDecisions)
		assert.Empty(t, state.CurrentLocation)
	}
}

func TestValidTurnRole(t *testing.T) {
	assert.True(t, ValidTurnRole("user"))
	assert.True(t, ValidTurnRole("assistant"))
	assert.True(t, ValidTurnRole("system"))
	assert.False(t, ValidTurnRole("narrator"))
	assert.False(t, ValidTurnRole(""))
}
