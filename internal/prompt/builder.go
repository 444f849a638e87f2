// Package prompt собирает системный промпт нарратора из шаблона сценария
// и текущего состояния сессии. Сборка - чистая функция без I/O: любой
// отсутствующий фрагмент входа опускается, сборка никогда не падает.
package prompt

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"scenario-server/internal/model"
)

const header = `You are a narrative AI hosting an interactive parenting simulation.
You will act as an omniscient narrator and various NPCs (teachers, children, other parents, etc.)
to create an immersive story about Asian parenting challenges.`

const instructions = `Instructions:
1. Respond in character based on the scene and context
2. Use the player's role and family background to inform responses and consequences
3. Reference specific attributes and skills when they come into play
4. Maintain consistent personality traits based on the chosen role style
5. Consider the family background's influence on decisions and reactions
6. Incorporate cultural elements and expectations naturally into the narrative

Format your response as a natural conversation or narrative, but you can mark game mechanics
with brackets when relevant, e.g. [Family Honor check: 15] or [Tiger Discipline increased by 1]`

// Input - все данные, из которых собирается промпт.
// RawState - хранимое состояние как есть, оно сериализуется в промпт дословно.
type Input struct {
	Template      model.ScenarioTemplate
	RawState      json.RawMessage
	State         model.CurrentState
	D20RollResult *int
}

// BuildSystemPrompt собирает grounding-блок для нарратора.
// Результат детерминирован: атрибуты и навыки перечисляются
// в отсортированном порядке.
func BuildSystemPrompt(in Input) string {
	var sb strings.Builder

	sb.WriteString(header)
	sb.WriteString("\n\n")

	fmt.Fprintf(&sb, "Scenario: %s\n", jsonString(in.Template.Name))
	fmt.Fprintf(&sb, "Description: %s\n", jsonString(in.Template.Description))
	fmt.Fprintf(&sb, "Starting Point: %s\n\n", jsonString(in.Template.StartingPoint))

	writeCustomization(&sb, in)

	sb.WriteString("Available Attributes:\n")
	for _, name := range sortedKeys(in.Template.Attributes) {
		fmt.Fprintf(&sb, "- %s: %s\n", name, in.Template.Attributes[name])
	}

	sb.WriteString("\nBase Skills:\n")
	skillNames := make([]string, 0, len(in.Template.BaseSkills))
	for name := range in.Template.BaseSkills {
		skillNames = append(skillNames, name)
	}
	sort.Strings(skillNames)
	for _, name := range skillNames {
		skill := in.Template.BaseSkills[name]
		fmt.Fprintf(&sb, "- %s (%s): %s\n", name, skill.Attribute, skill.Description)
	}

	fmt.Fprintf(&sb, "\nCurrent game state: %s\n", rawStateString(in.RawState))

	roll := "None"
	if in.D20RollResult != nil {
		roll = strconv.Itoa(*in.D20RollResult)
	}
	fmt.Fprintf(&sb, "Roll result (if applicable): %s\n\n", roll)

	sb.WriteString(instructions)
	return sb.String()
}

// writeCustomization добавляет блоки роли и бэкграунда игрока.
// Если какой-то из двух ключей кастомизации не выбран, соответствующий
// блок пропускается целиком - это деградация, а не ошибка.
func writeCustomization(sb *strings.Builder, in Input) {
	roleKey := in.State.Customization.ParentingStyle
	backgroundKey := in.State.Customization.FamilyBackground
	if roleKey == "" || backgroundKey == "" {
		return
	}

	fmt.Fprintf(sb, "Player's Role: %s\n", roleKey)
	if role, ok := in.Template.PlayerCustomizations.Role.Content[roleKey]; ok {
		fmt.Fprintf(sb, "Role Description: %s\n", jsonString(role.Description))
		fmt.Fprintf(sb, "Role Attributes: %s\n", bonusString(role.AttributeBonus))
	}

	fmt.Fprintf(sb, "Family Background: %s\n", backgroundKey)
	if background, ok := in.Template.PlayerCustomizations.Background.Content[backgroundKey]; ok {
		fmt.Fprintf(sb, "Background Description: %s\n", jsonString(background.Description))
		fmt.Fprintf(sb, "Background Attributes: %s\n", bonusString(background.AttributeBonus))
	}
	sb.WriteString("\n")
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// jsonString сериализует строку как JSON-литерал (в кавычках),
// сохраняя формат оригинального промпта.
func jsonString(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		return `""`
	}
	return string(b)
}

// bonusString детерминированно сериализует бонусы атрибутов.
func bonusString(bonus map[string]int) string {
	if len(bonus) == 0 {
		return "{}"
	}
	keys := make([]string, 0, len(bonus))
	for k := range bonus {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString("{")
	for i, k := range keys {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%q: %d", k, bonus[k])
	}
	sb.WriteString("}")
	return sb.String()
}

// rawStateString возвращает хранимое состояние в читаемом виде.
// Валидный JSON переформатируется с отступами, все остальное
// рендерится пустым объектом.
func rawStateString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "{}"
	}
	var buf interface{}
	if err := json.Unmarshal(raw, &buf); err != nil || buf == nil {
		return "{}"
	}
	pretty, err := json.MarshalIndent(buf, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(pretty)
}
