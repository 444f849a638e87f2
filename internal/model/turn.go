package model

import (
	"time"

	"github.com/google/uuid"
)

// TurnRole определяет автора хода в диалоге.
type TurnRole string

const (
	TurnRoleUser      TurnRole = "user"
	TurnRoleAssistant TurnRole = "assistant"
	TurnRoleSystem    TurnRole = "system"
)

// ValidTurnRole сообщает, допустима ли роль для записи в журнал диалога.
func ValidTurnRole(role string) bool {
	switch TurnRole(role) {
	case TurnRoleUser, TurnRoleAssistant, TurnRoleSystem:
		return true
	}
	return false
}

// ConversationTurn - один ход диалога внутри сессии. Append-only:
// после вставки запись никогда не изменяется.
// turn_number монотонно растет в пределах сессии начиная с 0.
type ConversationTurn struct {
	ID         uuid.UUID `json:"id" db:"id"`
	SessionID  uuid.UUID `json:"session_id" db:"session_id"`
	Role       TurnRole  `json:"role" db:"role"`
	Content    string    `json:"content" db:"content"`
	TurnNumber int       `json:"turn_number" db:"turn_number"`
	Timestamp  time.Time `json:"timestamp" db:"timestamp"`
}

// ChatMessage - сообщение в том виде, в котором его присылает клиент
// в POST /chat (и в котором оно уходит нарратору).
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
