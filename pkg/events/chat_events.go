package events

import (
	"time"

	"github.com/google/uuid"
)

const TypeChatMessageExchanged = "CHAT_MESSAGE_EXCHANGED"

// Exchange outcomes carried in the status field.
const (
	ExchangeCompleted = "completed"
	ExchangeFailed    = "failed"
)

// ChatMessageExchanged is emitted once per handled sendMessage, whether the
// completion succeeded or not.
type ChatMessageExchanged struct {
	ChatId     uuid.UUID `json:"chat_id"`
	UserId     uuid.UUID `json:"user_id"`
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (e ChatMessageExchanged) EventType() string {
	return TypeChatMessageExchanged
}

func (e ChatMessageExchanged) Payload() map[string]interface{} {
	return map[string]interface{}{
		"chat_id":     e.ChatId.String(),
		"user_id":     e.UserId.String(),
		"status":      e.Status,
		"occurred_at": e.OccurredAt.Format(time.RFC3339Nano),
	}
}

func (e ChatMessageExchanged) Timestamp() time.Time {
	return e.OccurredAt
}
