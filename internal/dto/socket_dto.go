package dto

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Live-connection event names.
const (
	EventAuthenticate  = "authenticate"
	EventAuthenticated = "authenticated"
	EventSendMessage   = "sendMessage"
	EventMessage       = "message"
	EventChatResolved  = "chatResolved"
	EventError         = "error"
)

// SocketEnvelope is the frame shape in both directions.
type SocketEnvelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type AuthenticatePayload struct {
	UserId string `json:"userId"`
}

type AuthenticatedPayload struct {
	UserId uuid.UUID `json:"userId"`
}

// SendMessagePayload carries a null or empty ChatId when no chat is
// selected. The id stays a string so that a malformed id is reported as an
// unknown chat rather than a broken frame.
type SendMessagePayload struct {
	ChatId             *string `json:"chatId"`
	Message            string  `json:"message" validate:"max=20000"`
	CustomInstructions string  `json:"customInstructions" validate:"max=20000"`
}

type MessageEventPayload struct {
	ChatId  uuid.UUID           `json:"chatId"`
	Message ChatMessageResponse `json:"message"`
}

// ChatResolvedPayload tells the sender of an id-less message which chat it
// went to. Only the originating connection receives it.
type ChatResolvedPayload struct {
	ChatId  uuid.UUID `json:"chatId"`
	Created bool      `json:"created"`
}

type ErrorEventPayload struct {
	Message string `json:"message"`
}

// NewSocketFrame encodes an outbound frame.
func NewSocketFrame(event string, data interface{}) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(SocketEnvelope{Event: event, Data: raw})
}
