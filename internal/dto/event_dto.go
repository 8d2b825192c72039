package dto

import "github.com/google/uuid"

// ChatActivityMessage is the in-process bus payload published after every
// handled sendMessage.
type ChatActivityMessage struct {
	ChatId uuid.UUID `json:"chat_id"`
	UserId uuid.UUID `json:"user_id"`
	Status string    `json:"status"`
}
