package dto

import (
	"time"

	"github.com/google/uuid"
)

type ChatMessageResponse struct {
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type ChatSummaryResponse struct {
	Id            uuid.UUID  `json:"id"`
	Title         string     `json:"title"`
	InstructionId *uuid.UUID `json:"instructionId"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

type ChatResponse struct {
	Id            uuid.UUID             `json:"id"`
	Title         string                `json:"title"`
	InstructionId *uuid.UUID            `json:"instructionId"`
	Messages      []ChatMessageResponse `json:"messages"`
	CreatedAt     time.Time             `json:"createdAt"`
	UpdatedAt     time.Time             `json:"updatedAt"`
}

type CreateChatRequest struct {
	InstructionId  *uuid.UUID `json:"instructionId"`
	InitialMessage string     `json:"initialMessage" validate:"max=20000"`
}
