package dto

import (
	"time"

	"github.com/google/uuid"
)

type InstructionResponse struct {
	Id        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Content   string    `json:"content"`
	IsDefault bool      `json:"isDefault"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type CreateInstructionRequest struct {
	Name      string `json:"name" validate:"required,max=255"`
	Content   string `json:"content" validate:"required"`
	IsDefault bool   `json:"isDefault"`
}

type UpdateInstructionRequest struct {
	Id        uuid.UUID `json:"-"`
	Name      string    `json:"name" validate:"required,max=255"`
	Content   string    `json:"content" validate:"required"`
	IsDefault bool      `json:"isDefault"`
}
