package entity

import (
	"time"

	"github.com/google/uuid"
)

// Instruction is a named system-prompt preset. At most one per owner has IsDefault set.
type Instruction struct {
	Id        uuid.UUID
	UserId    uuid.UUID
	Name      string
	Content   string
	IsDefault bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
