package model

import (
	"time"

	"github.com/google/uuid"
)

type Instruction struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserId    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_instructions_user_name,priority:1;uniqueIndex:idx_instructions_single_default,where:is_default = true"`
	Name      string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_instructions_user_name,priority:2"`
	Content   string    `gorm:"type:text;not null"`
	IsDefault bool      `gorm:"not null;default:false"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (Instruction) TableName() string {
	return "instructions"
}
