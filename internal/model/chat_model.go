package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ChatMessage is stored inline in the chat row as a JSON array element.
type ChatMessage struct {
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type Chat struct {
	Id            uuid.UUID                        `gorm:"type:uuid;primaryKey"`
	UserId        uuid.UUID                        `gorm:"type:uuid;not null;index:idx_chats_user_updated,priority:1"`
	InstructionId *uuid.UUID                       `gorm:"type:uuid"`
	Title         string                           `gorm:"type:text;not null;default:''"`
	Messages      datatypes.JSONSlice[ChatMessage] `gorm:"not null"`
	Version       int64                            `gorm:"not null;default:0"`
	CreatedAt     time.Time                        `gorm:"autoCreateTime"`
	// UpdatedAt is the recency key of the chat list and is written explicitly
	// on every append, so GORM must not touch it.
	UpdatedAt time.Time `gorm:"autoUpdateTime:false;not null;index:idx_chats_user_updated,priority:2,sort:desc"`
}

func (Chat) TableName() string {
	return "chats"
}
