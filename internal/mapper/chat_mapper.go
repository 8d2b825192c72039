package mapper

import (
	"messpal-be/internal/entity"
	"messpal-be/internal/model"

	"github.com/samber/lo"
	"gorm.io/datatypes"
)

type ChatMapper struct{}

func NewChatMapper() *ChatMapper {
	return &ChatMapper{}
}

func (m *ChatMapper) ChatToEntity(c *model.Chat) *entity.Chat {
	if c == nil {
		return nil
	}

	return &entity.Chat{
		Id:            c.Id,
		UserId:        c.UserId,
		InstructionId: c.InstructionId,
		Title:         c.Title,
		Messages: lo.Map(c.Messages, func(msg model.ChatMessage, _ int) entity.ChatMessage {
			return entity.ChatMessage{Sender: msg.Sender, Content: msg.Content, Timestamp: msg.Timestamp}
		}),
		Version:   c.Version,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func (m *ChatMapper) ChatToModel(c *entity.Chat) *model.Chat {
	if c == nil {
		return nil
	}

	return &model.Chat{
		Id:            c.Id,
		UserId:        c.UserId,
		InstructionId: c.InstructionId,
		Title:         c.Title,
		Messages:      m.MessagesToModel(c.Messages),
		Version:       c.Version,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

// MessagesToModel never returns nil so the column is written as [] rather than null.
func (m *ChatMapper) MessagesToModel(messages []entity.ChatMessage) datatypes.JSONSlice[model.ChatMessage] {
	out := make(datatypes.JSONSlice[model.ChatMessage], 0, len(messages))
	for _, msg := range messages {
		out = append(out, model.ChatMessage{Sender: msg.Sender, Content: msg.Content, Timestamp: msg.Timestamp})
	}
	return out
}

func (m *ChatMapper) ChatsToEntities(chats []*model.Chat) []*entity.Chat {
	return lo.Map(chats, func(c *model.Chat, _ int) *entity.Chat {
		return m.ChatToEntity(c)
	})
}
