package service

import (
	"messpal-be/internal/dto"
	"messpal-be/internal/entity"

	"github.com/samber/lo"
)

func toUserResponse(u *entity.User) dto.UserResponse {
	return dto.UserResponse{
		Id:        u.Id,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

func toMessageResponse(m entity.ChatMessage) dto.ChatMessageResponse {
	return dto.ChatMessageResponse{
		Sender:    m.Sender,
		Content:   m.Content,
		Timestamp: m.Timestamp,
	}
}

func toChatResponse(c *entity.Chat) *dto.ChatResponse {
	return &dto.ChatResponse{
		Id:            c.Id,
		Title:         c.Title,
		InstructionId: c.InstructionId,
		Messages: lo.Map(c.Messages, func(m entity.ChatMessage, _ int) dto.ChatMessageResponse {
			return toMessageResponse(m)
		}),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func toChatSummary(c *entity.Chat) dto.ChatSummaryResponse {
	return dto.ChatSummaryResponse{
		Id:            c.Id,
		Title:         c.Title,
		InstructionId: c.InstructionId,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

func toInstructionResponse(i *entity.Instruction) *dto.InstructionResponse {
	return &dto.InstructionResponse{
		Id:        i.Id,
		Name:      i.Name,
		Content:   i.Content,
		IsDefault: i.IsDefault,
		CreatedAt: i.CreatedAt,
		UpdatedAt: i.UpdatedAt,
	}
}
