package service

import (
	"context"
	"strings"
	"time"

	"messpal-be/internal/dto"
	"messpal-be/internal/entity"
	"messpal-be/internal/repository/specification"
	"messpal-be/internal/repository/unitofwork"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// IChatService is the REST side of chats. Appends to existing chats only
// happen through IChatSessionService.
type IChatService interface {
	List(ctx context.Context, userId uuid.UUID) ([]dto.ChatSummaryResponse, error)
	Show(ctx context.Context, userId, id uuid.UUID) (*dto.ChatResponse, error)
	Create(ctx context.Context, userId uuid.UUID, req *dto.CreateChatRequest) (*dto.ChatResponse, error)
	Delete(ctx context.Context, userId, id uuid.UUID) error
}

type chatService struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewChatService(uowFactory unitofwork.RepositoryFactory) IChatService {
	return &chatService{
		uowFactory: uowFactory,
	}
}

func (s *chatService) List(ctx context.Context, userId uuid.UUID) ([]dto.ChatSummaryResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	chats, err := uow.ChatRepository().FindSummaries(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "updated_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	return lo.Map(chats, func(c *entity.Chat, _ int) dto.ChatSummaryResponse {
		return toChatSummary(c)
	}), nil
}

func (s *chatService) Show(ctx context.Context, userId, id uuid.UUID) (*dto.ChatResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	chat, err := uow.ChatRepository().FindOne(ctx, specification.ByID{ID: id}, specification.UserOwnedBy{UserID: userId})
	if err != nil {
		return nil, err
	}
	if chat == nil {
		return nil, ErrChatNotFound
	}
	return toChatResponse(chat), nil
}

func (s *chatService) Create(ctx context.Context, userId uuid.UUID, req *dto.CreateChatRequest) (*dto.ChatResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	if req.InstructionId != nil {
		ins, err := uow.InstructionRepository().FindOne(ctx,
			specification.ByID{ID: *req.InstructionId},
			specification.UserOwnedBy{UserID: userId},
		)
		if err != nil {
			return nil, err
		}
		if ins == nil {
			return nil, ErrInstructionNotFound
		}
	}

	now := time.Now().UTC().Truncate(time.Microsecond)
	chat := &entity.Chat{
		Id:            uuid.New(),
		UserId:        userId,
		InstructionId: req.InstructionId,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if strings.TrimSpace(req.InitialMessage) != "" {
		chat.Append(entity.SenderUser, req.InitialMessage, now)
	}

	if err := uow.ChatRepository().Create(ctx, chat); err != nil {
		return nil, err
	}
	return toChatResponse(chat), nil
}

func (s *chatService) Delete(ctx context.Context, userId, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	deleted, err := uow.ChatRepository().Delete(ctx, specification.ByID{ID: id}, specification.UserOwnedBy{UserID: userId})
	if err != nil {
		return err
	}
	if !deleted {
		return ErrChatNotFound
	}
	return nil
}
