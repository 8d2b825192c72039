package service

import (
	"context"
	"errors"
	"time"

	"messpal-be/internal/dto"
	"messpal-be/internal/entity"
	"messpal-be/internal/repository/contract"
	"messpal-be/internal/repository/specification"
	"messpal-be/internal/repository/unitofwork"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

type IInstructionService interface {
	List(ctx context.Context, userId uuid.UUID) ([]*dto.InstructionResponse, error)
	GetDefault(ctx context.Context, userId uuid.UUID) (*dto.InstructionResponse, error)
	Show(ctx context.Context, userId, id uuid.UUID) (*dto.InstructionResponse, error)
	Create(ctx context.Context, userId uuid.UUID, req *dto.CreateInstructionRequest) (*dto.InstructionResponse, error)
	Update(ctx context.Context, userId uuid.UUID, req *dto.UpdateInstructionRequest) (*dto.InstructionResponse, error)
	Delete(ctx context.Context, userId, id uuid.UUID) error
}

type instructionService struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewInstructionService(uowFactory unitofwork.RepositoryFactory) IInstructionService {
	return &instructionService{
		uowFactory: uowFactory,
	}
}

func (s *instructionService) List(ctx context.Context, userId uuid.UUID) ([]*dto.InstructionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	items, err := uow.InstructionRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	return lo.Map(items, func(i *entity.Instruction, _ int) *dto.InstructionResponse {
		return toInstructionResponse(i)
	}), nil
}

func (s *instructionService) GetDefault(ctx context.Context, userId uuid.UUID) (*dto.InstructionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	ins, err := uow.InstructionRepository().FindOne(ctx, specification.UserOwnedBy{UserID: userId}, specification.IsDefault{})
	if err != nil {
		return nil, err
	}
	if ins == nil {
		return nil, ErrInstructionNotFound
	}
	return toInstructionResponse(ins), nil
}

func (s *instructionService) Show(ctx context.Context, userId, id uuid.UUID) (*dto.InstructionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	ins, err := uow.InstructionRepository().FindOne(ctx, specification.ByID{ID: id}, specification.UserOwnedBy{UserID: userId})
	if err != nil {
		return nil, err
	}
	if ins == nil {
		return nil, ErrInstructionNotFound
	}
	return toInstructionResponse(ins), nil
}

func (s *instructionService) Create(ctx context.Context, userId uuid.UUID, req *dto.CreateInstructionRequest) (*dto.InstructionResponse, error) {
	now := time.Now()
	ins := &entity.Instruction{
		Id:        uuid.New(),
		UserId:    userId,
		Name:      req.Name,
		Content:   req.Content,
		IsDefault: req.IsDefault,
		CreatedAt: now,
		UpdatedAt: now,
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if ins.IsDefault {
		if err := uow.InstructionRepository().ClearDefault(ctx, userId, ins.Id); err != nil {
			return nil, err
		}
	}
	if err := uow.InstructionRepository().Create(ctx, ins); err != nil {
		return nil, translateInstructionError(err)
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}
	return toInstructionResponse(ins), nil
}

func (s *instructionService) Update(ctx context.Context, userId uuid.UUID, req *dto.UpdateInstructionRequest) (*dto.InstructionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	ins, err := uow.InstructionRepository().FindOne(ctx, specification.ByID{ID: req.Id}, specification.UserOwnedBy{UserID: userId})
	if err != nil {
		return nil, err
	}
	if ins == nil {
		return nil, ErrInstructionNotFound
	}

	ins.Name = req.Name
	ins.Content = req.Content
	ins.IsDefault = req.IsDefault
	ins.UpdatedAt = time.Now()

	if ins.IsDefault {
		if err := uow.InstructionRepository().ClearDefault(ctx, userId, ins.Id); err != nil {
			return nil, err
		}
	}
	if err := uow.InstructionRepository().Update(ctx, ins); err != nil {
		return nil, translateInstructionError(err)
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}
	return toInstructionResponse(ins), nil
}

// Delete leaves chats alone; they keep the instruction id as a plain value.
func (s *instructionService) Delete(ctx context.Context, userId, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	deleted, err := uow.InstructionRepository().Delete(ctx, specification.ByID{ID: id}, specification.UserOwnedBy{UserID: userId})
	if err != nil {
		return err
	}
	if !deleted {
		return ErrInstructionNotFound
	}
	return nil
}

func translateInstructionError(err error) error {
	if errors.Is(err, contract.ErrDuplicate) {
		return ErrInstructionExists
	}
	return err
}
