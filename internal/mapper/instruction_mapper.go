package mapper

import (
	"messpal-be/internal/entity"
	"messpal-be/internal/model"

	"github.com/samber/lo"
)

type InstructionMapper struct{}

func NewInstructionMapper() *InstructionMapper {
	return &InstructionMapper{}
}

func (m *InstructionMapper) ToEntity(i *model.Instruction) *entity.Instruction {
	if i == nil {
		return nil
	}
	return &entity.Instruction{
		Id:        i.Id,
		UserId:    i.UserId,
		Name:      i.Name,
		Content:   i.Content,
		IsDefault: i.IsDefault,
		CreatedAt: i.CreatedAt,
		UpdatedAt: i.UpdatedAt,
	}
}

func (m *InstructionMapper) ToModel(i *entity.Instruction) *model.Instruction {
	if i == nil {
		return nil
	}
	return &model.Instruction{
		Id:        i.Id,
		UserId:    i.UserId,
		Name:      i.Name,
		Content:   i.Content,
		IsDefault: i.IsDefault,
		CreatedAt: i.CreatedAt,
		UpdatedAt: i.UpdatedAt,
	}
}

func (m *InstructionMapper) ToEntities(items []*model.Instruction) []*entity.Instruction {
	return lo.Map(items, func(i *model.Instruction, _ int) *entity.Instruction {
		return m.ToEntity(i)
	})
}
