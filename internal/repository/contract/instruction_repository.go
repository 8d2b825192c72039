package contract

import (
	"context"

	"messpal-be/internal/entity"
	"messpal-be/internal/repository/specification"

	"github.com/google/uuid"
)

type InstructionRepository interface {
	Create(ctx context.Context, instruction *entity.Instruction) error
	Update(ctx context.Context, instruction *entity.Instruction) error
	Delete(ctx context.Context, specs ...specification.Specification) (bool, error)
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Instruction, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Instruction, error)
	// ClearDefault unsets the default flag on every instruction of userId except keepId.
	ClearDefault(ctx context.Context, userId uuid.UUID, keepId uuid.UUID) error
}
