package implementation

import (
	"context"
	"errors"

	"messpal-be/internal/entity"
	"messpal-be/internal/mapper"
	"messpal-be/internal/model"
	"messpal-be/internal/repository/contract"
	"messpal-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InstructionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.InstructionMapper
}

func NewInstructionRepository(db *gorm.DB) contract.InstructionRepository {
	return &InstructionRepositoryImpl{
		db:     db,
		mapper: mapper.NewInstructionMapper(),
	}
}

func (r *InstructionRepositoryImpl) scoped(ctx context.Context, specs []specification.Specification) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&model.Instruction{})
	for _, spec := range specs {
		query = spec.Apply(query)
	}
	return query
}

func (r *InstructionRepositoryImpl) Create(ctx context.Context, instruction *entity.Instruction) error {
	m := r.mapper.ToModel(instruction)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return translateWriteError(err)
	}
	*instruction = *r.mapper.ToEntity(m)
	return nil
}

func (r *InstructionRepositoryImpl) Update(ctx context.Context, instruction *entity.Instruction) error {
	m := r.mapper.ToModel(instruction)
	// Explicit columns so a false IsDefault is written instead of skipped as a zero value.
	err := r.db.WithContext(ctx).Model(m).Select("name", "content", "is_default", "updated_at").Updates(m).Error
	if err != nil {
		return translateWriteError(err)
	}
	*instruction = *r.mapper.ToEntity(m)
	return nil
}

func (r *InstructionRepositoryImpl) Delete(ctx context.Context, specs ...specification.Specification) (bool, error) {
	if len(specs) == 0 {
		return false, errors.New("refusing to delete instructions without a filter")
	}
	res := r.scoped(ctx, specs).Delete(&model.Instruction{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *InstructionRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Instruction, error) {
	var m model.Instruction
	if err := r.scoped(ctx, specs).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *InstructionRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Instruction, error) {
	var models []*model.Instruction
	if err := r.scoped(ctx, specs).Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *InstructionRepositoryImpl) ClearDefault(ctx context.Context, userId uuid.UUID, keepId uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Instruction{}).
		Where("user_id = ? AND id <> ? AND is_default = ?", userId, keepId, true).
		Update("is_default", false).Error
}
