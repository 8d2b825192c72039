package implementation

import (
	"context"
	"errors"

	"messpal-be/internal/entity"
	"messpal-be/internal/mapper"
	"messpal-be/internal/model"
	"messpal-be/internal/repository/contract"
	"messpal-be/internal/repository/specification"

	"gorm.io/gorm"
)

type UserRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.UserMapper
}

func NewUserRepository(db *gorm.DB) contract.UserRepository {
	return &UserRepositoryImpl{
		db:     db,
		mapper: mapper.NewUserMapper(),
	}
}

func (r *UserRepositoryImpl) scoped(ctx context.Context, specs []specification.Specification) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&model.User{})
	for _, spec := range specs {
		query = spec.Apply(query)
	}
	return query
}

func (r *UserRepositoryImpl) Create(ctx context.Context, user *entity.User) error {
	m := r.mapper.ToModel(user)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return translateWriteError(err)
	}
	*user = *r.mapper.ToEntity(m)
	return nil
}

func (r *UserRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error) {
	var m model.User
	if err := r.scoped(ctx, specs).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *UserRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	if err := r.scoped(ctx, specs).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
