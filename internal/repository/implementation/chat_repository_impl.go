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

type ChatRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ChatMapper
}

func NewChatRepository(db *gorm.DB) contract.ChatRepository {
	return &ChatRepositoryImpl{
		db:     db,
		mapper: mapper.NewChatMapper(),
	}
}

func (r *ChatRepositoryImpl) scoped(ctx context.Context, specs []specification.Specification) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&model.Chat{})
	for _, spec := range specs {
		query = spec.Apply(query)
	}
	return query
}

func (r *ChatRepositoryImpl) Create(ctx context.Context, chat *entity.Chat) error {
	m := r.mapper.ChatToModel(chat)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return translateWriteError(err)
	}
	*chat = *r.mapper.ChatToEntity(m)
	return nil
}

func (r *ChatRepositoryImpl) SaveMessages(ctx context.Context, chat *entity.Chat) error {
	res := r.db.WithContext(ctx).Model(&model.Chat{}).
		Where("id = ? AND version = ?", chat.Id, chat.Version).
		Updates(map[string]interface{}{
			"messages":   r.mapper.MessagesToModel(chat.Messages),
			"updated_at": chat.UpdatedAt,
			"version":    gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return contract.ErrVersionConflict
	}
	chat.Version++
	return nil
}

func (r *ChatRepositoryImpl) SetTitleIfEmpty(ctx context.Context, id uuid.UUID, title string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Chat{}).
		Where("id = ? AND title = ?", id, "").
		Update("title", title)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *ChatRepositoryImpl) Delete(ctx context.Context, specs ...specification.Specification) (bool, error) {
	if len(specs) == 0 {
		return false, errors.New("refusing to delete chats without a filter")
	}
	res := r.scoped(ctx, specs).Delete(&model.Chat{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *ChatRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Chat, error) {
	var m model.Chat
	if err := r.scoped(ctx, specs).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ChatToEntity(&m), nil
}

func (r *ChatRepositoryImpl) FindSummaries(ctx context.Context, specs ...specification.Specification) ([]*entity.Chat, error) {
	var models []*model.Chat
	if err := r.scoped(ctx, specs).Omit("messages").Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ChatsToEntities(models), nil
}
