package contract

import (
	"context"

	"messpal-be/internal/entity"
	"messpal-be/internal/repository/specification"

	"github.com/google/uuid"
)

type ChatRepository interface {
	Create(ctx context.Context, chat *entity.Chat) error
	// SaveMessages writes the message sequence and UpdatedAt of chat if the stored
	// version still equals chat.Version, then bumps chat.Version.
	SaveMessages(ctx context.Context, chat *entity.Chat) error
	// SetTitleIfEmpty never touches the version, messages or recency.
	SetTitleIfEmpty(ctx context.Context, id uuid.UUID, title string) (bool, error)
	Delete(ctx context.Context, specs ...specification.Specification) (bool, error)
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Chat, error)
	// FindSummaries loads chats without their message bodies.
	FindSummaries(ctx context.Context, specs ...specification.Specification) ([]*entity.Chat, error)
}
