package implementation

import (
	"context"
	"testing"
	"time"

	"messpal-be/internal/entity"
	"messpal-be/internal/pkg/testdb"
	"messpal-be/internal/repository/contract"
	"messpal-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedUser(t *testing.T, repo contract.UserRepository, name string) *entity.User {
	t.Helper()
	user := &entity.User{Id: uuid.New(), Username: name, Email: name + "@example.com", PasswordHash: "x"}
	require.NoError(t, repo.Create(context.Background(), user))
	return user
}

func newChat(owner uuid.UUID, at time.Time) *entity.Chat {
	return &entity.Chat{Id: uuid.New(), UserId: owner, CreatedAt: at, UpdatedAt: at}
}

func TestChatRepository_SaveMessagesRoundTrip(t *testing.T) {
	db := testdb.New(t)
	ctx := context.Background()
	user := seedUser(t, NewUserRepository(db), "alice")
	repo := NewChatRepository(db)

	start := time.Now().UTC().Truncate(time.Microsecond)
	chat := newChat(user.Id, start)
	require.NoError(t, repo.Create(ctx, chat))

	chat.Append(entity.SenderUser, "Hello", start.Add(time.Second))
	chat.Append(entity.SenderBot, "Hi there", start.Add(2*time.Second))
	require.NoError(t, repo.SaveMessages(ctx, chat))
	assert.Equal(t, int64(1), chat.Version)

	loaded, err := repo.FindOne(ctx, specification.ByID{ID: chat.Id}, specification.UserOwnedBy{UserID: user.Id})
	require.NoError(t, err)
	require.NotNil(t, loaded)
	require.Len(t, loaded.Messages, 2)
	assert.Equal(t, "Hello", loaded.Messages[0].Content)
	assert.Equal(t, entity.SenderBot, loaded.Messages[1].Sender)
	assert.True(t, loaded.Messages[0].Timestamp.Equal(chat.Messages[0].Timestamp))
	assert.True(t, loaded.UpdatedAt.Equal(chat.UpdatedAt))
	assert.Equal(t, int64(1), loaded.Version)
}

func TestChatRepository_SaveMessagesDetectsStaleVersion(t *testing.T) {
	db := testdb.New(t)
	ctx := context.Background()
	user := seedUser(t, NewUserRepository(db), "bob")
	repo := NewChatRepository(db)

	chat := newChat(user.Id, time.Now().UTC())
	require.NoError(t, repo.Create(ctx, chat))

	first, err := repo.FindOne(ctx, specification.ByID{ID: chat.Id})
	require.NoError(t, err)
	second, err := repo.FindOne(ctx, specification.ByID{ID: chat.Id})
	require.NoError(t, err)

	first.Append(entity.SenderUser, "one", time.Now())
	require.NoError(t, repo.SaveMessages(ctx, first))

	second.Append(entity.SenderUser, "two", time.Now())
	assert.ErrorIs(t, repo.SaveMessages(ctx, second), contract.ErrVersionConflict)

	stored, err := repo.FindOne(ctx, specification.ByID{ID: chat.Id})
	require.NoError(t, err)
	require.Len(t, stored.Messages, 1)
	assert.Equal(t, "one", stored.Messages[0].Content)
}

func TestChatRepository_FindOneScopesToOwner(t *testing.T) {
	db := testdb.New(t)
	ctx := context.Background()
	users := NewUserRepository(db)
	owner := seedUser(t, users, "owner")
	stranger := seedUser(t, users, "stranger")
	repo := NewChatRepository(db)

	chat := newChat(owner.Id, time.Now().UTC())
	require.NoError(t, repo.Create(ctx, chat))

	found, err := repo.FindOne(ctx, specification.ByID{ID: chat.Id}, specification.UserOwnedBy{UserID: stranger.Id})
	require.NoError(t, err)
	assert.Nil(t, found)

	deleted, err := repo.Delete(ctx, specification.ByID{ID: chat.Id}, specification.UserOwnedBy{UserID: stranger.Id})
	require.NoError(t, err)
	assert.False(t, deleted)

	deleted, err = repo.Delete(ctx, specification.ByID{ID: chat.Id}, specification.UserOwnedBy{UserID: owner.Id})
	require.NoError(t, err)
	assert.True(t, deleted)
}

func TestChatRepository_DeleteRequiresFilter(t *testing.T) {
	repo := NewChatRepository(testdb.New(t))

	_, err := repo.Delete(context.Background())
	assert.Error(t, err)
}

func TestChatRepository_FindSummariesOmitsMessages(t *testing.T) {
	db := testdb.New(t)
	ctx := context.Background()
	user := seedUser(t, NewUserRepository(db), "carol")
	repo := NewChatRepository(db)

	base := time.Now().UTC().Truncate(time.Microsecond)
	older := newChat(user.Id, base)
	newer := newChat(user.Id, base)
	require.NoError(t, repo.Create(ctx, older))
	require.NoError(t, repo.Create(ctx, newer))

	older.Append(entity.SenderUser, "first", base.Add(time.Second))
	require.NoError(t, repo.SaveMessages(ctx, older))
	newer.Append(entity.SenderUser, "second", base.Add(2*time.Second))
	require.NoError(t, repo.SaveMessages(ctx, newer))

	summaries, err := repo.FindSummaries(ctx,
		specification.UserOwnedBy{UserID: user.Id},
		specification.OrderBy{Field: "updated_at", Desc: true},
	)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, newer.Id, summaries[0].Id)
	assert.Equal(t, older.Id, summaries[1].Id)
	assert.Empty(t, summaries[0].Messages)
}

func TestChatRepository_SetTitleIfEmpty(t *testing.T) {
	db := testdb.New(t)
	ctx := context.Background()
	user := seedUser(t, NewUserRepository(db), "dave")
	repo := NewChatRepository(db)

	chat := newChat(user.Id, time.Now().UTC())
	require.NoError(t, repo.Create(ctx, chat))

	updated, err := repo.SetTitleIfEmpty(ctx, chat.Id, "First title")
	require.NoError(t, err)
	assert.True(t, updated)

	updated, err = repo.SetTitleIfEmpty(ctx, chat.Id, "Second title")
	require.NoError(t, err)
	assert.False(t, updated)

	stored, err := repo.FindOne(ctx, specification.ByID{ID: chat.Id})
	require.NoError(t, err)
	assert.Equal(t, "First title", stored.Title)
	assert.Equal(t, int64(0), stored.Version)
}
