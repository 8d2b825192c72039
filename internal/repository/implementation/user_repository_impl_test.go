package implementation

import (
	"context"
	"testing"

	"messpal-be/internal/entity"
	"messpal-be/internal/pkg/testdb"
	"messpal-be/internal/repository/contract"
	"messpal-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_UniqueEmail(t *testing.T) {
	repo := NewUserRepository(testdb.New(t))
	ctx := context.Background()

	seedUser(t, repo, "hank")

	err := repo.Create(ctx, &entity.User{Id: uuid.New(), Username: "other", Email: "hank@example.com", PasswordHash: "x"})
	assert.ErrorIs(t, err, contract.ErrDuplicate)

	count, err := repo.Count(ctx, specification.ByEmail{Email: "hank@example.com"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	found, err := repo.FindOne(ctx, specification.ByUsername{Username: "hank"})
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "hank@example.com", found.Email)

	missing, err := repo.FindOne(ctx, specification.ByEmail{Email: "nobody@example.com"})
	require.NoError(t, err)
	assert.Nil(t, missing)
}
