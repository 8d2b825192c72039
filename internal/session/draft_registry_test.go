package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDraftRegistry_ConcurrentClaimsCreateOnce(t *testing.T) {
	registry := NewDraftRegistry(time.Minute)
	user := uuid.New()

	var creates int32
	create := func(ctx context.Context) (uuid.UUID, error) {
		atomic.AddInt32(&creates, 1)
		time.Sleep(5 * time.Millisecond)
		return uuid.New(), nil
	}

	ids := make([]uuid.UUID, 5)
	var wg sync.WaitGroup
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			claim := registry.Join(user)
			defer registry.Release(claim)
			id, _, err := registry.Resolve(context.Background(), claim, create)
			assert.NoError(t, err)
			ids[i] = id
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), creates)
	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
}

func TestDraftRegistry_ReleasedAfterLastClaim(t *testing.T) {
	registry := NewDraftRegistry(time.Minute)
	user := uuid.New()
	chatId := uuid.New()
	create := func(ctx context.Context) (uuid.UUID, error) { return chatId, nil }

	first := registry.Join(user)
	second := registry.Join(user)

	_, created, err := registry.Resolve(context.Background(), first, create)
	require.NoError(t, err)
	assert.True(t, created)

	registry.Release(first)
	registry.Release(first)
	id, claims, ok := registry.Pending(user)
	require.True(t, ok)
	assert.Equal(t, chatId, id)
	assert.Equal(t, 1, claims)

	_, created, err = registry.Resolve(context.Background(), second, create)
	require.NoError(t, err)
	assert.False(t, created)

	registry.Release(second)
	_, _, ok = registry.Pending(user)
	assert.False(t, ok)
}

// A send queued behind a finished exchange still joins that exchange's chat
// because it claimed the draft when it arrived.
func TestDraftRegistry_ClaimTakenOnArrivalOutlivesEarlierExchange(t *testing.T) {
	registry := NewDraftRegistry(time.Minute)
	user := uuid.New()
	create := func(ctx context.Context) (uuid.UUID, error) { return uuid.New(), nil }

	running := registry.Join(user)
	queued := registry.Join(user)

	firstChat, _, err := registry.Resolve(context.Background(), running, create)
	require.NoError(t, err)
	registry.Release(running)

	secondChat, created, err := registry.Resolve(context.Background(), queued, create)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, firstChat, secondChat)
	registry.Release(queued)

	// Nothing outstanding: the next id-less send starts over.
	later := registry.Join(user)
	thirdChat, created, err := registry.Resolve(context.Background(), later, create)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, firstChat, thirdChat)
	registry.Release(later)
}

func TestDraftRegistry_CreateErrorIsRetriedByNextClaim(t *testing.T) {
	registry := NewDraftRegistry(time.Minute)
	user := uuid.New()
	boom := errors.New("db down")

	failing := registry.Join(user)
	waiting := registry.Join(user)

	_, _, err := registry.Resolve(context.Background(), failing, func(ctx context.Context) (uuid.UUID, error) {
		return uuid.Nil, boom
	})
	assert.ErrorIs(t, err, boom)
	registry.Release(failing)

	id, claims, ok := registry.Pending(user)
	require.True(t, ok)
	assert.Equal(t, uuid.Nil, id)
	assert.Equal(t, 1, claims)

	chatId := uuid.New()
	got, created, err := registry.Resolve(context.Background(), waiting, func(ctx context.Context) (uuid.UUID, error) {
		return chatId, nil
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, chatId, got)

	registry.Release(waiting)
	_, _, ok = registry.Pending(user)
	assert.False(t, ok)
}

func TestDraftRegistry_UsersAreIndependent(t *testing.T) {
	registry := NewDraftRegistry(time.Minute)
	create := func(ctx context.Context) (uuid.UUID, error) { return uuid.New(), nil }

	a, _, err := registry.Resolve(context.Background(), registry.Join(uuid.New()), create)
	require.NoError(t, err)
	b, _, err := registry.Resolve(context.Background(), registry.Join(uuid.New()), create)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}
