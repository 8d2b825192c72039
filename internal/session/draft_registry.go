package session

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// draft is shared by every claim taken while it was pending. chatId stays
// uuid.Nil until the first claim resolves.
type draft struct {
	chatId  uuid.UUID
	pending int
}

// DraftClaim is one id-less send holding a user's draft open.
type DraftClaim struct {
	userId   uuid.UUID
	draft    *draft
	released bool
}

// DraftRegistry remembers, per user, the chat implicitly created by sends
// without a chat id. A claim is taken when such a send arrives, before it
// waits behind earlier frames, and released once its exchange ends. Every
// id-less send that arrives while a claim is outstanding lands in the same
// chat. Entries expire after ttl in case a release is ever missed.
type DraftRegistry struct {
	cache *cache.Cache
	users *KeyedLocker
	ttl   time.Duration
}

func NewDraftRegistry(ttl time.Duration) *DraftRegistry {
	return &DraftRegistry{
		cache: cache.New(ttl, 2*ttl),
		users: NewKeyedLocker(),
		ttl:   ttl,
	}
}

// Join claims the user's pending draft, opening one when there is none. It
// never blocks on chat creation. Every claim must be released.
func (r *DraftRegistry) Join(userId uuid.UUID) *DraftClaim {
	unlock, _ := r.users.Lock(context.Background(), userId)
	defer unlock()

	key := userId.String()
	d := &draft{}
	if x, found := r.cache.Get(key); found {
		d = x.(*draft)
	}
	d.pending++
	r.cache.Set(key, d, r.ttl)
	return &DraftClaim{userId: userId, draft: d}
}

// Resolve returns the chat behind claim, running create when no claim of
// the draft has created it yet. created reports whether create ran. A failed
// create leaves the draft open for the next claim to retry.
func (r *DraftRegistry) Resolve(
	ctx context.Context,
	claim *DraftClaim,
	create func(ctx context.Context) (uuid.UUID, error),
) (chatId uuid.UUID, created bool, err error) {
	unlock, err := r.users.Lock(ctx, claim.userId)
	if err != nil {
		return uuid.Nil, false, err
	}
	defer unlock()

	if claim.draft.chatId != uuid.Nil {
		return claim.draft.chatId, false, nil
	}

	chatId, err = create(ctx)
	if err != nil {
		return uuid.Nil, false, err
	}
	claim.draft.chatId = chatId
	return chatId, true, nil
}

// Release ends claim. The draft is forgotten when no claim remains. Releasing
// twice is a no-op.
func (r *DraftRegistry) Release(claim *DraftClaim) {
	unlock, _ := r.users.Lock(context.Background(), claim.userId)
	defer unlock()

	if claim.released {
		return
	}
	claim.released = true
	claim.draft.pending--

	key := claim.userId.String()
	if x, found := r.cache.Get(key); found && x.(*draft) == claim.draft && claim.draft.pending <= 0 {
		r.cache.Delete(key)
	}
}

// Pending returns the user's draft chat id, uuid.Nil while it is not created
// yet, and how many claims hold it. ok is false when no draft is open.
func (r *DraftRegistry) Pending(userId uuid.UUID) (chatId uuid.UUID, claims int, ok bool) {
	unlock, _ := r.users.Lock(context.Background(), userId)
	defer unlock()

	x, found := r.cache.Get(userId.String())
	if !found {
		return uuid.Nil, 0, false
	}
	d := x.(*draft)
	return d.chatId, d.pending, true
}
