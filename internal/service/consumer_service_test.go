package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"messpal-be/internal/dto"
	"messpal-be/internal/pkg/logger"
	"messpal-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingEventPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingEventPublisher) Publish(ctx context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingEventPublisher) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

func TestConsumerService_TitlesChatAndForwards(t *testing.T) {
	f := newSessionFixture(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	user := f.createUser(t, "vera")

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	forwarded := &recordingEventPublisher{}
	consumer := NewConsumerService(pubSub, "chat-activity", f.uowFactory, forwarded, logger.NewNopLogger())
	require.NoError(t, consumer.Consume(ctx))

	chat, err := NewChatService(f.uowFactory).Create(ctx, user.Id, &dto.CreateChatRequest{
		InitialMessage: "How do I configure graceful shutdown in fiber?",
	})
	require.NoError(t, err)

	payload, err := json.Marshal(dto.ChatActivityMessage{ChatId: chat.Id, UserId: user.Id, Status: events.ExchangeCompleted})
	require.NoError(t, err)
	require.NoError(t, NewPublisherService("chat-activity", pubSub).Publish(ctx, payload))

	assert.Eventually(t, func() bool {
		shown, err := NewChatService(f.uowFactory).Show(ctx, user.Id, chat.Id)
		return err == nil && shown.Title == "How do I configure graceful sh..."
	}, 2*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool { return forwarded.Len() == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestConsumerService_IgnoresUnknownChat(t *testing.T) {
	f := newSessionFixture(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	consumer := NewConsumerService(pubSub, "chat-activity", f.uowFactory, nil, logger.NewNopLogger())
	require.NoError(t, consumer.Consume(ctx))

	payload, err := json.Marshal(dto.ChatActivityMessage{ChatId: uuid.New(), UserId: uuid.New(), Status: events.ExchangeFailed})
	require.NoError(t, err)
	require.NoError(t, NewPublisherService("chat-activity", pubSub).Publish(ctx, payload))
	require.NoError(t, NewPublisherService("chat-activity", pubSub).Publish(ctx, []byte("not json")))
}
