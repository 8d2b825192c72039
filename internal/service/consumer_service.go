package service

import (
	"context"
	"encoding/json"
	"time"

	"messpal-be/internal/dto"
	"messpal-be/internal/entity"
	"messpal-be/internal/pkg/logger"
	"messpal-be/internal/repository/specification"
	"messpal-be/internal/repository/unitofwork"
	"messpal-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
)

const consumerModule = "Consumer"

// EventPublisher forwards domain events off the process. *nats.Publisher
// satisfies it.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	subscriber     message.Subscriber
	topicName      string
	uowFactory     unitofwork.RepositoryFactory
	eventPublisher EventPublisher
	logger         logger.ILogger
}

// NewConsumerService handles chat activity from the in-process bus.
// eventPublisher may be nil when NATS is not configured.
func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	eventPublisher EventPublisher,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber:     subscriber,
		topicName:      topicName,
		uowFactory:     uowFactory,
		eventPublisher: eventPublisher,
		logger:         log,
	}
}

// Consume returns once subscribed; messages are handled until ctx is done.
func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

// processMessage always acks. Titling is best effort and a nack on the
// in-process bus would redeliver immediately in a tight loop.
func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	defer msg.Ack()

	var payload dto.ChatActivityMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error(consumerModule, "Failed to unmarshal chat activity", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	cs.ensureTitle(ctx, payload)

	if cs.eventPublisher == nil {
		return
	}
	evt := events.ChatMessageExchanged{
		ChatId:     payload.ChatId,
		UserId:     payload.UserId,
		Status:     payload.Status,
		OccurredAt: time.Now(),
	}
	if err := cs.eventPublisher.Publish(ctx, evt); err != nil {
		cs.logger.Warn(consumerModule, "Failed to forward chat activity", map[string]interface{}{
			"chat_id": payload.ChatId.String(),
			"error":   err.Error(),
		})
	}
}

func (cs *consumerService) ensureTitle(ctx context.Context, payload dto.ChatActivityMessage) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	chat, err := uow.ChatRepository().FindOne(ctx,
		specification.ByID{ID: payload.ChatId},
		specification.UserOwnedBy{UserID: payload.UserId},
	)
	if err != nil {
		cs.logger.Error(consumerModule, "Failed to load chat for titling", map[string]interface{}{
			"chat_id": payload.ChatId.String(),
			"error":   err.Error(),
		})
		return
	}
	if chat == nil || chat.Title != "" {
		return
	}

	first, ok := chat.FirstUserMessage()
	if !ok {
		return
	}

	updated, err := uow.ChatRepository().SetTitleIfEmpty(ctx, chat.Id, entity.DeriveTitle(first.Content))
	if err != nil {
		cs.logger.Error(consumerModule, "Failed to set chat title", map[string]interface{}{
			"chat_id": payload.ChatId.String(),
			"error":   err.Error(),
		})
		return
	}
	if updated {
		cs.logger.Debug(consumerModule, "Chat titled", map[string]interface{}{
			"chat_id": payload.ChatId.String(),
		})
	}
}
