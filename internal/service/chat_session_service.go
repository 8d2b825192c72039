package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"messpal-be/internal/dto"
	"messpal-be/internal/entity"
	"messpal-be/internal/pkg/logger"
	"messpal-be/internal/repository/contract"
	"messpal-be/internal/repository/specification"
	"messpal-be/internal/repository/unitofwork"
	"messpal-be/internal/session"
	"messpal-be/pkg/events"
	"messpal-be/pkg/llm"

	"github.com/google/uuid"
)

const (
	chatSessionModule = "ChatSession"

	DefaultSystemPrompt = "You are a helpful assistant."

	// Attempts per save when another writer bumped the chat version.
	maxSaveAttempts = 3
)

// ChatBroadcaster delivers encoded frames to the live connections of a user.
// The websocket hub implements it.
type ChatBroadcaster interface {
	SendToUser(userId uuid.UUID, frame []byte)
	SendToUserExcept(userId uuid.UUID, exceptConnId uuid.UUID, frame []byte)
	SendToConn(userId uuid.UUID, connId uuid.UUID, frame []byte)
}

// Exchange is an accepted sendMessage waiting for its turn. It must run
// exactly once.
type Exchange func(ctx context.Context) error

// IChatSessionService runs sendMessage exchanges end to end.
type IChatSessionService interface {
	// Accept is called as soon as a sendMessage frame arrives, in arrival
	// order. A send without a chat id claims the user's draft chat here, so
	// sends queued behind it land in the same chat.
	Accept(userId uuid.UUID, originConnId uuid.UUID, req *dto.SendMessagePayload) (Exchange, error)

	// SendMessage accepts and runs one exchange: it resolves the chat,
	// appends and persists the user turn, asks the completion backend for a
	// reply, then persists and broadcasts it. Errors are meant for the
	// originating connection only.
	SendMessage(ctx context.Context, userId uuid.UUID, originConnId uuid.UUID, req *dto.SendMessagePayload) error
}

type ChatSessionConfig struct {
	CompletionTimeout time.Duration
	Temperature       float64
}

type chatSessionService struct {
	uowFactory  unitofwork.RepositoryFactory
	llmProvider llm.LLMProvider
	broadcaster ChatBroadcaster
	publisher   IPublisherService
	chatLocks   *session.KeyedLocker
	drafts      *session.DraftRegistry
	cfg         ChatSessionConfig
	logger      logger.ILogger
	now         func() time.Time
}

func NewChatSessionService(
	uowFactory unitofwork.RepositoryFactory,
	llmProvider llm.LLMProvider,
	broadcaster ChatBroadcaster,
	publisher IPublisherService,
	chatLocks *session.KeyedLocker,
	drafts *session.DraftRegistry,
	cfg ChatSessionConfig,
	log logger.ILogger,
) IChatSessionService {
	if cfg.CompletionTimeout <= 0 {
		cfg.CompletionTimeout = 60 * time.Second
	}
	return &chatSessionService{
		uowFactory:  uowFactory,
		llmProvider: llmProvider,
		broadcaster: broadcaster,
		publisher:   publisher,
		chatLocks:   chatLocks,
		drafts:      drafts,
		cfg:         cfg,
		logger:      log,
		now:         time.Now,
	}
}

func (s *chatSessionService) SendMessage(ctx context.Context, userId uuid.UUID, originConnId uuid.UUID, req *dto.SendMessagePayload) error {
	run, err := s.Accept(userId, originConnId, req)
	if err != nil {
		return err
	}
	return run(ctx)
}

func (s *chatSessionService) Accept(userId uuid.UUID, originConnId uuid.UUID, req *dto.SendMessagePayload) (Exchange, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, ErrEmptyMessage
	}

	if req.ChatId != nil && strings.TrimSpace(*req.ChatId) != "" {
		chatId, parseErr := uuid.Parse(strings.TrimSpace(*req.ChatId))
		return func(ctx context.Context) error {
			if parseErr != nil {
				return ErrChatNotFound
			}
			return s.run(ctx, userId, originConnId, chatId, req)
		}, nil
	}

	claim := s.drafts.Join(userId)
	return func(ctx context.Context) error {
		defer s.drafts.Release(claim)

		chatId, err := s.resolveDraft(ctx, userId, originConnId, claim, req.CustomInstructions)
		if err != nil {
			return err
		}
		return s.run(ctx, userId, originConnId, chatId, req)
	}, nil
}

func (s *chatSessionService) run(ctx context.Context, userId, originConnId, chatId uuid.UUID, req *dto.SendMessagePayload) error {
	unlock, err := s.chatLocks.Lock(ctx, chatId)
	if err != nil {
		return err
	}
	defer unlock()

	return s.exchange(ctx, userId, originConnId, chatId, req)
}

// resolveDraft maps a draft claim to its chat, creating the chat for the
// first claim, and tells the originating connection which chat it got.
func (s *chatSessionService) resolveDraft(ctx context.Context, userId, originConnId uuid.UUID, claim *session.DraftClaim, customInstructions string) (uuid.UUID, error) {
	chatId, created, err := s.drafts.Resolve(ctx, claim, func(ctx context.Context) (uuid.UUID, error) {
		return s.createChat(ctx, userId, customInstructions)
	})
	if err != nil {
		s.logger.Error(chatSessionModule, "Failed to create chat", map[string]interface{}{
			"user_id": userId.String(),
			"error":   err.Error(),
		})
		return uuid.Nil, fmt.Errorf("%w: %v", ErrPersistFailed, err)
	}
	if created {
		s.logger.Info(chatSessionModule, "Chat created from first message", map[string]interface{}{
			"user_id": userId.String(),
			"chat_id": chatId.String(),
		})
	}

	if originConnId != uuid.Nil {
		frame, err := dto.NewSocketFrame(dto.EventChatResolved, dto.ChatResolvedPayload{ChatId: chatId, Created: created})
		if err == nil {
			s.broadcaster.SendToConn(userId, originConnId, frame)
		}
	}
	return chatId, nil
}

// createChat attaches an instruction only when customInstructions matches the
// content of one of the user's stored instructions exactly.
func (s *chatSessionService) createChat(ctx context.Context, userId uuid.UUID, customInstructions string) (uuid.UUID, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	var instructionId *uuid.UUID
	if strings.TrimSpace(customInstructions) != "" {
		ins, err := uow.InstructionRepository().FindOne(ctx,
			specification.UserOwnedBy{UserID: userId},
			specification.ByContent{Content: customInstructions},
			specification.OrderBy{Field: "created_at", Desc: false},
		)
		if err != nil {
			// Matching is best effort.
			s.logger.Warn(chatSessionModule, "Instruction lookup failed", map[string]interface{}{
				"user_id": userId.String(),
				"error":   err.Error(),
			})
		} else if ins != nil {
			instructionId = &ins.Id
		}
	}

	now := s.now().UTC().Truncate(time.Microsecond)
	chat := &entity.Chat{
		Id:            uuid.New(),
		UserId:        userId,
		InstructionId: instructionId,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := uow.ChatRepository().Create(ctx, chat); err != nil {
		return uuid.Nil, err
	}
	return chat.Id, nil
}

// exchange runs with the chat lock held.
func (s *chatSessionService) exchange(ctx context.Context, userId, originConnId, chatId uuid.UUID, req *dto.SendMessagePayload) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.ChatRepository()

	chat, err := repo.FindOne(ctx, specification.ByID{ID: chatId}, specification.UserOwnedBy{UserID: userId})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistFailed, err)
	}
	if chat == nil {
		return ErrChatNotFound
	}

	chat, userTurn, err := s.appendAndSave(ctx, repo, chat, entity.SenderUser, req.Message)
	if errors.Is(err, ErrChatNotFound) {
		return err
	}
	if err != nil {
		s.logger.Error(chatSessionModule, "Failed to persist user turn", map[string]interface{}{
			"chat_id": chatId.String(),
			"error":   err.Error(),
		})
		return fmt.Errorf("%w: %v", ErrPersistFailed, err)
	}
	// Other tabs learn about the user turn before its reply exists.
	s.broadcast(userId, originConnId, chatId, userTurn)

	// Built from the copy that was saved, which holds any turns another
	// writer added before a version conflict. The live turn is last.
	history := buildHistory(req.CustomInstructions, chat.Messages[:len(chat.Messages)-1])

	reply, err := s.complete(ctx, history, req.Message)
	if err != nil {
		s.logger.Error(chatSessionModule, "Completion failed", map[string]interface{}{
			"chat_id": chatId.String(),
			"error":   err.Error(),
		})
		s.publishActivity(ctx, chatId, userId, events.ExchangeFailed)
		return fmt.Errorf("%w: %v", ErrCompletionFailed, err)
	}

	_, botTurn, err := s.appendAndSave(ctx, repo, chat, entity.SenderBot, reply)
	if err != nil {
		s.logger.Error(chatSessionModule, "Failed to persist bot turn", map[string]interface{}{
			"chat_id": chatId.String(),
			"error":   err.Error(),
		})
		s.publishActivity(ctx, chatId, userId, events.ExchangeFailed)
		return fmt.Errorf("%w: %v", ErrPersistFailed, err)
	}
	s.broadcast(userId, uuid.Nil, chatId, botTurn)
	s.publishActivity(ctx, chatId, userId, events.ExchangeCompleted)

	return nil
}

// buildHistory returns the system turn followed by the prior transcript.
func buildHistory(customInstructions string, prior []entity.ChatMessage) []llm.Message {
	system := strings.TrimSpace(customInstructions)
	if system == "" {
		system = DefaultSystemPrompt
	}

	history := make([]llm.Message, 0, len(prior)+2)
	history = append(history, llm.Message{Role: llm.RoleSystem, Content: system})
	for _, m := range prior {
		role := llm.RoleUser
		if m.Sender == entity.SenderBot {
			role = llm.RoleAssistant
		}
		history = append(history, llm.Message{Role: role, Content: m.Content})
	}
	return history
}

func (s *chatSessionService) complete(ctx context.Context, history []llm.Message, message string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.CompletionTimeout)
	defer cancel()

	turns := append(history, llm.Message{Role: llm.RoleUser, Content: message})
	reply, err := s.llmProvider.Chat(ctx, turns, llm.WithTemperature(s.cfg.Temperature))
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(reply) == "" {
		return "", errors.New("empty completion")
	}
	return reply, nil
}

// appendAndSave appends one turn and persists the whole message sequence. A
// version conflict means another instance wrote the chat; the turn is then
// reapplied on a fresh copy.
func (s *chatSessionService) appendAndSave(ctx context.Context, repo contract.ChatRepository, chat *entity.Chat, sender, content string) (*entity.Chat, entity.ChatMessage, error) {
	for attempt := 1; ; attempt++ {
		msg := chat.Append(sender, content, s.now())

		err := repo.SaveMessages(ctx, chat)
		if err == nil {
			return chat, msg, nil
		}
		if !errors.Is(err, contract.ErrVersionConflict) || attempt >= maxSaveAttempts {
			return nil, entity.ChatMessage{}, err
		}

		fresh, err := repo.FindOne(ctx, specification.ByID{ID: chat.Id})
		if err != nil {
			return nil, entity.ChatMessage{}, err
		}
		if fresh == nil {
			return nil, entity.ChatMessage{}, ErrChatNotFound
		}
		chat = fresh
	}
}

// broadcast sends a message event to every connection of userId except
// skipConnId. uuid.Nil skips nobody.
func (s *chatSessionService) broadcast(userId, skipConnId, chatId uuid.UUID, msg entity.ChatMessage) {
	frame, err := dto.NewSocketFrame(dto.EventMessage, dto.MessageEventPayload{
		ChatId:  chatId,
		Message: toMessageResponse(msg),
	})
	if err != nil {
		s.logger.Error(chatSessionModule, "Failed to encode message event", map[string]interface{}{
			"chat_id": chatId.String(),
			"error":   err.Error(),
		})
		return
	}

	if skipConnId == uuid.Nil {
		s.broadcaster.SendToUser(userId, frame)
		return
	}
	s.broadcaster.SendToUserExcept(userId, skipConnId, frame)
}

func (s *chatSessionService) publishActivity(ctx context.Context, chatId, userId uuid.UUID, status string) {
	if s.publisher == nil {
		return
	}
	payload, err := json.Marshal(dto.ChatActivityMessage{ChatId: chatId, UserId: userId, Status: status})
	if err != nil {
		return
	}
	if err := s.publisher.Publish(ctx, payload); err != nil {
		s.logger.Warn(chatSessionModule, "Failed to publish chat activity", map[string]interface{}{
			"chat_id": chatId.String(),
			"error":   err.Error(),
		})
	}
}
