package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"messpal-be/internal/dto"
	"messpal-be/internal/entity"
	"messpal-be/internal/pkg/logger"
	"messpal-be/internal/pkg/testdb"
	"messpal-be/internal/repository/specification"
	"messpal-be/internal/repository/unitofwork"
	"messpal-be/internal/session"
	"messpal-be/pkg/llm"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type sentFrame struct {
	userId uuid.UUID
	except uuid.UUID
	event  string
	data   dto.MessageEventPayload
}

type sentAck struct {
	userId uuid.UUID
	connId uuid.UUID
	data   dto.ChatResolvedPayload
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	frames []sentFrame
	acks   []sentAck
}

func (b *recordingBroadcaster) record(userId, except uuid.UUID, frame []byte) {
	var env dto.SocketEnvelope
	if err := json.Unmarshal(frame, &env); err != nil {
		panic(err)
	}
	var data dto.MessageEventPayload
	_ = json.Unmarshal(env.Data, &data)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.frames = append(b.frames, sentFrame{userId: userId, except: except, event: env.Event, data: data})
}

func (b *recordingBroadcaster) SendToUser(userId uuid.UUID, frame []byte) {
	b.record(userId, uuid.Nil, frame)
}

func (b *recordingBroadcaster) SendToUserExcept(userId uuid.UUID, exceptConnId uuid.UUID, frame []byte) {
	b.record(userId, exceptConnId, frame)
}

// SendToConn only ever carries chatResolved events.
func (b *recordingBroadcaster) SendToConn(userId uuid.UUID, connId uuid.UUID, frame []byte) {
	var env dto.SocketEnvelope
	if err := json.Unmarshal(frame, &env); err != nil {
		panic(err)
	}
	if env.Event != dto.EventChatResolved {
		panic("unexpected direct event " + env.Event)
	}
	var data dto.ChatResolvedPayload
	if err := json.Unmarshal(env.Data, &data); err != nil {
		panic(err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.acks = append(b.acks, sentAck{userId: userId, connId: connId, data: data})
}

func (b *recordingBroadcaster) Acks() []sentAck {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]sentAck(nil), b.acks...)
}

func (b *recordingBroadcaster) Frames() []sentFrame {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]sentFrame(nil), b.frames...)
}

// scriptedLLM answers through reply, recording every call.
type scriptedLLM struct {
	mu    sync.Mutex
	calls [][]llm.Message
	reply func(ctx context.Context, history []llm.Message) (string, error)
}

func (p *scriptedLLM) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	p.mu.Lock()
	p.calls = append(p.calls, append([]llm.Message(nil), history...))
	p.mu.Unlock()
	return p.reply(ctx, history)
}

func (p *scriptedLLM) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, opts...)
}

func (p *scriptedLLM) Calls() [][]llm.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][]llm.Message(nil), p.calls...)
}

func echoReply(ctx context.Context, history []llm.Message) (string, error) {
	return "re: " + history[len(history)-1].Content, nil
}

type recordingPublisher struct {
	mu       sync.Mutex
	payloads []dto.ChatActivityMessage
}

func (p *recordingPublisher) Publish(ctx context.Context, payload []byte) error {
	var msg dto.ChatActivityMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.payloads = append(p.payloads, msg)
	return nil
}

func (p *recordingPublisher) Payloads() []dto.ChatActivityMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]dto.ChatActivityMessage(nil), p.payloads...)
}

type sessionFixture struct {
	uowFactory  unitofwork.RepositoryFactory
	llm         *scriptedLLM
	broadcaster *recordingBroadcaster
	publisher   *recordingPublisher
	svc         IChatSessionService
}

func newSessionFixture(t *testing.T, reply func(ctx context.Context, history []llm.Message) (string, error)) *sessionFixture {
	t.Helper()
	if reply == nil {
		reply = echoReply
	}

	f := &sessionFixture{
		uowFactory:  unitofwork.NewRepositoryFactory(testdb.New(t)),
		llm:         &scriptedLLM{reply: reply},
		broadcaster: &recordingBroadcaster{},
		publisher:   &recordingPublisher{},
	}
	f.svc = NewChatSessionService(
		f.uowFactory,
		f.llm,
		f.broadcaster,
		f.publisher,
		session.NewKeyedLocker(),
		session.NewDraftRegistry(time.Minute),
		ChatSessionConfig{CompletionTimeout: time.Second, Temperature: 0.7},
		logger.NewNopLogger(),
	)
	return f
}

func (f *sessionFixture) createUser(t *testing.T, name string) *entity.User {
	t.Helper()
	user := &entity.User{Id: uuid.New(), Username: name, Email: name + "@example.com", PasswordHash: "x", CreatedAt: time.Now()}
	require.NoError(t, f.uowFactory.NewUnitOfWork(context.Background()).UserRepository().Create(context.Background(), user))
	return user
}

func (f *sessionFixture) chatsOf(t *testing.T, userId uuid.UUID) []*entity.Chat {
	t.Helper()
	uow := f.uowFactory.NewUnitOfWork(context.Background())
	summaries, err := NewChatService(f.uowFactory).List(context.Background(), userId)
	require.NoError(t, err)

	chats := make([]*entity.Chat, 0, len(summaries))
	for _, s := range summaries {
		chat, err := uow.ChatRepository().FindOne(context.Background(), specification.ByID{ID: s.Id})
		require.NoError(t, err)
		chats = append(chats, chat)
	}
	return chats
}

func strPtr(s string) *string {
	return &s
}
