package bootstrap

import (
	"context"
	"fmt"
	"log"

	"messpal-be/internal/config"
	"messpal-be/internal/controller"
	"messpal-be/internal/handler"
	"messpal-be/internal/pkg/logger"
	"messpal-be/internal/pkg/serverutils"
	"messpal-be/internal/repository/unitofwork"
	"messpal-be/internal/service"
	"messpal-be/internal/session"
	"messpal-be/internal/websocket"
	"messpal-be/pkg/llm/factory"
	pktNats "messpal-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AuthController        controller.IAuthController
	ChatController        controller.IChatController
	InstructionController controller.IInstructionController

	// Live connections
	ChatSocketHandler *handler.ChatSocketHandler
	WebSocketHub      *websocket.Hub

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	Logger logger.ILogger

	closers []func()
}

func NewContainer(ctx context.Context, db *gorm.DB, cfg *config.Config) (*Container, error) {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	tokens := serverutils.NewTokenManager(cfg.Auth.JwtSecret, cfg.Auth.TokenTTL)
	c := &Container{Logger: sysLogger}

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)
	c.closers = append(c.closers, func() { pubSub.Close() })

	// 3. Completion backend
	llmProvider, err := factory.NewLLMProvider(ctx, cfg.Ai)
	if err != nil {
		return nil, fmt.Errorf("init llm provider: %w", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 4. Infrastructure (optional)
	// NATS
	var eventPublisher service.EventPublisher
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL, sysLogger)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			// Assigned only on success: a nil *Publisher in the interface
			// would not compare equal to nil.
			eventPublisher = natsPub
			c.closers = append(c.closers, natsPub.Close)
		}
	}

	// Redis
	var rdb *redis.Client
	if cfg.App.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{Addr: cfg.App.RedisURL}
		}
		rdb = redis.NewClient(opt)
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v. Fan-out stays local", err)
			rdb.Close()
			rdb = nil
		} else {
			c.closers = append(c.closers, func() { rdb.Close() })
		}
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger(cfg.App.SocketLogFilePath)
	wsHub := websocket.NewHub(rdb, cfg.App.InstanceID, wsLogger)

	// 5. Services
	publisherService := service.NewPublisherService(cfg.App.ActivityTopic, pubSub)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.App.ActivityTopic,
		uowFactory,
		eventPublisher,
		sysLogger,
	)

	chatSessionService := service.NewChatSessionService(
		uowFactory,
		llmProvider,
		wsHub,
		publisherService,
		session.NewKeyedLocker(),
		session.NewDraftRegistry(cfg.Realtime.DraftTTL),
		service.ChatSessionConfig{
			CompletionTimeout: cfg.Ai.CompletionTimeout,
			Temperature:       cfg.Ai.Temperature,
		},
		sysLogger,
	)

	authService := service.NewAuthService(uowFactory, tokens)
	chatService := service.NewChatService(uowFactory)
	instructionService := service.NewInstructionService(uowFactory)

	// 6. Controllers & handlers
	c.AuthController = controller.NewAuthController(authService, tokens)
	c.ChatController = controller.NewChatController(chatService, tokens)
	c.InstructionController = controller.NewInstructionController(instructionService, tokens)
	c.ChatSocketHandler = handler.NewChatSocketHandler(wsHub, tokens, chatSessionService, cfg.Realtime.SendBufferSize, wsLogger)
	c.WebSocketHub = wsHub
	c.ConsumerService = consumerService

	return c, nil
}

// Close releases broker connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.Logger.Sync()
}
