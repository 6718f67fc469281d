package bootstrap

import (
	"context"
	"log"
	"time"

	"invoicing-agent-be/internal/config"
	"invoicing-agent-be/internal/constant"
	"invoicing-agent-be/internal/controller"
	"invoicing-agent-be/internal/handler"
	"invoicing-agent-be/internal/pkg/logger"
	"invoicing-agent-be/internal/repository/memory"
	"invoicing-agent-be/internal/repository/unitofwork"
	"invoicing-agent-be/internal/service"
	"invoicing-agent-be/internal/websocket"
	"invoicing-agent-be/pkg/agent/driver"
	"invoicing-agent-be/pkg/agent/tools"
	"invoicing-agent-be/pkg/llm"
	"invoicing-agent-be/pkg/llm/factory"

	pktNats "invoicing-agent-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AgentController controller.IAgentController

	// Background Services (Exposed for main.go to run)
	InvoiceEventConsumer service.IInvoiceEventConsumer

	// WebSockets
	VoiceHandler *handler.VoiceHandler
	WebSocketHub *websocket.Hub

	Logger logger.ILogger

	closers []func()
}

func NewContainer(ctx context.Context, db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	agentLogger := logger.NewIsolatedLogger(cfg.App.AgentLogFilePath)

	c := &Container{Logger: sysLogger}

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	// 3. Infrastructure
	// NATS (optional: events stay in-process without it)
	var natsPublisher service.EventPublisher
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL, sysLogger)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	} else {
		natsPublisher = natsPub
		c.closers = append(c.closers, natsPub.Close)
	}

	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	if _, err := rdb.Ping(pingCtx).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v (websocket fan-out stays local)", err)
		_ = rdb.Close()
		rdb = nil
	} else {
		c.closers = append(c.closers, func() { _ = rdb.Close() })
	}
	cancel()

	// WebSocket Hub
	wsHub := websocket.NewHub(rdb, agentLogger)
	go wsHub.Run(ctx)
	c.WebSocketHub = wsHub

	// 4. Agent
	invoicePublisher := service.NewInvoiceEventPublisher(pubSub, cfg.App.InvoiceEventsTopic, sysLogger)
	toolkit := tools.NewToolkit(uowFactory, agentLogger, tools.WithCommitObserver(invoicePublisher))
	registry := tools.NewRegistry(toolkit, agentLogger)

	var responder service.Responder
	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.LLMBaseURL(),
		cfg.Ai.LLMApiKey,
	)
	if err != nil {
		log.Printf("[WARN] LLM provider unavailable, utterances disabled: %v", err)
	} else {
		log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)
		responder = driver.NewAgent(
			llmProvider,
			registry,
			agentLogger,
			constant.InvoiceAgentSystemPromptV1,
			constant.AgentFallbackReply,
			cfg.Agent.MaxToolRounds,
			llm.WithTemperature(cfg.Agent.Temperature),
			llm.WithMaxTokens(cfg.Agent.MaxTokens),
		)
	}

	// Sessions are evicted after the idle TTL
	sessionRepo := memory.NewSessionRepository(time.Duration(cfg.Agent.SessionTTLMinutes) * time.Minute)

	agentService := service.NewAgentService(sessionRepo, registry, responder, uowFactory, agentLogger)

	c.InvoiceEventConsumer = service.NewInvoiceEventConsumer(
		pubSub,
		cfg.App.InvoiceEventsTopic,
		natsPublisher,
		wsHub,
		sysLogger,
	)

	// 5. Transport
	c.AgentController = controller.NewAgentController(agentService)
	c.VoiceHandler = handler.NewVoiceHandler(agentService, wsHub, agentLogger)

	return c
}

// Close releases connections opened by NewContainer, newest first.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	_ = c.Logger.Sync()
}
