package bootstrap

import (
	"context"
	"fmt"

	"lucide-core/internal/config"
	"lucide-core/internal/controller"
	"lucide-core/internal/handler"
	"lucide-core/internal/pkg/logger"
	"lucide-core/internal/pkg/mailer"
	"lucide-core/internal/repository/memory"
	"lucide-core/internal/repository/unitofwork"
	"lucide-core/internal/service"
	"lucide-core/internal/websocket"
	"lucide-core/pkg/actions"
	"lucide-core/pkg/agent"
	"lucide-core/pkg/capabilities"
	"lucide-core/pkg/capture"
	"lucide-core/pkg/document"
	"lucide-core/pkg/embedding"
	"lucide-core/pkg/llm/factory"
	pktNats "lucide-core/pkg/nats"
	"lucide-core/pkg/rag"
	"lucide-core/pkg/rag/vectorstore"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Window frame that cancels the active request.
const frameCancel = "ask:cancel"

type Container struct {
	// Controllers
	AskController      controller.IAskController
	DocumentController controller.IDocumentController
	SessionController  controller.ISessionController
	SystemController   controller.ISystemController

	// Background services (run by main.go)
	ConsumerService service.IConsumerService
	SyncService     service.ISyncService

	// WebSockets
	AskSocketHandler *handler.AskSocketHandler
	WebSocketHub     *websocket.Hub

	Logger logger.ILogger

	closers []func()
}

func NewContainer(db *gorm.DB, cfg *config.Config) (*Container, error) {
	// 1. Core facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	socketLogger := logger.NewIsolatedLogger(cfg.App.SocketLogFilePath)
	c := &Container{Logger: sysLogger}

	// 2. In-process queue for document indexing
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 64},
		watermill.NewStdLogger(false, false),
	)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	// 3. Model providers
	embeddingProvider, err := embedding.NewProvider(
		cfg.Ai.EmbeddingProvider,
		cfg.Ai.OllamaBaseURL,
		cfg.EmbeddingAPIKey(),
		cfg.Ai.EmbeddingModel,
	)
	if err != nil {
		return nil, fmt.Errorf("embedding provider: %w", err)
	}
	sysLogger.Info("BOOTSTRAP", "Using embedding provider", map[string]interface{}{
		"provider": cfg.Ai.EmbeddingProvider,
		"model":    cfg.Ai.EmbeddingModel,
	})

	llmProvider, err := factory.NewLLMProvider(cfg.Ai.LLMProvider, cfg.Ai.LLMModel, cfg.LLMBaseURL(), cfg.LLMAPIKey())
	if err != nil {
		return nil, fmt.Errorf("llm provider: %w", err)
	}
	streamClient, err := factory.NewStreamClient(cfg.Ai.LLMProvider, cfg.LLMBaseURL(), cfg.LLMAPIKey(), cfg.Ai.LLMModel)
	if err != nil {
		return nil, fmt.Errorf("stream client: %w", err)
	}
	sysLogger.Info("BOOTSTRAP", "Using LLM provider", map[string]interface{}{
		"provider": cfg.Ai.LLMProvider,
		"model":    cfg.Ai.LLMModel,
		"base_url": cfg.LLMBaseURL(),
	})

	caps, err := capabilities.NewRegistry()
	if err != nil {
		return nil, fmt.Errorf("capabilities: %w", err)
	}

	// 4. Vector store
	var store vectorstore.Store
	switch cfg.Rag.VectorStore {
	case "chromem":
		chromemStore, err := vectorstore.NewChromemStore(cfg.Rag.ChromemPath)
		if err != nil {
			return nil, fmt.Errorf("chromem store: %w", err)
		}
		store = chromemStore
	default:
		store = vectorstore.NewPgvectorStore(uowFactory)
	}
	sysLogger.Info("BOOTSTRAP", "Using vector store", map[string]interface{}{"store": cfg.Rag.VectorStore})

	// 5. Infrastructure. Both are optional for a single-window desktop.
	var eventPublisher service.EventPublisher
	var natsSub *pktNats.Subscriber
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL, sysLogger)
		if err != nil {
			sysLogger.Warn("BOOTSTRAP", "Failed to connect NATS publisher", map[string]interface{}{"error": err.Error()})
		} else {
			eventPublisher = natsPub
			c.closers = append(c.closers, natsPub.Close)
		}
		natsSub, err = pktNats.NewSubscriber(cfg.App.NatsURL, sysLogger)
		if err != nil {
			sysLogger.Warn("BOOTSTRAP", "Failed to connect NATS subscriber", map[string]interface{}{"error": err.Error()})
			natsSub = nil
		} else {
			c.closers = append(c.closers, natsSub.Close)
		}
	}

	var rdb *redis.Client
	if cfg.App.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			sysLogger.Warn("BOOTSTRAP", "Failed to parse Redis URL, using it as address", map[string]interface{}{"error": err.Error()})
			opt = &redis.Options{Addr: cfg.App.RedisURL}
		}
		rdb = redis.NewClient(opt)
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			sysLogger.Warn("BOOTSTRAP", "Failed to connect to Redis, window fan-out stays local", map[string]interface{}{"error": err.Error()})
			_ = rdb.Close()
			rdb = nil
		} else {
			c.closers = append(c.closers, func() { _ = rdb.Close() })
		}
	}

	hub := websocket.NewHub(rdb, socketLogger)

	// 6. Documents and knowledge base
	ocr := document.NewOCRCodec(cfg.Document.TesseractPath, cfg.Document.OCRLanguages)
	extractor := document.NewExtractor(document.DefaultRegistry(ocr))

	documentService := service.NewDocumentService(uowFactory, extractor, store, eventPublisher, cfg.Document, sysLogger)
	sessionService := service.NewSessionService(uowFactory, store)

	indexer := rag.NewIndexer(store, embeddingProvider, documentService, sessionService, ocr, sysLogger)
	retriever := rag.NewRetriever(store, embeddingProvider, documentService)

	publisherService := service.NewPublisherService(pubSub, cfg.Ai.IndexTopic)
	consumerService := service.NewConsumerService(pubSub, cfg.Ai.IndexTopic, documentService, indexer, eventPublisher, sysLogger)

	// 7. Agents and actions
	catalog := agent.DefaultCatalog()
	profiles := agent.NewProfileStore(catalog, memory.NewProfileRepository())

	executor := actions.NewExecutor(sysLogger)
	executor.Register(actions.KindEmail, actions.NewEmailHandler(mailer.NewEmailService(cfg.SMTP, cfg.Actions)))
	executor.Register(actions.KindTask, actions.NewTaskLog(cfg.Actions.TaskFile))
	executor.Register(actions.KindProfileSwitch, actions.NewProfileSwitchHandler(profiles, hub))
	notify := actions.NewNotifyHandler(hub)
	executor.Register(actions.KindUploadRequest, notify)
	executor.Register(actions.KindQuery, notify)

	capturer := capture.NewCapturer()
	capturer.Logger = func(msg string, err error) {
		details := map[string]interface{}{}
		if err != nil {
			details["error"] = err.Error()
		}
		sysLogger.Warn("CAPTURE", msg, details)
	}

	usageService := service.NewUsageService(uowFactory)

	askService := service.NewAskService(service.AskDeps{
		Client:       streamClient,
		Sessions:     sessionService,
		Knowledge:    retriever,
		Router:       agent.NewRouter(catalog),
		Profiles:     profiles,
		Actions:      executor,
		Capabilities: caps,
		Capturer:     capturer,
		Titles:       service.NewTitleService(llmProvider, sysLogger),
		Usage:        usageService,
		Citations:    service.NewCitationService(uowFactory),
		Indexer:      service.NewAutoIndexService(indexer, sysLogger),
		Events:       eventPublisher,
		Observer:     hub,
		Logger:       sysLogger,
	}, cfg.Ask, cfg.Rag)

	hub.OnLastDisconnect(func(userID uuid.UUID) {
		askService.CancelActiveFor(userID, service.ErrWindowClosed)
	})
	hub.OnFrame(func(userID uuid.UUID, frame websocket.Frame) {
		if frame.Type == frameCancel {
			askService.CancelActiveFor(userID, service.ErrUserCancelled)
		}
	})

	if natsSub != nil {
		c.SyncService = service.NewSyncService(natsSub, hub, "", socketLogger)
	}

	// 8. Controllers
	c.AskController = controller.NewAskController(askService)
	c.DocumentController = controller.NewDocumentController(documentService, publisherService, retriever, sysLogger)
	c.SessionController = controller.NewSessionController(sessionService, usageService, profiles, eventPublisher)
	c.SystemController = controller.NewSystemController(sysLogger, documentService)
	c.AskSocketHandler = handler.NewAskSocketHandler(hub, cfg.Keys.JwtSecret, socketLogger)
	c.WebSocketHub = hub
	c.ConsumerService = consumerService

	return c, nil
}

// Close releases bus and cache connections in reverse order.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}
