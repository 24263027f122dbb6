package bootstrap

import (
	"context"
	"time"

	"dataset-explorer-be/internal/config"
	"dataset-explorer-be/internal/controller"
	"dataset-explorer-be/internal/handler"
	"dataset-explorer-be/internal/model"
	"dataset-explorer-be/internal/pkg/logger"
	"dataset-explorer-be/internal/repository/contract"
	"dataset-explorer-be/internal/repository/implementation"
	"dataset-explorer-be/internal/repository/memory"
	"dataset-explorer-be/internal/service"
	"dataset-explorer-be/internal/websocket"
	"dataset-explorer-be/pkg/database"
	"dataset-explorer-be/pkg/explorer"
	"dataset-explorer-be/pkg/kv"
	pktNats "dataset-explorer-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const moduleName = "Bootstrap"

type Container struct {
	Logger logger.ILogger

	// Controllers
	ChatController       controller.IChatController
	CollectionController controller.ICollectionController
	DatasetController    controller.IDatasetController

	// Background services (run by main.go)
	ConsumerService service.IConsumerService
	WebSocketHub    *websocket.Hub

	ChatHandler *handler.ChatHandler

	closers []func()
}

func NewContainer(ctx context.Context, cfg *config.Config) *Container {
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	c := &Container{Logger: sysLogger}

	// 1. Event bus
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NewStdLogger(false, false))
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	var bus service.EventBus
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			sysLogger.Warn(moduleName, "NATS unavailable, events stay in-process", map[string]interface{}{"error": err.Error()})
		} else {
			bus = natsPub
			c.closers = append(c.closers, natsPub.Close)
		}
	}

	// 2. Redis (optional): cross-instance websocket fan-out and the durable chat store.
	rdb := connectRedis(ctx, cfg, sysLogger)
	if rdb != nil {
		c.closers = append(c.closers, func() { _ = rdb.Close() })
	}

	wsHub := websocket.NewHub(rdb, logger.NewIsolatedLogger("logs/websocket.log"))
	c.WebSocketHub = wsHub

	// 3. Storage
	local := chatStore(cfg, rdb, sysLogger)
	session := kv.NewMemoryStore(cfg.Chat.ViewTTL)
	views := memory.NewViewRepository(cfg.Chat.ViewTTL)
	collectionRepo := collectionRepository(cfg, sysLogger, c)

	// 4. Services
	upstream := explorer.New(cfg.Upstream.BaseURL, cfg.Upstream.Timeout, cfg.Upstream.ResultCount)

	publisherService := service.NewPublisherService(service.ChatEventsTopic, pubSub, bus, sysLogger)
	c.ConsumerService = service.NewConsumerService(pubSub, service.ChatEventsTopic, sysLogger)

	collectionService := service.NewCollectionService(collectionRepo, upstream, sysLogger)
	datasetService := service.NewDatasetService(upstream)
	chatService := service.NewChatService(
		upstream,
		views,
		local,
		session,
		collectionService,
		publisherService,
		wsHub,
		sysLogger,
		service.ChatOptions{
			SettleWindow:    cfg.Chat.SettleWindow,
			AIResponseDelay: cfg.Chat.AIResponseDelay,
		},
	)

	// 5. Controllers
	c.ChatController = controller.NewChatController(chatService)
	c.CollectionController = controller.NewCollectionController(collectionService)
	c.DatasetController = controller.NewDatasetController(datasetService)
	c.ChatHandler = handler.NewChatHandler(chatService, wsHub, sysLogger)

	return c
}

// Close releases connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	_ = c.Logger.Sync()
}

func connectRedis(ctx context.Context, cfg *config.Config, log logger.ILogger) *redis.Client {
	if cfg.App.RedisURL == "" {
		return nil
	}
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Warn(moduleName, "Failed to parse Redis URL, using it as address", map[string]interface{}{"error": err.Error()})
		opt = &redis.Options{Addr: cfg.App.RedisURL}
	}
	rdb := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Warn(moduleName, "Redis unavailable, running single-instance", map[string]interface{}{"error": err.Error()})
		_ = rdb.Close()
		return nil
	}
	return rdb
}

func chatStore(cfg *config.Config, rdb *redis.Client, log logger.ILogger) kv.Store {
	if cfg.Chat.StoreBackend == "redis" {
		if rdb != nil {
			return kv.NewRedisStore(rdb, cfg.Chat.StoreTTL)
		}
		log.Warn(moduleName, "CHAT_STORE_BACKEND=redis but Redis is unavailable, using memory", nil)
	}
	return kv.NewMemoryStore(cfg.Chat.StoreTTL)
}

func collectionRepository(cfg *config.Config, log logger.ILogger, c *Container) contract.CollectionRepository {
	if cfg.Database.Connection == "" {
		log.Info(moduleName, "No database configured, custom collections are kept in memory", nil)
		return memory.NewCollectionRepository()
	}

	db, err := openDatabase(cfg)
	if err != nil {
		log.Error(moduleName, "Database unavailable, custom collections are kept in memory", map[string]interface{}{"error": err.Error()})
		return memory.NewCollectionRepository()
	}
	c.closers = append(c.closers, func() { _ = database.Close(db) })
	return implementation.NewCollectionRepository(db)
}

func openDatabase(cfg *config.Config) (*gorm.DB, error) {
	db, err := database.Open(cfg.Database.Connection, !cfg.IsProduction(), database.DefaultPool)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db, &model.Collection{}); err != nil {
		_ = database.Close(db)
		return nil, err
	}
	return db, nil
}
