package bootstrap

import (
	"context"
	"log"

	"ai-companion-be/internal/config"
	"ai-companion-be/internal/controller"
	"ai-companion-be/internal/handler"
	"ai-companion-be/internal/pkg/logger"
	"ai-companion-be/internal/pkg/serverutils"
	"ai-companion-be/internal/repository/memory"
	"ai-companion-be/internal/repository/unitofwork"
	"ai-companion-be/internal/service"
	"ai-companion-be/internal/websocket"
	companionEvents "ai-companion-be/pkg/companion/events"

	pktNats "ai-companion-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	CompanionController controller.ICompanionController

	// Handlers
	CompanionFormHandler *handler.CompanionFormHandler
	SubjectFilterHandler *handler.SubjectFilterHandler
	FeedHandler          *handler.FeedHandler

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService
	WebSocketHub    *websocket.Hub

	closers []func()
}

// NewContainer wires every dependency. Background loops stop when ctx is done.
func NewContainer(ctx context.Context, db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	serverutils.RegisterSubjects(cfg.Companion.Subjects)

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. Infrastructure
	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
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
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v. Live feed stays local", err)
		rdb.Close()
		rdb = nil
	}

	// WebSocket Hub
	feedLogger := logger.NewIsolatedLogger(cfg.App.FeedLogFilePath)
	wsHub := websocket.NewHub(rdb, cfg.Companion.FilterSentinel, feedLogger)
	go wsHub.Run(ctx)

	// 4. Services
	listingCache := memory.NewListingCache(cfg.Companion.ListCacheTTL)
	publisherService := service.NewPublisherService(cfg.Companion.EventTopic, pubSub)
	eventPublisher := companionEvents.NewNatsPublisher(natsPub, sysLogger)

	companionService := service.NewCompanionService(
		uowFactory,
		publisherService,
		eventPublisher,
		listingCache,
		cfg.Companion.FilterSentinel,
		sysLogger,
	)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.Companion.EventTopic,
		uowFactory,
		listingCache,
		wsHub, // Hub implements CompanionFeed
		sysLogger,
	)

	c := &Container{
		CompanionController:  controller.NewCompanionController(companionService),
		CompanionFormHandler: handler.NewCompanionFormHandler(companionService, cfg.Companion, sysLogger),
		SubjectFilterHandler: handler.NewSubjectFilterHandler(companionService, cfg.Companion, sysLogger),
		FeedHandler:          handler.NewFeedHandler(wsHub, cfg.Companion.FilterKey, cfg.Companion.FilterSentinel, feedLogger),

		ConsumerService: consumerService,
		WebSocketHub:    wsHub,
	}

	c.closers = append(c.closers, func() { _ = pubSub.Close() })
	if natsPub != nil {
		c.closers = append(c.closers, natsPub.Close)
	}
	if rdb != nil {
		c.closers = append(c.closers, func() { _ = rdb.Close() })
	}
	c.closers = append(c.closers, func() {
		_ = sysLogger.Sync()
		_ = feedLogger.Sync()
	})
	return c
}

// Close releases broker connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}
