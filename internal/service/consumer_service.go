package service

import (
	"context"
	"encoding/json"

	"ai-companion-be/internal/dto"
	"ai-companion-be/internal/pkg/logger"
	"ai-companion-be/internal/repository/memory"
	"ai-companion-be/internal/repository/specification"
	"ai-companion-be/internal/repository/unitofwork"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// CompanionFeed receives every newly created companion.
type CompanionFeed interface {
	BroadcastCompanion(companion *dto.CompanionResponse)
}

type consumerService struct {
	pubSub       *gochannel.GoChannel
	topicName    string
	uowFactory   unitofwork.RepositoryFactory
	listingCache *memory.ListingCache
	feed         CompanionFeed
	logger       logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	listingCache *memory.ListingCache,
	feed CompanionFeed,
	logger logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:       pubSub,
		topicName:    topicName,
		uowFactory:   uowFactory,
		listingCache: listingCache,
		feed:         feed,
		logger:       logger,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
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

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishCompanionCreatedMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("CONSUMER", "Failed to unmarshal message", map[string]interface{}{"error": err.Error()})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	cs.listingCache.Invalidate()

	uow := cs.uowFactory.NewUnitOfWork(ctx)
	companion, err := uow.CompanionRepository().FindOne(ctx, specification.ByID{ID: payload.CompanionId})
	if err != nil {
		cs.logger.Error("CONSUMER", "Failed to load companion", map[string]interface{}{
			"companion_id": payload.CompanionId,
			"error":        err.Error(),
		})
		msg.Nack()
		return
	}
	if companion == nil {
		cs.logger.Warn("CONSUMER", "Companion vanished before broadcast", map[string]interface{}{
			"companion_id": payload.CompanionId,
		})
		msg.Ack()
		return
	}

	if cs.feed != nil {
		cs.feed.BroadcastCompanion(ToCompanionResponse(companion))
	}
	cs.logger.Info("CONSUMER", "Companion broadcast", map[string]interface{}{
		"companion_id": companion.Id,
		"subject":      companion.Subject,
	})
	msg.Ack()
}
