package events

import (
	"context"
	"time"

	"ai-companion-be/internal/entity"
	"ai-companion-be/internal/pkg/logger"
	pkgEvents "ai-companion-be/pkg/events"
	pktNats "ai-companion-be/pkg/nats"
)

// Publisher abstracts outbound domain events for companions
type Publisher interface {
	PublishCompanionCreated(ctx context.Context, companion *entity.Companion)
}

// Sink is the part of the NATS publisher this package needs.
type Sink interface {
	Publish(ctx context.Context, event pkgEvents.Event) error
}

// NatsPublisher implements Publisher on top of a NATS sink. A nil sink turns
// every publish into a no-op so the service runs without a broker.
type NatsPublisher struct {
	sink   Sink
	logger logger.ILogger
}

func NewNatsPublisher(publisher *pktNats.Publisher, logger logger.ILogger) *NatsPublisher {
	p := &NatsPublisher{logger: logger}
	if publisher != nil {
		p.sink = publisher
	}
	return p
}

// NewSinkPublisher is NewNatsPublisher for any Sink.
func NewSinkPublisher(sink Sink, logger logger.ILogger) *NatsPublisher {
	return &NatsPublisher{sink: sink, logger: logger}
}

// PublishCompanionCreated emits COMPANION_CREATED
func (p *NatsPublisher) PublishCompanionCreated(ctx context.Context, companion *entity.Companion) {
	if p.sink == nil || companion == nil {
		return
	}

	data := map[string]interface{}{
		"companion_id": companion.Id.String(),
		"name":         companion.Name,
		"subject":      companion.Subject,
		"topic":        companion.Topic,
		"duration":     companion.Duration,
		"entity_type":  "companion",
		"entity_id":    companion.Id.String(),
	}
	if companion.AuthorId != nil {
		data["author_id"] = companion.AuthorId.String()
	}

	evt := pkgEvents.BaseEvent{
		Type:       pkgEvents.CompanionCreated,
		Data:       data,
		OccurredAt: time.Now(),
	}

	if err := p.sink.Publish(ctx, evt); err != nil {
		p.logger.Error("COMPANION", "Failed to publish COMPANION_CREATED event", map[string]interface{}{"error": err.Error()})
	}
}
