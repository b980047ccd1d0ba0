package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"ai-companion-be/internal/dto"
	"ai-companion-be/internal/pkg/logger"
	"ai-companion-be/internal/repository/memory"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFeed struct {
	mu   sync.Mutex
	sent []*dto.CompanionResponse
}

func (f *fakeFeed) BroadcastCompanion(c *dto.CompanionResponse) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
}

func (f *fakeFeed) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func TestConsumerService_BroadcastsAndInvalidates(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	f := newServiceFixture()
	seeded := f.seed("history", "Chrono", "Rome", time.Minute)
	cache := memory.NewListingCache(time.Minute)
	cache.Save(dto.ListCompanionsQuery{Page: 1, Limit: 12}, &dto.ListCompanionsResponse{})
	feed := &fakeFeed{}

	consumer := NewConsumerService(pubSub, "COMPANION_CREATED", f.store, cache, feed, logger.NewNopLogger())
	require.NoError(t, consumer.Consume(ctx))

	payload, _ := json.Marshal(dto.PublishCompanionCreatedMessage{CompanionId: seeded.Id, Subject: seeded.Subject})
	require.NoError(t, NewPublisherService("COMPANION_CREATED", pubSub).Publish(ctx, payload))

	assert.Eventually(t, func() bool { return feed.count() == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, cache.Len())

	feed.mu.Lock()
	assert.Equal(t, seeded.Id, feed.sent[0].Id)
	feed.mu.Unlock()
}

func TestConsumerService_InvalidPayloadIsAcked(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Publish returns only once the subscriber acks.
	pubSub := gochannel.NewGoChannel(gochannel.Config{BlockPublishUntilSubscriberAck: true}, watermill.NopLogger{})
	defer pubSub.Close()

	f := newServiceFixture()
	feed := &fakeFeed{}
	consumer := NewConsumerService(pubSub, "COMPANION_CREATED", f.store, memory.NewListingCache(time.Minute), feed, logger.NewNopLogger())
	require.NoError(t, consumer.Consume(ctx))

	done := make(chan error, 1)
	go func() {
		done <- pubSub.Publish("COMPANION_CREATED", message.NewMessage(watermill.NewUUID(), []byte("{not json")))
	}()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("invalid message was not acked")
	}
	assert.Equal(t, 0, feed.count())
}
