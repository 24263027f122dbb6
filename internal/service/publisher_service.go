package service

import (
	"context"
	"fmt"

	"dataset-explorer-be/internal/pkg/logger"
	"dataset-explorer-be/pkg/events"
	pktNats "dataset-explorer-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IPublisherService interface {
	Publish(ctx context.Context, event events.Event) error
}

// EventBus is the external bus; *nats.Publisher satisfies it.
type EventBus interface {
	Publish(ctx context.Context, event events.Event) error
}

var _ EventBus = (*pktNats.Publisher)(nil)

type publisherService struct {
	topicName string
	pubSub    *gochannel.GoChannel
	bus       EventBus
	logger    logger.ILogger
}

// NewPublisherService publishes to the in-process topic and, when bus is not nil, to the external bus.
// A failing external bus is logged and does not fail the publication.
func NewPublisherService(topicName string, pubSub *gochannel.GoChannel, bus EventBus, log logger.ILogger) IPublisherService {
	return &publisherService{
		topicName: topicName,
		pubSub:    pubSub,
		bus:       bus,
		logger:    log,
	}
}

func (p *publisherService) Publish(ctx context.Context, event events.Event) error {
	payload, err := events.Encode(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := p.pubSub.Publish(p.topicName, msg); err != nil {
		return fmt.Errorf("publish to %s: %w", p.topicName, err)
	}

	if p.bus != nil {
		if err := p.bus.Publish(ctx, event); err != nil {
			p.logger.Warn("Publisher", "External bus publish failed", map[string]interface{}{
				"type": event.EventType(), "error": err.Error(),
			})
		}
	}
	return nil
}
