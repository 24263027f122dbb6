package service

import (
	"context"

	"dataset-explorer-be/internal/pkg/logger"
	"dataset-explorer-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService writes every chat event to the audit log.
type consumerService struct {
	pubSub    *gochannel.GoChannel
	topicName string
	logger    logger.ILogger
}

func NewConsumerService(pubSub *gochannel.GoChannel, topicName string, log logger.ILogger) IConsumerService {
	return &consumerService{
		pubSub:    pubSub,
		topicName: topicName,
		logger:    log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(msg *message.Message) {
	env, err := events.Decode(msg.Payload)
	if err != nil {
		cs.logger.Error("Audit", "Undecodable event", map[string]interface{}{"message_id": msg.UUID, "error": err.Error()})
		// Ack so a poison message is not redelivered forever.
		msg.Ack()
		return
	}

	cs.logger.Info("Audit", env.Type, map[string]interface{}{
		"message_id":  msg.UUID,
		"occurred_at": env.OccurredAt,
		"payload":     env.Payload,
	})
	msg.Ack()
}
