package service

import (
	"context"
	"time"

	"cv-evaluator-be/internal/pkg/logger"
	"cv-evaluator-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
)

// EventForwarder exports an encoded lifecycle event outside the process.
type EventForwarder interface {
	PublishRaw(ctx context.Context, eventType, msgID string, data []byte) error
}

type IEventRelayService interface {
	Consume(ctx context.Context) error
}

type eventRelayService struct {
	subscriber message.Subscriber
	topicName  string
	forwarder  EventForwarder
	logger     logger.ILogger
}

// NewEventRelayService logs every lifecycle event and, when forwarder is
// non-nil, pushes it to NATS.
func NewEventRelayService(
	subscriber message.Subscriber,
	topicName string,
	forwarder EventForwarder,
	logger logger.ILogger,
) IEventRelayService {
	return &eventRelayService{
		subscriber: subscriber,
		topicName:  topicName,
		forwarder:  forwarder,
		logger:     logger,
	}
}

func (rs *eventRelayService) Consume(ctx context.Context) error {
	messages, err := rs.subscriber.Subscribe(ctx, rs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			rs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (rs *eventRelayService) processMessage(ctx context.Context, msg *message.Message) {
	event, err := events.Decode(msg.Payload)
	if err != nil {
		rs.logger.Error("EVENTS", "Dropping malformed event", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err.Error(),
		})
		msg.Ack()
		return
	}

	rs.logger.Info("EVENTS", event.EventType(), event.Payload())

	if rs.forwarder == nil {
		msg.Ack()
		return
	}

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rs.forwarder.PublishRaw(pubCtx, event.EventType(), msg.UUID, msg.Payload); err != nil {
		// Export is best effort; a NATS outage must not stall the bus.
		rs.logger.Warn("EVENTS", "Failed to forward event to NATS", map[string]interface{}{
			"event_type": event.EventType(),
			"error":      err.Error(),
		})
	}
	msg.Ack()
}
