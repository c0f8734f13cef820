package events

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Bus publishes events onto one watermill topic.
type Bus struct {
	pub   message.Publisher
	topic string
}

var _ Publisher = &Bus{}

func NewBus(pub message.Publisher, topic string) *Bus {
	return &Bus{pub: pub, topic: topic}
}

func (b *Bus) Publish(ctx context.Context, event Event) error {
	payload, err := Encode(event)
	if err != nil {
		return err
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	msg.Metadata.Set("event_type", event.EventType())
	return b.pub.Publish(b.topic, msg)
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, Event) error { return nil }

// NopPublisher drops every event.
func NopPublisher() Publisher { return nopPublisher{} }
