package events

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_RoundTripsThroughGoChannel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	messages, err := pubSub.Subscribe(ctx, "cv_sessions")
	require.NoError(t, err)

	bus := NewBus(pubSub, "cv_sessions")
	require.NoError(t, bus.Publish(ctx, New("CV_SESSION_CREATED", map[string]interface{}{
		"sessionId": "abc",
	})))

	select {
	case msg := <-messages:
		msg.Ack()
		assert.Equal(t, "CV_SESSION_CREATED", msg.Metadata.Get("event_type"))

		event, err := Decode(msg.Payload)
		require.NoError(t, err)
		assert.Equal(t, "CV_SESSION_CREATED", event.EventType())
		assert.Equal(t, "abc", event.Payload()["sessionId"])
		assert.False(t, event.Timestamp().IsZero())
	case <-ctx.Done():
		t.Fatal("no message received")
	}
}

func TestDecode_RejectsUntyped(t *testing.T) {
	_, err := Decode([]byte(`{"data":{}}`))
	assert.Error(t, err)

	_, err = Decode([]byte(`not json`))
	assert.Error(t, err)
}
