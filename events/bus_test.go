package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/aeristo/airlog/schema"
)

func TestBus_PublishReachesSubscriber(t *testing.T) {
	bus := NewBus(logrus.New())
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	messages, err := bus.SubscribeMeasurementAdded(ctx)
	require.NoError(t, err)

	temperature := 21.3
	published := &schema.Measurement{
		ID:              primitive.NewObjectID(),
		MeasurementDate: "2021-06-01T00:00:00",
		Temperature:     &temperature,
	}
	bus.PublishMeasurementAdded(published)

	select {
	case msg := <-messages:
		var received schema.Measurement
		require.NoError(t, json.Unmarshal(msg.Payload, &received))
		assert.Equal(t, published.ID, received.ID)
		assert.Equal(t, published.MeasurementDate, received.MeasurementDate)
		msg.Ack()
	case <-time.After(time.Second):
		t.Fatal("no measurement received within 1s")
	}
}

func TestBus_PublishWithoutSubscribersDoesNotBlock(t *testing.T) {
	bus := NewBus(logrus.New())
	defer bus.Close()

	done := make(chan struct{})
	go func() {
		bus.PublishMeasurementAdded(&schema.Measurement{MeasurementDate: "2021-06-01T00:00:00"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked with no subscribers")
	}
}
