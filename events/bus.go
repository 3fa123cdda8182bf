// Package events carries the fire-and-forget publication hook for
// created measurements. Delivery is in-process and best effort: a
// failed publish is logged, never surfaced to the write pipeline.
package events

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/sirupsen/logrus"

	"github.com/aeristo/airlog/schema"
)

// TopicMeasurementAdded is published once per persisted measurement.
const TopicMeasurementAdded = "measurement.added"

// Bus is an in-process pub/sub over a Watermill GoChannel.
type Bus struct {
	pubsub *gochannel.GoChannel
	logger *logrus.Logger
}

func NewBus(logger *logrus.Logger) *Bus {
	return &Bus{
		pubsub: gochannel.NewGoChannel(gochannel.Config{}, newLoggerAdapter(logger)),
		logger: logger,
	}
}

// PublishMeasurementAdded sends the JSON-encoded measurement to every
// subscriber. Errors are swallowed after logging.
func (b *Bus) PublishMeasurementAdded(m *schema.Measurement) {
	payload, err := json.Marshal(m)
	if err != nil {
		b.logger.Warnf("events: marshal measurement %s: %v", m.ID.Hex(), err)
		return
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := b.pubsub.Publish(TopicMeasurementAdded, msg); err != nil {
		b.logger.Warnf("events: publish measurement %s: %v", m.ID.Hex(), err)
	}
}

// SubscribeMeasurementAdded returns a channel of raw measurement
// payloads. The subscription ends when ctx is cancelled.
func (b *Bus) SubscribeMeasurementAdded(ctx context.Context) (<-chan *message.Message, error) {
	return b.pubsub.Subscribe(ctx, TopicMeasurementAdded)
}

func (b *Bus) Close() error {
	return b.pubsub.Close()
}
