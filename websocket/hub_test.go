package websocket

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/aeristo/airlog/events"
	"github.com/aeristo/airlog/schema"
)

func newTestHub(t *testing.T) (*Hub, *websocket.Conn, func()) {
	t.Helper()
	logger := logrus.New()

	hub := NewHub(logger)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	server := httptest.NewServer(HandleSubscribe(hub, logger))
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)

	return hub, conn, func() {
		conn.Close()
		cancel()
		server.Close()
	}
}

func waitForClients(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for hub.ClientCount() != want {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d clients, have %d", want, hub.ClientCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHub_BroadcastReachesSubscribedClient(t *testing.T) {
	hub, conn, teardown := newTestHub(t)
	defer teardown()
	waitForClients(t, hub, 1)

	temperature := 21.3
	hub.BroadcastMeasurementAdded(&schema.Measurement{
		ID:              primitive.NewObjectID(),
		MeasurementDate: "2021-06-01T00:00:00",
		Temperature:     &temperature,
	})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	var frame Message
	require.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, MessageTypeMeasurementAdded, frame.Type)

	data := frame.Data.(map[string]interface{})
	assert.Equal(t, "2021-06-01T00:00:00", data["measurementDate"])
	assert.Equal(t, 21.3, data["temperature"])
}

func TestHub_ConsumeBridgesBusEvents(t *testing.T) {
	logger := logrus.New()
	hub, conn, teardown := newTestHub(t)
	defer teardown()
	waitForClients(t, hub, 1)

	bus := events.NewBus(logger)
	defer bus.Close()

	messages, err := bus.SubscribeMeasurementAdded(context.Background())
	require.NoError(t, err)
	go hub.Consume(messages)

	humidity := 55.4
	bus.PublishMeasurementAdded(&schema.Measurement{
		ID:              primitive.NewObjectID(),
		MeasurementDate: "2021-03-01T00:00:00",
		Humidity:        &humidity,
	})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	var frame Message
	require.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, MessageTypeMeasurementAdded, frame.Type)
	assert.Equal(t, "2021-03-01T00:00:00", frame.Data.(map[string]interface{})["measurementDate"])
}

func TestHub_DropsSlowClientWithoutBlockingPublisher(t *testing.T) {
	logger := logrus.New()
	hub := NewHub(logger)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	// A client whose send channel is never drained: no pumps running.
	slow := &Client{hub: hub, send: make(chan Message, 1)}
	hub.register <- slow
	waitForClients(t, hub, 1)

	published := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			hub.BroadcastMeasurementAdded(&schema.Measurement{
				ID:              primitive.NewObjectID(),
				MeasurementDate: "2021-06-01T00:00:00",
			})
		}
		close(published)
	}()

	select {
	case <-published:
	case <-time.After(time.Second):
		t.Fatal("publisher blocked on a slow client")
	}

	// The stalled client gets cut loose instead of stalling delivery.
	waitForClients(t, hub, 0)
}

func TestHub_CancelClosesClients(t *testing.T) {
	logger := logrus.New()
	hub := NewHub(logger)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	server := httptest.NewServer(HandleSubscribe(hub, logger))
	defer server.Close()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	waitForClients(t, hub, 1)

	cancel()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure) ||
				websocket.IsUnexpectedCloseError(err), "expected a close, got %v", err)
			break
		}
	}
}
