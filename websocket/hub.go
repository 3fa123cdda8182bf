// Package websocket pushes measurementAdded frames to subscribed
// clients. Delivery is best effort: a client that cannot keep up is
// dropped rather than allowed to stall the broadcast.
package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/sirupsen/logrus"

	"github.com/aeristo/airlog/schema"
)

// MessageTypeMeasurementAdded tags frames carrying a new measurement.
const MessageTypeMeasurementAdded = "measurementAdded"

// Message is the frame sent to subscribed clients.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Hub maintains the set of active clients and broadcasts frames to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Message
	register   chan *Client
	unregister chan *Client
	logger     *logrus.Logger
	mu         sync.RWMutex
}

func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger,
	}
}

// Run owns the client set until ctx is cancelled, at which point every
// remaining client is closed.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAllClients()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.logger.Infof("websocket: client connected, %d active", h.ClientCount())

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			h.logger.Infof("websocket: client disconnected, %d active", h.ClientCount())

		case frame := <-h.broadcast:
			h.broadcastToClients(frame)
		}
	}
}

// Consume turns bus messages into measurementAdded frames until the
// channel closes. Meant to run as a goroutine next to Run.
func (h *Hub) Consume(messages <-chan *message.Message) {
	for msg := range messages {
		var m schema.Measurement
		if err := json.Unmarshal(msg.Payload, &m); err != nil {
			h.logger.Warnf("websocket: drop unreadable event payload: %v", err)
			msg.Ack()
			continue
		}
		h.BroadcastMeasurementAdded(&m)
		msg.Ack()
	}
}

// BroadcastMeasurementAdded queues a frame for every connected client.
// Dropped with a log line when the broadcast queue is full.
func (h *Hub) BroadcastMeasurementAdded(m *schema.Measurement) {
	frame := Message{Type: MessageTypeMeasurementAdded, Data: m}
	select {
	case h.broadcast <- frame:
	default:
		h.logger.Warn("websocket: broadcast queue full, dropping frame")
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) broadcastToClients(frame Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		select {
		case client.send <- frame:
		default:
			// Slow client, cut it loose.
			close(client.send)
			delete(h.clients, client)
		}
	}
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
	h.logger.Info("websocket: hub stopped, all clients closed")
}
