package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Envelope types pushed to websocket clients.
const (
	EventChatMessage  = "chat.message"
	EventNotification = "notification"
	EventSessionEnded = "session.ended"
)

// Envelope is one message sent over a websocket connection.
type Envelope struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

type delivery struct {
	userID string // empty means every connected client
	data   []byte
}

// Hub maintains the set of active clients and pushes messages to them
type Hub struct {
	// Registered clients organized by user ID
	clients map[string]map[*Client]bool

	deliver    chan delivery
	register   chan *Client
	unregister chan *Client

	// Closed when Run returns
	done chan struct{}

	// Mutex for concurrent access to clients map
	mu sync.RWMutex

	logger zerolog.Logger
}

// NewHub creates a new Hub instance
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		deliver:    make(chan delivery, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run handles registrations and deliveries until ctx is cancelled. It must
// be called once.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case client := <-h.register:
			h.registerClient(client)
		case client := <-h.unregister:
			h.unregisterClient(client)
		case d := <-h.deliver:
			h.push(d)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.userID]; !ok {
		h.clients[client.userID] = make(map[*Client]bool)
	}
	h.clients[client.userID][client] = true

	h.logger.Info().Str("userID", client.userID).Msg("Client registered")
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(client)
}

func (h *Hub) removeLocked(client *Client) {
	set, ok := h.clients[client.userID]
	if !ok || !set[client] {
		return
	}
	delete(set, client)
	close(client.send)
	if len(set) == 0 {
		delete(h.clients, client.userID)
	}
	h.logger.Info().Str("userID", client.userID).Msg("Client unregistered")
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, set := range h.clients {
		for c := range set {
			h.removeLocked(c)
		}
	}
}

// push runs on the Run goroutine, so removing slow clients in place is safe.
func (h *Hub) push(d delivery) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var targets []*Client
	if d.userID == "" {
		for _, set := range h.clients {
			for c := range set {
				targets = append(targets, c)
			}
		}
	} else {
		for c := range h.clients[d.userID] {
			targets = append(targets, c)
		}
	}

	for _, c := range targets {
		select {
		case c.send <- d.data:
		default:
			// Client's send buffer is full; drop the connection.
			h.removeLocked(c)
		}
	}
}

func (h *Hub) enqueue(userID string, eventType string, data interface{}) {
	payload, err := json.Marshal(Envelope{Type: eventType, Data: data, Timestamp: time.Now()})
	if err != nil {
		h.logger.Error().Err(err).Str("type", eventType).Msg("Failed to marshal websocket envelope")
		return
	}
	select {
	case h.deliver <- delivery{userID: userID, data: payload}:
	default:
		h.logger.Warn().Str("type", eventType).Str("userID", userID).Msg("Hub delivery queue full, dropping message")
	}
}

// SendToUser pushes an event to every connection of one user.
func (h *Hub) SendToUser(userID, eventType string, data interface{}) {
	h.enqueue(userID, eventType, data)
}

// Broadcast pushes an event to every connected client.
func (h *Hub) Broadcast(eventType string, data interface{}) {
	h.enqueue("", eventType, data)
}

// GetClientsCount returns the number of open connections of a user
func (h *Hub) GetClientsCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}
