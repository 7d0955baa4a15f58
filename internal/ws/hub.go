package ws

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"
)

const (
	EventQR             = "qr"
	EventPairCode       = "pair_code"
	EventConnected      = "connected"
	EventDisconnected   = "disconnected"
	EventGroupJoin      = "group_join"
	EventGroupLeave     = "group_leave"
	EventAdminChanged   = "admin_changed"
	EventLectureUpload  = "lecture_uploaded"
	EventSectionUpdated = "section_updated"
)

// Event is one entry of the live feed sent to dashboard clients.
type Event struct {
	Type string    `json:"type"`
	Data any       `json:"data"`
	At   time.Time `json:"at"`
}

// Hub maintains the set of active WebSocket clients and broadcasts events.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan *Event
	register   chan *Client
	unregister chan *Client
	mu         sync.Mutex
	log        *slog.Logger
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan *Event, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		log:        log,
	}
}

// Run starts the hub's event loop. Should be called in a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()

		case event := <-h.broadcast:
			data, err := json.Marshal(event)
			if err != nil {
				h.log.Warn("marshal ws event", slog.String("type", event.Type), slog.String("error", err.Error()))
				continue
			}
			h.mu.Lock()
			for client := range h.clients {
				if !client.wants(event.Type) {
					continue
				}
				select {
				case client.send <- data:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast queues an event for every subscribed client. Events are dropped
// when the queue is full so transport handlers never block on the feed.
func (h *Hub) Broadcast(eventType string, data any) {
	if h == nil {
		return
	}
	select {
	case h.broadcast <- &Event{Type: eventType, Data: data, At: time.Now()}:
	default:
		h.log.Warn("ws queue full, event dropped", slog.String("type", eventType))
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

type clientEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// HandleClientMessage applies a control message from a client. The only
// command is "subscribe" with {"types": [...]}; an empty list resets the
// filter to all events.
func (h *Hub) HandleClientMessage(c *Client, raw []byte) {
	var event clientEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		h.log.Warn("failed to parse client ws message", slog.String("error", err.Error()))
		return
	}

	switch event.Type {
	case "subscribe":
		var data struct {
			Types []string `json:"types"`
		}
		if err := json.Unmarshal(event.Data, &data); err != nil {
			h.log.Warn("failed to parse subscribe data", slog.String("error", err.Error()))
			return
		}
		h.mu.Lock()
		c.setFilter(data.Types)
		h.mu.Unlock()
		h.log.Debug("ws client subscribed", slog.String("user", c.username), slog.Any("types", data.Types))
	default:
		h.log.Debug("unknown ws message", slog.String("type", event.Type))
	}
}
