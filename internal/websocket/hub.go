package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dukerupert/chorequest/internal/app"
	"github.com/dukerupert/chorequest/internal/notify"
	"github.com/dukerupert/chorequest/internal/state"
)

// Message is a real-time update pushed to connected clients.
type Message struct {
	Type   string         `json:"type"`
	Entity string         `json:"entity"`
	Action string         `json:"action"`
	ID     string         `json:"id,omitempty"`
	Extra  map[string]any `json:"extra,omitempty"`
}

// NewMessage creates a Message with the Type field derived from entity and action.
func NewMessage(entity, action, id string, extra map[string]any) Message {
	return Message{
		Type:   fmt.Sprintf("%s_%s", entity, action),
		Entity: entity,
		Action: action,
		ID:     id,
		Extra:  extra,
	}
}

// Hub maintains the set of active WebSocket clients. Each client belongs to
// one session.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  *slog.Logger
}

// NewHub creates a new Hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger,
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a client from the hub and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// Broadcast sends a message to all connected clients.
func (h *Hub) Broadcast(msg Message) {
	h.send(msg, func(*Client) bool { return true })
}

// SendSession sends a message to the clients of one session.
func (h *Hub) SendSession(sessionID string, msg Message) {
	h.send(msg, func(c *Client) bool { return c.sessionID == sessionID })
}

// SendHousehold sends a message to every client whose session currently
// caches the given household.
func (h *Hub) SendHousehold(householdID string, msg Message) {
	if householdID == "" {
		return
	}
	h.send(msg, func(c *Client) bool {
		if c.session == nil {
			return false
		}
		hh := c.session.State().Household()
		return hh != nil && hh.ID == householdID
	})
}

func (h *Hub) send(msg Message, match func(*Client) bool) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal message", "type", msg.Type, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		if !match(c) {
			continue
		}
		select {
		case c.send <- data:
		default:
			// buffer full, drop
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Watch forwards a session's notification list and cached state changes to
// its clients. The returned function stops forwarding.
func (h *Hub) Watch(s *app.Session) func() {
	id := s.ID()
	stopBus := s.Bus().Subscribe(func(list []notify.Notification) {
		h.SendSession(id, NewMessage("notifications", "changed", "", map[string]any{
			"notifications": list,
		}))
	})
	stopState := s.State().Subscribe(func(f state.Field) {
		h.SendSession(id, NewMessage("state", string(f), "", map[string]any{
			"value": fieldValue(s.State(), f),
		}))
	})
	return func() {
		stopBus()
		stopState()
	}
}

func fieldValue(st *state.Store, f state.Field) any {
	switch f {
	case state.FieldUserProfile:
		return st.UserProfile()
	case state.FieldHousehold:
		return st.Household()
	case state.FieldTasks:
		return st.Tasks()
	case state.FieldBadges:
		return st.Badges()
	}
	return nil
}
