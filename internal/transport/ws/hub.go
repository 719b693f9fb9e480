package ws

import (
	"encoding/json"
	"log"
	"sort"
	"sync"

	"github.com/equilux/gridtalk/internal/domain"
)

// Hub is the process-wide presence registry: logical user id → the one live
// connection for that user. It is created at service start, injected where
// needed, and guarded by its own mutex; the lock is never held across a
// network write (pushes go through each client's buffered send channel).
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

func NewHub() *Hub {
	return &Hub{clients: make(map[string]*Client)}
}

// Register adds a client. A later connection for the same user replaces the
// prior one (last-connection-wins); there is no fan-out to multiple
// simultaneous sessions per identity.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	if prev, ok := h.clients[c.userID]; ok {
		prev.shutdown()
	}
	h.clients[c.userID] = c
	total := len(h.clients)
	h.mu.Unlock()

	log.Printf("ws hub: user %s connected (%d total)", c.userID, total)
	h.broadcastOnlineUsers()
}

// Unregister removes a client. A stale unregister from a connection that was
// already replaced is a no-op for the registry.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	cur, ok := h.clients[c.userID]
	if ok && cur == c {
		delete(h.clients, c.userID)
	}
	total := len(h.clients)
	h.mu.Unlock()

	c.shutdown()
	if !ok || cur != c {
		return
	}

	log.Printf("ws hub: user %s disconnected (%d total)", c.userID, total)
	h.broadcastOnlineUsers()
}

// OnlineUsers returns the identities currently connected, sorted.
func (h *Hub) OnlineUsers() []string {
	h.mu.RLock()
	users := make([]string, 0, len(h.clients))
	for userID := range h.clients {
		users = append(users, userID)
	}
	h.mu.RUnlock()

	sort.Strings(users)
	return users
}

// Notify pushes a single event to one user's live connection. An offline
// user is an expected miss, not an error; a full send buffer is reported as
// a transport error. Either way the caller's durable write already happened.
func (h *Hub) Notify(userID, eventType string, payload any) domain.DeliveryResult {
	h.mu.RLock()
	c, ok := h.clients[userID]
	h.mu.RUnlock()

	if !ok {
		return domain.DeliveryResult{Delivered: false, Reason: "not connected"}
	}

	evt, err := NewEvent(eventType, payload)
	if err != nil {
		log.Printf("ws hub: marshal error: %v", err)
		return domain.DeliveryResult{Delivered: false, Reason: "transport error"}
	}
	data, err := json.Marshal(evt)
	if err != nil {
		log.Printf("ws hub: marshal error: %v", err)
		return domain.DeliveryResult{Delivered: false, Reason: "transport error"}
	}

	if !c.trySend(data) {
		return domain.DeliveryResult{Delivered: false, Reason: "transport error"}
	}
	return domain.DeliveryResult{Delivered: true, ConnectionID: c.id}
}

// Reset drops every connection. For tests and shutdown.
func (h *Hub) Reset() {
	h.mu.Lock()
	for _, c := range h.clients {
		c.shutdown()
	}
	h.clients = make(map[string]*Client)
	h.mu.Unlock()
}

// broadcastOnlineUsers sends the current identity set to every connected
// client. Best-effort, no delivery guarantee.
func (h *Hub) broadcastOnlineUsers() {
	evt, err := NewEvent(EventTypeOnlineUsers, h.OnlineUsers())
	if err != nil {
		return
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return
	}

	h.mu.RLock()
	for _, c := range h.clients {
		c.trySend(data)
	}
	h.mu.RUnlock()
}
