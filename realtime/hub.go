// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package realtime

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/danielhkuo/armonia/auth"
	"github.com/danielhkuo/armonia/metrics"
	"github.com/danielhkuo/armonia/models"
)

// sendBuffer is the number of frames queued per client before new ones are dropped
const sendBuffer = 64

// RoomName is the room every subscriber of an assembly joins
func RoomName(assemblyID, tenantID string) string {
	return "assembly-" + assemblyID + "-" + tenantID
}

// Client is one registered connection. The hub owns its send channel.
type Client struct {
	ID        string
	Principal auth.Principal

	send  chan []byte
	rooms map[string]struct{}
}

func NewClient(p auth.Principal) *Client {
	return &Client{
		ID:        auth.GenerateID(),
		Principal: p,
		send:      make(chan []byte, sendBuffer),
		rooms:     make(map[string]struct{}),
	}
}

// Send exposes the outbound queue; it is closed when the client is unregistered
func (c *Client) Send() <-chan []byte {
	return c.send
}

// Hub tracks connected clients by id, by tenant and by room
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	tenants map[string]map[string]*Client
	rooms   map[string]map[string]*Client

	log     *slog.Logger
	metrics *metrics.Metrics
}

func NewHub(log *slog.Logger, m *metrics.Metrics) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		clients: make(map[string]*Client),
		tenants: make(map[string]map[string]*Client),
		rooms:   make(map[string]map[string]*Client),
		log:     log,
		metrics: m,
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[c.ID] = c
	tenant := h.tenants[c.Principal.TenantID]
	if tenant == nil {
		tenant = make(map[string]*Client)
		h.tenants[c.Principal.TenantID] = tenant
	}
	tenant[c.ID] = c
	h.metrics.ConnectionOpened()
}

// Unregister removes the client from every room and closes its send channel
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c.ID]; !ok {
		return
	}
	delete(h.clients, c.ID)

	if tenant := h.tenants[c.Principal.TenantID]; tenant != nil {
		delete(tenant, c.ID)
		if len(tenant) == 0 {
			delete(h.tenants, c.Principal.TenantID)
		}
	}
	for room := range c.rooms {
		h.leaveLocked(c, room)
	}

	close(c.send)
	h.metrics.ConnectionClosed()
}

// Join subscribes the client to the room of an assembly in its own tenant.
// It reports whether the client was newly added.
func (h *Hub) Join(c *Client, assemblyID string) bool {
	room := RoomName(assemblyID, c.Principal.TenantID)

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c.ID]; !ok {
		return false
	}
	if _, ok := c.rooms[room]; ok {
		return false
	}
	members := h.rooms[room]
	if members == nil {
		members = make(map[string]*Client)
		h.rooms[room] = members
	}
	members[c.ID] = c
	c.rooms[room] = struct{}{}
	return true
}

func (h *Hub) Leave(c *Client, assemblyID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(c, RoomName(assemblyID, c.Principal.TenantID))
}

func (h *Hub) leaveLocked(c *Client, room string) {
	delete(c.rooms, room)
	if members := h.rooms[room]; members != nil {
		delete(members, c.ID)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

// RoomSize is the number of clients subscribed to an assembly
func (h *Hub) RoomSize(tenantID, assemblyID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[RoomName(assemblyID, tenantID)])
}

// SendToClient delivers to a single connection; false when it is gone or its buffer is full
func (h *Hub) SendToClient(clientID string, event models.Event) bool {
	msg, ok := h.encode(event)
	if !ok {
		return false
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	c, found := h.clients[clientID]
	if !found {
		return false
	}
	return h.deliver(c, event.Event, msg)
}

// BroadcastToSchema delivers to every client of a tenant
func (h *Hub) BroadcastToSchema(tenantID string, event models.Event) {
	msg, ok := h.encode(event)
	if !ok {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, c := range h.tenants[tenantID] {
		h.deliver(c, event.Event, msg)
	}
}

func (h *Hub) BroadcastToRoom(tenantID, assemblyID string, event models.Event) {
	msg, ok := h.encode(event)
	if !ok {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, c := range h.rooms[RoomName(assemblyID, tenantID)] {
		h.deliver(c, event.Event, msg)
	}
}

// Publish fans a domain event out to the assembly's room
func (h *Hub) Publish(tenantID, assemblyID string, event models.Event) {
	h.BroadcastToRoom(tenantID, assemblyID, event)
}

func (h *Hub) encode(event models.Event) ([]byte, bool) {
	msg, err := json.Marshal(event)
	if err != nil {
		h.log.Error("failed to encode event", "event", event.Event, "error", err)
		return nil, false
	}
	return msg, true
}

// deliver must be called with h.mu held; Unregister closes send under the write lock
func (h *Hub) deliver(c *Client, name string, msg []byte) bool {
	select {
	case c.send <- msg:
		return true
	default:
		h.log.Warn("client buffer full, dropping message", "client_id", c.ID, "user_id", c.Principal.UserID, "event", name)
		h.metrics.MessageDropped()
		return false
	}
}
