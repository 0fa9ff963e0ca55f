package infrastructure

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"

	"bistroPulse/internal/modules/console/application/port"
	"bistroPulse/internal/modules/console/domain"
)

type Hub struct {
	topics  map[string]map[*Client]struct{}
	clients map[string]*Client
	mu      sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		topics:  make(map[string]map[*Client]struct{}),
		clients: make(map[string]*Client),
	}
}

func (h *Hub) registerClient(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if existing, ok := h.clients[c.key()]; ok && existing != c {
		h.detachLocked(existing)
	}
	h.clients[c.key()] = c
	slog.Info("ws client registered", slog.String("userId", c.userID), slog.String("sessionId", c.sessionID), slog.String("entity", c.entity))
}

func (h *Hub) subscribe(c *Client, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.topics[topic] == nil {
		h.topics[topic] = make(map[*Client]struct{})
	}
	h.topics[topic][c] = struct{}{}
	c.subscribed[topic] = struct{}{}
}

func (h *Hub) unsubscribe(c *Client, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if subs, ok := h.topics[topic]; ok {
		delete(subs, c)
		if len(subs) == 0 {
			delete(h.topics, topic)
		}
	}
	delete(c.subscribed, topic)
	slog.Debug("ws client unsubscribed", slog.String("sessionId", c.sessionID), slog.String("entity", c.entity), slog.String("topic", topic))
}

func (h *Hub) detachClient(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.detachLocked(c)
}

func (h *Hub) detachLocked(c *Client) {
	if c == nil {
		return
	}
	for topic := range c.subscribed {
		if subs, ok := h.topics[topic]; ok {
			delete(subs, c)
			if len(subs) == 0 {
				delete(h.topics, topic)
			}
		}
	}
	if h.clients[c.key()] == c {
		delete(h.clients, c.key())
	}
	c.close()
	slog.Info("ws client detached", slog.String("userId", c.userID), slog.String("sessionId", c.sessionID), slog.String("entity", c.entity))
}

// Broadcast sends msg to the clients subscribed to its topic. Session, user and entity
// metadata narrow the audience. A client whose buffer is full is dropped.
func (h *Hub) Broadcast(_ context.Context, msg *domain.Message) {
	if msg == nil {
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("broadcast marshal error", slog.Any("error", err))
		return
	}

	h.mu.RLock()
	clientsMap := h.topics[msg.Topic]
	clients := make([]*Client, 0, len(clientsMap))
	for c := range clientsMap {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	targetSession, targetUser := msg.Target()
	targetEntity := ""
	if msg.Metadata != nil {
		targetEntity = strings.TrimSpace(msg.Metadata[domain.MetaEntity])
	}

	for _, c := range clients {
		if targetSession != "" && c.sessionID != targetSession {
			continue
		}
		if targetUser != "" && c.userID != targetUser {
			continue
		}
		if targetEntity != "" && c.entity != "" && c.entity != targetEntity {
			continue
		}
		if !c.enqueue(data) {
			go h.detachClient(c)
		}
	}
}

func (h *Hub) AttachClient(c *Client, topics []string) {
	h.registerClient(c)
	for _, topic := range topics {
		if trimmed := strings.TrimSpace(topic); trimmed != "" {
			h.subscribe(c, trimmed)
		}
	}
	slog.Info("ws client attached", slog.String("userId", c.userID), slog.String("sessionId", c.sessionID), slog.String("entity", c.entity), slog.Any("topics", topics))
}

// DisconnectSession closes every socket of a session, e.g. on logout.
func (h *Hub) DisconnectSession(sessionID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	count := 0
	for _, c := range h.clients {
		if c.sessionID == sessionID {
			h.detachLocked(c)
			count++
		}
	}
	return count
}

// Watching reports whether a socket of the session is attached to the entity page.
func (h *Hub) Watching(sessionID, entity string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		if c.sessionID == sessionID && c.entity == entity {
			return true
		}
	}
	return false
}

// DisconnectPage closes the sockets of one page of a session.
func (h *Hub) DisconnectPage(sessionID, entity string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	count := 0
	for _, c := range h.clients {
		if c.sessionID == sessionID && c.entity == entity {
			h.detachLocked(c)
			count++
		}
	}
	return count
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range h.clients {
		h.detachLocked(c)
	}
}

// Clients returns the number of attached clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

var (
	_ port.Broadcaster = (*Hub)(nil)
	_ port.PageSockets = (*Hub)(nil)
)
