package sse

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// Event is a named payload pushed to a connected client
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type client struct {
	accountID string
	ch        chan Event
}

// Manager fans out server-sent events to connected clients per account.
// The sync pipeline uses it for stage-tagged progress events.
type Manager struct {
	mu         sync.RWMutex
	clients    map[*client]struct{}
	register   chan *client
	unregister chan *client
}

func NewManager() *Manager {
	return &Manager{
		clients:    make(map[*client]struct{}),
		register:   make(chan *client),
		unregister: make(chan *client),
	}
}

// Run processes client registrations; start it once from main
func (m *Manager) Run() {
	for {
		select {
		case c := <-m.register:
			m.mu.Lock()
			m.clients[c] = struct{}{}
			m.mu.Unlock()
		case c := <-m.unregister:
			m.mu.Lock()
			if _, ok := m.clients[c]; ok {
				delete(m.clients, c)
				close(c.ch)
			}
			m.mu.Unlock()
		}
	}
}

// SendToAccount delivers an event to every client subscribed to the account.
// Slow clients are skipped rather than blocking the sender.
func (m *Manager) SendToAccount(accountID string, eventType string, payload interface{}) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for c := range m.clients {
		if c.accountID != accountID && c.accountID != "" {
			continue
		}
		select {
		case c.ch <- Event{Type: eventType, Payload: payload}:
		default:
			log.Printf("[SSE] Dropping event %s for slow client (account %s)", eventType, accountID)
		}
	}
}

// Broadcast delivers an event to every connected client
func (m *Manager) Broadcast(eventType string, payload interface{}) {
	m.SendToAccount("", eventType, payload)
}

// ServeHTTP streams events for the given account until the client disconnects
func (m *Manager) ServeHTTP(c *gin.Context, accountID string) {
	cl := &client{
		accountID: accountID,
		ch:        make(chan Event, 32),
	}
	m.register <- cl
	defer func() { m.unregister <- cl }()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case ev, ok := <-cl.ch:
			if !ok {
				return
			}
			data, err := json.Marshal(ev.Payload)
			if err != nil {
				log.Printf("[SSE] Failed to marshal event payload: %v", err)
				continue
			}
			fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", ev.Type, data)
			c.Writer.Flush()
		case <-heartbeat.C:
			fmt.Fprint(c.Writer, ": ping\n\n")
			c.Writer.Flush()
		case <-c.Request.Context().Done():
			return
		}
	}
}
