package relay

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/example/chat-relay/domain/chat"
	"github.com/example/chat-relay/modules/presence"
)

// timeLayout is the human-readable timestamp stamped onto every broadcast
// message, matching the hour:minute format the original page rendered.
const timeLayout = "15:04"

// EventSink receives notifications after each fan-out. Implementations must
// not block; the hub calls them from its event loop.
type EventSink interface {
	MessageBroadcast(msg chat.Message, recipients int)
	RosterChanged(roster []string, cause string)
}

// frame is one inbound envelope paired with its connection.
type frame struct {
	client *Client
	env    Envelope
}

// Hub is the broadcast router. All registry mutations and fan-outs are
// serialized through its single Run loop, so operations from different
// connections never execute concurrently against shared state.
type Hub struct {
	registry *presence.Registry
	sink     EventSink

	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	inbound    chan frame
	done       chan struct{}
	mu         sync.RWMutex
}

// NewHub creates a hub over the given session registry. The sink may be nil.
func NewHub(registry *presence.Registry, sink EventSink) *Hub {
	return &Hub{
		registry:   registry,
		sink:       sink,
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan frame, 256),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's event loop. It accepts a context for shutdown.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			slog.Info("relay hub shutting down")
			h.closeAllClients()
			close(h.done)
			return
		case client := <-h.register:
			h.handleRegister(client)
		case client := <-h.unregister:
			h.handleUnregister(client)
		case f := <-h.inbound:
			h.handleFrame(f)
		}
	}
}

// Wait blocks until the hub has stopped.
func (h *Hub) Wait() {
	<-h.done
}

// Register adds a connection to the hub. The connection starts anonymous
// and is invisible in the roster until it announces a name.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a connection, closing its send queue. If the
// connection had announced a name, the updated roster is broadcast to the
// remaining clients.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Dispatch queues one inbound envelope for processing on the event loop.
func (h *Hub) Dispatch(client *Client, env Envelope) {
	h.inbound <- frame{client: client, env: env}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) handleRegister(client *Client) {
	h.mu.Lock()
	h.clients[client.ID] = client
	h.mu.Unlock()
	slog.Info("client connected", "connID", client.ID)
}

func (h *Hub) handleUnregister(client *Client) {
	h.mu.Lock()
	_, known := h.clients[client.ID]
	if known {
		delete(h.clients, client.ID)
		close(client.send)
	}
	h.mu.Unlock()
	if !known {
		return
	}

	slog.Info("client disconnected", "connID", client.ID)
	// A connection that never announced a name was invisible in the
	// roster; removing it must not trigger a broadcast.
	if h.registry.Remove(client.ID) {
		h.broadcastRoster("disconnect")
	}
}

func (h *Hub) handleFrame(f frame) {
	h.mu.RLock()
	_, known := h.clients[f.client.ID]
	h.mu.RUnlock()
	if !known {
		// The unregister for this connection was processed before its
		// final frames; its send queue is already closed.
		return
	}

	switch f.env.Event {
	case EventSetName:
		var name string
		if err := json.Unmarshal(f.env.Data, &name); err != nil {
			h.sendError(f.client, "invalid name payload")
			return
		}
		h.handleAnnounce(f.client, name)
	case EventChatMessage:
		h.handleChatMessage(f.client, f.env.Data)
	default:
		h.sendError(f.client, "unknown event: "+f.env.Event)
	}
}

// handleAnnounce records the display name and broadcasts the new roster.
// Empty and whitespace-only names are absorbed silently.
func (h *Hub) handleAnnounce(client *Client, name string) {
	if !h.registry.SetName(client.ID, name) {
		return
	}
	h.broadcastRoster("announce")
}

// handleChatMessage validates an inbound message, stamps the server time
// and fans it out to every connected client, including the sender.
func (h *Hub) handleChatMessage(client *Client, data json.RawMessage) {
	if !client.limiter.allow() {
		h.sendError(client, "rate limit exceeded, please slow down")
		return
	}

	var msg chat.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		h.sendError(client, "invalid message payload")
		return
	}
	if err := msg.Validate(); err != nil {
		slog.Debug("dropping malformed message", "connID", client.ID, "error", err)
		h.sendError(client, err.Error())
		return
	}

	msg.Time = time.Now().Format(timeLayout)

	data, err := encodeFrame(EventChatMessage, msg)
	if err != nil {
		slog.Error("failed to encode chat message", "error", err)
		return
	}

	recipients := h.sendAll(data)
	if h.sink != nil {
		h.sink.MessageBroadcast(msg, recipients)
	}
}

// broadcastRoster sends the full roster to every connected client. The
// registry mutation that caused it has already happened.
func (h *Hub) broadcastRoster(cause string) {
	roster := h.registry.Roster()

	data, err := encodeFrame(EventRosterPush, roster)
	if err != nil {
		slog.Error("failed to encode roster", "error", err)
		return
	}

	h.sendAll(data)
	if h.sink != nil {
		h.sink.RosterChanged(roster, cause)
	}
}

// sendAll queues a frame on every client and returns how many accepted it.
// Clients with a full queue miss the frame; delivery is single-attempt.
func (h *Hub) sendAll(data []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	sent := 0
	for _, client := range h.clients {
		select {
		case client.send <- data:
			sent++
		default:
			slog.Warn("dropping frame for slow client", "connID", client.ID)
		}
	}
	return sent
}

// sendError queues an error frame for a single client.
func (h *Hub) sendError(client *Client, reason string) {
	data, err := encodeFrame(EventError, reason)
	if err != nil {
		return
	}
	select {
	case client.send <- data:
	default:
	}
}

// closeAllClients closes every connection on shutdown.
func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.clients {
		close(client.send)
		_ = client.conn.Close()
	}
	h.clients = make(map[string]*Client)
}
