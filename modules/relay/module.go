package relay

import (
	"context"
	"log/slog"
	"time"

	"github.com/example/chat-relay/domain/chat"
	"github.com/example/chat-relay/events"
	"github.com/example/chat-relay/modules/presence"
	"github.com/go-monolith/mono"
)

// Module runs the broadcast router and publishes relay events on the bus.
type Module struct {
	hub       *Hub
	eventBus  mono.EventBus
	cancelHub context.CancelFunc
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.EventBusAwareModule   = (*Module)(nil)
	_ mono.EventEmitterModule    = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
	_ EventSink                  = (*Module)(nil)
)

// NewModule creates the relay module over the given session registry.
func NewModule(registry *presence.Registry) *Module {
	m := &Module{}
	m.hub = NewHub(registry, m)
	return m
}

// Name returns the module name.
func (m *Module) Name() string {
	return "relay"
}

// SetEventBus receives the EventBus from the framework.
func (m *Module) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module can emit.
func (m *Module) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.MessageBroadcastV1.ToBase(),
		events.RosterChangedV1.ToBase(),
	}
}

// Start launches the hub event loop.
func (m *Module) Start(_ context.Context) error {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelHub = cancel
	go m.hub.Run(ctx)
	slog.Info("relay module started")
	return nil
}

// Stop shuts down the hub, closing all client connections.
func (m *Module) Stop(_ context.Context) error {
	clientCount := m.hub.ClientCount()
	if m.cancelHub != nil {
		m.cancelHub()
		m.hub.Wait()
	}
	slog.Info("relay module stopped", "clients", clientCount)
	return nil
}

// Health returns the health status.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"connected_clients": m.hub.ClientCount(),
		},
	}
}

// Hub exposes the broadcast router for the HTTP module.
func (m *Module) Hub() *Hub {
	return m.hub
}

// MessageBroadcast publishes a MessageBroadcast event, fire-and-forget.
func (m *Module) MessageBroadcast(msg chat.Message, recipients int) {
	if m.eventBus == nil {
		return
	}
	err := events.MessageBroadcastV1.Publish(m.eventBus, events.MessageBroadcastEvent{
		Type:       msg.Type,
		Name:       msg.Name,
		Time:       msg.Time,
		Recipients: recipients,
		Timestamp:  time.Now(),
	}, nil)
	if err != nil {
		slog.Warn("failed to publish MessageBroadcast event", "error", err)
	}
}

// RosterChanged publishes a RosterChanged event, fire-and-forget.
func (m *Module) RosterChanged(roster []string, cause string) {
	if m.eventBus == nil {
		return
	}
	err := events.RosterChangedV1.Publish(m.eventBus, events.RosterChangedEvent{
		Roster:    roster,
		Cause:     cause,
		Timestamp: time.Now(),
	}, nil)
	if err != nil {
		slog.Warn("failed to publish RosterChanged event", "error", err)
	}
}
