package activity

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/example/chat-relay/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// maxEntries caps the in-memory activity log.
const maxEntries = 100

// Entry is one logged relay or media event.
type Entry struct {
	Type      string    `json:"type"`
	Detail    string    `json:"detail"`
	Timestamp time.Time `json:"timestamp"`
}

// Module subscribes to relay and media events and keeps a bounded
// in-memory activity log, served read-only over HTTP.
type Module struct {
	entries []Entry
	mu      sync.RWMutex
}

// Compile-time interface checks.
var (
	_ mono.Module              = (*Module)(nil)
	_ mono.EventConsumerModule = (*Module)(nil)
)

// NewModule creates the activity module.
func NewModule() *Module {
	return &Module{entries: make([]Entry, 0)}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "activity"
}

// RegisterEventConsumers registers event handlers.
func (m *Module) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(registry, events.MessageBroadcastV1, m.handleMessageBroadcast, m); err != nil {
		return fmt.Errorf("failed to register MessageBroadcast consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.RosterChangedV1, m.handleRosterChanged, m); err != nil {
		return fmt.Errorf("failed to register RosterChanged consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.MediaStoredV1, m.handleMediaStored, m); err != nil {
		return fmt.Errorf("failed to register MediaStored consumer: %w", err)
	}

	slog.Info("activity module registered event consumers",
		"events", "MessageBroadcast, RosterChanged, MediaStored")
	return nil
}

func (m *Module) handleMessageBroadcast(_ context.Context, event events.MessageBroadcastEvent, _ *mono.Msg) error {
	m.log("message", fmt.Sprintf("%s message from %s to %d clients", event.Type, event.Name, event.Recipients))
	return nil
}

func (m *Module) handleRosterChanged(_ context.Context, event events.RosterChangedEvent, _ *mono.Msg) error {
	m.log("roster", fmt.Sprintf("roster changed (%s), %d online", event.Cause, len(event.Roster)))
	return nil
}

func (m *Module) handleMediaStored(_ context.Context, event events.MediaStoredEvent, _ *mono.Msg) error {
	m.log("media", fmt.Sprintf("%s upload stored at %s (%d bytes)", event.Kind, event.URL, event.Size))
	return nil
}

func (m *Module) log(entryType, detail string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = append(m.entries, Entry{
		Type:      entryType,
		Detail:    detail,
		Timestamp: time.Now(),
	})
	if len(m.entries) > maxEntries {
		m.entries = m.entries[len(m.entries)-maxEntries:]
	}
}

// Recent returns a copy of the logged entries, oldest first.
func (m *Module) Recent() []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]Entry, len(m.entries))
	copy(result, m.entries)
	return result
}

// Start initializes the module.
func (m *Module) Start(_ context.Context) error {
	slog.Info("activity module started")
	return nil
}

// Stop shuts down the module.
func (m *Module) Stop(_ context.Context) error {
	slog.Info("activity module stopped", "entries", len(m.Recent()))
	return nil
}
