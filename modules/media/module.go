package media

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/example/chat-relay/domain/chat"
	"github.com/example/chat-relay/events"
	"github.com/go-monolith/mono"
)

// Module owns the media ingest service. The blob store backend is chosen at
// startup: NATS JetStream Object Store when NATS_URL is set, local disk
// otherwise.
type Module struct {
	service  *Service
	jsStore  *JetStreamStore
	backend  string
	eventBus mono.EventBus
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.EventBusAwareModule   = (*Module)(nil)
	_ mono.EventEmitterModule    = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates the media module.
func NewModule() *Module {
	return &Module{}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "media"
}

// SetEventBus receives the EventBus from the framework.
func (m *Module) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module can emit.
func (m *Module) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.MediaStoredV1.ToBase(),
	}
}

// Start selects and initializes the blob store backend.
func (m *Module) Start(ctx context.Context) error {
	if natsURL := os.Getenv("NATS_URL"); natsURL != "" {
		bucket := os.Getenv("MEDIA_BUCKET")
		if bucket == "" {
			bucket = "chat-media"
		}
		store, err := NewJetStreamStore(natsURL, bucket)
		if err != nil {
			return err
		}
		if err := store.Init(ctx); err != nil {
			store.Close()
			return err
		}
		m.jsStore = store
		m.service = NewService(store)
		m.backend = "jetstream"
		slog.Info("media module started", "backend", m.backend, "bucket", bucket)
		return nil
	}

	dir := os.Getenv("UPLOAD_DIR")
	if dir == "" {
		dir = "./uploads"
	}
	store, err := NewDiskStore(dir)
	if err != nil {
		return err
	}
	m.service = NewService(store)
	m.backend = "disk"
	slog.Info("media module started", "backend", m.backend, "dir", dir)
	return nil
}

// Stop releases the blob store backend.
func (m *Module) Stop(_ context.Context) error {
	if m.jsStore != nil {
		_ = m.jsStore.Close()
	}
	slog.Info("media module stopped")
	return nil
}

// Health returns the health status.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	healthy := m.service != nil
	if m.jsStore != nil {
		healthy = m.jsStore.IsConnected()
	}
	return mono.HealthStatus{
		Healthy: healthy,
		Message: "operational",
		Details: map[string]any{
			"backend": m.backend,
		},
	}
}

// Ingest stores one upload and publishes a MediaStored event.
func (m *Module) Ingest(ctx context.Context, filename, contentType string, data []byte) (*chat.MediaReference, error) {
	ref, err := m.service.Store(ctx, filename, contentType, data)
	if err != nil {
		return nil, err
	}

	if m.eventBus != nil {
		err := events.MediaStoredV1.Publish(m.eventBus, events.MediaStoredEvent{
			URL:       ref.URL,
			Kind:      string(ref.Kind),
			Size:      int64(len(data)),
			Timestamp: time.Now(),
		}, nil)
		if err != nil {
			slog.Warn("failed to publish MediaStored event", "error", err)
		}
	}
	return ref, nil
}

// Fetch reads a stored blob for read-only serving.
func (m *Module) Fetch(ctx context.Context, name string) ([]byte, string, error) {
	return m.service.Fetch(ctx, name)
}
