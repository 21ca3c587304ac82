package presence

import (
	"context"
	"log/slog"

	"github.com/go-monolith/mono"
)

// Module owns the session registry for the lifetime of the process.
type Module struct {
	registry *Registry
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates the presence module with a fresh registry.
func NewModule() *Module {
	return &Module{registry: NewRegistry()}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "presence"
}

// Start initializes the module.
func (m *Module) Start(_ context.Context) error {
	slog.Info("presence module started")
	return nil
}

// Stop shuts down the module. The registry holds no external resources.
func (m *Module) Stop(_ context.Context) error {
	slog.Info("presence module stopped", "online", m.registry.Count())
	return nil
}

// Health returns the health status.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"online": m.registry.Count(),
		},
	}
}

// Registry exposes the session registry for the relay and HTTP modules.
func (m *Module) Registry() *Registry {
	return m.registry
}
