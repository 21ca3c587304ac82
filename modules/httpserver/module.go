package httpserver

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/go-monolith/mono"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/example/chat-relay/modules/activity"
	"github.com/example/chat-relay/modules/media"
	"github.com/example/chat-relay/modules/presence"
	"github.com/example/chat-relay/modules/relay"
)

// Module is the Fiber HTTP/WebSocket adapter.
type Module struct {
	app      *fiber.App
	handlers *Handlers
	port     string

	hub      *relay.Hub
	registry *presence.Registry
	media    *media.Module
	activity *activity.Module
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates the HTTP server module. The port comes from the PORT
// environment variable, defaulting to 3000.
func NewModule(registry *presence.Registry, mediaModule *media.Module, activityModule *activity.Module) *Module {
	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}
	return &Module{
		port:     port,
		registry: registry,
		media:    mediaModule,
		activity: activityModule,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "http-server"
}

// SetHub sets the broadcast hub (called from main.go).
func (m *Module) SetHub(hub *relay.Hub) {
	m.hub = hub
}

// Start initializes and starts the HTTP server.
func (m *Module) Start(_ context.Context) error {
	if m.hub == nil {
		return fmt.Errorf("relay hub dependency not set")
	}

	m.app = m.buildApp()

	// Start server in goroutine with startup error detection.
	errCh := make(chan error, 1)
	go func() {
		if err := m.app.Listen(":" + m.port); err != nil {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP server failed to start: %w", err)
	case <-time.After(100 * time.Millisecond):
	}

	slog.Info("HTTP server started", "port", m.port)
	return nil
}

// Stop gracefully shuts down the HTTP server.
func (m *Module) Stop(ctx context.Context) error {
	if m.app == nil {
		return nil
	}
	if err := m.app.ShutdownWithContext(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	slog.Info("HTTP server stopped")
	return nil
}

// Health returns the health status.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: m.app != nil,
		Message: "operational",
		Details: map[string]any{
			"port":              m.port,
			"connected_clients": m.hub.ClientCount(),
		},
	}
}

// buildApp assembles the Fiber app with middleware and routes. Split from
// Start so tests can exercise routes without a listener.
func (m *Module) buildApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "Chat Relay",
		DisableStartupMessage: true,
		ErrorHandler:          m.errorHandler,
		// Leave headroom over the upload cap so oversized uploads are
		// rejected with a JSON body instead of a bare 413.
		BodyLimit:   media.MaxUploadSize + 1<<20,
		IdleTimeout: 120 * time.Second,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} ${method} ${path} ${latency}\n",
	}))

	allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:3000,http://localhost:8080"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: allowedOrigins,
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Content-Type,Authorization",
	}))

	m.handlers = NewHandlers(m.hub, m.registry, m.media, m.activity)
	m.registerRoutes(app)
	return app
}

// registerRoutes sets up all HTTP and WebSocket routes.
func (m *Module) registerRoutes(app *fiber.App) {
	app.Get("/health", m.handlers.HealthCheck)

	// Chat page and assets.
	app.Static("/", "./public")

	// WebSocket upgrade middleware.
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(m.handlers.HandleWebSocket))

	// Media ingest and read-only retrieval.
	app.Post("/upload", m.handlers.Upload)
	app.Get("/uploads/:name", m.handlers.ServeMedia)

	// REST views over live state.
	api := app.Group("/api")
	api.Get("/roster", m.handlers.Roster)
	api.Get("/activity", m.handlers.Activity)
}

// errorHandler handles errors globally.
func (m *Module) errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	slog.Error("HTTP error", "code", code, "message", message, "error", err)

	return c.Status(code).JSON(fiber.Map{
		"error": message,
	})
}
