package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/chat-relay/domain/chat"
	"github.com/example/chat-relay/modules/activity"
	"github.com/example/chat-relay/modules/media"
	"github.com/example/chat-relay/modules/presence"
	"github.com/example/chat-relay/modules/relay"
)

// uploadResponse is the body of every /upload reply, mirroring the shape
// upload clients feed straight into a chat:message payload.
type uploadResponse struct {
	OK    bool      `json:"ok"`
	URL   string    `json:"url,omitempty"`
	Type  chat.Kind `json:"type,omitempty"`
	Error string    `json:"error,omitempty"`
}

// Handlers contains the HTTP and WebSocket handlers.
type Handlers struct {
	hub      *relay.Hub
	registry *presence.Registry
	media    *media.Module
	activity *activity.Module
}

// NewHandlers creates a new handlers instance.
func NewHandlers(hub *relay.Hub, registry *presence.Registry, mediaModule *media.Module, activityModule *activity.Module) *Handlers {
	return &Handlers{
		hub:      hub,
		registry: registry,
		media:    mediaModule,
		activity: activityModule,
	}
}

// HandleWebSocket runs the connection lifecycle: register with the hub,
// pump inbound envelopes into it, unregister on any read error. A dropped
// and re-established connection is a wholly new connection.
func (h *Handlers) HandleWebSocket(c *websocket.Conn) {
	connID := uuid.New().String()
	client := relay.NewClient(connID, c)

	h.hub.Register(client)
	defer h.hub.Unregister(client)
	go client.WritePump()

	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Error("websocket read error", "connID", connID, "error", err)
			}
			return
		}

		var env relay.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			slog.Debug("dropping unparseable frame", "connID", connID, "error", err)
			continue
		}
		h.hub.Dispatch(client, env)
	}
}

// Upload handles media uploads (POST /upload): multipart field "media",
// one file, at most 20 MiB.
func (h *Handlers) Upload(c *fiber.Ctx) error {
	fh, err := c.FormFile("media")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(uploadResponse{
			OK:    false,
			Error: "no file uploaded",
		})
	}
	if fh.Size > media.MaxUploadSize {
		return c.Status(fiber.StatusBadRequest).JSON(uploadResponse{
			OK:    false,
			Error: media.ErrTooLarge.Error(),
		})
	}

	f, err := fh.Open()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(uploadResponse{
			OK:    false,
			Error: "failed to open upload",
		})
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(uploadResponse{
			OK:    false,
			Error: "failed to read upload",
		})
	}

	ref, err := h.media.Ingest(c.UserContext(), fh.Filename, fh.Header.Get("Content-Type"), data)
	if err != nil {
		status := fiber.StatusInternalServerError
		if errors.Is(err, media.ErrNoPayload) || errors.Is(err, media.ErrTooLarge) {
			status = fiber.StatusBadRequest
		}
		return c.Status(status).JSON(uploadResponse{
			OK:    false,
			Error: err.Error(),
		})
	}

	return c.JSON(uploadResponse{
		OK:   true,
		URL:  ref.URL,
		Type: ref.Kind,
	})
}

// ServeMedia serves stored media read-only (GET /uploads/:name).
func (h *Handlers) ServeMedia(c *fiber.Ctx) error {
	name := c.Params("name")
	if name == "" {
		return c.SendStatus(fiber.StatusBadRequest)
	}

	data, contentType, err := h.media.Fetch(c.UserContext(), name)
	if err != nil {
		if errors.Is(err, media.ErrNotFound) {
			return c.SendStatus(fiber.StatusNotFound)
		}
		return c.SendStatus(fiber.StatusInternalServerError)
	}

	c.Set(fiber.HeaderContentType, contentType)
	return c.Send(data)
}

// Roster returns the current roster (GET /api/roster).
func (h *Handlers) Roster(c *fiber.Ctx) error {
	roster := h.registry.Roster()
	return c.JSON(fiber.Map{
		"roster": roster,
		"online": len(roster),
	})
}

// Activity returns recent relay and media events (GET /api/activity).
func (h *Handlers) Activity(c *fiber.Ctx) error {
	entries := h.activity.Recent()
	return c.JSON(fiber.Map{
		"entries": entries,
		"total":   len(entries),
	})
}

// HealthCheck handles health check requests (GET /health).
func (h *Handlers) HealthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "healthy",
		"service": "chat-relay",
		"clients": h.hub.ClientCount(),
	})
}
