package relay

import (
	"encoding/json"
	"fmt"
)

// Wire event names, kept compatible with the original browser client.
const (
	EventSetName     = "user:setName"
	EventChatMessage = "chat:message"
	EventRosterPush  = "users:update"
	EventError       = "error"
)

// Envelope frames every message on the WebSocket in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// encodeFrame builds the wire bytes for one server-to-client envelope.
func encodeFrame(event string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", event, err)
	}
	frame, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s envelope: %w", event, err)
	}
	return frame, nil
}
