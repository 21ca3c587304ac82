package events

import (
	"time"

	"github.com/go-monolith/mono/pkg/helper"
)

// MessageBroadcastEvent is emitted after a chat message has been fanned out
// to all connected clients.
type MessageBroadcastEvent struct {
	Type       string    `json:"type"`
	Name       string    `json:"name"`
	Time       string    `json:"time"`
	Recipients int       `json:"recipients"`
	Timestamp  time.Time `json:"timestamp"`
}

// RosterChangedEvent is emitted after a roster update has been broadcast.
type RosterChangedEvent struct {
	Roster    []string  `json:"roster"`
	Cause     string    `json:"cause"` // "announce" or "disconnect"
	Timestamp time.Time `json:"timestamp"`
}

// MediaStoredEvent is emitted when a media upload has been persisted.
type MediaStoredEvent struct {
	URL       string    `json:"url"`
	Kind      string    `json:"kind"`
	Size      int64     `json:"size"`
	Timestamp time.Time `json:"timestamp"`
}

// Event definitions for the relay and media domains.
var (
	MessageBroadcastV1 = helper.EventDefinition[MessageBroadcastEvent](
		"relay",
		"MessageBroadcast",
		"v1",
	)

	RosterChangedV1 = helper.EventDefinition[RosterChangedEvent](
		"relay",
		"RosterChanged",
		"v1",
	)

	MediaStoredV1 = helper.EventDefinition[MediaStoredEvent](
		"media",
		"MediaStored",
		"v1",
	)
)
