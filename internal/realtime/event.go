// Package realtime fans out store changes to subscribers as a snapshot
// followed by ordered deltas.
package realtime

import (
	"encoding/json"
	"slices"
)

type EventType string

const (
	EventSnapshot EventType = "snapshot"
	EventAdded    EventType = "added"
	EventModified EventType = "modified"
	EventRemoved  EventType = "removed"
)

// Event is one change on a topic. Deltas are keyed by Kind and ID so clients
// can apply them idempotently over the snapshot.
type Event struct {
	Topic string          `json:"topic"`
	Type  EventType       `json:"type"`
	Kind  string          `json:"kind,omitempty"`
	ID    string          `json:"id,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
	// Audience limits delivery to these uids; empty means everyone on the topic.
	Audience []string `json:"audience,omitempty"`
}

// VisibleTo reports whether uid may receive the event.
func (e Event) VisibleTo(uid string) bool {
	return len(e.Audience) == 0 || slices.Contains(e.Audience, uid)
}

func ListingTopic(listingID string) string {
	return "listing:" + listingID
}

func ConversationTopic(convID string) string {
	return "conversation:" + convID
}

// NewEvent marshals payload into a delta event.
func NewEvent(topic string, typ EventType, kind, id string, payload any, audience ...string) (Event, error) {
	ev := Event{Topic: topic, Type: typ, Kind: kind, ID: id, Audience: audience}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return Event{}, err
		}
		ev.Data = data
	}
	return ev, nil
}
