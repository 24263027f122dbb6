package events

import (
	"encoding/json"
	"time"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "CHAT_QUERY_SENT").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// Chat view event codes.
const (
	TypeConversationCreated  = "CHAT_CONVERSATION_CREATED"
	TypeQuerySent            = "CHAT_QUERY_SENT"
	TypeSelectionReplaced    = "CHAT_SELECTION_REPLACED"
	TypeDatasetChangeWarning = "CHAT_DATASET_CHANGE_WARNING"
)

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

// New stamps an event with the current time.
func New(eventType string, data map[string]interface{}) BaseEvent {
	if data == nil {
		data = map[string]interface{}{}
	}
	return BaseEvent{Type: eventType, Data: data, OccurredAt: time.Now()}
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// Envelope is the wire form of an event on every bus.
type Envelope struct {
	Type       string                 `json:"type"`
	OccurredAt time.Time              `json:"occurred_at"`
	Payload    map[string]interface{} `json:"payload"`
}

func Encode(e Event) ([]byte, error) {
	return json.Marshal(Envelope{Type: e.EventType(), OccurredAt: e.Timestamp(), Payload: e.Payload()})
}

func Decode(data []byte) (Envelope, error) {
	var env Envelope
	err := json.Unmarshal(data, &env)
	return env, err
}

// WithField returns a copy of e carrying one more payload field.
func WithField(e Event, key string, value interface{}) BaseEvent {
	data := make(map[string]interface{}, len(e.Payload())+1)
	for k, v := range e.Payload() {
		data[k] = v
	}
	data[key] = value
	return BaseEvent{Type: e.EventType(), Data: data, OccurredAt: e.Timestamp()}
}
