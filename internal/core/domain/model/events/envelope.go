package events

import (
	"encoding/json"
	"fmt"
	"time"
)

// Envelope is the wire form of an Event, shared by the stream and the message log.
type Envelope struct {
	Kind    Kind            `json:"type"`
	Key     string          `json:"key"`
	At      time.Time       `json:"at"`
	Payload json.RawMessage `json:"payload"`
}

func NewEnvelope(e Event) (Envelope, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s event: %w", e.Kind(), err)
	}
	return Envelope{Kind: e.Kind(), Key: e.Key(), At: e.OccurredAt(), Payload: payload}, nil
}
