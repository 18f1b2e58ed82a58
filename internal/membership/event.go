// Package membership fans signup and unregister events out to optional
// side-channel sinks: an audit table, a Redis channel, an SNS topic and a
// confirmation email.
package membership

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventSignup     EventType = "signup"
	EventUnregister EventType = "unregister"
)

// Event describes one committed membership change.
type Event struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	Activity   string    `json:"activity"`
	Email      string    `json:"email"`
	Schedule   string    `json:"schedule,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func NewEvent(t EventType, activity, email string) Event {
	return Event{
		ID:         uuid.New().String(),
		Type:       t,
		Activity:   activity,
		Email:      email,
		OccurredAt: time.Now().UTC(),
	}
}

func (e Event) JSON() ([]byte, error) {
	return json.Marshal(e)
}
