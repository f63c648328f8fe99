package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"weekum/internal/core"
	"weekum/internal/events"
)

// EventMessage is the wire form of a ledger event. The routing key is Type.
type EventMessage struct {
	Type      events.Type   `json:"type"`
	ID        uuid.UUID     `json:"id"`
	BudgetID  uuid.UUID     `json:"budget_id"`
	Budget    *core.Budget  `json:"budget,omitempty"`
	Expense   *core.Expense `json:"expense,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

func NewEventMessage(ev events.Event) *EventMessage {
	ts := ev.At
	if ts.IsZero() {
		ts = time.Now()
	}
	return &EventMessage{
		Type:      ev.Type,
		ID:        ev.ID,
		BudgetID:  ev.BudgetID(),
		Budget:    ev.Budget,
		Expense:   ev.Expense,
		Timestamp: ts,
	}
}

// Event converts the message back to a ledger event.
func (m *EventMessage) Event() events.Event {
	return events.Event{Type: m.Type, ID: m.ID, Budget: m.Budget, Expense: m.Expense, At: m.Timestamp}
}

// ToJSON converts the message to JSON bytes
func (m *EventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// EventMessageFromJSON creates a message from JSON bytes
func EventMessageFromJSON(data []byte) (*EventMessage, error) {
	var msg EventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
