package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"kharcha/internal/core"
)

// LedgerEventMessage is the wire form of core.LedgerEvent. It carries the
// budget status after the change so consumers never read the ledger.
type LedgerEventMessage struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	User          string    `json:"user"`
	MonthKey      string    `json:"month_key"`
	Category      string    `json:"category,omitempty"`
	Amount        float64   `json:"amount"`
	Budget        float64   `json:"budget"`
	TotalExpenses float64   `json:"total_expenses"`
	Remaining     float64   `json:"remaining"`
	PercentUsed   float64   `json:"percent_used"`
	Tier          string    `json:"tier"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewLedgerEventMessage(ev core.LedgerEvent) *LedgerEventMessage {
	ts := ev.OccurredAt
	if ts.IsZero() {
		ts = time.Now()
	}
	return &LedgerEventMessage{
		ID:            ev.ID,
		Type:          string(ev.Type),
		User:          ev.User,
		MonthKey:      ev.MonthKey,
		Category:      ev.Category,
		Amount:        ev.Amount,
		Budget:        ev.Status.Budget,
		TotalExpenses: ev.Status.TotalExpenses,
		Remaining:     ev.Status.Remaining,
		PercentUsed:   ev.Status.PercentUsed,
		Tier:          ev.Status.Tier().String(),
		Timestamp:     ts,
	}
}

func (m *LedgerEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEventMessageFromJSON decodes a message and rejects ones without a
// type or user.
func LedgerEventMessageFromJSON(data []byte) (*LedgerEventMessage, error) {
	var msg LedgerEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Type == "" || msg.User == "" {
		return nil, errors.New("ledger event without type or user")
	}
	return &msg, nil
}

// Event converts the message back into a domain event.
func (m *LedgerEventMessage) Event() core.LedgerEvent {
	return core.LedgerEvent{
		ID:       m.ID,
		Type:     core.EventType(m.Type),
		User:     m.User,
		MonthKey: m.MonthKey,
		Category: m.Category,
		Amount:   m.Amount,
		Status: core.Status{
			Budget:        m.Budget,
			TotalExpenses: m.TotalExpenses,
			Remaining:     m.Remaining,
			PercentUsed:   m.PercentUsed,
		},
		OccurredAt: m.Timestamp,
	}
}
