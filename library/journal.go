package library

import (
	"time"

	"github.com/google/uuid"
)

// EventType names a circulation event written to the journal.
type EventType string

const (
	EventBookAdded        EventType = "BookAdded"
	EventMemberRegistered EventType = "MemberRegistered"
	EventBookLent         EventType = "BookLent"
	EventBookReturned     EventType = "BookReturned"
	EventLoanExtended     EventType = "LoanExtended"
	EventLateFeesSettled  EventType = "LateFeesSettled"
)

// Event is one entry of the circulation history.
type Event struct {
	ID         string
	Type       EventType
	ISBN       string
	MemberID   string
	OccurredAt time.Time
	Payload    map[string]any
}

func newEvent(typ EventType, isbn, memberID string, at time.Time, payload map[string]any) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       typ,
		ISBN:       isbn,
		MemberID:   memberID,
		OccurredAt: at,
		Payload:    payload,
	}
}

// Journal receives every successful circulation change. It is an audit trail
// only; the service never reads it back.
type Journal interface {
	Record(e Event) error
}

type nopJournal struct{}

func (nopJournal) Record(Event) error { return nil }
