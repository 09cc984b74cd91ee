package library

import (
	"path/filepath"
	"testing"
	"time"
)

func tempJournal(t *testing.T) *SQLiteJournal {
	t.Helper()
	dir := t.TempDir()
	j, err := NewSQLiteJournal(filepath.Join(dir, "journal", "test.db"))
	if err != nil {
		t.Fatalf("new journal: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func TestJournalRoundTrip(t *testing.T) {
	j := tempJournal(t)
	at := time.Date(2024, time.March, 1, 10, 0, 0, 0, time.UTC)

	e := newEvent(EventBookLent, "B1", "BIB-1", at, map[string]any{"due": "2024-03-15"})
	if err := j.Record(e); err != nil {
		t.Fatalf("record: %v", err)
	}

	events, err := j.Events()
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("want 1 event, got %d", len(events))
	}
	got := events[0]
	if got.ID != e.ID || got.Type != EventBookLent || got.ISBN != "B1" || got.MemberID != "BIB-1" {
		t.Fatalf("unexpected event: %+v", got)
	}
	if !got.OccurredAt.Equal(at) {
		t.Fatalf("occurred at %s, want %s", got.OccurredAt, at)
	}
	if got.Payload["due"] != "2024-03-15" {
		t.Fatalf("payload lost: %v", got.Payload)
	}
}

func TestJournalReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	j, err := NewSQLiteJournal(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := j.Record(newEvent(EventBookAdded, "B1", "", time.Now(), nil)); err != nil {
		t.Fatalf("record: %v", err)
	}
	j.Close()

	// Migrations must be a no-op the second time round.
	j, err = NewSQLiteJournal(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer j.Close()
	events, err := j.Events()
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("want 1 event after reopen, got %d", len(events))
	}
}

// TestServiceJournalFlow drives a full loan lifecycle through the service and
// checks the member's history in the journal.
func TestServiceJournalFlow(t *testing.T) {
	j := tempJournal(t)
	svc, clock := newService(t, WithJournal(j))

	addBook(t, svc, "B1", "Book", "Author", 1)
	alice := addMember(t, svc, "Alice")
	bob := addMember(t, svc, "Bob")

	loan, err := svc.BorrowBook("B1", alice.ID())
	if err != nil {
		t.Fatalf("borrow: %v", err)
	}
	clock.Advance(16 * day)
	if err := svc.ReturnBook(loan); err != nil {
		t.Fatalf("return: %v", err)
	}
	if _, err := svc.SettleLateFees(alice.ID()); err != nil {
		t.Fatalf("settle: %v", err)
	}

	all, err := j.Events()
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(all) != 6 {
		t.Fatalf("want 6 events, got %d", len(all))
	}

	history, err := j.EventsForMember(alice.ID())
	if err != nil {
		t.Fatalf("member events: %v", err)
	}
	want := []EventType{EventMemberRegistered, EventBookLent, EventBookReturned, EventLateFeesSettled}
	if len(history) != len(want) {
		t.Fatalf("want %d events for alice, got %d", len(want), len(history))
	}
	for i, typ := range want {
		if history[i].Type != typ {
			t.Fatalf("event %d: want %s, got %s", i, typ, history[i].Type)
		}
	}
	// JSON numbers come back as float64.
	if days := history[2].Payload["late_days"]; days != float64(2) {
		t.Fatalf("want 2 late days recorded, got %v", days)
	}
	if fee := history[3].Payload["fee"]; fee != 1.0 {
		t.Fatalf("want fee 1.0 recorded, got %v", fee)
	}

	other, _ := j.EventsForMember(bob.ID())
	if len(other) != 1 {
		t.Fatalf("want only the registration for bob, got %d", len(other))
	}
}
