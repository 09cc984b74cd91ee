package library

import (
	"fmt"
	"time"
)

const (
	// LoanDays is how long a book may be kept before it is late.
	LoanDays = 14
	// ExtensionDays is added to the due date by Extend.
	ExtensionDays = 7
)

// LoanStatus is the lifecycle state of a Loan.
type LoanStatus int

const (
	LoanActive LoanStatus = iota
	LoanOverdue
	LoanReturned
)

func (s LoanStatus) String() string {
	switch s {
	case LoanActive:
		return "ACTIVE"
	case LoanOverdue:
		return "OVERDUE"
	case LoanReturned:
		return "RETURNED"
	default:
		return fmt.Sprintf("LoanStatus(%d)", int(s))
	}
}

// Loan binds one book to one member for a period of time.
//
// Status moves ACTIVE -> OVERDUE -> RETURNED or ACTIVE -> RETURNED and never
// back. Overdue detection is lazy: an ACTIVE loan only becomes OVERDUE when
// IsOverdue (or anything built on it) is called after the due date.
//
// A Loan is not safe for concurrent use. Once a LibraryService has issued it,
// goroutines sharing the service should go through EvaluateLoan, ExtendLoan,
// ReturnBook and RefreshOverdue rather than the methods that change status.
type Loan struct {
	book   *Book
	member *Member

	loanedAt   time.Time
	dueAt      time.Time
	returnedAt time.Time
	status     LoanStatus

	now func() time.Time
}

// NewLoan starts a loan today, due in LoanDays.
func NewLoan(book *Book, member *Member) (*Loan, error) {
	return newLoan(book, member, time.Now)
}

func newLoan(book *Book, member *Member, now func() time.Time) (*Loan, error) {
	if book == nil {
		return nil, invalid("book", "must not be nil")
	}
	if member == nil {
		return nil, invalid("member", "must not be nil")
	}
	loanedAt := now()
	return &Loan{
		book:     book,
		member:   member,
		loanedAt: loanedAt,
		dueAt:    loanedAt.AddDate(0, 0, LoanDays),
		status:   LoanActive,
		now:      now,
	}, nil
}

func (l *Loan) Book() *Book           { return l.book }
func (l *Loan) Member() *Member       { return l.member }
func (l *Loan) LoanedAt() time.Time   { return l.loanedAt }
func (l *Loan) DueAt() time.Time      { return l.dueAt }
func (l *Loan) Status() LoanStatus    { return l.status }
func (l *Loan) IsReturned() bool      { return l.status == LoanReturned }
func (l *Loan) ReturnedAt() time.Time { return l.returnedAt }

// MarkReturned closes the loan. Calling it twice overwrites the return date.
func (l *Loan) MarkReturned() {
	l.returnedAt = l.now()
	l.status = LoanReturned
}

// IsOverdue reports whether an unreturned loan is past its due date and moves
// an ACTIVE loan to OVERDUE when it is. Returned loans are never overdue; use
// ReturnedLate for those.
func (l *Loan) IsOverdue() bool {
	if l.status == LoanReturned {
		return false
	}
	overdue := daysBetween(l.dueAt, l.reference()) > 0
	if overdue && l.status == LoanActive {
		l.status = LoanOverdue
	}
	return overdue
}

// ReturnedLate reports whether a returned loan came back after its due date.
func (l *Loan) ReturnedLate() bool {
	return l.status == LoanReturned && daysBetween(l.dueAt, l.returnedAt) > 0
}

// ComputeOverdueDays counts whole days between the due date and the return
// date, or today when the loan is still out.
func (l *Loan) ComputeOverdueDays() int {
	if l.status == LoanReturned {
		if !l.ReturnedLate() {
			return 0
		}
		return daysBetween(l.dueAt, l.returnedAt)
	}
	if !l.IsOverdue() {
		return 0
	}
	return daysBetween(l.dueAt, l.reference())
}

func (l *Loan) ComputeLateFee() float64 {
	return float64(l.ComputeOverdueDays()) * LateFeePerDay
}

// Extend pushes the due date back by ExtensionDays. Only an ACTIVE loan that
// is not overdue can be extended.
func (l *Loan) Extend() bool {
	if l.status != LoanActive || l.IsOverdue() {
		return false
	}
	l.dueAt = l.dueAt.AddDate(0, 0, ExtensionDays)
	return true
}

func (l *Loan) reference() time.Time {
	if !l.returnedAt.IsZero() {
		return l.returnedAt
	}
	return l.now()
}

func (l *Loan) String() string {
	return fmt.Sprintf("Loan{book=%q, member=%q, loaned=%s, due=%s, status=%s}",
		l.book.Title(), l.member.LastName(),
		l.loanedAt.Format(time.DateOnly), l.dueAt.Format(time.DateOnly), l.status)
}

// daysBetween counts calendar days from a to b, ignoring the time of day.
func daysBetween(a, b time.Time) int {
	return int(civilDay(b) - civilDay(a))
}

func civilDay(t time.Time) int64 {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400
}
