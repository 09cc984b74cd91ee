package library

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const day = 24 * time.Hour

// fakeClock is a settable time source shared by the tests of this package.
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, time.March, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLoan(t *testing.T, clock *fakeClock) *Loan {
	t.Helper()
	b, err := NewBook("978-2-1234-5680-3", "Clean Code", "Robert C. Martin", 2008)
	require.NoError(t, err)
	l, err := newLoan(b, newTestMember(t), clock.Now)
	require.NoError(t, err)
	return l
}

func TestNewLoan(t *testing.T) {
	clock := newFakeClock()
	l := newTestLoan(t, clock)

	assert.Equal(t, clock.Now(), l.LoanedAt())
	assert.True(t, l.DueAt().Equal(l.LoanedAt().AddDate(0, 0, LoanDays)))
	assert.Equal(t, LoanActive, l.Status())
	assert.True(t, l.ReturnedAt().IsZero())
	assert.False(t, l.IsOverdue())
}

func TestNewLoanRequiresBookAndMember(t *testing.T) {
	b, err := NewBook("1", "T", "A", 2000)
	require.NoError(t, err)
	m := newTestMember(t)

	_, err = NewLoan(nil, m)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "book", verr.Field)

	_, err = NewLoan(b, nil)
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "member", verr.Field)
}

func TestOverdueIsLazy(t *testing.T) {
	clock := newFakeClock()
	l := newTestLoan(t, clock)

	clock.Advance(14 * day)
	assert.False(t, l.IsOverdue(), "a loan is not late on its due date")
	assert.Equal(t, LoanActive, l.Status())

	clock.Advance(day)
	assert.Equal(t, LoanActive, l.Status(), "status only changes once evaluated")
	assert.True(t, l.IsOverdue())
	assert.Equal(t, LoanOverdue, l.Status())
}

func TestComputeOverdueDays(t *testing.T) {
	clock := newFakeClock()
	l := newTestLoan(t, clock)
	assert.Equal(t, 0, l.ComputeOverdueDays())

	clock.Advance(20 * day)
	assert.Equal(t, 6, l.ComputeOverdueDays())
	assert.InDelta(t, 3.00, l.ComputeLateFee(), 1e-9)
	assert.Equal(t, LoanOverdue, l.Status())
}

func TestReturnedLoan(t *testing.T) {
	clock := newFakeClock()
	l := newTestLoan(t, clock)
	clock.Advance(3 * day)

	l.MarkReturned()
	assert.Equal(t, LoanReturned, l.Status())
	assert.Equal(t, clock.Now(), l.ReturnedAt())
	assert.False(t, l.IsOverdue())
	assert.False(t, l.ReturnedLate())
	assert.Equal(t, 0, l.ComputeOverdueDays())

	clock.Advance(30 * day)
	assert.Equal(t, 0, l.ComputeOverdueDays(), "a returned loan does not keep accruing")
}

func TestReturnedLateLoan(t *testing.T) {
	clock := newFakeClock()
	l := newTestLoan(t, clock)
	clock.Advance(20 * day)
	require.True(t, l.IsOverdue())

	l.MarkReturned()
	assert.Equal(t, LoanReturned, l.Status())
	assert.False(t, l.IsOverdue())
	assert.True(t, l.ReturnedLate())
	assert.Equal(t, 6, l.ComputeOverdueDays())
	assert.InDelta(t, 3.00, l.ComputeLateFee(), 1e-9)

	clock.Advance(10 * day)
	assert.Equal(t, 6, l.ComputeOverdueDays(), "measured against the return date")
}

func TestExtend(t *testing.T) {
	clock := newFakeClock()
	l := newTestLoan(t, clock)
	due := l.DueAt()

	assert.True(t, l.Extend())
	assert.True(t, l.DueAt().Equal(due.AddDate(0, 0, ExtensionDays)))

	clock.Advance(30 * day)
	due = l.DueAt()
	assert.False(t, l.Extend())
	assert.Equal(t, due, l.DueAt())
	assert.Equal(t, LoanOverdue, l.Status())
}

func TestExtendReturnedLoan(t *testing.T) {
	clock := newFakeClock()
	l := newTestLoan(t, clock)
	l.MarkReturned()
	due := l.DueAt()

	assert.False(t, l.Extend())
	assert.Equal(t, due, l.DueAt())
}

func TestLoanString(t *testing.T) {
	l := newTestLoan(t, newFakeClock())
	s := l.String()
	assert.True(t, strings.Contains(s, `book="Clean Code"`), s)
	assert.True(t, strings.Contains(s, "due=2024-03-15"), s)
	assert.True(t, strings.Contains(s, "status=ACTIVE"), s)
}

func TestLoanStatusString(t *testing.T) {
	assert.Equal(t, "ACTIVE", LoanActive.String())
	assert.Equal(t, "OVERDUE", LoanOverdue.String())
	assert.Equal(t, "RETURNED", LoanReturned.String())
	assert.Equal(t, "LoanStatus(9)", LoanStatus(9).String())
}
