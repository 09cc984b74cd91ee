package library

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// MaxLoans is the number of loans a member may hold at once.
	MaxLoans = 5
	// LateFeePerDay is charged for every day a book is returned late.
	LateFeePerDay = 0.50
)

var emailPattern = regexp.MustCompile(`^[A-Za-z0-9+_.-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)

// Member is a registered borrower.
type Member struct {
	id           string
	lastName     string
	firstName    string
	email        string
	registeredAt time.Time

	active       bool
	currentLoans int
	late         bool
	lateDays     int
}

// NewMember validates the member's details and issues a fresh membership id.
func NewMember(lastName, firstName, email string) (*Member, error) {
	if strings.TrimSpace(lastName) == "" {
		return nil, invalid("last name", "must not be empty")
	}
	if strings.TrimSpace(firstName) == "" {
		return nil, invalid("first name", "must not be empty")
	}
	if !emailPattern.MatchString(email) {
		return nil, invalid("email", fmt.Sprintf("%q is not a valid address", email))
	}
	return &Member{
		id:           newMembershipID(),
		lastName:     lastName,
		firstName:    firstName,
		email:        email,
		registeredAt: time.Now(),
		active:       true,
	}, nil
}

// newMembershipID derives the id from a random UUID, so no shared counter is needed.
func newMembershipID() string {
	return "BIB-" + strings.ToUpper(uuid.NewString())
}

func (m *Member) ID() string              { return m.id }
func (m *Member) LastName() string        { return m.lastName }
func (m *Member) FirstName() string       { return m.firstName }
func (m *Member) Email() string           { return m.email }
func (m *Member) RegisteredAt() time.Time { return m.registeredAt }
func (m *Member) IsActive() bool          { return m.active }
func (m *Member) CurrentLoans() int       { return m.currentLoans }
func (m *Member) IsLate() bool            { return m.late }
func (m *Member) LateDays() int           { return m.lateDays }

// CanBorrow is the single eligibility gate checked before every borrow.
func (m *Member) CanBorrow() bool {
	return m.active && m.currentLoans < MaxLoans && !m.late
}

// AddLoan counts one more loan against the member.
func (m *Member) AddLoan() error {
	if !m.CanBorrow() {
		return stateErr("add loan", ErrMemberIneligible)
	}
	m.currentLoans++
	return nil
}

// RemoveLoan counts one loan less, never going below zero.
func (m *Member) RemoveLoan() {
	if m.currentLoans > 0 {
		m.currentLoans--
	}
}

// MarkLate blocks further borrowing until ClearLateStatus is called.
func (m *Member) MarkLate() { m.late = true }

func (m *Member) AddLateDays(n int) error {
	if n < 0 {
		return invalid("late days", "must not be negative")
	}
	m.lateDays += n
	return nil
}

func (m *Member) ComputeLateFee() float64 {
	return float64(m.lateDays) * LateFeePerDay
}

// ClearLateStatus settles the member's fees.
func (m *Member) ClearLateStatus() {
	m.late = false
	m.lateDays = 0
}

func (m *Member) Activate()   { m.active = true }
func (m *Member) Deactivate() { m.active = false }

func (m *Member) String() string {
	return fmt.Sprintf("Member{id=%q, name=%q, email=%q, active=%t, loans=%d}",
		m.id, m.firstName+" "+m.lastName, m.email, m.active, m.currentLoans)
}
