package library

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"
)

// LibraryService owns the catalog, the member registry and the loan history.
// It is the only place these collections are changed. Every public method
// holds the service lock for its whole duration.
type LibraryService struct {
	mu      sync.Mutex
	catalog map[string]*Book
	members map[string]*Member
	loans   []*Loan

	now     func() time.Time
	logger  *slog.Logger
	journal Journal
	metrics *Metrics
}

// Statistics is a point-in-time summary of the library.
type Statistics struct {
	Books       int
	Members     int
	ActiveLoans int
}

func (s Statistics) String() string {
	return fmt.Sprintf("Statistics{books=%d, members=%d, active loans=%d}", s.Books, s.Members, s.ActiveLoans)
}

func NewLibraryService(opts ...Option) *LibraryService {
	s := &LibraryService{
		catalog: make(map[string]*Book),
		members: make(map[string]*Member),
		now:     time.Now,
		logger:  discardLogger(),
		journal: nopJournal{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ------------------ Registries ------------------

// AddBook stores b under its ISBN, replacing any book already filed there.
func (s *LibraryService) AddBook(b *Book) error {
	if b == nil {
		return invalid("book", "must not be nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.catalog[b.ISBN()] = b
	s.logger.Debug("book added", "isbn", b.ISBN(), "title", b.Title(), "copies", b.TotalCopies())
	s.record(newEvent(EventBookAdded, b.ISBN(), "", s.now(), map[string]any{
		"title":  b.Title(),
		"author": b.Author(),
		"year":   b.Year(),
		"copies": b.TotalCopies(),
	}))
	return nil
}

// RegisterMember stores m under its membership id, replacing any previous entry.
func (s *LibraryService) RegisterMember(m *Member) error {
	if m == nil {
		return invalid("member", "must not be nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.members[m.ID()] = m
	s.logger.Debug("member registered", "member", m.ID())
	s.record(newEvent(EventMemberRegistered, "", m.ID(), s.now(), map[string]any{
		"last_name":  m.LastName(),
		"first_name": m.FirstName(),
		"email":      m.Email(),
	}))
	return nil
}

// FindBookByISBN returns nil when the catalog has no such book.
func (s *LibraryService) FindBookByISBN(isbn string) *Book {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalog[isbn]
}

// FindMember returns nil when no member has that id.
func (s *LibraryService) FindMember(id string) *Member {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.members[id]
}

// ListBooks returns the whole catalog ordered by ISBN.
func (s *LibraryService) ListBooks() []*Book {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.booksWhere(func(*Book) bool { return true })
}

// ListMembers returns every member ordered by last name, then id.
func (s *LibraryService) ListMembers() []*Member {
	s.mu.Lock()
	defer s.mu.Unlock()

	members := make([]*Member, 0, len(s.members))
	for _, m := range s.members {
		members = append(members, m)
	}
	slices.SortFunc(members, func(a, b *Member) int {
		if c := strings.Compare(a.LastName(), b.LastName()); c != 0 {
			return c
		}
		return strings.Compare(a.ID(), b.ID())
	})
	return members
}

// SetMemberActive activates or deactivates a member. A deactivated member
// cannot borrow.
func (s *LibraryService) SetMemberActive(memberID string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.members[memberID]
	if !ok {
		return stateErr("set member active", fmt.Errorf("%w: %s", ErrMemberNotFound, memberID))
	}
	if active {
		m.Activate()
	} else {
		m.Deactivate()
	}
	s.logger.Info("member status changed", "member", memberID, "active", active)
	return nil
}

// ------------------ Circulation ------------------

// BorrowBook lends one copy of the book to the member. Every check runs
// before anything is changed, so a refused borrow leaves no trace.
func (s *LibraryService) BorrowBook(isbn, memberID string) (*Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	book, ok := s.catalog[isbn]
	if !ok {
		s.rejected(rejectBookNotFound)
		return nil, stateErr("borrow book", fmt.Errorf("%w: %s", ErrBookNotFound, isbn))
	}
	member, ok := s.members[memberID]
	if !ok {
		s.rejected(rejectMemberNotFound)
		return nil, stateErr("borrow book", fmt.Errorf("%w: %s", ErrMemberNotFound, memberID))
	}
	if !member.CanBorrow() {
		s.rejected(rejectIneligible)
		return nil, stateErr("borrow book", fmt.Errorf("%w: %s", ErrMemberIneligible, memberID))
	}
	if !book.IsAvailable() {
		s.rejected(rejectNoCopy)
		return nil, stateErr("borrow book", fmt.Errorf("%w: %s", ErrNoCopyAvailable, isbn))
	}

	loan, err := newLoan(book, member, s.now)
	if err != nil {
		return nil, err
	}
	if !book.BorrowCopy() {
		return nil, stateErr("borrow book", ErrNoCopyAvailable)
	}
	if err := member.AddLoan(); err != nil {
		book.ReturnCopy()
		return nil, err
	}
	s.loans = append(s.loans, loan)

	s.logger.Info("book lent", "isbn", isbn, "member", memberID, "due", loan.DueAt().Format(time.DateOnly))
	if s.metrics != nil {
		s.metrics.LoansCreated.Inc()
		s.metrics.ActiveLoans.Set(float64(s.outstanding()))
	}
	s.record(newEvent(EventBookLent, isbn, memberID, loan.LoanedAt(), map[string]any{
		"due": loan.DueAt().Format(time.DateOnly),
	}))
	return loan, nil
}

// ReturnBook closes the loan and gives the copy back to the catalog. Lateness
// is assessed once, here, against the actual return date: a late return
// marks the member late and adds the overdue days to their account.
func (s *LibraryService) ReturnBook(loan *Loan) error {
	if loan == nil {
		return invalid("loan", "must not be nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if !slices.Contains(s.loans, loan) {
		return stateErr("return book", ErrLoanNotFound)
	}
	if loan.IsReturned() {
		return stateErr("return book", ErrLoanReturned)
	}

	loan.MarkReturned()
	loan.Book().ReturnCopy()
	member := loan.Member()
	member.RemoveLoan()

	days := loan.ComputeOverdueDays()
	if days > 0 {
		member.MarkLate()
		if err := member.AddLateDays(days); err != nil {
			return err
		}
	}

	s.logger.Info("book returned", "isbn", loan.Book().ISBN(), "member", member.ID(), "late_days", days)
	if s.metrics != nil {
		s.metrics.LoansReturned.Inc()
		if days > 0 {
			s.metrics.LateReturns.Inc()
		}
		s.metrics.ActiveLoans.Set(float64(s.outstanding()))
	}
	s.record(newEvent(EventBookReturned, loan.Book().ISBN(), member.ID(), loan.ReturnedAt(), map[string]any{
		"late_days": days,
		"late_fee":  loan.ComputeLateFee(),
	}))
	return nil
}

// ExtendLoan pushes the loan's due date back. It reports false, with no
// error, when the loan is not eligible for an extension.
func (s *LibraryService) ExtendLoan(loan *Loan) (bool, error) {
	if loan == nil {
		return false, invalid("loan", "must not be nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if !slices.Contains(s.loans, loan) {
		return false, stateErr("extend loan", ErrLoanNotFound)
	}
	if !loan.Extend() {
		return false, nil
	}
	s.logger.Info("loan extended", "isbn", loan.Book().ISBN(), "member", loan.Member().ID(),
		"due", loan.DueAt().Format(time.DateOnly))
	s.record(newEvent(EventLoanExtended, loan.Book().ISBN(), loan.Member().ID(), s.now(), map[string]any{
		"due": loan.DueAt().Format(time.DateOnly),
	}))
	return true, nil
}

// SettleLateFees clears the member's late status and returns the fee that was
// owed. Late status is never cleared any other way.
func (s *LibraryService) SettleLateFees(memberID string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.members[memberID]
	if !ok {
		return 0, stateErr("settle late fees", fmt.Errorf("%w: %s", ErrMemberNotFound, memberID))
	}
	fee := m.ComputeLateFee()
	days := m.LateDays()
	m.ClearLateStatus()

	s.logger.Info("late fees settled", "member", memberID, "fee", fee)
	s.record(newEvent(EventLateFeesSettled, "", memberID, s.now(), map[string]any{
		"late_days": days,
		"fee":       fee,
	}))
	return fee, nil
}

// RefreshOverdue evaluates every unreturned loan, moving the ones past their
// due date to OVERDUE, and returns how many are overdue. ListActiveLoans and
// GetStatistics only see the transition after this (or IsOverdue) has run.
func (s *LibraryService) RefreshOverdue() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, l := range s.loans {
		if l.IsOverdue() {
			n++
		}
	}
	if s.metrics != nil {
		s.metrics.ActiveLoans.Set(float64(s.outstanding()))
	}
	return n
}

// EvaluateLoan runs the overdue check on one loan under the service lock and
// reports whether it is overdue. Loans the service did not issue are never
// overdue here.
func (s *LibraryService) EvaluateLoan(loan *Loan) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if loan == nil || !slices.Contains(s.loans, loan) {
		return false
	}
	return loan.IsOverdue()
}

// ------------------ Queries ------------------

// SearchByTitle matches q case-insensitively anywhere in the title. A blank
// query matches nothing.
func (s *LibraryService) SearchByTitle(q string) []*Book {
	return s.search(q, (*Book).Title)
}

// SearchByAuthor matches q case-insensitively anywhere in the author. A blank
// query matches nothing.
func (s *LibraryService) SearchByAuthor(q string) []*Book {
	return s.search(q, (*Book).Author)
}

func (s *LibraryService) search(q string, field func(*Book) string) []*Book {
	if strings.TrimSpace(q) == "" {
		return []*Book{}
	}
	needle := strings.ToLower(q)

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.booksWhere(func(b *Book) bool {
		return strings.Contains(strings.ToLower(field(b)), needle)
	})
}

// ListLoansForMember returns the member's whole loan history in creation order.
func (s *LibraryService) ListLoansForMember(memberID string) []*Loan {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loansWhere(func(l *Loan) bool { return l.Member().ID() == memberID })
}

// ListActiveLoans filters on the stored status only. Loans past their due date
// that nobody has evaluated yet still read as ACTIVE; see RefreshOverdue.
func (s *LibraryService) ListActiveLoans() []*Loan {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loansWhere(func(l *Loan) bool { return l.Status() == LoanActive })
}

// GetStatistics counts books, members and loans in ACTIVE status. Like
// ListActiveLoans it does not trigger overdue evaluation.
func (s *LibraryService) GetStatistics() Statistics {
	s.mu.Lock()
	defer s.mu.Unlock()

	active := 0
	for _, l := range s.loans {
		if l.Status() == LoanActive {
			active++
		}
	}
	return Statistics{
		Books:       len(s.catalog),
		Members:     len(s.members),
		ActiveLoans: active,
	}
}

// ------------------ Helpers ------------------

func (s *LibraryService) booksWhere(keep func(*Book) bool) []*Book {
	books := []*Book{}
	for _, b := range s.catalog {
		if keep(b) {
			books = append(books, b)
		}
	}
	slices.SortFunc(books, func(a, b *Book) int { return strings.Compare(a.ISBN(), b.ISBN()) })
	return books
}

func (s *LibraryService) loansWhere(keep func(*Loan) bool) []*Loan {
	loans := []*Loan{}
	for _, l := range s.loans {
		if keep(l) {
			loans = append(loans, l)
		}
	}
	return loans
}

// outstanding counts loans not yet returned, whatever their status.
func (s *LibraryService) outstanding() int {
	n := 0
	for _, l := range s.loans {
		if !l.IsReturned() {
			n++
		}
	}
	return n
}

func (s *LibraryService) rejected(reason string) {
	s.logger.Debug("borrow rejected", "reason", reason)
	if s.metrics != nil {
		s.metrics.BorrowRejected.WithLabelValues(reason).Inc()
	}
}

func (s *LibraryService) record(e Event) {
	if err := s.journal.Record(e); err != nil {
		s.logger.Warn("journal write failed", "event", e.Type, "err", err)
	}
}
