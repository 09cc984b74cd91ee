package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"library-management/library"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Run the interactive circulation desk",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, journal, reg, err := openLibrary()
		if err != nil {
			return err
		}
		if journal != nil {
			defer journal.Close()
		}
		interactive := term.IsTerminal(int(os.Stdin.Fd()))
		return newShell(svc, journal, reg, os.Stdin, cmd.OutOrStdout(), interactive).run()
	},
}

// shell is the line-oriented front desk. Prompts are only printed when the
// input is a terminal so scripted sessions produce clean output.
type shell struct {
	svc         *library.LibraryService
	journal     *library.SQLiteJournal
	metrics     prometheus.Gatherer
	sc          *bufio.Scanner
	out         io.Writer
	interactive bool
}

func newShell(svc *library.LibraryService, journal *library.SQLiteJournal, metrics prometheus.Gatherer, in io.Reader, out io.Writer, interactive bool) *shell {
	return &shell{svc: svc, journal: journal, metrics: metrics, sc: bufio.NewScanner(in), out: out, interactive: interactive}
}

func (s *shell) run() error {
	if s.interactive {
		fmt.Fprintln(s.out, "Welcome to the Library Management System!")
		fmt.Fprintln(s.out, "Available commands:")
		fmt.Fprintln(s.out, "  Books: add book, list books, search title, search author")
		fmt.Fprintln(s.out, "  Members: add member, list members, activate, deactivate, settle")
		fmt.Fprintln(s.out, "  Circulation: checkout, return, extend, loans, active loans, refresh overdue")
		fmt.Fprintln(s.out, "  System: stats, history, exit")
	}

	for {
		s.prompt("\n> ")
		if !s.sc.Scan() {
			return s.sc.Err()
		}

		switch cmd := strings.TrimSpace(s.sc.Text()); cmd {
		case "add book":
			s.handleAddBook()
		case "add member":
			s.handleAddMember()
		case "list books":
			s.handleListBooks()
		case "list members":
			s.handleListMembers()
		case "search title":
			s.handleSearch("Title", s.svc.SearchByTitle)
		case "search author":
			s.handleSearch("Author", s.svc.SearchByAuthor)
		case "checkout":
			s.handleCheckout()
		case "return":
			s.handleReturn()
		case "extend":
			s.handleExtend()
		case "loans":
			s.handleLoans()
		case "active loans":
			s.handleActiveLoans()
		case "refresh overdue":
			fmt.Fprintf(s.out, "%d loan(s) overdue\n", s.svc.RefreshOverdue())
		case "activate", "deactivate":
			s.handleSetActive(cmd == "activate")
		case "settle":
			s.handleSettle()
		case "stats":
			s.handleStats()
		case "history":
			s.handleHistory()
		case "exit":
			fmt.Fprintln(s.out, "Goodbye!")
			return nil
		case "":
			continue
		default:
			fmt.Fprintln(s.out, "Unknown command. Type one of the available commands listed above.")
		}
	}
}

func (s *shell) prompt(p string) {
	if s.interactive {
		fmt.Fprint(s.out, p)
	}
}

// ask prompts for one line. ok is false once the input is exhausted.
func (s *shell) ask(p string) (string, bool) {
	s.prompt(p)
	if !s.sc.Scan() {
		return "", false
	}
	return strings.TrimSpace(s.sc.Text()), true
}

func (s *shell) handleAddBook() {
	isbn, ok := s.ask("ISBN: ")
	if !ok {
		return
	}
	title, ok := s.ask("Title: ")
	if !ok {
		return
	}
	author, ok := s.ask("Author: ")
	if !ok {
		return
	}
	yearStr, ok := s.ask("Year: ")
	if !ok {
		return
	}
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		fmt.Fprintf(s.out, "Invalid year: %s\n", yearStr)
		return
	}
	copiesStr, ok := s.ask("Copies (default 1): ")
	if !ok {
		return
	}
	copies := 1
	if copiesStr != "" {
		if copies, err = strconv.Atoi(copiesStr); err != nil {
			fmt.Fprintf(s.out, "Invalid copies: %s\n", copiesStr)
			return
		}
	}

	b, err := library.NewBookWithCopies(isbn, title, author, year, copies)
	if err != nil {
		fmt.Fprintf(s.out, "Error adding book: %v\n", err)
		return
	}
	if err := s.svc.AddBook(b); err != nil {
		fmt.Fprintf(s.out, "Error adding book: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "Added book %s\n", b)
}

func (s *shell) handleAddMember() {
	lastName, ok := s.ask("Last name: ")
	if !ok {
		return
	}
	firstName, ok := s.ask("First name: ")
	if !ok {
		return
	}
	email, ok := s.ask("Email: ")
	if !ok {
		return
	}

	m, err := library.NewMember(lastName, firstName, email)
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	if err := s.svc.RegisterMember(m); err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "Added member '%s %s' with ID %s\n", firstName, lastName, m.ID())
}

func (s *shell) handleListBooks() {
	books := s.svc.ListBooks()
	if len(books) == 0 {
		fmt.Fprintln(s.out, "No books in library.")
		return
	}
	s.printBooks(books)
}

func (s *shell) printBooks(books []*library.Book) {
	fmt.Fprintf(s.out, "%-20s %-30s %-25s %-6s %s\n", "ISBN", "Title", "Author", "Year", "Available")
	fmt.Fprintln(s.out, strings.Repeat("-", 95))
	for _, b := range books {
		fmt.Fprintf(s.out, "%-20s %-30s %-25s %-6d %d/%d\n",
			truncateString(b.ISBN(), 20),
			truncateString(b.Title(), 30),
			truncateString(b.Author(), 25),
			b.Year(),
			b.AvailableCopies(), b.TotalCopies())
	}
}

func (s *shell) handleListMembers() {
	members := s.svc.ListMembers()
	if len(members) == 0 {
		fmt.Fprintln(s.out, "No members registered.")
		return
	}

	fmt.Fprintf(s.out, "%-42s %-30s %-7s %-6s %s\n", "ID", "Name", "Active", "Loans", "Late fee")
	fmt.Fprintln(s.out, strings.Repeat("-", 100))
	for _, m := range members {
		fmt.Fprintf(s.out, "%-42s %-30s %-7t %-6d %.2f\n",
			m.ID(),
			truncateString(m.FirstName()+" "+m.LastName(), 30),
			m.IsActive(),
			m.CurrentLoans(),
			m.ComputeLateFee())
	}
}

func (s *shell) handleSearch(field string, search func(string) []*library.Book) {
	query, ok := s.ask(field + " contains: ")
	if !ok {
		return
	}
	books := search(query)
	if len(books) == 0 {
		fmt.Fprintf(s.out, "No books found matching '%s'.\n", query)
		return
	}
	fmt.Fprintf(s.out, "Found %d book(s) matching '%s':\n", len(books), query)
	s.printBooks(books)
}

func (s *shell) handleCheckout() {
	isbn, ok := s.ask("ISBN: ")
	if !ok {
		return
	}
	memberID, ok := s.ask("Member ID: ")
	if !ok {
		return
	}

	loan, err := s.svc.BorrowBook(isbn, memberID)
	if err != nil {
		fmt.Fprintf(s.out, "Error checking out book: %s\n", describe(err))
		return
	}
	fmt.Fprintf(s.out, "Book '%s' checked out to %s %s, due %s\n",
		loan.Book().Title(), loan.Member().FirstName(), loan.Member().LastName(),
		loan.DueAt().Format("2006-01-02"))
}

func (s *shell) handleReturn() {
	loan, ok := s.askOpenLoan()
	if !ok {
		return
	}
	if err := s.svc.ReturnBook(loan); err != nil {
		fmt.Fprintf(s.out, "Error returning book: %s\n", describe(err))
		return
	}
	fmt.Fprintf(s.out, "Book '%s' returned by %s\n", loan.Book().Title(), loan.Member().FirstName())
	if days := loan.ComputeOverdueDays(); days > 0 {
		fmt.Fprintf(s.out, "Returned %d day(s) late, fee %.2f. Borrowing is blocked until settled.\n", days, loan.ComputeLateFee())
	}
}

func (s *shell) handleExtend() {
	loan, ok := s.askOpenLoan()
	if !ok {
		return
	}
	extended, err := s.svc.ExtendLoan(loan)
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	if !extended {
		fmt.Fprintf(s.out, "Loan of '%s' cannot be extended (status %s)\n", loan.Book().Title(), loan.Status())
		return
	}
	fmt.Fprintf(s.out, "Loan of '%s' now due %s\n", loan.Book().Title(), loan.DueAt().Format("2006-01-02"))
}

// askOpenLoan finds the member's unreturned loan of a book.
func (s *shell) askOpenLoan() (*library.Loan, bool) {
	isbn, ok := s.ask("ISBN: ")
	if !ok {
		return nil, false
	}
	memberID, ok := s.ask("Member ID: ")
	if !ok {
		return nil, false
	}
	for _, l := range s.svc.ListLoansForMember(memberID) {
		if !l.IsReturned() && l.Book().ISBN() == isbn {
			return l, true
		}
	}
	fmt.Fprintf(s.out, "No open loan of %s for member %s\n", isbn, memberID)
	return nil, false
}

func (s *shell) handleLoans() {
	memberID, ok := s.ask("Member ID: ")
	if !ok {
		return
	}
	loans := s.svc.ListLoansForMember(memberID)
	if len(loans) == 0 {
		fmt.Fprintln(s.out, "No loans for this member.")
		return
	}
	s.printLoans(loans)
}

func (s *shell) handleActiveLoans() {
	loans := s.svc.ListActiveLoans()
	if len(loans) == 0 {
		fmt.Fprintln(s.out, "No active loans.")
		return
	}
	s.printLoans(loans)
}

func (s *shell) printLoans(loans []*library.Loan) {
	fmt.Fprintf(s.out, "%-30s %-25s %-11s %-11s %s\n", "Title", "Member", "Loaned", "Due", "Status")
	fmt.Fprintln(s.out, strings.Repeat("-", 90))
	for _, l := range loans {
		fmt.Fprintf(s.out, "%-30s %-25s %-11s %-11s %s\n",
			truncateString(l.Book().Title(), 30),
			truncateString(l.Member().LastName(), 25),
			l.LoanedAt().Format("2006-01-02"),
			l.DueAt().Format("2006-01-02"),
			l.Status())
	}
}

func (s *shell) handleSetActive(active bool) {
	memberID, ok := s.ask("Member ID: ")
	if !ok {
		return
	}
	if err := s.svc.SetMemberActive(memberID, active); err != nil {
		fmt.Fprintf(s.out, "Error: %s\n", describe(err))
		return
	}
	fmt.Fprintf(s.out, "Member %s active: %t\n", memberID, active)
}

func (s *shell) handleSettle() {
	memberID, ok := s.ask("Member ID: ")
	if !ok {
		return
	}
	fee, err := s.svc.SettleLateFees(memberID)
	if err != nil {
		fmt.Fprintf(s.out, "Error: %s\n", describe(err))
		return
	}
	fmt.Fprintf(s.out, "Settled %.2f for member %s\n", fee, memberID)
}

func (s *shell) handleStats() {
	fmt.Fprintln(s.out, s.svc.GetStatistics())
	if s.metrics == nil {
		return
	}
	if err := writeMetrics(s.out, s.metrics); err != nil {
		fmt.Fprintf(s.out, "Error reading metrics: %v\n", err)
	}
}

func (s *shell) handleHistory() {
	if s.journal == nil {
		fmt.Fprintln(s.out, "No journal configured. Start with --journal <file>.")
		return
	}
	events, err := s.journal.Events()
	if err != nil {
		fmt.Fprintf(s.out, "Error reading journal: %v\n", err)
		return
	}
	if len(events) == 0 {
		fmt.Fprintln(s.out, "Journal is empty.")
		return
	}
	for _, e := range events {
		fmt.Fprintf(s.out, "%s %-17s isbn=%s member=%s\n",
			e.OccurredAt.Format("2006-01-02 15:04:05"), e.Type, e.ISBN, e.MemberID)
	}
}

// describe turns a service error into a message for the desk.
func describe(err error) string {
	switch {
	case errors.Is(err, library.ErrBookNotFound):
		return "no such book in the catalog"
	case errors.Is(err, library.ErrMemberNotFound):
		return "no such member"
	case errors.Is(err, library.ErrMemberIneligible):
		return "member cannot borrow (inactive, five loans out, or unpaid late fees)"
	case errors.Is(err, library.ErrNoCopyAvailable):
		return "all copies are out"
	case errors.Is(err, library.ErrLoanReturned):
		return "loan was already returned"
	case errors.Is(err, library.ErrLoanNotFound):
		return "loan was not issued by this library"
	default:
		return err.Error()
	}
}
