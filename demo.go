package main

import (
	"fmt"
	"io"

	"library-management/library"

	"github.com/spf13/cobra"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Stock a small library and walk through a few loans",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, journal, reg, err := openLibrary()
		if err != nil {
			return err
		}
		if journal != nil {
			defer journal.Close()
		}
		out := cmd.OutOrStdout()
		if err := runDemo(svc, out); err != nil {
			return err
		}
		fmt.Fprintln(out, "\n--- Metrics ---")
		return writeMetrics(out, reg)
	},
}

func runDemo(svc *library.LibraryService, out io.Writer) error {
	fmt.Fprintln(out, "=== Library Management ===")

	fmt.Fprintln(out, "\n--- Adding books ---")
	books := make([]*library.Book, 0, 3)
	for _, entry := range []struct {
		isbn, title, author string
		year                int
	}{
		{"978-2-1234-5680-3", "Clean Code", "Robert C. Martin", 2008},
		{"978-2-1234-5681-0", "Design Patterns", "Gang of Four", 1994},
		{"978-2-1234-5682-7", "Refactoring", "Martin Fowler", 1999},
	} {
		b, err := library.NewBook(entry.isbn, entry.title, entry.author, entry.year)
		if err != nil {
			return err
		}
		if err := svc.AddBook(b); err != nil {
			return err
		}
		books = append(books, b)
		fmt.Fprintln(out, "+", b)
	}

	fmt.Fprintln(out, "\n--- Registering members ---")
	jean, err := library.NewMember("Dupont", "Jean", "jean.dupont@example.com")
	if err != nil {
		return err
	}
	marie, err := library.NewMember("Martin", "Marie", "marie.martin@example.com")
	if err != nil {
		return err
	}
	for _, m := range []*library.Member{jean, marie} {
		if err := svc.RegisterMember(m); err != nil {
			return err
		}
		fmt.Fprintln(out, "+", m)
	}

	fmt.Fprintln(out, "\n--- Borrowing ---")
	for _, req := range []struct {
		book   *library.Book
		member *library.Member
	}{
		{books[0], jean},
		{books[1], jean},
		{books[2], marie},
		{books[0], marie},
	} {
		loan, err := svc.BorrowBook(req.book.ISBN(), req.member.ID())
		if err != nil {
			fmt.Fprintf(out, "x %s could not borrow '%s': %s\n", req.member.FirstName(), req.book.Title(), describe(err))
			continue
		}
		fmt.Fprintf(out, "+ %s %s borrowed '%s', due %s\n",
			req.member.FirstName(), req.member.LastName(), req.book.Title(), loan.DueAt().Format("2006-01-02"))
	}

	fmt.Fprintln(out, "\n--- Search ---")
	fmt.Fprintln(out, "Title contains 'Clean':")
	for _, b := range svc.SearchByTitle("Clean") {
		fmt.Fprintf(out, "  - %s by %s\n", b.Title(), b.Author())
	}
	fmt.Fprintln(out, "Author contains 'Martin':")
	for _, b := range svc.SearchByAuthor("Martin") {
		fmt.Fprintf(out, "  - %s by %s\n", b.Title(), b.Author())
	}

	fmt.Fprintln(out, "\n--- Statistics ---")
	stats := svc.GetStatistics()
	fmt.Fprintf(out, "Books: %d\nMembers: %d\nActive loans: %d\n", stats.Books, stats.Members, stats.ActiveLoans)

	fmt.Fprintf(out, "\n--- Loans of %s %s ---\n", jean.FirstName(), jean.LastName())
	for _, l := range svc.ListLoansForMember(jean.ID()) {
		fmt.Fprintf(out, "  - %s (due %s)\n", l.Book().Title(), l.DueAt().Format("2006-01-02"))
	}

	fmt.Fprintln(out, "\n=== End of demo ===")
	return nil
}
