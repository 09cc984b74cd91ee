package library

import (
	"fmt"
	"strings"
	"time"
)

// MinPublicationYear is the oldest publication year the catalog accepts.
const MinPublicationYear = 1900

// Book is a catalog entry together with its copy counters.
type Book struct {
	isbn      string
	title     string
	author    string
	year      int
	total     int
	available int
}

// NewBook creates a single-copy book.
func NewBook(isbn, title, author string, year int) (*Book, error) {
	return NewBookWithCopies(isbn, title, author, year, 1)
}

// NewBookWithCopies creates a book with copies copies, all of them available.
func NewBookWithCopies(isbn, title, author string, year, copies int) (*Book, error) {
	if strings.TrimSpace(isbn) == "" {
		return nil, invalid("isbn", "must not be empty")
	}
	if strings.TrimSpace(title) == "" {
		return nil, invalid("title", "must not be empty")
	}
	if strings.TrimSpace(author) == "" {
		return nil, invalid("author", "must not be empty")
	}
	if current := time.Now().Year(); year < MinPublicationYear || year > current {
		return nil, invalid("year", fmt.Sprintf("must be between %d and %d", MinPublicationYear, current))
	}
	if copies < 1 {
		return nil, invalid("copies", "must be at least 1")
	}
	return &Book{
		isbn:      isbn,
		title:     title,
		author:    author,
		year:      year,
		total:     copies,
		available: copies,
	}, nil
}

func (b *Book) ISBN() string         { return b.isbn }
func (b *Book) Title() string        { return b.title }
func (b *Book) Author() string       { return b.author }
func (b *Book) Year() int            { return b.year }
func (b *Book) TotalCopies() int     { return b.total }
func (b *Book) AvailableCopies() int { return b.available }

// BorrowCopy takes one copy off the shelf. It reports false when none is left.
func (b *Book) BorrowCopy() bool {
	if b.available == 0 {
		return false
	}
	b.available--
	return true
}

// ReturnCopy puts one copy back. A book that is already fully stocked is left
// untouched and false is returned.
func (b *Book) ReturnCopy() bool {
	if b.available >= b.total {
		return false
	}
	b.available++
	return true
}

func (b *Book) IsAvailable() bool { return b.available > 0 }

// AddCopies grows both the total and the available count by n.
func (b *Book) AddCopies(n int) error {
	if n < 0 {
		return invalid("copies", "must not be negative")
	}
	b.total += n
	b.available += n
	return nil
}

func (b *Book) String() string {
	return fmt.Sprintf("Book{isbn=%q, title=%q, author=%q, year=%d, copies=%d/%d}",
		b.isbn, b.title, b.author, b.year, b.available, b.total)
}
