package library

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBookDefaults(t *testing.T) {
	b, err := NewBook("978-0-13-235088-4", "Clean Code", "Robert C. Martin", 2008)
	require.NoError(t, err)

	assert.Equal(t, "978-0-13-235088-4", b.ISBN())
	assert.Equal(t, "Clean Code", b.Title())
	assert.Equal(t, "Robert C. Martin", b.Author())
	assert.Equal(t, 2008, b.Year())
	assert.Equal(t, 1, b.TotalCopies())
	assert.Equal(t, 1, b.AvailableCopies())
	assert.True(t, b.IsAvailable())
}

func TestNewBookValidation(t *testing.T) {
	thisYear := time.Now().Year()

	tests := []struct {
		name   string
		isbn   string
		title  string
		author string
		year   int
		copies int
		field  string
	}{
		{"empty isbn", "", "T", "A", 2000, 1, "isbn"},
		{"blank title", "1", "   ", "A", 2000, 1, "title"},
		{"empty author", "1", "T", "", 2000, 1, "author"},
		{"year too old", "1", "T", "A", 1899, 1, "year"},
		{"year in the future", "1", "T", "A", thisYear + 1, 1, "year"},
		{"no copies", "1", "T", "A", 2000, 0, "copies"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := NewBookWithCopies(tt.isbn, tt.title, tt.author, tt.year, tt.copies)
			require.Error(t, err)
			assert.Nil(t, b)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestNewBookYearBounds(t *testing.T) {
	_, err := NewBook("1", "T", "A", MinPublicationYear)
	require.NoError(t, err)
	_, err = NewBook("2", "T", "A", time.Now().Year())
	require.NoError(t, err)
}

func TestBorrowAndReturnCopy(t *testing.T) {
	b, err := NewBook("1", "T", "A", 2000)
	require.NoError(t, err)

	assert.False(t, b.ReturnCopy(), "a fully stocked book cannot take a return")
	assert.True(t, b.BorrowCopy())
	assert.Equal(t, 0, b.AvailableCopies())
	assert.False(t, b.IsAvailable())
	assert.False(t, b.BorrowCopy())
	assert.Equal(t, 0, b.AvailableCopies())

	assert.True(t, b.ReturnCopy())
	assert.Equal(t, 1, b.AvailableCopies())
	assert.False(t, b.ReturnCopy())
	assert.Equal(t, 1, b.AvailableCopies())
}

func TestAddCopies(t *testing.T) {
	b, err := NewBook("1", "T", "A", 2000)
	require.NoError(t, err)
	require.True(t, b.BorrowCopy())

	require.NoError(t, b.AddCopies(3))
	assert.Equal(t, 4, b.TotalCopies())
	assert.Equal(t, 3, b.AvailableCopies())

	require.NoError(t, b.AddCopies(0))
	assert.Equal(t, 4, b.TotalCopies())

	err = b.AddCopies(-1)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, 4, b.TotalCopies())
	assert.Equal(t, 3, b.AvailableCopies())
}

func TestBookCountersStayConsistent(t *testing.T) {
	b, err := NewBookWithCopies("1", "T", "A", 2000, 2)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 1000; i++ {
		switch rng.Intn(3) {
		case 0:
			b.BorrowCopy()
		case 1:
			b.ReturnCopy()
		case 2:
			require.NoError(t, b.AddCopies(rng.Intn(2)))
		}
		require.GreaterOrEqual(t, b.AvailableCopies(), 0)
		require.LessOrEqual(t, b.AvailableCopies(), b.TotalCopies())
	}
}

func TestBookString(t *testing.T) {
	b, err := NewBookWithCopies("42", "Dune", "Frank Herbert", 1965, 3)
	require.NoError(t, err)
	assert.Equal(t, `Book{isbn="42", title="Dune", author="Frank Herbert", year=1965, copies=3/3}`, b.String())
}
