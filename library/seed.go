package library

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Seed is the YAML document used to stock a fresh service.
type Seed struct {
	Books   []SeedBook   `yaml:"books"`
	Members []SeedMember `yaml:"members"`
}

type SeedBook struct {
	ISBN   string `yaml:"isbn"`
	Title  string `yaml:"title"`
	Author string `yaml:"author"`
	Year   int    `yaml:"year"`
	Copies int    `yaml:"copies"`
}

type SeedMember struct {
	LastName  string `yaml:"last_name"`
	FirstName string `yaml:"first_name"`
	Email     string `yaml:"email"`
}

// ReadSeed decodes a seed document from r.
func ReadSeed(r io.Reader) (*Seed, error) {
	var seed Seed
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&seed); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	return &seed, nil
}

// ReadSeedFile reads the seed document at path.
func ReadSeedFile(path string) (*Seed, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadSeed(f)
}

// Apply adds every book and registers every member in s. It stops at the first
// invalid entry and returns the members registered so far, in document order.
func (seed *Seed) Apply(s *LibraryService) ([]*Member, error) {
	for i, sb := range seed.Books {
		copies := sb.Copies
		if copies == 0 {
			copies = 1
		}
		b, err := NewBookWithCopies(sb.ISBN, sb.Title, sb.Author, sb.Year, copies)
		if err != nil {
			return nil, fmt.Errorf("book %d (%s): %w", i, sb.ISBN, err)
		}
		if err := s.AddBook(b); err != nil {
			return nil, err
		}
	}

	members := make([]*Member, 0, len(seed.Members))
	for i, sm := range seed.Members {
		m, err := NewMember(sm.LastName, sm.FirstName, sm.Email)
		if err != nil {
			return members, fmt.Errorf("member %d (%s): %w", i, sm.Email, err)
		}
		if err := s.RegisterMember(m); err != nil {
			return members, err
		}
		members = append(members, m)
	}
	return members, nil
}
