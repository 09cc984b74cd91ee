package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"library-management/library"

	"github.com/spf13/cobra"
)

var journalPath string

var rootCmd = &cobra.Command{
	Use:   "import_books <catalog.yaml>",
	Short: "Validate a YAML catalog by loading it into a fresh library",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return importCatalog(args[0])
	},
}

func init() {
	rootCmd.Flags().StringVar(&journalPath, "journal", "", "Record the imported books and members in this SQLite journal")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func importCatalog(path string) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	opts := []library.Option{library.WithLogger(logger)}

	if journalPath != "" {
		// Start from an empty journal, like a fresh import.
		for _, file := range []string{journalPath, journalPath + "-shm", journalPath + "-wal"} {
			if err := os.Remove(file); err != nil && !os.IsNotExist(err) {
				logger.Warn("could not remove old journal file", "file", file, "err", err)
			}
		}
		journal, err := library.NewSQLiteJournal(journalPath)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		defer journal.Close()
		opts = append(opts, library.WithJournal(journal))
	}

	seed, err := library.ReadSeedFile(path)
	if err != nil {
		return fmt.Errorf("read catalog: %w", err)
	}

	svc := library.NewLibraryService(opts...)
	fmt.Printf("Importing %d books and %d members from %s...\n", len(seed.Books), len(seed.Members), path)
	members, err := seed.Apply(svc)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	fmt.Printf("\nImport complete!\n")
	books := svc.ListBooks()
	fmt.Printf("%-20s %-50s %-30s %s\n", "ISBN", "Title", "Author", "Copies")
	fmt.Println(strings.Repeat("-", 110))
	for _, b := range books {
		fmt.Printf("%-20s %-50s %-30s %d\n", b.ISBN(), truncateString(b.Title(), 50), truncateString(b.Author(), 30), b.TotalCopies())
	}

	if len(members) > 0 {
		fmt.Println("\nRegistered members:")
		for _, m := range members {
			fmt.Printf("  %s  %s %s <%s>\n", m.ID(), m.FirstName(), m.LastName(), m.Email())
		}
	}

	stats := svc.GetStatistics()
	fmt.Printf("\nBooks: %d | Members: %d\n", stats.Books, stats.Members)
	return nil
}

func truncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
