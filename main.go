package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"library-management/library"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
)

var (
	verbose     bool
	journalPath string
	seedPath    string
)

var rootCmd = &cobra.Command{
	Use:   "library-management",
	Short: "In-memory library circulation: catalog, members and loans",
	Long: `library-management keeps a catalog of books and a registry of members in memory
and enforces the lending rules: at most five loans per member, fourteen-day loans,
seven-day extensions and a late fee of 0.50 per day.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&journalPath, "journal", "", "Append circulation events to this SQLite file")
	rootCmd.PersistentFlags().StringVar(&seedPath, "seed", "", "Stock the library from this YAML file")
	rootCmd.AddCommand(shellCmd, demoCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// openLibrary builds the service from the persistent flags. The journal is
// nil unless --journal was given; the caller closes it. The registry holds
// the circulation metrics of the returned service.
func openLibrary() (*library.LibraryService, *library.SQLiteJournal, *prometheus.Registry, error) {
	reg := prometheus.NewRegistry()
	opts := []library.Option{
		library.WithLogger(slog.Default()),
		library.WithMetrics(library.NewMetrics(reg)),
	}

	var journal *library.SQLiteJournal
	if journalPath != "" {
		var err error
		if journal, err = library.NewSQLiteJournal(journalPath); err != nil {
			return nil, nil, nil, fmt.Errorf("open journal: %w", err)
		}
		opts = append(opts, library.WithJournal(journal))
	}

	svc := library.NewLibraryService(opts...)
	if seedPath != "" {
		if err := seedLibrary(svc, seedPath); err != nil {
			if journal != nil {
				journal.Close()
			}
			return nil, nil, nil, err
		}
	}
	return svc, journal, reg, nil
}

func seedLibrary(svc *library.LibraryService, path string) error {
	seed, err := library.ReadSeedFile(path)
	if err != nil {
		return fmt.Errorf("read seed: %w", err)
	}
	members, err := seed.Apply(svc)
	if err != nil {
		return fmt.Errorf("apply seed: %w", err)
	}
	slog.Info("library seeded", "books", len(seed.Books), "members", len(members))
	return nil
}

// writeMetrics prints every gathered metric family in the Prometheus text
// format.
func writeMetrics(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}

// truncateString shortens s to maxLength characters, counting runes so
// accented names are never cut in half.
func truncateString(s string, maxLength int) string {
	runes := []rune(s)
	if len(runes) <= maxLength {
		return s
	}
	if maxLength <= 3 {
		return string(runes[:maxLength])
	}
	return string(runes[:maxLength-3]) + "..."
}
