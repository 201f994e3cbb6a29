package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/mrlokans/bookshelf/internal/config"
	"github.com/mrlokans/bookshelf/internal/entities"
	"github.com/mrlokans/bookshelf/internal/library"
)

// StatsCommand prints the dashboard statistics of a bookshelf.
type StatsCommand struct {
	JSON bool
	storeFlags

	Out io.Writer
}

func NewStatsCommand() *StatsCommand {
	return &StatsCommand{Out: os.Stdout}
}

func (cmd *StatsCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("stats", flag.ContinueOnError)

	fs.BoolVar(&cmd.JSON, "json", false, "Print the statistics as JSON")
	cmd.register(fs, config.NewConfig())

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s stats [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Print reading statistics.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

func (cmd *StatsCommand) Run() error {
	store, err := cmd.open()
	if err != nil {
		return err
	}
	defer closeStore(store)

	books, err := store.ListBooks(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list books: %w", err)
	}
	stats := library.CalculateStats(books)

	if cmd.JSON {
		enc := json.NewEncoder(cmd.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}

	fmt.Fprintf(cmd.Out, "=== Bookshelf Stats ===\n")
	fmt.Fprintf(cmd.Out, "Books: %d\n", stats.Total)
	fmt.Fprintf(cmd.Out, "Reading: %d\n", stats.Reading)
	fmt.Fprintf(cmd.Out, "Finished: %d\n", stats.Finished)
	fmt.Fprintf(cmd.Out, "Pages read: %d\n", stats.PagesRead)
	if stats.RatedBooks > 0 {
		fmt.Fprintf(cmd.Out, "Average rating: %.1f (%d rated)\n", stats.AverageRating, stats.RatedBooks)
	}

	fmt.Fprintf(cmd.Out, "\n=== By Status ===\n")
	for _, s := range entities.AllReadingStatuses() {
		fmt.Fprintf(cmd.Out, "%-12s %d\n", s.Label(), stats.ByStatus[s])
	}

	if len(stats.ByGenre) > 0 {
		fmt.Fprintf(cmd.Out, "\n=== By Genre ===\n")
		for _, g := range sortedGenres(stats.ByGenre) {
			fmt.Fprintf(cmd.Out, "%-24s %d\n", g, stats.ByGenre[g])
		}
	}
	return nil
}

// sortedGenres orders genres by count, then name.
func sortedGenres(byGenre map[string]int) []string {
	names := make([]string, 0, len(byGenre))
	for name := range byGenre {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if byGenre[names[i]] != byGenre[names[j]] {
			return byGenre[names[i]] > byGenre[names[j]]
		}
		return names[i] < names[j]
	})
	return names
}
