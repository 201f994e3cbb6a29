package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/spf13/afero"

	"github.com/mrlokans/bookshelf/internal/config"
	"github.com/mrlokans/bookshelf/internal/jsonstore"
)

// ExportCommand writes every book and genre to a directory in the json
// backend's file format, so the result can be served with STORAGE_BACKEND=json.
type ExportCommand struct {
	OutputDir string
	storeFlags

	Fs  afero.Fs
	Out io.Writer
}

func NewExportCommand() *ExportCommand {
	return &ExportCommand{
		Fs:  afero.NewOsFs(),
		Out: os.Stdout,
	}
}

func (cmd *ExportCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)

	fs.StringVar(&cmd.OutputDir, "out", "", "Directory to write books.json and genres.json to (required)")
	cmd.register(fs, config.NewConfig())

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s export -out <dir> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Export the bookshelf as JSON files.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s export -out ./snapshot\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s export -out ./snapshot -backend remote -remote https://books.example.com/api\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.OutputDir == "" {
		fs.Usage()
		return fmt.Errorf("required flag -out not provided")
	}
	return nil
}

func (cmd *ExportCommand) Run() error {
	store, err := cmd.open()
	if err != nil {
		return err
	}
	defer closeStore(store)

	ctx := context.Background()
	books, err := store.ListBooks(ctx)
	if err != nil {
		return fmt.Errorf("failed to list books: %w", err)
	}
	genres, err := store.ListGenres(ctx)
	if err != nil {
		return fmt.Errorf("failed to list genres: %w", err)
	}

	if err := jsonstore.WriteSnapshot(cmd.Fs, cmd.OutputDir, books, genres); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}

	fmt.Fprintf(cmd.Out, "Exported %d books and %d genres from %s to %s\n",
		len(books), len(genres), store.Name(), cmd.OutputDir)
	return nil
}
