// Package storage defines the data-access interface shared by the sqlite,
// json and remote backends, and opens the one selected by configuration.
package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mrlokans/bookshelf/internal/database"
	"github.com/mrlokans/bookshelf/internal/entities"
	"github.com/mrlokans/bookshelf/internal/jsonstore"
	"github.com/mrlokans/bookshelf/internal/remote"
)

const (
	BackendSQLite = "sqlite"
	BackendJSON   = "json"
	BackendRemote = "remote"
)

// BookStore persists books. Missing books yield entities.ErrNotFound.
type BookStore interface {
	ListBooks(ctx context.Context) ([]entities.Book, error)
	GetBook(ctx context.Context, id string) (*entities.Book, error)
	CreateBook(ctx context.Context, b *entities.Book) error
	UpdateBook(ctx context.Context, b *entities.Book) error
	DeleteBook(ctx context.Context, id string) error
}

// GenreStore persists the genre catalogue. Creating a genre whose name
// already exists returns the existing genre and entities.ErrConflict.
type GenreStore interface {
	ListGenres(ctx context.Context) ([]entities.Genre, error)
	GetGenre(ctx context.Context, id uint) (*entities.Genre, error)
	CreateGenre(ctx context.Context, name string) (*entities.Genre, error)
	DeleteGenre(ctx context.Context, id uint) error
	DeleteGenreByName(ctx context.Context, name string) error
}

// Store is a complete backend.
type Store interface {
	BookStore
	GenreStore
	Name() string
	Ping(ctx context.Context) error
	Close() error
}

// OrphanCleaner is implemented by backends that own their genre catalogue.
type OrphanCleaner interface {
	DeleteOrphanGenres(ctx context.Context) (int64, error)
}

var (
	_ Store         = (*database.Database)(nil)
	_ Store         = (*jsonstore.Store)(nil)
	_ Store         = (*remote.Store)(nil)
	_ OrphanCleaner = (*database.Database)(nil)
	_ OrphanCleaner = (*jsonstore.Store)(nil)
)

// Options selects and configures a backend.
type Options struct {
	Backend          string
	DatabasePath     string
	DatabaseLogLevel string
	DataDir          string
	RemoteBaseURL    string
	RemoteRateLimit  float64
	RemoteTimeout    time.Duration
}

// Open returns the backend named by opts.Backend.
func Open(opts Options) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case "", BackendSQLite:
		db, err := database.NewDatabase(opts.DatabasePath, database.ParseLogLevel(opts.DatabaseLogLevel))
		if err != nil {
			return nil, err
		}
		return db, nil
	case BackendJSON:
		store, err := jsonstore.NewOnDisk(opts.DataDir)
		if err != nil {
			return nil, err
		}
		return store, nil
	case BackendRemote:
		if opts.RemoteBaseURL == "" {
			return nil, fmt.Errorf("remote backend requires REMOTE_API_BASE")
		}
		return remote.New(remote.Config{
			BaseURL:   opts.RemoteBaseURL,
			RateLimit: opts.RemoteRateLimit,
			Timeout:   opts.RemoteTimeout,
		}), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", opts.Backend)
	}
}
