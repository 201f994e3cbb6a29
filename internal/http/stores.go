package http

import (
	"context"

	"github.com/mikestefanello/backlite"
	"github.com/spf13/afero"

	"github.com/mrlokans/bookshelf/internal/entities"
	"github.com/mrlokans/bookshelf/internal/metadata"
	"github.com/mrlokans/bookshelf/internal/scheduler"
)

// This file collects the interfaces the controllers depend on. Each
// controller takes only what it uses; storage.Store satisfies all of the
// store interfaces.

// BookStore persists books.
type BookStore interface {
	ListBooks(ctx context.Context) ([]entities.Book, error)
	GetBook(ctx context.Context, id string) (*entities.Book, error)
	CreateBook(ctx context.Context, b *entities.Book) error
	UpdateBook(ctx context.Context, b *entities.Book) error
	DeleteBook(ctx context.Context, id string) error
}

// GenreCatalogue lists genres. Book requests that reference genres by id
// are resolved against it.
type GenreCatalogue interface {
	ListGenres(ctx context.Context) ([]entities.Genre, error)
}

// GenreStore manages the genre catalogue.
type GenreStore interface {
	GenreCatalogue
	GetGenre(ctx context.Context, id uint) (*entities.Genre, error)
	CreateGenre(ctx context.Context, name string) (*entities.Genre, error)
	DeleteGenre(ctx context.Context, id uint) error
	DeleteGenreByName(ctx context.Context, name string) error
}

// LibraryStore is what the books controller needs.
type LibraryStore interface {
	BookStore
	GenreCatalogue
}

// Store combines every store interface.
type Store interface {
	BookStore
	GenreStore
	Pinger
}

// Pinger reports backend health.
type Pinger interface {
	Name() string
	Ping(ctx context.Context) error
}

// OrphanCleaner removes custom genres no book uses.
type OrphanCleaner interface {
	DeleteOrphanGenres(ctx context.Context) (int64, error)
}

// CoverCache serves locally cached cover images.
type CoverCache interface {
	GetCover(ctx context.Context, bookID, coverURL string) (string, error)
	Open(path string) (afero.File, error)
	InvalidateCover(bookID string) error
}

// BookEnricher fills missing book metadata from an external source.
type BookEnricher interface {
	EnrichBook(ctx context.Context, bookID string) (*metadata.EnrichmentResult, error)
	EnrichAllMissing(ctx context.Context) (*metadata.BulkEnrichmentResult, error)
}

// TaskQueue enqueues background tasks and reports on them.
type TaskQueue interface {
	Enqueue(task backlite.Task) (string, error)
	Status(ctx context.Context, taskID string) (backlite.TaskStatus, error)
}

// BackupRunner triggers and reports on snapshot backups.
type BackupRunner interface {
	RunNow()
	Status() scheduler.BackupStatus
}
