// Package interfaces documents the core abstractions used throughout the application.
//
// # Interface Categories
//
// ## Data Access Interfaces
//
//   - storage.Store: a complete backend (internal/storage/store.go). Implemented
//     by database.Database (sqlite via gorm), jsonstore.Store (books.json and
//     genres.json) and remote.Store (an existing REST API).
//   - storage.OrphanCleaner: backends that own their genre catalogue
//   - http.BookStore, http.GenreStore, http.LibraryStore: the slices of a
//     store each controller needs (internal/http/stores.go)
//
// ## External Service Interfaces
//
//   - metadata.MetadataProvider: book metadata from external APIs (internal/metadata/enricher.go)
//
// ## Background Work
//
//   - http.TaskQueue: backlite queue client (internal/tasks/client.go)
//   - http.BackupRunner: cron-driven snapshots (internal/scheduler/backup.go)
//   - http.CoverCache, metadata.CoverInvalidator: local cover copies (internal/covers)
//
// # Adding a New Storage Backend
//
//  1. Implement storage.Store in a new package. Missing books must yield
//     entities.ErrNotFound and duplicate genres entities.ErrConflict.
//
//  2. Add a Backend constant and a case to storage.Open.
//
//  3. Add compile-time checks here and in storage/store.go.
//
// # Adding a New Metadata Provider
//
//  1. Implement MetadataProvider in internal/metadata/
//
//     func (c *GoogleBooksClient) SearchByISBN(ctx context.Context, isbn string) (*BookMetadata, error)
//     func (c *GoogleBooksClient) SearchByTitle(ctx context.Context, title, author string) (*BookMetadata, error)
//
//     var _ MetadataProvider = (*GoogleBooksClient)(nil)
//
//  2. Pass it to metadata.NewEnricher in entrypoint.go
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// See checks.go for examples.
package interfaces
