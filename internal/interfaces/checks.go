package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/bookshelf/internal/covers"
	"github.com/mrlokans/bookshelf/internal/database"
	"github.com/mrlokans/bookshelf/internal/http"
	"github.com/mrlokans/bookshelf/internal/jsonstore"
	"github.com/mrlokans/bookshelf/internal/metadata"
	"github.com/mrlokans/bookshelf/internal/remote"
	"github.com/mrlokans/bookshelf/internal/scheduler"
	"github.com/mrlokans/bookshelf/internal/storage"
	"github.com/mrlokans/bookshelf/internal/tasks"
)

// =============================================================================
// Data Access Layer
// =============================================================================

// Store implementations
var _ http.Store = (*database.Database)(nil)
var _ http.Store = (*jsonstore.Store)(nil)
var _ http.Store = (*remote.Store)(nil)
var _ http.Store = storage.Store(nil)

// OrphanCleaner implementations
var _ http.OrphanCleaner = (*database.Database)(nil)
var _ http.OrphanCleaner = (*jsonstore.Store)(nil)
var _ tasks.OrphanGenresCleaner = (*database.Database)(nil)

// Enrichment and backups read through the same stores
var _ metadata.BookStore = storage.Store(nil)
var _ scheduler.Source = storage.Store(nil)

// =============================================================================
// External Services
// =============================================================================

// MetadataProvider implementations
var _ metadata.MetadataProvider = (*metadata.OpenLibraryClient)(nil)

// =============================================================================
// Background Work
// =============================================================================

var _ http.BookEnricher = (*metadata.Enricher)(nil)
var _ tasks.BookEnricher = (*metadata.Enricher)(nil)
var _ http.TaskQueue = (*tasks.Client)(nil)
var _ http.BackupRunner = (*scheduler.BackupScheduler)(nil)

// =============================================================================
// Caching
// =============================================================================

var _ http.CoverCache = (*covers.Cache)(nil)
var _ metadata.CoverInvalidator = (*covers.Cache)(nil)
