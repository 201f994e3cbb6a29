// Package metadata fills in missing book details (cover, pages, year,
// synopsis, ISBN and genres) from OpenLibrary.
package metadata

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/mrlokans/bookshelf/internal/entities"
	"github.com/mrlokans/bookshelf/internal/library"
)

// Placeholder values other clients write instead of leaving a field empty.
// They count as missing.
const (
	placeholderCover    = "https://via.placeholder.com/150"
	placeholderSynopsis = "Sem sinopse"
	maxEnrichedGenres   = 3
)

// MetadataProvider fetches book metadata.
type MetadataProvider interface {
	SearchByISBN(ctx context.Context, isbn string) (*BookMetadata, error)
	SearchByTitle(ctx context.Context, title, author string) (*BookMetadata, error)
}

// BookStore is the part of the store the enricher needs.
type BookStore interface {
	ListBooks(ctx context.Context) ([]entities.Book, error)
	GetBook(ctx context.Context, id string) (*entities.Book, error)
	UpdateBook(ctx context.Context, b *entities.Book) error
	ListGenres(ctx context.Context) ([]entities.Genre, error)
}

// CoverInvalidator drops cached covers.
type CoverInvalidator interface {
	InvalidateCover(bookID string) error
}

// EnrichmentResult describes one enrichment.
type EnrichmentResult struct {
	Book          *entities.Book `json:"book"`
	FieldsUpdated []string       `json:"fieldsUpdated"`
	Source        string         `json:"source"`
	SearchMethod  string         `json:"searchMethod"` // "isbn" or "title"
}

// Enricher handles book metadata enrichment from external sources.
type Enricher struct {
	provider         MetadataProvider
	store            BookStore
	coverInvalidator CoverInvalidator
}

func NewEnricher(provider MetadataProvider, store BookStore) *Enricher {
	return &Enricher{
		provider: provider,
		store:    store,
	}
}

// SetCoverInvalidator sets the cover cache invalidator (optional).
func (e *Enricher) SetCoverInvalidator(invalidator CoverInvalidator) {
	e.coverInvalidator = invalidator
}

// EnrichBook looks the book up by ISBN, falling back to title and author,
// and fills only the fields the reader left empty.
func (e *Enricher) EnrichBook(ctx context.Context, bookID string) (*EnrichmentResult, error) {
	book, err := e.store.GetBook(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("get book: %w", err)
	}

	var metadata *BookMetadata
	var searchMethod string

	if book.ISBN != "" {
		metadata, err = e.provider.SearchByISBN(ctx, book.ISBN)
		if err == nil {
			searchMethod = "isbn"
		}
	}

	if metadata == nil {
		metadata, err = e.provider.SearchByTitle(ctx, book.Title, book.Author)
		if err != nil {
			return nil, fmt.Errorf("metadata search failed: %w", err)
		}
		searchMethod = "title"
	}

	catalogue, err := e.store.ListGenres(ctx)
	if err != nil {
		return nil, fmt.Errorf("list genres: %w", err)
	}

	fieldsUpdated := applyMetadata(book, metadata, catalogue, time.Now())

	if len(fieldsUpdated) > 0 {
		if containsField(fieldsUpdated, "cover") && e.coverInvalidator != nil {
			if err := e.coverInvalidator.InvalidateCover(book.ID); err != nil {
				log.Printf("[METADATA] failed to invalidate cover for %s: %v", book.ID, err)
			}
		}

		if err := library.ValidateBook(book); err != nil {
			return nil, fmt.Errorf("enriched book is invalid: %w", err)
		}
		library.ApplyReadingState(book, false)
		if err := e.store.UpdateBook(ctx, book); err != nil {
			return nil, fmt.Errorf("update book: %w", err)
		}
	}

	return &EnrichmentResult{
		Book:          book,
		FieldsUpdated: fieldsUpdated,
		Source:        "openlibrary",
		SearchMethod:  searchMethod,
	}, nil
}

// BulkEnrichmentResult summarizes EnrichAllMissing.
type BulkEnrichmentResult struct {
	TotalBooks int      `json:"totalBooks"`
	Enriched   int      `json:"enriched"`
	Failed     int      `json:"failed"`
	Skipped    int      `json:"skipped"`
	Errors     []string `json:"errors,omitempty"`
}

// EnrichAllMissing enriches every book missing a cover, page count, year or
// synopsis.
func (e *Enricher) EnrichAllMissing(ctx context.Context) (*BulkEnrichmentResult, error) {
	books, err := e.store.ListBooks(ctx)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}

	result := &BulkEnrichmentResult{}
	for _, book := range books {
		if !NeedsEnrichment(&book) {
			continue
		}
		result.TotalBooks++

		if err := ctx.Err(); err != nil {
			result.Errors = append(result.Errors, "operation cancelled")
			return result, err
		}

		enriched, err := e.EnrichBook(ctx, book.ID)
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", book.Title, err))
			continue
		}
		if len(enriched.FieldsUpdated) > 0 {
			result.Enriched++
		} else {
			result.Skipped++
		}
	}
	return result, nil
}

// NeedsEnrichment reports whether any enrichable field is still empty.
func NeedsEnrichment(b *entities.Book) bool {
	return missingCover(b.Cover) || b.Pages == 0 || b.Year == 0 || missingSynopsis(b.Synopsis)
}

func missingCover(cover string) bool {
	return cover == "" || cover == placeholderCover
}

func missingSynopsis(synopsis string) bool {
	s := strings.TrimSpace(synopsis)
	return s == "" || s == placeholderSynopsis
}

// applyMetadata copies metadata into empty fields of book and returns the
// JSON names of the fields it changed.
func applyMetadata(book *entities.Book, metadata *BookMetadata, catalogue []entities.Genre, now time.Time) []string {
	var fields []string

	if book.ISBN == "" && metadata.ISBN != "" {
		book.ISBN = metadata.ISBN
		fields = append(fields, "isbn")
	}
	if missingCover(book.Cover) && metadata.CoverURL != "" {
		book.Cover = metadata.CoverURL
		fields = append(fields, "cover")
	}
	if book.Pages == 0 && metadata.PageCount > 0 && metadata.PageCount >= book.CurrentPage {
		book.Pages = metadata.PageCount
		fields = append(fields, "pages")
	}
	if book.Year == 0 && metadata.Year >= library.MinYear && metadata.Year <= now.Year()+10 {
		book.Year = metadata.Year
		fields = append(fields, "year")
	}
	if missingSynopsis(book.Synopsis) && strings.TrimSpace(metadata.Description) != "" {
		book.Synopsis = strings.TrimSpace(metadata.Description)
		fields = append(fields, "synopsis")
	}
	if len(book.GenreNames()) == 0 {
		if matched := matchGenres(metadata.Subjects, catalogue); len(matched) > 0 {
			book.SetGenreNames(matched)
			fields = append(fields, "genres")
		}
	}
	return fields
}

// matchGenres keeps the subjects that name a catalogue genre, spelled the
// catalogue's way.
func matchGenres(subjects []string, catalogue []entities.Genre) []string {
	var matched []string
	seen := make(map[uint]bool)
	for _, subject := range subjects {
		g, ok := entities.FindGenre(catalogue, subject)
		if !ok || seen[g.ID] {
			continue
		}
		seen[g.ID] = true
		matched = append(matched, g.Name)
		if len(matched) == maxEnrichedGenres {
			break
		}
	}
	return matched
}

func containsField(fields []string, name string) bool {
	for _, f := range fields {
		if f == name {
			return true
		}
	}
	return false
}
