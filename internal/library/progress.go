// Package library holds the storage-independent rules of the bookshelf:
// reading progress, status derivation, statistics, filtering and validation.
package library

import (
	"math"

	"github.com/mrlokans/bookshelf/internal/entities"
)

// ReadingProgress returns how far through a book the reader is, in percent.
// Unknown page counts yield 0; the result is clamped to [0, 100].
func ReadingProgress(pages, currentPage int) int {
	if pages <= 0 || currentPage <= 0 {
		return 0
	}
	pct := int(math.Round(float64(currentPage) / float64(pages) * 100))
	if pct > 100 {
		return 100
	}
	return pct
}

// DeriveStatus picks the status a book should have after an edit.
//
// An explicitly chosen status is kept, except that "want to read" cannot
// coexist with pages already read. Without an explicit choice the status
// follows the page counter; paused and abandoned books keep their status
// while the counter moves.
func DeriveStatus(current entities.ReadingStatus, explicit bool, pages, currentPage int) entities.ReadingStatus {
	if explicit && current.Valid() {
		if current == entities.StatusWantToRead && currentPage > 0 {
			return entities.StatusReading
		}
		return current
	}

	switch {
	case pages > 0 && currentPage >= pages:
		return entities.StatusFinished
	case currentPage > 0:
		if current == entities.StatusPaused || current == entities.StatusAbandoned {
			return current
		}
		return entities.StatusReading
	case current.Valid():
		return current
	default:
		return entities.StatusWantToRead
	}
}

// ApplyReadingState updates b.Status via DeriveStatus. Marking a book with
// a known page count as finished also moves the counter to the last page.
func ApplyReadingState(b *entities.Book, statusExplicit bool) {
	b.Status = DeriveStatus(b.Status, statusExplicit, b.Pages, b.CurrentPage)
	if statusExplicit && b.Status == entities.StatusFinished && b.Pages > 0 {
		b.CurrentPage = b.Pages
	}
}

// Annotate fills the derived fields of b before it leaves the API.
func Annotate(b *entities.Book) {
	b.Progress = ReadingProgress(b.Pages, b.CurrentPage)
}

// AnnotateAll calls Annotate on every book in place.
func AnnotateAll(books []entities.Book) {
	for i := range books {
		Annotate(&books[i])
	}
}
