package library

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mrlokans/bookshelf/internal/entities"
)

// Sortable fields accepted by SortBooks.
const (
	SortTitle     = "title"
	SortAuthor    = "author"
	SortCreatedAt = "createdAt"
	SortUpdatedAt = "updatedAt"
	SortRating    = "rating"
	SortProgress  = "progress"
)

// SortBooks orders books in place by field. Ties keep their original order.
func SortBooks(books []entities.Book, field string, desc bool) error {
	var less func(a, b *entities.Book) bool
	switch field {
	case SortTitle:
		less = func(a, b *entities.Book) bool { return strings.ToLower(a.Title) < strings.ToLower(b.Title) }
	case SortAuthor:
		less = func(a, b *entities.Book) bool { return strings.ToLower(a.Author) < strings.ToLower(b.Author) }
	case SortCreatedAt:
		less = func(a, b *entities.Book) bool { return a.CreatedAt.Before(b.CreatedAt) }
	case SortUpdatedAt:
		less = func(a, b *entities.Book) bool { return a.UpdatedAt.Before(b.UpdatedAt) }
	case SortRating:
		less = func(a, b *entities.Book) bool { return a.Rating < b.Rating }
	case SortProgress:
		less = func(a, b *entities.Book) bool {
			return ReadingProgress(a.Pages, a.CurrentPage) < ReadingProgress(b.Pages, b.CurrentPage)
		}
	default:
		return fmt.Errorf("unsupported sort field %q", field)
	}

	sort.SliceStable(books, func(i, j int) bool {
		if desc {
			return less(&books[j], &books[i])
		}
		return less(&books[i], &books[j])
	})
	return nil
}
