package library

import (
	"strings"

	"github.com/mrlokans/bookshelf/internal/entities"
)

// FilterAll disables a filter criterion, as sent by the library page selects.
const FilterAll = "all"

// Filter narrows a book list. Empty or "all" criteria match everything;
// the remaining ones are combined with AND.
type Filter struct {
	Query  string
	Genre  string
	Status string
}

// Active reports whether any criterion is set.
func (f Filter) Active() bool {
	return active(f.Query) || active(f.Genre) || active(f.Status)
}

// Apply returns the matching books, preserving order.
func (f Filter) Apply(books []entities.Book) []entities.Book {
	query := strings.ToLower(strings.TrimSpace(f.Query))
	matched := make([]entities.Book, 0, len(books))
	for _, b := range books {
		if active(query) && !matchesQuery(b, query) {
			continue
		}
		if active(f.Genre) && !hasGenre(b, f.Genre) {
			continue
		}
		if active(f.Status) && !strings.EqualFold(string(b.Status), strings.TrimSpace(f.Status)) {
			continue
		}
		matched = append(matched, b)
	}
	return matched
}

func active(v string) bool {
	v = strings.TrimSpace(v)
	return v != "" && !strings.EqualFold(v, FilterAll)
}

func matchesQuery(b entities.Book, query string) bool {
	return strings.Contains(strings.ToLower(b.Title), query) ||
		strings.Contains(strings.ToLower(b.Author), query)
}

func hasGenre(b entities.Book, genre string) bool {
	genre = strings.TrimSpace(genre)
	for _, g := range b.GenreNames() {
		if strings.EqualFold(g, genre) {
			return true
		}
	}
	return false
}
