package remote

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/mrlokans/bookshelf/internal/entities"
	"github.com/mrlokans/bookshelf/internal/genres"
	"github.com/mrlokans/bookshelf/internal/library"
)

const (
	PlaceholderCover = "https://via.placeholder.com/150"
	NoSynopsis       = "Sem sinopse"
)

// apiBook is a book as the remote API returns it. Ids may be numbers or
// strings, genres may be names, ids or {id,name} objects.
type apiBook struct {
	ID          json.RawMessage `json:"id"`
	Title       string          `json:"title"`
	Author      string          `json:"author"`
	Genre       genres.Refs     `json:"genre"`
	Genres      genres.Refs     `json:"genres"`
	Year        looseInt        `json:"year"`
	Pages       looseInt        `json:"pages"`
	CurrentPage looseInt        `json:"currentPage"`
	Rating      looseInt        `json:"rating"`
	Cover       string          `json:"cover"`
	Synopsis    string          `json:"synopsis"`
	Notes       string          `json:"notes"`
	ISBN        string          `json:"isbn"`
	Status      string          `json:"status"`
	CreatedAt   string          `json:"createdAt"`
	UpdatedAt   string          `json:"updatedAt"`
}

// looseInt accepts any JSON number, a numeric string or null. Fractions
// are rounded; anything else reads as 0 so one odd record cannot fail a
// whole list.
type looseInt int

func (n *looseInt) UnmarshalJSON(data []byte) error {
	v := gjson.ParseBytes(data)
	switch v.Type {
	case gjson.Number, gjson.String:
		*n = looseInt(math.Round(v.Float()))
	default:
		*n = 0
	}
	return nil
}

func clampRating(r int) int {
	switch {
	case r < 0:
		return 0
	case r > library.MaxRating:
		return library.MaxRating
	}
	return r
}

func (a *apiBook) toBook(catalogue []entities.Genre) entities.Book {
	b := entities.Book{
		ID:          gjson.ParseBytes(a.ID).String(),
		Title:       a.Title,
		Author:      a.Author,
		Year:        int(a.Year),
		Pages:       int(a.Pages),
		CurrentPage: int(a.CurrentPage),
		Rating:      clampRating(int(a.Rating)),
		Cover:       a.Cover,
		Synopsis:    a.Synopsis,
		Notes:       a.Notes,
		ISBN:        a.ISBN,
		CreatedAt:   parseTime(a.CreatedAt),
		UpdatedAt:   parseTime(a.UpdatedAt),
	}

	refs := genres.Merge(a.Genres, a.Genre)
	names, err := genres.ResolveNames(refs, catalogue)
	if err != nil {
		names = genres.Names(refs)
	}
	b.SetGenreNames(names)

	if status, err := entities.ParseReadingStatus(a.Status); err == nil {
		b.Status = status
	} else {
		b.Status = entities.StatusWantToRead
	}
	return b
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

// bookPayload is what create and update send.
type bookPayload struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	GenreIDs    []uint `json:"genreIds"`
	Year        int    `json:"year,omitempty"`
	Pages       int    `json:"pages,omitempty"`
	CurrentPage int    `json:"currentPage"`
	Rating      int    `json:"rating"`
	Cover       string `json:"cover"`
	Synopsis    string `json:"synopsis"`
	Notes       string `json:"notes,omitempty"`
	ISBN        string `json:"isbn,omitempty"`
	Status      string `json:"status"`
}

// newBookPayload resolves the book's genre names to remote ids. A name the
// remote catalogue does not know is an error.
func newBookPayload(b *entities.Book, catalogue []entities.Genre) (*bookPayload, error) {
	resolved, err := genres.Resolve(genres.FromNames(b.GenreNames()), catalogue)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(resolved))
	for _, g := range resolved {
		ids = append(ids, g.ID)
	}

	p := &bookPayload{
		Title:       b.Title,
		Author:      b.Author,
		GenreIDs:    ids,
		Year:        b.Year,
		Pages:       b.Pages,
		CurrentPage: b.CurrentPage,
		Rating:      b.Rating,
		Cover:       b.Cover,
		Synopsis:    b.Synopsis,
		Notes:       b.Notes,
		ISBN:        b.ISBN,
		Status:      string(b.Status),
	}
	if strings.TrimSpace(p.Cover) == "" {
		p.Cover = PlaceholderCover
	}
	if strings.TrimSpace(p.Synopsis) == "" {
		p.Synopsis = NoSynopsis
	}
	return p, nil
}

// unwrapList returns the JSON array in data, accepting either a bare array
// or an object that wraps it under one of the usual keys.
func unwrapList(data []byte, keys ...string) (string, error) {
	if !gjson.ValidBytes(data) {
		return "", fmt.Errorf("invalid JSON in response")
	}
	result := gjson.ParseBytes(data)
	if result.IsArray() {
		return result.Raw, nil
	}
	if result.IsObject() {
		for _, key := range keys {
			if v := result.Get(key); v.IsArray() {
				return v.Raw, nil
			}
		}
	}
	return "", fmt.Errorf("expected a JSON array in response")
}

// unwrapObject returns the object in data, unwrapping {"data": {...}}
// style envelopes.
func unwrapObject(data []byte, keys ...string) []byte {
	result := gjson.ParseBytes(data)
	for _, key := range keys {
		if v := result.Get(key); v.IsObject() {
			return []byte(v.Raw)
		}
	}
	return data
}

func genresFromRefs(refs genres.Refs) []entities.Genre {
	out := make([]entities.Genre, 0, len(refs))
	for i, ref := range refs {
		if ref.Name == "" {
			continue
		}
		id := ref.ID
		if id == 0 {
			id = uint(i + 1)
		}
		out = append(out, entities.Genre{ID: id, Name: ref.Name})
	}
	return out
}
