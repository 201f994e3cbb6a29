package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Book is the storage-independent representation shared by every backend
// and returned by the API. Genres are flattened to names; Genre mirrors the
// first one for clients that only read a single genre.
type Book struct {
	ID          string        `json:"id"`
	Title       string        `json:"title" validate:"required,notblank"`
	Author      string        `json:"author" validate:"required,notblank"`
	Genre       string        `json:"genre,omitempty"`
	Genres      []string      `json:"genres"`
	Year        int           `json:"year,omitempty"`
	Pages       int           `json:"pages,omitempty" validate:"gte=0"`
	CurrentPage int           `json:"currentPage,omitempty" validate:"gte=0"`
	Rating      int           `json:"rating" validate:"gte=0,lte=5"`
	Cover       string        `json:"cover,omitempty" validate:"omitempty,httpurl"`
	Synopsis    string        `json:"synopsis,omitempty"`
	Notes       string        `json:"notes,omitempty"`
	ISBN        string        `json:"isbn,omitempty"`
	Status      ReadingStatus `json:"status" validate:"omitempty,readingstatus"`
	Progress    int           `json:"progress"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// SetGenreNames replaces the genre list and keeps Genre in sync.
func (b *Book) SetGenreNames(names []string) {
	b.Genres = append([]string{}, names...)
	if len(b.Genres) > 0 {
		b.Genre = b.Genres[0]
	} else {
		b.Genre = ""
	}
}

// GenreNames returns the book's genres, falling back to the single Genre
// field for records written before genres became a list.
func (b *Book) GenreNames() []string {
	if len(b.Genres) > 0 {
		return b.Genres
	}
	if b.Genre != "" && b.Genre != NoGenre {
		return []string{b.Genre}
	}
	return []string{}
}

// BookRecord is the relational model used by the sqlite backend.
type BookRecord struct {
	ID          string        `gorm:"primaryKey;size:36"`
	Title       string        `gorm:"index;size:512;not null"`
	Author      string        `gorm:"index;size:256;not null"`
	Genres      []Genre       `gorm:"many2many:book_genres;joinForeignKey:BookID;joinReferences:GenreID"`
	Year        int
	Pages       int
	CurrentPage int
	Rating      int
	Cover       string        `gorm:"size:2048"`
	Synopsis    string        `gorm:"type:text"`
	Notes       string        `gorm:"type:text"`
	ISBN        string        `gorm:"index;size:20"`
	Status      ReadingStatus `gorm:"index;size:20;default:'QUERO_LER'"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (BookRecord) TableName() string {
	return "books"
}

// BeforeCreate assigns a UUID when the caller did not provide an ID.
func (r *BookRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// ToBook flattens the record into the API representation.
func (r *BookRecord) ToBook() Book {
	names := make([]string, 0, len(r.Genres))
	for _, g := range r.Genres {
		names = append(names, g.Name)
	}
	book := Book{
		ID:          r.ID,
		Title:       r.Title,
		Author:      r.Author,
		Year:        r.Year,
		Pages:       r.Pages,
		CurrentPage: r.CurrentPage,
		Rating:      r.Rating,
		Cover:       r.Cover,
		Synopsis:    r.Synopsis,
		Notes:       r.Notes,
		ISBN:        r.ISBN,
		Status:      r.Status,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	book.SetGenreNames(names)
	return book
}

// NewBookRecord copies the scalar fields of b. Genres are resolved by the
// caller since they need database lookups.
func NewBookRecord(b *Book) *BookRecord {
	return &BookRecord{
		ID:          b.ID,
		Title:       b.Title,
		Author:      b.Author,
		Year:        b.Year,
		Pages:       b.Pages,
		CurrentPage: b.CurrentPage,
		Rating:      b.Rating,
		Cover:       b.Cover,
		Synopsis:    b.Synopsis,
		Notes:       b.Notes,
		ISBN:        b.ISBN,
		Status:      b.Status,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}
