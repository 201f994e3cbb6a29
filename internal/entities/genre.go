package entities

import (
	"strings"
	"time"
)

// NoGenre is the placeholder the book form submits when nothing is selected.
const NoGenre = "Nenhum gênero"

type Genre struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:100;not null" json:"name"`
	CreatedAt time.Time `json:"-"`
}

func (Genre) TableName() string {
	return "genres"
}

var defaultGenres = []string{
	"Literatura Brasileira",
	"Ficção Científica",
	"Realismo Mágico",
	"Ficção",
	"Fantasia",
	"Romance",
	"Biografia",
	"História",
	"Autoajuda",
	"Tecnologia",
	"Programação",
	"Negócios",
	"Psicologia",
	"Filosofia",
	"Poesia",
	"Mistério",
}

// DefaultGenres returns the built-in genre catalogue with 1-based IDs.
func DefaultGenres() []Genre {
	genres := make([]Genre, len(defaultGenres))
	for i, name := range defaultGenres {
		genres[i] = Genre{ID: uint(i + 1), Name: name}
	}
	return genres
}

// IsDefaultGenre reports whether name belongs to the built-in catalogue.
func IsDefaultGenre(name string) bool {
	for _, g := range defaultGenres {
		if strings.EqualFold(g, name) {
			return true
		}
	}
	return false
}

// FindGenre looks a genre up by name (case-insensitive).
func FindGenre(genres []Genre, name string) (Genre, bool) {
	name = strings.TrimSpace(name)
	for _, g := range genres {
		if strings.EqualFold(g.Name, name) {
			return g, true
		}
	}
	return Genre{}, false
}
