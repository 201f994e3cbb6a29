package library

import (
	"math"
	"sort"

	"github.com/mrlokans/bookshelf/internal/entities"
)

// Stats aggregates a reader's library for the dashboard.
type Stats struct {
	Total         int                            `json:"total"`
	Reading       int                            `json:"reading"`
	Finished      int                            `json:"finished"`
	PagesRead     int                            `json:"pagesRead"`
	AverageRating float64                        `json:"averageRating"`
	RatedBooks    int                            `json:"ratedBooks"`
	ByStatus      map[entities.ReadingStatus]int `json:"byStatus"`
	ByGenre       map[string]int                 `json:"byGenre"`
}

// CalculateStats computes the dashboard numbers.
//
// Pages read counts the current page when one is recorded, otherwise the
// full page count for finished books.
func CalculateStats(books []entities.Book) Stats {
	stats := Stats{
		Total:    len(books),
		ByStatus: make(map[entities.ReadingStatus]int),
		ByGenre:  make(map[string]int),
	}
	for _, s := range entities.AllReadingStatuses() {
		stats.ByStatus[s] = 0
	}

	ratingSum := 0
	for i := range books {
		b := &books[i]
		stats.ByStatus[b.Status]++
		switch b.Status {
		case entities.StatusReading:
			stats.Reading++
		case entities.StatusFinished:
			stats.Finished++
		}

		stats.PagesRead += pagesRead(b)

		if b.Rating > 0 {
			ratingSum += b.Rating
			stats.RatedBooks++
		}
		for _, g := range b.GenreNames() {
			stats.ByGenre[g]++
		}
	}

	if stats.RatedBooks > 0 {
		avg := float64(ratingSum) / float64(stats.RatedBooks)
		stats.AverageRating = math.Round(avg*10) / 10
	}
	return stats
}

func pagesRead(b *entities.Book) int {
	if b.CurrentPage > 0 {
		return b.CurrentPage
	}
	if b.Status == entities.StatusFinished {
		return b.Pages
	}
	return 0
}

// CurrentlyReading returns the books in progress, most recently touched first.
func CurrentlyReading(books []entities.Book) []entities.Book {
	reading := Filter{Status: string(entities.StatusReading)}.Apply(books)
	sortByUpdated(reading)
	return reading
}

// RecentBooks returns up to n books ordered by last update, newest first.
func RecentBooks(books []entities.Book, n int) []entities.Book {
	recent := append([]entities.Book{}, books...)
	sortByUpdated(recent)
	if n >= 0 && len(recent) > n {
		recent = recent[:n]
	}
	return recent
}

func sortByUpdated(books []entities.Book) {
	sort.SliceStable(books, func(i, j int) bool {
		return books[i].UpdatedAt.After(books[j].UpdatedAt)
	})
}
