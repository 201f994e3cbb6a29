package database

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/mrlokans/bookshelf/internal/entities"
)

func preloadGenres(db *gorm.DB) *gorm.DB {
	return db.Order("genres.id ASC")
}

// ListBooks returns every book in insertion order.
func (d *Database) ListBooks(ctx context.Context) ([]entities.Book, error) {
	var records []entities.BookRecord
	err := d.DB.WithContext(ctx).Preload("Genres", preloadGenres).
		Order("created_at ASC, id ASC").Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}

	books := make([]entities.Book, 0, len(records))
	for i := range records {
		books = append(books, records[i].ToBook())
	}
	return books, nil
}

func (d *Database) GetBook(ctx context.Context, id string) (*entities.Book, error) {
	record, err := d.getRecord(d.DB.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	book := record.ToBook()
	return &book, nil
}

func (d *Database) getRecord(tx *gorm.DB, id string) (*entities.BookRecord, error) {
	var record entities.BookRecord
	err := tx.Preload("Genres", preloadGenres).First(&record, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &record, nil
}

// CreateBook inserts b, creating any genre it names that does not exist
// yet. b is refreshed with the stored ID and timestamps.
func (d *Database) CreateBook(ctx context.Context, b *entities.Book) error {
	return d.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		genres, err := resolveGenres(tx, b.GenreNames())
		if err != nil {
			return err
		}

		record := entities.NewBookRecord(b)
		record.Genres = genres
		if err := tx.Create(record).Error; err != nil {
			return fmt.Errorf("failed to create book: %w", err)
		}

		stored, err := d.getRecord(tx, record.ID)
		if err != nil {
			return err
		}
		*b = stored.ToBook()
		return nil
	})
}

// UpdateBook overwrites the stored book with b and replaces its genres.
func (d *Database) UpdateBook(ctx context.Context, b *entities.Book) error {
	return d.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := d.getRecord(tx, b.ID)
		if err != nil {
			return err
		}

		genres, err := resolveGenres(tx, b.GenreNames())
		if err != nil {
			return err
		}

		record := entities.NewBookRecord(b)
		record.CreatedAt = existing.CreatedAt
		if err := tx.Omit("Genres").Save(record).Error; err != nil {
			return fmt.Errorf("failed to update book: %w", err)
		}

		association := tx.Model(record).Association("Genres")
		if len(genres) == 0 {
			err = association.Clear()
		} else {
			err = association.Replace(genres)
		}
		if err != nil {
			return fmt.Errorf("failed to update book genres: %w", err)
		}

		stored, err := d.getRecord(tx, record.ID)
		if err != nil {
			return err
		}
		*b = stored.ToBook()
		return nil
	})
}

// DeleteBook removes the book and its genre links. Genres themselves stay.
func (d *Database) DeleteBook(ctx context.Context, id string) error {
	return d.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM book_genres WHERE book_id = ?", id).Error; err != nil {
			return err
		}
		result := tx.Delete(&entities.BookRecord{}, "id = ?", id)
		if result.Error != nil {
			return fmt.Errorf("failed to delete book: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return entities.ErrNotFound
		}
		return nil
	})
}

// resolveGenres maps names onto genre rows, creating the missing ones.
// Matching is case-insensitive so "fantasia" reuses "Fantasia".
func resolveGenres(tx *gorm.DB, names []string) ([]entities.Genre, error) {
	if len(names) == 0 {
		return nil, nil
	}

	var catalogue []entities.Genre
	if err := tx.Find(&catalogue).Error; err != nil {
		return nil, fmt.Errorf("failed to load genres: %w", err)
	}

	resolved := make([]entities.Genre, 0, len(names))
	seen := make(map[uint]bool)
	for _, name := range names {
		genre, ok := entities.FindGenre(catalogue, name)
		if !ok {
			genre = entities.Genre{Name: name}
			if err := tx.Create(&genre).Error; err != nil {
				return nil, fmt.Errorf("failed to create genre %s: %w", name, err)
			}
			catalogue = append(catalogue, genre)
		}
		if seen[genre.ID] {
			continue
		}
		seen[genre.ID] = true
		resolved = append(resolved, genre)
	}
	return resolved, nil
}
