package database

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/mrlokans/bookshelf/internal/entities"
)

func (d *Database) ListGenres(ctx context.Context) ([]entities.Genre, error) {
	var genres []entities.Genre
	if err := d.DB.WithContext(ctx).Order("id ASC").Find(&genres).Error; err != nil {
		return nil, fmt.Errorf("failed to list genres: %w", err)
	}
	return genres, nil
}

func (d *Database) GetGenre(ctx context.Context, id uint) (*entities.Genre, error) {
	var genre entities.Genre
	if err := d.DB.WithContext(ctx).First(&genre, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &genre, nil
}

// CreateGenre adds a genre. If one with the same name (ignoring case)
// exists it is returned together with ErrConflict.
func (d *Database) CreateGenre(ctx context.Context, name string) (*entities.Genre, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("genre name is required")
	}

	genres, err := d.ListGenres(ctx)
	if err != nil {
		return nil, err
	}
	if existing, ok := entities.FindGenre(genres, name); ok {
		return &existing, entities.ErrConflict
	}

	genre := entities.Genre{Name: name}
	if err := d.DB.WithContext(ctx).Create(&genre).Error; err != nil {
		return nil, fmt.Errorf("failed to create genre: %w", err)
	}
	return &genre, nil
}

// DeleteGenre removes the genre and unlinks it from every book.
func (d *Database) DeleteGenre(ctx context.Context, id uint) error {
	return d.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM book_genres WHERE genre_id = ?", id).Error; err != nil {
			return err
		}
		result := tx.Delete(&entities.Genre{}, id)
		if result.Error != nil {
			return fmt.Errorf("failed to delete genre: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return entities.ErrNotFound
		}
		return nil
	})
}

// DeleteGenreByName matches name case-insensitively. The comparison runs in
// Go because sqlite's LOWER() only folds ASCII.
func (d *Database) DeleteGenreByName(ctx context.Context, name string) error {
	genres, err := d.ListGenres(ctx)
	if err != nil {
		return err
	}
	genre, ok := entities.FindGenre(genres, name)
	if !ok {
		return entities.ErrNotFound
	}
	return d.DeleteGenre(ctx, genre.ID)
}

// DeleteOrphanGenres removes user-created genres no book refers to and
// returns how many were deleted. Default genres are never removed.
func (d *Database) DeleteOrphanGenres(ctx context.Context) (int64, error) {
	var orphans []entities.Genre
	err := d.DB.WithContext(ctx).
		Where("id NOT IN (SELECT DISTINCT genre_id FROM book_genres)").
		Find(&orphans).Error
	if err != nil {
		return 0, fmt.Errorf("failed to find orphan genres: %w", err)
	}

	var ids []uint
	for _, g := range orphans {
		if !entities.IsDefaultGenre(g.Name) {
			ids = append(ids, g.ID)
		}
	}
	if len(ids) == 0 {
		return 0, nil
	}

	result := d.DB.WithContext(ctx).Delete(&entities.Genre{}, ids)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete orphan genres: %w", result.Error)
	}
	return result.RowsAffected, nil
}
