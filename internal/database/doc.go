// Package database is the sqlite backend of the bookshelf store.
//
// # Schema
//
//	books        one row per book, string UUID primary key
//	genres       genre catalogue, seeded with the default genres
//	book_genres  many-to-many join table
//
// Books are exchanged as entities.Book; entities.BookRecord is the gorm
// model and never leaves this package's callers in the HTTP layer.
//
// # Usage
//
//	db, err := database.NewDatabase("./bookshelf.db", logger.Warn)
//	books, err := db.ListBooks(ctx)
//
// Genre names on a book are resolved case-insensitively against the
// catalogue; unknown names are created on the fly. Genres linked to a book
// come back ordered by genre id, not by the order they were submitted in.
package database
