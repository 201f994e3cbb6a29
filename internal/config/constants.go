package config

// Default locations, relative to the working directory
const (
	// DefaultDatabasePath is the sqlite database used by the sqlite backend
	DefaultDatabasePath = "./bookshelf.db"

	// DefaultDataDir holds the json backend's files
	DefaultDataDir = "./data"

	DefaultCoversDir = "./covers"
	DefaultBackupDir = "./backups"
)
