package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Global
		Storage
		Database
		Remote
		Covers
		OpenLibrary
		Tasks
		Backup
	}

	HTTP struct {
		Port    int32
		Host    string
		GinMode string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Storage struct {
		Backend string // sqlite, json or remote
		DataDir string // Directory holding books.json and genres.json
	}
	Database struct {
		Path     string
		LogLevel string // silent, error, warn or info
	}
	Remote struct {
		APIBase   string
		RateLimit float64 // Requests per second, 0 or less disables limiting
		Timeout   time.Duration
	}
	Covers struct {
		Dir string
	}
	OpenLibrary struct {
		BaseURL   string
		RateLimit float64 // Requests per second, 0 or less disables limiting
	}
	Tasks struct {
		Enabled         bool
		Workers         int
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}
	Backup struct {
		Enabled  bool
		Schedule string // Cron format: "0 3 * * *" = daily at 03:00
		Dir      string
		Keep     int
	}
)

// LoadDotEnv reads a .env file into the environment when one exists.
// Variables already set win over the file.
func LoadDotEnv(path string) {
	if err := godotenv.Load(path); err == nil {
		log.Printf("[CONFIG] Loaded environment from %s", path)
	}
}

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8188)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("gin_mode", "release")
	v.SetDefault("shutdown_timeout_in_seconds", 5)

	v.SetDefault("storage_backend", "sqlite")
	v.SetDefault("data_dir", DefaultDataDir)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("database_log_level", "warn")

	v.SetDefault("remote_api_base", "")
	v.SetDefault("remote_rate_limit", 5)
	v.SetDefault("remote_timeout", "10s")

	v.SetDefault("covers_dir", DefaultCoversDir)
	v.SetDefault("openlibrary_base_url", "https://openlibrary.org")
	v.SetDefault("openlibrary_rate_limit", 1)

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")

	// Backup defaults
	v.SetDefault("backup_enabled", false)
	v.SetDefault("backup_schedule", "0 3 * * *") // Daily at 03:00
	v.SetDefault("backup_dir", DefaultBackupDir)
	v.SetDefault("backup_keep", 7)

	return &Config{
		HTTP: HTTP{
			Port:    v.GetInt32("PORT"),
			Host:    v.GetString("HOST"),
			GinMode: v.GetString("GIN_MODE"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Storage: Storage{
			Backend: v.GetString("STORAGE_BACKEND"),
			DataDir: v.GetString("DATA_DIR"),
		},
		Database: Database{
			Path:     v.GetString("DATABASE_PATH"),
			LogLevel: v.GetString("DATABASE_LOG_LEVEL"),
		},
		Remote: Remote{
			APIBase:   v.GetString("REMOTE_API_BASE"),
			RateLimit: v.GetFloat64("REMOTE_RATE_LIMIT"),
			Timeout:   v.GetDuration("REMOTE_TIMEOUT"),
		},
		Covers: Covers{
			Dir: v.GetString("COVERS_DIR"),
		},
		OpenLibrary: OpenLibrary{
			BaseURL:   v.GetString("OPENLIBRARY_BASE_URL"),
			RateLimit: v.GetFloat64("OPENLIBRARY_RATE_LIMIT"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			Workers:         v.GetInt("TASK_WORKERS"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
		},
		Backup: Backup{
			Enabled:  v.GetBool("BACKUP_ENABLED"),
			Schedule: v.GetString("BACKUP_SCHEDULE"),
			Dir:      v.GetString("BACKUP_DIR"),
			Keep:     v.GetInt("BACKUP_KEEP"),
		},
	}
}
