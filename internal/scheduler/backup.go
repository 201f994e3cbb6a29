// Package scheduler runs periodic JSON backups of the bookshelf.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/afero"

	"github.com/mrlokans/bookshelf/internal/entities"
	"github.com/mrlokans/bookshelf/internal/jsonstore"
)

const (
	DefaultSchedule = "0 3 * * *"
	DefaultKeep     = 7

	backupPrefix     = "backup-"
	backupTimeLayout = "20060102-150405"
)

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateSchedule checks a standard 5-field cron expression.
func ValidateSchedule(schedule string) error {
	_, err := cronParser.Parse(schedule)
	return err
}

// Source is what a backup reads from.
type Source interface {
	ListBooks(ctx context.Context) ([]entities.Book, error)
	ListGenres(ctx context.Context) ([]entities.Genre, error)
}

// BackupConfig configures the backup scheduler.
type BackupConfig struct {
	Schedule string
	Dir      string
	// Keep is how many backups survive pruning. Zero keeps DefaultKeep.
	Keep int
}

// BackupStatus reports the scheduler state.
type BackupStatus struct {
	Enabled   bool       `json:"enabled"`
	Schedule  string     `json:"schedule"`
	Running   bool       `json:"running"`
	NextRun   *time.Time `json:"nextRun,omitempty"`
	LastRun   *time.Time `json:"lastRun,omitempty"`
	LastPath  string     `json:"lastPath,omitempty"`
	LastError string     `json:"lastError,omitempty"`
}

// BackupScheduler writes a snapshot of every book and genre, in the json
// store's file format, into a timestamped directory on a cron schedule.
type BackupScheduler struct {
	source Source
	fs     afero.Fs
	config BackupConfig
	now    func() time.Time

	cron      *cron.Cron
	entryID   cron.EntryID
	mu        sync.RWMutex
	isRunning bool
	manual    sync.WaitGroup

	runMu     sync.Mutex
	lastRun   *time.Time
	lastPath  string
	lastError string
}

// NewBackupScheduler creates a scheduler writing to the real filesystem.
func NewBackupScheduler(source Source, cfg BackupConfig) *BackupScheduler {
	return NewBackupSchedulerFs(source, afero.NewOsFs(), cfg)
}

func NewBackupSchedulerFs(source Source, fs afero.Fs, cfg BackupConfig) *BackupScheduler {
	if cfg.Schedule == "" {
		cfg.Schedule = DefaultSchedule
	}
	if cfg.Keep <= 0 {
		cfg.Keep = DefaultKeep
	}
	return &BackupScheduler{
		source: source,
		fs:     fs,
		config: cfg,
		now:    time.Now,
		cron:   cron.New(cron.WithParser(cronParser)),
	}
}

// Start schedules the backup job. The scheduler stops when ctx is done.
func (s *BackupScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if s.config.Dir == "" {
		return fmt.Errorf("backup directory not configured")
	}
	if err := ValidateSchedule(s.config.Schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", s.config.Schedule, err)
	}

	entryID, err := s.cron.AddFunc(s.config.Schedule, func() {
		if _, err := s.Backup(context.Background()); err != nil {
			log.Printf("[BACKUP] scheduled backup failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule backup job: %w", err)
	}
	s.entryID = entryID

	s.cron.Start()
	s.isRunning = true

	next := s.cron.Entry(entryID).Next
	log.Printf("[BACKUP] scheduler started with schedule '%s', writing to %s. Next run: %v",
		s.config.Schedule, s.config.Dir, next)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// Stop waits for running backups, scheduled or manual, and stops the
// scheduler.
func (s *BackupScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		stopCtx := s.cron.Stop()
		<-stopCtx.Done()

		s.cron.Remove(s.entryID)
		s.isRunning = false

		log.Printf("[BACKUP] scheduler stopped")
	}

	s.manual.Wait()
}

// RunNow starts a backup in the background. Stop waits for it.
func (s *BackupScheduler) RunNow() {
	s.manual.Add(1)
	go func() {
		defer s.manual.Done()
		if _, err := s.Backup(context.Background()); err != nil {
			log.Printf("[BACKUP] manual backup failed: %v", err)
		}
	}()
}

// IsRunning returns whether the schedule is active.
func (s *BackupScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRunTime returns when the next backup will occur.
func (s *BackupScheduler) GetNextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}

	entry := s.cron.Entry(s.entryID)
	if !entry.Valid() {
		return nil
	}
	t := entry.Next
	return &t
}

// Status snapshots the scheduler state.
func (s *BackupScheduler) Status() BackupStatus {
	status := BackupStatus{
		Enabled:  true,
		Schedule: s.config.Schedule,
		Running:  s.IsRunning(),
		NextRun:  s.GetNextRunTime(),
	}

	s.runMu.Lock()
	defer s.runMu.Unlock()
	status.LastRun = s.lastRun
	status.LastPath = s.lastPath
	status.LastError = s.lastError
	return status
}

// Backup writes one snapshot and prunes old ones. Concurrent calls run one
// after the other.
func (s *BackupScheduler) Backup(ctx context.Context) (string, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	started := s.now()
	path, err := s.writeBackup(ctx, started)

	s.lastRun = &started
	if err != nil {
		s.lastError = err.Error()
		return "", err
	}
	s.lastPath = path
	s.lastError = ""
	return path, nil
}

func (s *BackupScheduler) writeBackup(ctx context.Context, at time.Time) (string, error) {
	books, err := s.source.ListBooks(ctx)
	if err != nil {
		return "", fmt.Errorf("list books: %w", err)
	}
	catalogue, err := s.source.ListGenres(ctx)
	if err != nil {
		return "", fmt.Errorf("list genres: %w", err)
	}

	dir := filepath.Join(s.config.Dir, backupPrefix+at.UTC().Format(backupTimeLayout))
	if err := jsonstore.WriteSnapshot(s.fs, dir, books, catalogue); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	log.Printf("[BACKUP] wrote %d books and %d genres to %s", len(books), len(catalogue), dir)

	removed, err := s.prune()
	if err != nil {
		log.Printf("[BACKUP] failed to prune old backups: %v", err)
	} else if removed > 0 {
		log.Printf("[BACKUP] pruned %d old backups", removed)
	}
	return dir, nil
}

// prune removes all but the newest Keep backups. Backup names sort by time.
func (s *BackupScheduler) prune() (int, error) {
	entries, err := afero.ReadDir(s.fs, s.config.Dir)
	if err != nil {
		return 0, err
	}

	var backups []string
	for _, e := range entries {
		if e.IsDir() && strings.HasPrefix(e.Name(), backupPrefix) {
			backups = append(backups, e.Name())
		}
	}
	if len(backups) <= s.config.Keep {
		return 0, nil
	}

	sort.Sort(sort.Reverse(sort.StringSlice(backups)))
	removed := 0
	for _, name := range backups[s.config.Keep:] {
		if err := s.fs.RemoveAll(filepath.Join(s.config.Dir, name)); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}
