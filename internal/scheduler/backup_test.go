package scheduler

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/mrlokans/bookshelf/internal/entities"
)

type fakeSource struct {
	books []entities.Book
	err   error
}

func (f *fakeSource) ListBooks(ctx context.Context) ([]entities.Book, error) {
	return f.books, f.err
}

func (f *fakeSource) ListGenres(ctx context.Context) ([]entities.Genre, error) {
	return entities.DefaultGenres()[:2], nil
}

func newTestScheduler(source Source, keep int) (*BackupScheduler, afero.Fs) {
	fs := afero.NewMemMapFs()
	s := NewBackupSchedulerFs(source, fs, BackupConfig{Dir: "/backups", Keep: keep})
	return s, fs
}

func TestValidateSchedule(t *testing.T) {
	assert.NoError(t, ValidateSchedule("0 3 * * *"))
	assert.NoError(t, ValidateSchedule("*/15 * * * *"))
	assert.Error(t, ValidateSchedule("0 0 3 * * *"), "seconds field is not accepted")
	assert.Error(t, ValidateSchedule("not a schedule"))
}

func TestBackup_WritesSnapshot(t *testing.T) {
	source := &fakeSource{books: []entities.Book{{ID: "1", Title: "Duna", Author: "Herbert", Status: entities.StatusReading}}}
	s, fs := newTestScheduler(source, 3)
	s.now = func() time.Time { return time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC) }

	path, err := s.Backup(context.Background())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/backups", "backup-20260301-123000"), path)

	data, err := afero.ReadFile(fs, filepath.Join(path, "books.json"))
	require.NoError(t, err)
	assert.Equal(t, "Duna", gjson.GetBytes(data, "0.title").String())
	assert.Equal(t, "LENDO", gjson.GetBytes(data, "0.status").String())

	data, err = afero.ReadFile(fs, filepath.Join(path, "genres.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `["Literatura Brasileira", "Ficção Científica"]`, string(data))

	status := s.Status()
	require.NotNil(t, status.LastRun)
	assert.Equal(t, path, status.LastPath)
	assert.Empty(t, status.LastError)
	assert.False(t, status.Running)
}

func TestBackup_PrunesOldBackups(t *testing.T) {
	s, fs := newTestScheduler(&fakeSource{}, 2)
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		at = at.Add(time.Hour)
		return at
	}

	for i := 0; i < 4; i++ {
		_, err := s.Backup(context.Background())
		require.NoError(t, err)
	}

	entries, err := afero.ReadDir(fs, "/backups")
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{"backup-20260101-030000", "backup-20260101-040000"}, names)
}

func TestBackup_SourceError(t *testing.T) {
	s, fs := newTestScheduler(&fakeSource{err: errors.New("database is locked")}, 1)

	_, err := s.Backup(context.Background())
	require.Error(t, err)
	assert.Contains(t, s.Status().LastError, "database is locked")

	exists, _ := afero.DirExists(fs, "/backups")
	assert.False(t, exists)
}

func TestStartStop(t *testing.T) {
	s, _ := newTestScheduler(&fakeSource{}, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, s.Start(ctx))
	assert.True(t, s.IsRunning())
	next := s.GetNextRunTime()
	require.NotNil(t, next)
	assert.True(t, next.After(time.Now()))

	require.NoError(t, s.Start(ctx), "starting twice is a no-op")

	s.Stop()
	assert.False(t, s.IsRunning())
	assert.Nil(t, s.GetNextRunTime())
}

func TestStart_StopsWithContext(t *testing.T) {
	s, _ := newTestScheduler(&fakeSource{}, 1)
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, s.Start(ctx))
	cancel()

	assert.Eventually(t, func() bool { return !s.IsRunning() }, 2*time.Second, 10*time.Millisecond)
}

func TestStart_InvalidConfig(t *testing.T) {
	s := NewBackupSchedulerFs(&fakeSource{}, afero.NewMemMapFs(), BackupConfig{Schedule: "bad", Dir: "/b"})
	assert.Error(t, s.Start(context.Background()))

	s = NewBackupSchedulerFs(&fakeSource{}, afero.NewMemMapFs(), BackupConfig{})
	assert.Error(t, s.Start(context.Background()))
	assert.False(t, s.IsRunning())
}

func TestRunNow(t *testing.T) {
	s, fs := newTestScheduler(&fakeSource{}, 1)
	s.RunNow()

	assert.Eventually(t, func() bool {
		entries, err := afero.ReadDir(fs, "/backups")
		return err == nil && len(entries) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

type blockingSource struct {
	fakeSource
	started chan struct{}
	release chan struct{}
}

func (b *blockingSource) ListBooks(ctx context.Context) ([]entities.Book, error) {
	close(b.started)
	<-b.release
	return nil, nil
}

func TestStop_WaitsForManualBackup(t *testing.T) {
	source := &blockingSource{started: make(chan struct{}), release: make(chan struct{})}
	s, fs := newTestScheduler(source, 1)
	require.NoError(t, s.Start(context.Background()))

	s.RunNow()
	<-source.started

	stopped := make(chan struct{})
	go func() {
		s.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("Stop returned while a backup was still writing")
	case <-time.After(50 * time.Millisecond):
	}

	close(source.release)
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return after the backup finished")
	}

	entries, err := afero.ReadDir(fs, "/backups")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
