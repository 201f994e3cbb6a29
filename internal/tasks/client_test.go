package tasks

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookshelf/internal/entities"
	"github.com/mrlokans/bookshelf/internal/metadata"
)

func newTestClient(t *testing.T) (*Client, string) {
	t.Helper()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	cfg := DefaultConfig()
	cfg.Workers = 1

	client, err := NewClient(dbPath, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client, tmpDir
}

func startClient(t *testing.T, client *Client) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	go client.Start(ctx)
	t.Cleanup(func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer stopCancel()
		client.Stop(stopCtx)
		cancel()
	})
}

func TestTasksDBPath(t *testing.T) {
	assert.Equal(t, filepath.Join("data", "bookshelf-tasks.db"), TasksDBPath(filepath.Join("data", "bookshelf.db")))
	assert.Equal(t, filepath.Join("data", "books-tasks.db"), TasksDBPath(filepath.Join("data", "books")))
}

func TestNewClient(t *testing.T) {
	_, tmpDir := newTestClient(t)

	_, err := os.Stat(filepath.Join(tmpDir, "test-tasks.db"))
	assert.NoError(t, err, "tasks database should be created")
}

func TestClientStartStop(t *testing.T) {
	client, _ := newTestClient(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Start(ctx)

	time.Sleep(50 * time.Millisecond)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()
	assert.True(t, client.Stop(stopCtx), "stop should succeed gracefully")
}

func TestStopWithoutStart(t *testing.T) {
	client, _ := newTestClient(t)
	assert.True(t, client.Stop(context.Background()))
}

type testTask struct {
	Value string `json:"value"`
}

func (t testTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "test_task",
		MaxAttempts: 1,
		Backoff:     time.Second,
		Timeout:     5 * time.Second,
		Retention:   retention(),
	}
}

func TestEnqueueAndStatus(t *testing.T) {
	client, _ := newTestClient(t)

	executed := make(chan string, 1)
	client.Register(backlite.NewQueue(func(ctx context.Context, task testTask) error {
		executed <- task.Value
		return nil
	}))
	startClient(t, client)

	id, err := client.Enqueue(testTask{Value: "hello"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	select {
	case val := <-executed:
		assert.Equal(t, "hello", val)
	case <-time.After(5 * time.Second):
		t.Fatal("task was not executed within timeout")
	}

	require.Eventually(t, func() bool {
		status, err := client.Status(context.Background(), id)
		return err == nil && status == backlite.TaskStatusSuccess
	}, 5*time.Second, 20*time.Millisecond)

	_, err = client.Status(context.Background(), "does-not-exist")
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

type fakeEnricher struct {
	enriched chan string
	err      error
}

func (f *fakeEnricher) EnrichBook(ctx context.Context, bookID string) (*metadata.EnrichmentResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.enriched <- bookID
	return &metadata.EnrichmentResult{
		Book:          &entities.Book{ID: bookID, Title: "Duna"},
		FieldsUpdated: []string{"cover"},
		SearchMethod:  "title",
	}, nil
}

func (f *fakeEnricher) EnrichAllMissing(ctx context.Context) (*metadata.BulkEnrichmentResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &metadata.BulkEnrichmentResult{TotalBooks: 2, Enriched: 1, Skipped: 1}, nil
}

func TestEnrichBookQueue(t *testing.T) {
	client, _ := newTestClient(t)
	enricher := &fakeEnricher{enriched: make(chan string, 1)}
	client.Register(NewEnrichBookQueue(enricher))
	startClient(t, client)

	_, err := client.Enqueue(EnrichBookTask{BookID: "abc-123"})
	require.NoError(t, err)

	select {
	case id := <-enricher.enriched:
		assert.Equal(t, "abc-123", id)
	case <-time.After(5 * time.Second):
		t.Fatal("enrichment was not executed within timeout")
	}
}

func TestProcessors(t *testing.T) {
	ctx := context.Background()

	assert.Error(t, EnrichBookProcessor(nil)(ctx, EnrichBookTask{BookID: "1"}))
	assert.Error(t, EnrichAllBooksProcessor(nil)(ctx, EnrichAllBooksTask{}))
	assert.Error(t, CleanupOrphanGenresProcessor(nil)(ctx, CleanupOrphanGenresTask{}))

	failing := &fakeEnricher{err: errors.New("boom")}
	assert.Error(t, EnrichBookProcessor(failing)(ctx, EnrichBookTask{BookID: "1"}))
	assert.Error(t, EnrichAllBooksProcessor(failing)(ctx, EnrichAllBooksTask{}))

	ok := &fakeEnricher{enriched: make(chan string, 1)}
	assert.NoError(t, EnrichAllBooksProcessor(ok)(ctx, EnrichAllBooksTask{}))
}

type fakeCleaner struct {
	calls int
	err   error
}

func (f *fakeCleaner) DeleteOrphanGenres(ctx context.Context) (int64, error) {
	f.calls++
	return 2, f.err
}

func TestCleanupOrphanGenresProcessor(t *testing.T) {
	cleaner := &fakeCleaner{}
	require.NoError(t, CleanupOrphanGenresProcessor(cleaner)(context.Background(), CleanupOrphanGenresTask{}))
	assert.Equal(t, 1, cleaner.calls)

	cleaner.err = errors.New("locked")
	assert.Error(t, CleanupOrphanGenresProcessor(cleaner)(context.Background(), CleanupOrphanGenresTask{}))
}

func TestTaskConfigs(t *testing.T) {
	enrich := EnrichBookTask{BookID: "1"}.Config()
	assert.Equal(t, "enrich_book", enrich.Name)
	assert.Equal(t, 3, enrich.MaxAttempts)
	assert.Equal(t, 30*time.Second, enrich.Backoff)
	assert.Equal(t, 2*time.Minute, enrich.Timeout)
	assert.NotNil(t, enrich.Retention)

	all := EnrichAllBooksTask{}.Config()
	assert.Equal(t, "enrich_all_books", all.Name)
	assert.Equal(t, 1, all.MaxAttempts)
	assert.Equal(t, 60*time.Minute, all.Timeout)

	cleanup := CleanupOrphanGenresTask{}.Config()
	assert.Equal(t, "cleanup_orphan_genres", cleanup.Name)
	assert.Equal(t, 1, cleanup.MaxAttempts)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, 15*time.Minute, cfg.ReleaseAfter)
	assert.Equal(t, time.Hour, cfg.CleanupInterval)
}
