package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookshelf/internal/config"
	"github.com/mrlokans/bookshelf/internal/covers"
	http_controllers "github.com/mrlokans/bookshelf/internal/http"
	"github.com/mrlokans/bookshelf/internal/metadata"
	"github.com/mrlokans/bookshelf/internal/scheduler"
	"github.com/mrlokans/bookshelf/internal/storage"
	"github.com/mrlokans/bookshelf/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// Serve runs the server until SIGINT or SIGTERM. onShutdown runs before
// in-flight requests are drained, onClose after.
func Serve(router *gin.Engine, cfg *config.Config, onShutdown, onClose ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop background work before the listener so queued tasks can finish
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server Shutdown: %v", err)
	}

	if onClose != nil {
		onClose(ctx)
	}

	log.Println("Server exiting")
}

// App is a fully wired server. Stop halts background work and must run
// before in-flight requests drain; Close releases the store and the task
// database once they have.
type App struct {
	Router *gin.Engine
	Store  storage.Store
	Stop   ShutdownFunc
	Close  ShutdownFunc
}

// Shutdown runs Stop and then Close.
func (a *App) Shutdown(ctx context.Context) {
	a.Stop(ctx)
	a.Close(ctx)
}

// NewApp opens the configured storage and wires every optional component
// the configuration enables. Call Shutdown when done.
func NewApp(cfg *config.Config, version string) (*App, error) {
	store, err := storage.Open(storage.Options{
		Backend:          cfg.Storage.Backend,
		DatabasePath:     cfg.Database.Path,
		DatabaseLogLevel: cfg.Database.LogLevel,
		DataDir:          cfg.Storage.DataDir,
		RemoteBaseURL:    cfg.Remote.APIBase,
		RemoteRateLimit:  cfg.Remote.RateLimit,
		RemoteTimeout:    cfg.Remote.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	log.Printf("Using %s storage", store.Name())

	routerCfg := http_controllers.RouterConfig{
		Store:   store,
		Version: version,
	}

	cleaner, hasCleaner := store.(storage.OrphanCleaner)
	if hasCleaner {
		routerCfg.OrphanCleaner = cleaner
	}

	coverCache, err := covers.NewCache(cfg.Covers.Dir)
	if err != nil {
		log.Printf("WARNING: Failed to initialize cover cache: %v", err)
	} else {
		log.Printf("Cover cache initialized at %s", cfg.Covers.Dir)
		routerCfg.CoverCache = coverCache
	}

	openLibraryClient := metadata.NewOpenLibraryClient(cfg.OpenLibrary.BaseURL, cfg.OpenLibrary.RateLimit)
	enricher := metadata.NewEnricher(openLibraryClient, store)
	if coverCache != nil {
		enricher.SetCoverInvalidator(coverCache)
	}
	routerCfg.Enricher = enricher

	var stops, closers []ShutdownFunc
	closeStore := func(ctx context.Context) {
		if err := store.Close(); err != nil {
			log.Printf("Error closing storage: %v", err)
		}
	}

	if cfg.Tasks.Enabled {
		taskClient, err := tasks.NewClient(cfg.Database.Path, tasks.Config{
			Workers:         cfg.Tasks.Workers,
			ReleaseAfter:    cfg.Tasks.ReleaseAfter,
			CleanupInterval: cfg.Tasks.CleanupInterval,
		})
		if err != nil {
			closeStore(context.Background())
			return nil, fmt.Errorf("failed to initialize task queue: %w", err)
		}

		taskClient.Register(
			tasks.NewEnrichBookQueue(enricher),
			tasks.NewEnrichAllBooksQueue(enricher),
		)
		if hasCleaner {
			taskClient.Register(tasks.NewCleanupOrphanGenresQueue(cleaner))
		}

		taskCtx, taskCtxCancel := context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)
		routerCfg.TaskQueue = taskClient

		stops = append(stops, func(ctx context.Context) {
			taskClient.Stop(ctx)
			taskCtxCancel()
		})
		closers = append(closers, func(ctx context.Context) {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		})
	}

	if cfg.Backup.Enabled {
		backups := scheduler.NewBackupScheduler(store, scheduler.BackupConfig{
			Schedule: cfg.Backup.Schedule,
			Dir:      cfg.Backup.Dir,
			Keep:     cfg.Backup.Keep,
		})
		if err := backups.Start(context.Background()); err != nil {
			runAll(context.Background(), stops)
			runAll(context.Background(), closers)
			closeStore(context.Background())
			return nil, fmt.Errorf("failed to start backup scheduler: %w", err)
		}
		routerCfg.Backups = backups
		stops = append(stops, func(ctx context.Context) { backups.Stop() })
	}

	closers = append(closers, closeStore)

	return &App{
		Router: http_controllers.NewRouter(routerCfg),
		Store:  store,
		Stop:   func(ctx context.Context) { runAll(ctx, stops) },
		Close:  func(ctx context.Context) { runAll(ctx, closers) },
	}, nil
}

func runAll(ctx context.Context, fns []ShutdownFunc) {
	for _, fn := range fns {
		fn(ctx)
	}
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting Bookshelf v%s", version)
	gin.SetMode(cfg.HTTP.GinMode)

	app, err := NewApp(cfg, version)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}

	Serve(app.Router, cfg, app.Stop, app.Close)
}
