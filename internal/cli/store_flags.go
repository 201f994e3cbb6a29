package cli

import (
	"flag"
	"fmt"
	"log"

	"github.com/mrlokans/bookshelf/internal/config"
	"github.com/mrlokans/bookshelf/internal/storage"
)

// storeFlags selects the backend a command reads from. Defaults come from
// the environment, the same way the server is configured.
type storeFlags struct {
	Backend      string
	DatabasePath string
	DataDir      string
	RemoteURL    string

	remote config.Remote
}

func (sf *storeFlags) register(fs *flag.FlagSet, cfg *config.Config) {
	fs.StringVar(&sf.Backend, "backend", cfg.Storage.Backend, "Storage backend: sqlite, json or remote")
	fs.StringVar(&sf.DatabasePath, "db", cfg.Database.Path, "Path to the sqlite database (sqlite backend)")
	fs.StringVar(&sf.DataDir, "data-dir", cfg.Storage.DataDir, "Directory with books.json and genres.json (json backend)")
	fs.StringVar(&sf.RemoteURL, "remote", cfg.Remote.APIBase, "Base URL of the remote API (remote backend)")
	sf.remote = cfg.Remote
}

func (sf *storeFlags) open() (storage.Store, error) {
	store, err := storage.Open(storage.Options{
		Backend:          sf.Backend,
		DatabasePath:     sf.DatabasePath,
		DatabaseLogLevel: "silent",
		DataDir:          sf.DataDir,
		RemoteBaseURL:    sf.RemoteURL,
		RemoteRateLimit:  sf.remote.RateLimit,
		RemoteTimeout:    sf.remote.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", sf.Backend, err)
	}
	return store, nil
}

func closeStore(store storage.Store) {
	if err := store.Close(); err != nil {
		log.Printf("Error closing storage: %v", err)
	}
}
