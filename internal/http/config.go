package http

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router. Optional dependencies left nil disable
// their routes.
type RouterConfig struct {
	// Core dependencies
	Store Store

	// Genre cleanup, when the backend owns its catalogue (optional)
	OrphanCleaner OrphanCleaner

	// Cover caching (optional)
	CoverCache CoverCache

	// Metadata enrichment (optional)
	Enricher BookEnricher

	// Task queue client (optional). Without it enrichment runs inline.
	TaskQueue TaskQueue

	// Snapshot backups (optional)
	Backups BackupRunner

	// Application info
	Version string
}
