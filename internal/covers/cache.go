// Package covers keeps local copies of book cover images so the API can
// serve them without hitting the original host on every request.
package covers

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/afero"
)

const maxCoverSize = 10 << 20

var (
	ErrNotImage      = errors.New("cover URL did not return an image")
	ErrCoverTooLarge = errors.New("cover image too large")
)

var unsafeID = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// Cache handles local caching of book cover images.
type Cache struct {
	fs         afero.Fs
	cacheDir   string
	httpClient *http.Client
	maxSize    int64
}

// NewCache creates a cover cache in cacheDir on the real filesystem.
func NewCache(cacheDir string) (*Cache, error) {
	return NewCacheFs(afero.NewOsFs(), cacheDir)
}

func NewCacheFs(fs afero.Fs, cacheDir string) (*Cache, error) {
	if err := fs.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	return &Cache{
		fs:       fs,
		cacheDir: cacheDir,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		maxSize: maxCoverSize,
	}, nil
}

// GetCover returns the path of the cached cover for a book, downloading it
// first if needed. An empty URL yields an empty path and no error.
func (c *Cache) GetCover(ctx context.Context, bookID, coverURL string) (string, error) {
	if coverURL == "" {
		return "", nil
	}

	cachePath := filepath.Join(c.cacheDir, coverFilename(bookID, coverURL))

	if exists, _ := afero.Exists(c.fs, cachePath); exists {
		return cachePath, nil
	}

	if err := c.fetchAndCache(ctx, coverURL, cachePath); err != nil {
		return "", err
	}
	return cachePath, nil
}

// Open returns the cached file for reading.
func (c *Cache) Open(path string) (afero.File, error) {
	return c.fs.Open(path)
}

// InvalidateCover removes every cached cover of a book.
func (c *Cache) InvalidateCover(bookID string) error {
	pattern := filepath.Join(c.cacheDir, fmt.Sprintf("cover_%s_*", sanitizeID(bookID)))
	matches, err := afero.Glob(c.fs, pattern)
	if err != nil {
		return err
	}

	for _, match := range matches {
		if err := c.fs.Remove(match); err != nil && !errors.Is(err, afero.ErrFileNotFound) {
			return err
		}
	}
	return nil
}

func sanitizeID(id string) string {
	return unsafeID.ReplaceAllString(id, "_")
}

// coverFilename is unique per book and URL, so a changed cover URL never
// serves the stale image.
func coverFilename(bookID, coverURL string) string {
	hash := sha256.Sum256([]byte(coverURL))
	return fmt.Sprintf("cover_%s_%x.img", sanitizeID(bookID), hash[:8])
}

func (c *Cache) fetchAndCache(ctx context.Context, url, cachePath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "Bookshelf/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to fetch cover: status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "image/") {
		return fmt.Errorf("%w: %s", ErrNotImage, ct)
	}

	tmpFile, err := afero.TempFile(c.fs, c.cacheDir, "cover_tmp_")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()
	defer func() {
		tmpFile.Close()
		c.fs.Remove(tmpPath)
	}()

	n, err := io.Copy(tmpFile, io.LimitReader(resp.Body, c.maxSize+1))
	if err != nil {
		return err
	}
	if n > c.maxSize {
		return fmt.Errorf("%w: more than %d bytes", ErrCoverTooLarge, c.maxSize)
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}

	return c.fs.Rename(tmpPath, cachePath)
}

func (c *Cache) CacheDir() string {
	return c.cacheDir
}
