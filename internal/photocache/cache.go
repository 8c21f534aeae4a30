package photocache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"rapidphoto/internal/logging"
	"rapidphoto/internal/transfer"
)

// Entry is one cached photo record plus the time it entered the cache.
type Entry struct {
	Photo    transfer.Photo `json:"photo"`
	CachedAt time.Time      `json:"cached_at"`
}

// Cache provides thread-safe access to the photo cache file.
type Cache struct {
	path    string
	logger  *slog.Logger
	mu      sync.RWMutex
	entries map[string]Entry // keyed by photo id
}

// NewCache creates a cache instance. If path is empty, the cache is
// non-functional and all operations become no-ops. The cache file is
// created lazily on first Add call.
func NewCache(path string, logger *slog.Logger) *Cache {
	logger = logging.NewComponentLogger(logger, "photocache")

	c := &Cache{
		path:    path,
		logger:  logger,
		entries: make(map[string]Entry),
	}

	if path == "" {
		return c
	}

	if err := c.load(); err != nil {
		logger.Warn("failed to load photo cache",
			logging.String(logging.FieldEventType, "photocache_load_failed"),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "cache will start empty"))
	}

	return c
}

// Add inserts or refreshes a photo record and persists the cache.
func (c *Cache) Add(photo transfer.Photo) error {
	photo.ID = strings.TrimSpace(photo.ID)
	if photo.ID == "" {
		return errors.New("photo id cannot be empty")
	}
	if c.path == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[photo.ID] = Entry{Photo: photo, CachedAt: time.Now().UTC()}

	if err := c.save(); err != nil {
		return fmt.Errorf("persist cache: %w", err)
	}

	c.logger.Debug("cached photo record",
		logging.String("photo_id", photo.ID),
		logging.String(logging.FieldFileName, photo.FileName))
	return nil
}

// Lookup returns the cached record for a photo id if present.
func (c *Cache) Lookup(photoID string) (transfer.Photo, bool) {
	photoID = strings.TrimSpace(photoID)
	if photoID == "" || c.path == "" {
		return transfer.Photo{}, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, found := c.entries[photoID]
	return entry.Photo, found
}

// List returns all cached photos, newest first.
func (c *Cache) List() []transfer.Photo {
	if c.path == "" {
		return nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	entries := make([]Entry, 0, len(c.entries))
	for _, entry := range c.entries {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CachedAt.After(entries[j].CachedAt)
	})

	photos := make([]transfer.Photo, 0, len(entries))
	for _, entry := range entries {
		photos = append(photos, entry.Photo)
	}
	return photos
}

// Count returns the number of cached records.
func (c *Cache) Count() int {
	if c.path == "" {
		return 0
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Clear removes all entries and persists the empty cache.
func (c *Cache) Clear() error {
	if c.path == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]Entry)
	if err := c.save(); err != nil {
		return fmt.Errorf("persist cache: %w", err)
	}
	return nil
}

func (c *Cache) load() error {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read cache file: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parse cache file: %w", err)
	}

	c.entries = make(map[string]Entry, len(entries))
	for _, entry := range entries {
		if strings.TrimSpace(entry.Photo.ID) != "" {
			c.entries[entry.Photo.ID] = entry
		}
	}
	return nil
}

// save writes the cache to disk atomically via a temp file.
func (c *Cache) save() error {
	entries := make([]Entry, 0, len(c.entries))
	for _, entry := range c.entries {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CachedAt.After(entries[j].CachedAt)
	})

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cache: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	tmpPath := c.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, c.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
