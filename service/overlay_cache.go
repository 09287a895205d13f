package service

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"promo-designer/models"
)

const (
	// cacheMaxAge is how long a cached overlay stays servable
	cacheMaxAge = 7 * 24 * time.Hour

	// evictBatch is how many oldest entries one eviction pass removes
	evictBatch = 5

	// defaultMaxCacheBytes caps the cache directory before proactive
	// eviction kicks in
	defaultMaxCacheBytes = 256 << 20
)

// overlayCacheMeta is the sidecar record stored next to each cached image
type overlayCacheMeta struct {
	Timestamp int64 `json:"timestamp"`
	ByteSize  int64 `json:"byteSize"`
}

// OverlayCache stores previously generated overlay images on disk, keyed
// by (product, color, view). Entries past 7 days are treated as misses and
// removed lazily; storage pressure evicts oldest-first.
type OverlayCache struct {
	dir      string
	maxBytes int64
}

// NewOverlayCache creates the cache directory and sweeps expired entries
func NewOverlayCache(dir string) (*OverlayCache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create overlay cache directory: %w", err)
	}

	c := &OverlayCache{dir: dir, maxBytes: defaultMaxCacheBytes}
	if removed := c.sweepExpired(); removed > 0 {
		log.Printf("🧹 Overlay cache sweep removed %d expired entries", removed)
	}
	return c, nil
}

func cacheKey(productID, colorID int, view models.View) string {
	return fmt.Sprintf("%d-%d-%s", productID, colorID, view)
}

func (c *OverlayCache) imagePath(key string) string {
	return filepath.Join(c.dir, key+".png")
}

func (c *OverlayCache) metaPath(key string) string {
	return filepath.Join(c.dir, key+".json")
}

// Get returns the cached overlay image, or a miss. Entries older than the
// max age are physically removed rather than returned stale.
func (c *OverlayCache) Get(productID, colorID int, view models.View) ([]byte, bool) {
	key := cacheKey(productID, colorID, view)

	meta, err := c.readMeta(key)
	if err != nil {
		return nil, false
	}

	if time.Since(time.Unix(meta.Timestamp, 0)) > cacheMaxAge {
		log.Printf("🕰  Overlay cache entry expired: key=%s", key)
		c.remove(key)
		return nil, false
	}

	data, err := os.ReadFile(c.imagePath(key))
	if err != nil {
		c.remove(key)
		return nil, false
	}
	return data, true
}

// Put stores a generated overlay image. On a write failure (or when the
// directory is over capacity) the oldest entries are evicted and the write
// retried once; a second failure is ErrPersistence.
func (c *OverlayCache) Put(productID, colorID int, view models.View, data []byte) error {
	key := cacheKey(productID, colorID, view)

	if c.totalBytes()+int64(len(data)) > c.maxBytes {
		c.evictOldest(evictBatch)
	}

	if err := c.write(key, data); err != nil {
		log.Printf("⚠️  Overlay cache write failed (key=%s), evicting and retrying: %v", key, err)
		c.evictOldest(evictBatch)
		if err := c.write(key, data); err != nil {
			return fmt.Errorf("overlay cache write failed after eviction: %w", models.ErrPersistence)
		}
	}

	log.Printf("✓ Overlay cached: key=%s bytes=%d", key, len(data))
	return nil
}

func (c *OverlayCache) write(key string, data []byte) error {
	if err := os.WriteFile(c.imagePath(key), data, 0644); err != nil {
		return err
	}

	meta := overlayCacheMeta{
		Timestamp: time.Now().Unix(),
		ByteSize:  int64(len(data)),
	}
	metaData, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return os.WriteFile(c.metaPath(key), metaData, 0644)
}

func (c *OverlayCache) readMeta(key string) (*overlayCacheMeta, error) {
	data, err := os.ReadFile(c.metaPath(key))
	if err != nil {
		return nil, err
	}
	var meta overlayCacheMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (c *OverlayCache) remove(key string) {
	os.Remove(c.imagePath(key))
	os.Remove(c.metaPath(key))
}

// keys lists every cached entry key that has a metadata sidecar
func (c *OverlayCache) keys() []string {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil
	}

	var keys []string
	for _, e := range entries {
		name := e.Name()
		if strings.HasSuffix(name, ".json") {
			keys = append(keys, strings.TrimSuffix(name, ".json"))
		}
	}
	return keys
}

func (c *OverlayCache) totalBytes() int64 {
	var total int64
	for _, key := range c.keys() {
		if meta, err := c.readMeta(key); err == nil {
			total += meta.ByteSize
		}
	}
	return total
}

// evictOldest removes up to n entries ranked by recorded timestamp
func (c *OverlayCache) evictOldest(n int) {
	type aged struct {
		key string
		ts  int64
	}

	var all []aged
	for _, key := range c.keys() {
		meta, err := c.readMeta(key)
		if err != nil {
			c.remove(key)
			continue
		}
		all = append(all, aged{key: key, ts: meta.Timestamp})
	}

	sort.Slice(all, func(i, j int) bool { return all[i].ts < all[j].ts })

	for i := 0; i < n && i < len(all); i++ {
		c.remove(all[i].key)
		log.Printf("🧹 Evicted overlay cache entry: key=%s", all[i].key)
	}
}

// sweepExpired removes every entry past the max age, returning the count
func (c *OverlayCache) sweepExpired() int {
	removed := 0
	for _, key := range c.keys() {
		meta, err := c.readMeta(key)
		if err != nil {
			c.remove(key)
			removed++
			continue
		}
		if time.Since(time.Unix(meta.Timestamp, 0)) > cacheMaxAge {
			c.remove(key)
			removed++
		}
	}
	return removed
}
