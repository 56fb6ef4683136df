// Package assets caches frame images uploaded as textures for the preview
// and tracking panes.
package assets

import (
	"fmt"
	"image"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/Faultbox/facemorph/internal/engine/gpu"
	"github.com/Faultbox/facemorph/internal/engine/texture"
	"github.com/Faultbox/facemorph/internal/logger"
)

// Frame is an uploaded frame image.
type Frame struct {
	Texture gpu.Texture
	Size    image.Point
}

// Cache keeps the most recently shown frames on the device. Frames are
// downscaled to MaxSize before upload. Frames that fail to load are
// remembered until ForgetFailures, so a broken file is not decoded again on
// every draw.
type Cache struct {
	dev     gpu.Device
	maxSize image.Point
	log     *zap.Logger

	mu     sync.Mutex
	frames *lru.Cache[string, Frame]
	failed map[string]error

	// Stats
	hits   int
	misses int
}

// NewCache creates a cache holding at most capacity frames.
func NewCache(dev gpu.Device, capacity int, maxSize image.Point) *Cache {
	c := &Cache{
		dev:     dev,
		maxSize: maxSize,
		log:     logger.Named("assets"),
		failed:  make(map[string]error),
	}
	// Only fails for a non-positive size.
	c.frames, _ = lru.NewWithEvict(max(capacity, 1), c.evicted)
	return c
}

func (c *Cache) evicted(path string, f Frame) {
	f.Texture.Release()
	c.log.Debug("frame evicted", zap.String("path", path))
}

// Get returns the frame for path, decoding and uploading it on a miss.
func (c *Cache) Get(path string) (Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if f, ok := c.frames.Get(path); ok {
		c.hits++
		return f, nil
	}
	if err, ok := c.failed[path]; ok {
		return Frame{}, err
	}
	c.misses++

	f, err := c.load(path)
	if err != nil {
		c.failed[path] = err
		c.log.Debug("frame unavailable", zap.String("path", path), zap.Error(err))
		return Frame{}, err
	}
	c.frames.Add(path, f)
	return f, nil
}

func (c *Cache) load(path string) (Frame, error) {
	img, err := texture.Load(path)
	if err != nil {
		return Frame{}, err
	}
	if c.maxSize.X > 0 && c.maxSize.Y > 0 {
		img = texture.Fit(img, c.maxSize.X, c.maxSize.Y)
	}
	tex, err := c.dev.NewTexture(img)
	if err != nil {
		return Frame{}, fmt.Errorf("uploading %s: %w", path, err)
	}
	return Frame{Texture: tex, Size: img.Bounds().Size()}, nil
}

// ForgetFailures lets frames that failed to load be tried again. Call it
// when the set of files on disk changes.
func (c *Cache) ForgetFailures() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.failed)
}

// Len returns the number of cached frames.
func (c *Cache) Len() int {
	return c.frames.Len()
}

// Clear releases every cached frame and forgets failures.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames.Purge()
	clear(c.failed)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
