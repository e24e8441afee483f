package imaging

import (
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/disintegration/imaging"
)

// ImageCache keeps decoded drawings in memory so that repeated runs with
// different tolerances do not decode the file again.
//
// Entries are keyed by cleaned absolute path. A file whose modification time
// or size changed since it was cached is decoded again on the next Load, so
// edits to a drawing are picked up between tool calls.
//
//	cache := imaging.NewImageCache()
//	img, err := cache.Load("/path/to/drawing.png")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	segs, err := detection.DetectSegments(img, detection.DefaultOptions())
type ImageCache struct {
	mu     sync.RWMutex
	images map[string]cachedImage
}

type cachedImage struct {
	img     image.Image
	modTime time.Time
	size    int64
}

// NewImageCache creates and initializes a new empty image cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		images: make(map[string]cachedImage),
	}
}

// Load returns the decoded image at path, from the cache when the file is
// unchanged. JPEG EXIF orientation is applied, so pixel coordinates match
// what a viewer displays.
func (c *ImageCache) Load(path string) (image.Image, error) {
	e, err := c.load(path)
	if err != nil {
		return nil, err
	}
	return e.img, nil
}

func (c *ImageCache) load(path string) (cachedImage, error) {
	key, err := cacheKey(path)
	if err != nil {
		return cachedImage{}, err
	}
	stat, err := os.Stat(key)
	if err != nil {
		return cachedImage{}, fmt.Errorf("failed to load image: %w", err)
	}

	c.mu.RLock()
	e, ok := c.images[key]
	c.mu.RUnlock()
	if ok && e.modTime.Equal(stat.ModTime()) && e.size == stat.Size() {
		return e, nil
	}

	img, err := imaging.Open(key, imaging.AutoOrientation(true))
	if err != nil {
		return cachedImage{}, fmt.Errorf("failed to decode image: %w", err)
	}
	e = cachedImage{img: img, modTime: stat.ModTime(), size: stat.Size()}

	c.mu.Lock()
	c.images[key] = e
	c.mu.Unlock()

	return e, nil
}

// Len returns the number of cached images.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

// Clear removes all images from the cache.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]cachedImage)
	c.mu.Unlock()
}

// Evict removes the image at path from the cache, if present.
func (c *ImageCache) Evict(path string) {
	key, err := cacheKey(path)
	if err != nil {
		return
	}
	c.mu.Lock()
	delete(c.images, key)
	c.mu.Unlock()
}

func cacheKey(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("failed to load image: empty path")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path %q: %w", path, err)
	}
	return abs, nil
}

// ImageInfo describes a drawing on disk.
type ImageInfo struct {
	Width  int `json:"width"`
	Height int `json:"height"`

	// Format is "png", "jpeg", "gif", or "unknown", taken from the file
	// extension.
	Format string `json:"format"`

	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadImageInfo loads an image into the cache and reports its dimensions,
// format and size on disk.
func LoadImageInfo(cache *ImageCache, path string) (*ImageInfo, error) {
	e, err := cache.load(path)
	if err != nil {
		return nil, err
	}

	format := "unknown"
	if f, err := imaging.FormatFromFilename(path); err == nil {
		switch f {
		case imaging.PNG, imaging.JPEG, imaging.GIF:
			format = strings.ToLower(f.String())
		}
	}

	bounds := e.img.Bounds()
	return &ImageInfo{
		Width:         bounds.Dx(),
		Height:        bounds.Dy(),
		Format:        format,
		FileSizeBytes: e.size,
	}, nil
}
