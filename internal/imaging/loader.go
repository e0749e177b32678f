package imaging

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/disintegration/imaging"
)

// ErrDecode is returned when a file cannot be opened or decoded as an image.
var ErrDecode = errors.New("image decode failed")

// SupportedExtensions lists the file extensions picked up by ListImages.
var SupportedExtensions = []string{".png", ".jpg", ".jpeg"}

// Load opens and decodes an image file into an 8-bit NRGBA image.
//
// The result is normalized so its bounds start at (0,0), which lets region
// coordinates be used directly as pixel offsets. EXIF orientation is applied
// for JPEG input so detectors see the image the way viewers display it.
//
// All failures wrap ErrDecode.
func Load(path string) (*image.NRGBA, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecode, filepath.Base(path), err)
	}
	return imaging.Clone(img), nil
}

// DefaultCacheEntries bounds the number of images an ImageCache holds.
const DefaultCacheEntries = 32

// ImageCache provides thread-safe caching of loaded images to avoid redundant disk reads.
//
// The cache stores normalized *image.NRGBA values keyed by file path. Cached
// images are shared between callers and must be treated as read-only; every
// transform in this module works on a copy.
//
// An entry is only reused while the file's size and modification time are
// unchanged, so a replaced file is decoded again.
//
// # Memory Management
//
// At most DefaultCacheEntries images are held; the oldest entry is dropped
// first. Evict() and Clear() remove entries explicitly.
type ImageCache struct {
	mu         sync.RWMutex
	images     map[string]cacheEntry
	order      []string
	maxEntries int
}

type cacheEntry struct {
	img     *image.NRGBA
	size    int64
	modTime time.Time
}

// NewImageCache creates and initializes a new empty image cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		images:     make(map[string]cacheEntry),
		maxEntries: DefaultCacheEntries,
	}
}

// Load retrieves an image from the cache or loads it from disk if not cached
// or if the file changed since it was cached.
//
// The image is cached using the exact path string provided. Different paths to the
// same file (e.g., relative vs absolute) will result in separate cache entries.
func (c *ImageCache) Load(path string) (*image.NRGBA, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecode, filepath.Base(path), err)
	}

	c.mu.RLock()
	e, ok := c.images[path]
	c.mu.RUnlock()
	if ok && e.size == info.Size() && e.modTime.Equal(info.ModTime()) {
		return e.img, nil
	}

	img, err := Load(path)
	if err != nil {
		c.Evict(path)
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.images[path]; !ok {
		for len(c.order) >= c.maxEntries {
			delete(c.images, c.order[0])
			c.order = c.order[1:]
		}
		c.order = append(c.order, path)
	}
	c.images[path] = cacheEntry{img: img, size: info.Size(), modTime: info.ModTime()}

	return img, nil
}

// Clear removes all images from the cache.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]cacheEntry)
	c.order = nil
	c.mu.Unlock()
}

// Evict removes a specific image from the cache by its path.
// If the path is not in the cache, this method does nothing.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.images[path]; !ok {
		return
	}
	delete(c.images, path)
	for i, p := range c.order {
		if p == path {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// Len returns the number of cached images.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

// ImageInfo contains metadata about an image file.
type ImageInfo struct {
	// Name is the base file name.
	Name string `json:"name"`

	// Path is the full path as listed.
	Path string `json:"path"`

	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Format is the decoded format reported by the registered decoder.
	Format string `json:"format"`

	// FileSizeBytes is the size of the image file on disk in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadImageInfo reads an image header and returns its metadata.
//
// Only the header is decoded (image.DecodeConfig), so listing a large folder
// does not pull every image into memory.
func LoadImageInfo(path string) (*ImageInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecode, filepath.Base(path), err)
	}

	return &ImageInfo{
		Name:          filepath.Base(path),
		Path:          path,
		Width:         cfg.Width,
		Height:        cfg.Height,
		Format:        format,
		FileSizeBytes: stat.Size(),
	}, nil
}

// IsSupported reports whether the path has one of SupportedExtensions (case-insensitive).
func IsSupported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range SupportedExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// ListImages returns the paths of supported images directly inside dir, sorted by name.
// Subdirectories are not descended into.
func ListImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !IsSupported(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)

	return paths, nil
}

// SaveJPEG encodes an image as JPEG at the given quality (1-100).
func SaveJPEG(img image.Image, path string, quality int) error {
	if err := imaging.Save(img, path, imaging.JPEGQuality(quality)); err != nil {
		return fmt.Errorf("failed to save %s: %w", filepath.Base(path), err)
	}
	return nil
}
