// Package fileserver serves playlists, segments and thumbnails from disk
// with validators and range support.
package fileserver

import (
	"crypto/sha256"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

// ETagMode determines how ETags are computed.
type ETagMode int

const (
	// ETagWeakStat derives a weak ETag from size and modtime.
	ETagWeakStat ETagMode = iota
	// ETagStrongSHA256 hashes the file content.
	ETagStrongSHA256
)

const (
	// CachePlaylist is short: an asset can be deleted and its playlist removed.
	CachePlaylist = "private, max-age=60"
	// CacheSegment marks segments immutable, they never change once written.
	CacheSegment   = "private, max-age=31536000, immutable"
	CacheThumbnail = "private, max-age=86400, stale-while-revalidate=3600"
)

var contentTypes = map[string]string{
	".m3u8": "application/vnd.apple.mpegurl",
	".ts":   "video/mp2t",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// ContentType returns the media type for a served file, by extension.
func ContentType(path string) string {
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(path))]; ok {
		return ct
	}
	return echo.MIMEOctetStream
}

type fileCacheEntry struct {
	size    int64
	modTime time.Time
	mode    ETagMode
	etag    string
}

// FileCache memoizes ETags for on-disk files. An entry is recomputed when
// the file's size or modtime changes.
type FileCache struct {
	mu      sync.RWMutex
	entries map[string]fileCacheEntry
}

func NewFileCache() *FileCache {
	return &FileCache{entries: make(map[string]fileCacheEntry)}
}

func (c *FileCache) ETag(path string, info os.FileInfo, mode ETagMode) (string, error) {
	c.mu.RLock()
	e, ok := c.entries[path]
	c.mu.RUnlock()
	if ok && e.size == info.Size() && e.modTime.Equal(info.ModTime()) && e.mode == mode {
		return e.etag, nil
	}

	etag, err := computeETag(path, info, mode)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.entries[path] = fileCacheEntry{size: info.Size(), modTime: info.ModTime(), mode: mode, etag: etag}
	c.mu.Unlock()
	return etag, nil
}

func computeETag(path string, info os.FileInfo, mode ETagMode) (string, error) {
	switch mode {
	case ETagWeakStat:
		return fmt.Sprintf(`W/"%x-%x"`, info.ModTime().UnixNano(), info.Size()), nil
	case ETagStrongSHA256:
		f, err := os.Open(path)
		if err != nil {
			return "", err
		}
		defer f.Close()
		h := sha256.New()
		if _, err := io.Copy(h, f); err != nil {
			return "", err
		}
		return fmt.Sprintf(`"%x"`, h.Sum(nil)), nil
	default:
		return "", fmt.Errorf("unknown etag mode: %d", mode)
	}
}

type FileServer struct {
	cache *FileCache
}

func NewFileServer() *FileServer {
	return &FileServer{cache: NewFileCache()}
}

// ServeDiskFileWithCache writes absPath with validators and honours
// If-None-Match, If-Modified-Since and Range.
func (fs *FileServer) ServeDiskFileWithCache(c echo.Context, absPath string, contentType string, cacheControl string, etagMode ETagMode) error {
	info, err := os.Stat(absPath)
	if err != nil || info.IsDir() {
		return echo.ErrNotFound
	}

	etag := ""
	if fs.cache != nil {
		if v, err := fs.cache.ETag(absPath, info, etagMode); err == nil {
			etag = v
		}
	}

	h := c.Response().Header()
	h.Set(echo.HeaderCacheControl, cacheControl)
	if etag != "" {
		h.Set("ETag", etag)
	}
	if contentType == "" {
		contentType = ContentType(absPath)
	}
	h.Set(echo.HeaderContentType, contentType)

	if etag != "" && strings.TrimSpace(c.Request().Header.Get("If-None-Match")) == etag {
		return c.NoContent(http.StatusNotModified)
	}

	f, err := os.Open(absPath)
	if err != nil {
		return echo.ErrNotFound
	}
	defer f.Close()

	// ServeContent handles If-Modified-Since, Last-Modified and Range.
	http.ServeContent(c.Response(), c.Request(), filepath.Base(absPath), info.ModTime(), f)
	return nil
}
