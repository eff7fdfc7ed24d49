package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Rendered post detail pages are cached on disk under cache/posts.
// Only anonymous responses land here; logged-in pages depend on the
// viewer (owner bypass) and must never be served from cache.

const cacheDir = "cache/posts"

// PagePath returns the cache file path for a post detail page.
func PagePath(postID int) string {
	hash := generateHash(fmt.Sprintf("post:%d", postID))
	return filepath.Join(cacheDir, fmt.Sprintf("%d_%s.html", postID, hash[:16]))
}

// generateHash generates an xxHash hash for the given string
func generateHash(s string) string {
	hash := xxhash.Sum64String(s)
	return fmt.Sprintf("%016x", hash)
}

// WritePage writes a rendered post page to its cache file
func WritePage(postID int, html string) error {
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return err
	}
	return os.WriteFile(PagePath(postID), []byte(html), 0644)
}

// ReadPage reads a cached post page if it exists and is not expired
func ReadPage(postID int, maxAge time.Duration) (string, bool) {
	path := PagePath(postID)

	info, err := os.Stat(path)
	if err != nil {
		return "", false
	}

	if time.Since(info.ModTime()) > maxAge {
		return "", false
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}

	return string(content), true
}

// ClearPage removes the cached page for a single post
func ClearPage(postID int) error {
	err := os.Remove(PagePath(postID))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// ClearAll removes every cached page. Used when a category or location
// toggle changes the visibility of an unknown set of posts.
func ClearAll() error {
	return os.RemoveAll(cacheDir)
}

// ClearOld removes cached pages older than maxAge
func ClearOld(maxAge time.Duration) error {
	return filepath.Walk(cacheDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}

		if info.IsDir() || !strings.HasSuffix(path, ".html") {
			return nil
		}

		if time.Since(info.ModTime()) > maxAge {
			os.Remove(path)
		}

		return nil
	})
}
