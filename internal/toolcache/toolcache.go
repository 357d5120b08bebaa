// Package toolcache provisions pinned tool binaries into a version-keyed
// on-disk cache, mirroring the GitHub runner's tool-cache layout
// (<root>/<name>/<version>/<name>).
package toolcache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/singleflight"
)

// DefaultRoot returns the cache root: RUNNER_TOOL_CACHE when running on a
// GitHub runner, otherwise a tools directory under the user cache dir.
func DefaultRoot() (string, error) {
	if root := os.Getenv("RUNNER_TOOL_CACHE"); root != "" {
		return root, nil
	}
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("resolving cache dir: %w", err)
	}
	return filepath.Join(base, "earthci", "tools"), nil
}

// Cache is a version-keyed install cache. Ensure calls for the same
// name@version are deduped, so the cache value is safe to share even though
// a single run only ever provisions sequentially.
type Cache struct {
	root       string
	downloader *Downloader
	group      singleflight.Group

	// assetURL builds the download URL for a cache miss.
	assetURL func(name, version string) string
}

func New(root string, d *Downloader, assetURL func(name, version string) string) *Cache {
	return &Cache{root: root, downloader: d, assetURL: assetURL}
}

// Ensure guarantees name@version is installed and returns its directory.
// Cache hit: the existing directory is returned without any network access.
// Cache miss: the asset is downloaded, marked executable, and stored under
// the version key. Callers are responsible for putting the directory on
// PATH.
func (c *Cache) Ensure(ctx context.Context, name, version string) (string, error) {
	key := name + "@" + version
	dir, err, _ := c.group.Do(key, func() (interface{}, error) {
		return c.ensure(ctx, name, version)
	})
	if err != nil {
		return "", err
	}
	return dir.(string), nil
}

func (c *Cache) ensure(ctx context.Context, name, version string) (string, error) {
	dir := filepath.Join(c.root, name, version)
	bin := filepath.Join(dir, name)

	if info, err := os.Stat(bin); err == nil && !info.IsDir() {
		return dir, nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating tool cache dir: %w", err)
	}
	if err := c.downloader.Fetch(ctx, c.assetURL(name, version), bin); err != nil {
		return "", err
	}
	return dir, nil
}
