// Package stale sweeps the cache for entries no scanned media references:
// documents of removed albums and thumbnails of deleted or changed files.
package stale

import (
	"os"
	"path/filepath"

	"media-scanner/internal/album"
	"media-scanner/internal/logging"
	"media-scanner/internal/media"
	"media-scanner/internal/metrics"
)

// Collector compares the cache tree against the expected set from a
// completed scan. It must only run after walking and thumbnailing finish,
// otherwise in-progress entries look stale.
type Collector struct {
	CacheRoot string
	// Remove deletes stale entries instead of just reporting them.
	Remove bool
}

// Sweep walks the cache and reports (or removes) entries outside the
// expected set. It returns the number of stale entries found.
func (c *Collector) Sweep(albums []*album.Album, objects []*media.Object) (int, error) {
	expected := c.expectedSet(albums, objects)
	logging.Event("cleanup", "searching for stale cache entries")

	stale := 0
	err := filepath.Walk(c.CacheRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if expected[path] {
			return nil
		}

		stale++
		metrics.StaleEntriesFound.Inc()
		rel, rerr := filepath.Rel(c.CacheRoot, path)
		if rerr != nil {
			rel = path
		}
		if !c.Remove {
			logging.Event("stale", "%s", rel)
			return nil
		}
		logging.Event("cleanup", "%s", rel)
		if err := os.Remove(path); err != nil {
			logging.Warn("failed to remove stale entry %s: %v", rel, err)
			return nil
		}
		metrics.StaleEntriesRemoved.Inc()
		return nil
	})
	if err != nil {
		return stale, err
	}

	if stale == 0 {
		logging.Event("cleanup", "no stale entries")
	} else if c.Remove {
		logging.Event("cleanup", "removed %d stale entries", stale)
	} else {
		logging.Event("cleanup", "%d stale entries found (not removed)", stale)
	}
	return stale, nil
}

// expectedSet is every cache path a live album or media object accounts
// for: each persisted document plus each object's full thumbnail set.
func (c *Collector) expectedSet(albums []*album.Album, objects []*media.Object) map[string]bool {
	store := &album.Store{Root: c.CacheRoot}
	expected := make(map[string]bool, len(albums)+len(objects)*2)
	for _, a := range albums {
		expected[store.DocumentPath(a.Path())] = true
	}
	for _, obj := range objects {
		for _, p := range obj.ThumbPaths(c.CacheRoot) {
			expected[p] = true
		}
	}
	return expected
}
