// Package walker performs the incremental depth-first scan of the album
// tree, reconciling each directory against its cached document.
package walker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"media-scanner/internal/album"
	"media-scanner/internal/filesystem"
	"media-scanner/internal/logging"
	"media-scanner/internal/media"
	"media-scanner/internal/mediatypes"
	"media-scanner/internal/metrics"
)

// Walker scans an album tree, reusing cached metadata where the three-tier
// staleness checks allow it.
type Walker struct {
	AlbumRoot     string
	Store         *album.Store
	Prober        *media.Prober
	RescanIgnored bool
}

// Result collects everything a completed walk discovered: the persisted
// albums (for the stale sweep's expected set) and every live media object
// (for thumbnailing).
type Result struct {
	Albums  []*album.Album
	Objects []*media.Object
}

// Walk scans the whole tree. The walk is sequential; parallelism comes
// later, in the thumbnail phase.
func (w *Walker) Walk(ctx context.Context) (*Result, error) {
	start := time.Now()
	res := &Result{}

	root, err := w.walk(ctx, w.AlbumRoot, "", res)
	if err != nil {
		return nil, err
	}
	if root == nil {
		return nil, errors.New("album root is not accessible")
	}

	metrics.WalkerDuration.Set(time.Since(start).Seconds())
	logging.Event("complete", "%d albums, %d media objects", len(res.Albums), len(res.Objects))
	return res, nil
}

// walk processes one directory and recurses into its children. It returns
// nil (and no error) for directories that had to be skipped.
func (w *Walker) walk(ctx context.Context, dir, rel string, res *Result) (*album.Album, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logging.Enter()
	defer logging.Leave()
	metrics.WalkerDirectoriesTotal.Inc()

	entries, err := os.ReadDir(dir)
	if err != nil {
		logging.Warn("can't access %s: %v", dir, err)
		logging.Event("access denied", "%s", filepath.Base(dir))
		return nil, nil
	}
	logging.Event("walking", "%s", nameOf(rel))

	var files, dirs []os.DirEntry
	for _, e := range entries {
		if e.Name()[0] == '.' {
			continue
		}
		if e.IsDir() {
			dirs = append(dirs, e)
		} else if e.Type().IsRegular() {
			files = append(files, e)
		}
	}

	a := album.New(rel)
	doc := w.loadDocument(rel)

	if len(files) > 0 {
		if doc != nil && w.fullHit(dir, rel, doc) && w.rehydrate(dir, doc, a) {
			logging.Event("full cache", "%s", nameOf(rel))
			metrics.WalkerCacheOutcomes.WithLabelValues("full").Inc()
		} else if err := w.scanFiles(ctx, dir, files, doc, a); err != nil {
			return nil, err
		}
	}

	for _, d := range dirs {
		sub, err := w.walk(ctx, filepath.Join(dir, d.Name()), childPath(rel, d.Name()), res)
		if err != nil {
			return nil, err
		}
		if sub != nil {
			a.AddAlbum(sub)
		}
	}

	if a.Empty() {
		logging.Event("empty", "%s", nameOf(rel))
		return a, nil
	}

	// Never persist a document from an interrupted scan: a truncated file
	// list would full-hit on the next run and shadow the missed files.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	logging.Event("caching", "%s", nameOf(rel))
	if err := w.Store.Save(a); err != nil {
		return nil, err
	}
	res.Albums = append(res.Albums, a)
	res.Objects = append(res.Objects, a.Media()...)
	return a, nil
}

// loadDocument fetches the cached document for rel, treating corruption as
// a plain miss after logging it. The walk then rebuilds the directory from
// scratch.
func (w *Walker) loadDocument(rel string) *album.Document {
	doc, err := w.Store.Load(rel)
	switch {
	case err == nil:
		return doc
	case errors.Is(err, album.ErrCacheMiss):
		metrics.WalkerCacheOutcomes.WithLabelValues("miss").Inc()
	case errors.Is(err, album.ErrCacheCorrupt):
		logging.Event("corrupt cache", "%s", nameOf(rel))
		logging.Warn("corrupt cache for %s: %v", nameOf(rel), err)
		metrics.WalkerCacheOutcomes.WithLabelValues("corrupt").Inc()
	default:
		logging.Warn("failed to read cache for %s: %v", nameOf(rel), err)
		metrics.WalkerCacheOutcomes.WithLabelValues("corrupt").Inc()
	}
	return nil
}

// fullHit reports whether the document can stand in for scanning the
// directory at all: the directory must not have been modified since the
// document was written, and the ignored set must not need revisiting.
func (w *Walker) fullHit(dir, rel string, doc *album.Document) bool {
	if w.RescanIgnored && len(doc.Ignored) > 0 {
		return false
	}
	dirInfo, err := filesystem.Stat(dir)
	if err != nil {
		return false
	}
	docMtime, err := w.Store.Mtime(rel)
	if err != nil {
		return false
	}
	return !dirInfo.ModTime().After(docMtime)
}

// rehydrate rebuilds the album purely from cached attributes. Every entry
// must rebuild cleanly and have a complete, fresh thumbnail set; anything
// less falls back to a partial scan.
func (w *Walker) rehydrate(dir string, doc *album.Document, a *album.Album) bool {
	objs := make([]*media.Object, 0, len(doc.Media))
	for _, attrs := range doc.Media {
		obj, err := w.Prober.FromCache(filepath.Join(dir, attrs.String("name")), attrs)
		if err != nil || !obj.ThumbsExist(w.Store.Root) {
			return false
		}
		objs = append(objs, obj)
	}
	for _, obj := range objs {
		a.AddMedia(obj)
		metrics.WalkerFilesTotal.WithLabelValues("reused").Inc()
	}
	a.SetIgnored(doc.Ignored)
	return true
}

// scanFiles probes each file, reusing cached attributes where the mtime and
// content-hash tiers allow. Files that fail to probe are recorded as
// ignored so future scans skip them. A cancelled context aborts the scan
// without blaming whichever file the interrupt landed on.
func (w *Walker) scanFiles(ctx context.Context, dir string, files []os.DirEntry, doc *album.Document, a *album.Album) error {
	var cached map[string]media.Attributes
	if doc != nil {
		cached = doc.MediaByName()
		if !w.RescanIgnored {
			a.SetIgnored(doc.Ignored)
		}
		metrics.WalkerCacheOutcomes.WithLabelValues("partial").Inc()
	}

	logging.Event("scanning", "%d files", len(files))
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		name := f.Name()
		if !mediatypes.IsMediaFile(strings.ToLower(filepath.Ext(name))) {
			logging.Event("ignored", "%s", name)
			a.Ignore(name)
			metrics.WalkerFilesTotal.WithLabelValues("ignored").Inc()
			continue
		}
		if a.IsIgnored(name) {
			logging.Event("ignored", "%s was previously unreadable", name)
			metrics.WalkerFilesTotal.WithLabelValues("ignored").Inc()
			continue
		}

		obj, err := w.Prober.FromPath(filepath.Join(dir, name), cached[name])
		if err != nil {
			// A probe that failed because the run was interrupted says
			// nothing about the file; abort instead of marking it ignored.
			if cerr := ctx.Err(); cerr != nil {
				return cerr
			}
			if errors.Is(err, media.ErrUnsupported) {
				logging.Event("ignored", "%s", name)
			} else {
				logging.Event("unreadable", "%s", name)
				logging.Warn("failed to process %s: %v", name, err)
			}
			a.Ignore(name)
			metrics.WalkerFilesTotal.WithLabelValues("ignored").Inc()
			continue
		}
		a.AddMedia(obj)
		metrics.WalkerFilesTotal.WithLabelValues("probed").Inc()
	}
	return nil
}

func nameOf(rel string) string {
	if rel == "" {
		return "<root>"
	}
	return filepath.Base(rel)
}

func childPath(rel, name string) string {
	if rel == "" {
		return name
	}
	return rel + "/" + name
}
