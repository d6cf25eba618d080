package album

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"media-scanner/internal/cachepath"
	"media-scanner/internal/media"
)

// ErrCacheMiss means no document exists for the path.
var ErrCacheMiss = errors.New("no cached album document")

// ErrCacheCorrupt means a document exists but cannot be trusted. Callers
// recover by rescanning the directory from scratch.
var ErrCacheCorrupt = errors.New("corrupt album document")

// Document is a decoded album document. Media entries stay as raw
// attribute maps so unknown keys round-trip unchanged.
type Document struct {
	Path    string
	Date    int64
	Media   []media.Attributes
	Ignored []string
}

// MediaByName indexes the document's media entries by file name for
// rehydration lookups.
func (d *Document) MediaByName() map[string]media.Attributes {
	m := make(map[string]media.Attributes, len(d.Media))
	for _, attrs := range d.Media {
		if name := attrs.String("name"); name != "" {
			m[name] = attrs
		}
	}
	return m
}

// Store reads and writes album documents under a cache root.
type Store struct {
	Root string
}

// DocumentPath is the absolute path of the document for an album path.
func (s *Store) DocumentPath(relPath string) string {
	return filepath.Join(s.Root, cachepath.AlbumDocument(relPath))
}

// Mtime returns the document's modification time.
func (s *Store) Mtime(relPath string) (time.Time, error) {
	info, err := os.Stat(s.DocumentPath(relPath))
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

// Load reads and validates the document for an album path. A missing file
// is ErrCacheMiss; unparseable JSON or media entries lacking the fields
// needed for reuse are ErrCacheCorrupt.
func (s *Store) Load(relPath string) (*Document, error) {
	data, err := os.ReadFile(s.DocumentPath(relPath))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrCacheMiss
		}
		return nil, err
	}

	var raw struct {
		Path    string                   `json:"path"`
		Date    *float64                 `json:"date"`
		Media   []map[string]interface{} `json:"media"`
		Ignored []string                 `json:"ignored"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCacheCorrupt, err)
	}

	doc := &Document{Path: raw.Path, Ignored: raw.Ignored}
	if raw.Date != nil {
		doc.Date = int64(*raw.Date)
	}
	doc.Media = make([]media.Attributes, len(raw.Media))
	for i, entry := range raw.Media {
		attrs := media.Attributes(entry)
		if attrs.String("name") == "" || attrs.Hash() == "" || attrs.DateModified() == 0 {
			return nil, fmt.Errorf("%w: media entry %d missing name, hash or dateModified", ErrCacheCorrupt, i)
		}
		doc.Media[i] = attrs
	}
	return doc, nil
}

// Save writes the album's document atomically: marshal to a temp file in
// the cache root, then rename over the final name so readers never see a
// torn document.
func (s *Store) Save(a *Album) error {
	if err := os.MkdirAll(s.Root, 0755); err != nil {
		return err
	}

	data, err := json.Marshal(a.Document())
	if err != nil {
		return err
	}

	dst := s.DocumentPath(a.Path())
	tmp, err := os.CreateTemp(s.Root, ".album-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}
