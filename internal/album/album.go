// Package album models one directory of the media tree and its persisted
// JSON document in the cache.
package album

import (
	"path/filepath"
	"sort"
	"strings"

	"media-scanner/internal/media"
)

// Album is a directory's worth of media plus its sub-albums. Media and
// sub-album slices are sorted lazily; appends just mark them dirty.
type Album struct {
	path    string
	media   []*media.Object
	albums  []*Album
	ignored map[string]bool

	sortedMedia  bool
	sortedAlbums bool
}

// New creates an empty album for a path relative to the album root. The
// root itself is the empty path.
func New(relPath string) *Album {
	return &Album{path: relPath, ignored: map[string]bool{}}
}

// Path is the album's path relative to the album root.
func (a *Album) Path() string { return a.path }

// Name is the album's base name, empty for the root.
func (a *Album) Name() string {
	if a.path == "" {
		return ""
	}
	return filepath.Base(a.path)
}

// AddMedia appends a media object, invalidating the sort order.
func (a *Album) AddMedia(obj *media.Object) {
	if obj == nil {
		return
	}
	a.media = append(a.media, obj)
	a.sortedMedia = false
}

// AddAlbum appends a sub-album, invalidating the sort order.
func (a *Album) AddAlbum(sub *Album) {
	if sub == nil {
		return
	}
	a.albums = append(a.albums, sub)
	a.sortedAlbums = false
}

// Ignore records a file name as unprocessable so later scans can skip it.
func (a *Album) Ignore(name string) {
	a.ignored[name] = true
}

// IsIgnored reports whether a file name was recorded as unprocessable.
func (a *Album) IsIgnored(name string) bool {
	return a.ignored[name]
}

// SetIgnored replaces the ignored set, typically from a cached document.
func (a *Album) SetIgnored(names []string) {
	a.ignored = make(map[string]bool, len(names))
	for _, n := range names {
		a.ignored[n] = true
	}
}

// Media returns the album's media sorted oldest first, ties broken by name.
func (a *Album) Media() []*media.Object {
	a.sort()
	return a.media
}

// Albums returns the sub-albums sorted newest first, ties broken by path.
func (a *Album) Albums() []*Album {
	a.sort()
	return a.albums
}

func (a *Album) sort() {
	if !a.sortedMedia {
		sort.SliceStable(a.media, func(i, j int) bool {
			di, dj := a.media[i].Date(), a.media[j].Date()
			if di != dj {
				return di < dj
			}
			return a.media[i].Name() < a.media[j].Name()
		})
		a.sortedMedia = true
	}
	if !a.sortedAlbums {
		sort.SliceStable(a.albums, func(i, j int) bool {
			di, dj := a.albums[i].Date(), a.albums[j].Date()
			if di != dj {
				return di > dj
			}
			return a.albums[i].path < a.albums[j].path
		})
		a.sortedAlbums = true
	}
}

// Date is the timestamp of the newest dated media object or sub-album in
// the tree, 0 when nothing is dated.
func (a *Album) Date() int64 {
	a.sort()

	var mediaDate int64
	for i := len(a.media) - 1; i >= 0; i-- {
		if d := a.media[i].Date(); d != 0 {
			mediaDate = d
			break
		}
	}
	var albumDate int64
	for _, sub := range a.albums {
		if d := sub.Date(); d != 0 {
			albumDate = d
			break
		}
	}

	if mediaDate > albumDate {
		return mediaDate
	}
	return albumDate
}

// Empty reports whether the album contains no media anywhere in its tree.
// Empty albums are not persisted, so emptiness propagates upward.
func (a *Album) Empty() bool {
	if len(a.media) > 0 {
		return false
	}
	for _, sub := range a.albums {
		if !sub.Empty() {
			return false
		}
	}
	return true
}

// Document builds the JSON-ready representation of this album. Sub-albums
// appear as path-and-date summaries only, with paths relative to this
// album; their own documents carry the detail. Empty sub-albums are
// omitted.
func (a *Album) Document() map[string]interface{} {
	a.sort()

	albums := make([]map[string]interface{}, 0, len(a.albums))
	for _, sub := range a.albums {
		if sub.Empty() {
			continue
		}
		albums = append(albums, map[string]interface{}{
			"path": relativeTo(sub.path, a.path),
			"date": dateOrNil(sub.Date()),
		})
	}

	mediaData := make([]map[string]interface{}, len(a.media))
	for i, obj := range a.media {
		mediaData[i] = obj.CacheData()
	}

	ignored := make([]string, 0, len(a.ignored))
	for n := range a.ignored {
		ignored = append(ignored, n)
	}
	sort.Strings(ignored)

	return map[string]interface{}{
		"path":    a.path,
		"date":    dateOrNil(a.Date()),
		"albums":  albums,
		"media":   mediaData,
		"ignored": ignored,
	}
}

func dateOrNil(d int64) interface{} {
	if d == 0 {
		return nil
	}
	return d
}

func relativeTo(path, base string) string {
	if base != "" && strings.HasPrefix(path, base) {
		path = strings.TrimPrefix(path[len(base):], "/")
	}
	return path
}
