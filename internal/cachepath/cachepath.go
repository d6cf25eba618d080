package cachepath

import (
	"fmt"
	"path/filepath"
	"strings"
)

// stripped punctuation characters removed outright from album names
const stripped = `()&,#[]"'`

// AlbumBase derives the flat cache name for a source-relative album path.
// Path separators become "-", spaces become "_", punctuation is stripped,
// repeated separators collapse, and the result is lower-cased. The empty
// path (the album root itself) maps to "root".
//
// The mapping is pure: the same input always yields the same name. Two
// directories that differ only in stripped punctuation can alias; that
// collision is a known limitation.
func AlbumBase(relPath string) string {
	name := strings.ReplaceAll(relPath, string(filepath.Separator), "-")
	name = strings.ReplaceAll(name, " ", "_")
	for _, r := range stripped {
		name = strings.ReplaceAll(name, string(r), "")
	}
	name = strings.ReplaceAll(name, "_-_", "-")
	for strings.Contains(name, "--") {
		name = strings.ReplaceAll(name, "--", "-")
	}
	for strings.Contains(name, "__") {
		name = strings.ReplaceAll(name, "__", "_")
	}
	name = strings.ToLower(name)
	if name == "" {
		return "root"
	}
	return name
}

// AlbumDocument returns the cache filename of an album's JSON document.
func AlbumDocument(relPath string) string {
	return AlbumBase(relPath) + ".json"
}

// Thumbnail returns the cache-relative path of a thumbnail rendition.
// Names are derived only from the content hash, size, crop mode and output
// format, never from the source path, so byte-identical files share one
// thumbnail set. The first two hash characters shard the thumbs directory
// to bound per-directory file counts:
//
//	thumbs/<hash[:2]>/<hash[2:]>_<size|"full">[s].<ext>
//
// A size of 0 denotes a full-size re-encode.
func Thumbnail(hash string, size int, square bool, ext string) string {
	suffix := "full"
	if size > 0 {
		suffix = fmt.Sprintf("%d", size)
	}
	if square {
		suffix += "s"
	}
	return filepath.Join("thumbs", hash[:2], fmt.Sprintf("%s_%s.%s", hash[2:], suffix, ext))
}
