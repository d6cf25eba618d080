// Package cachepath maps source-relative album paths and content hashes to
// the filenames used inside the cache directory. All functions are pure so
// the same tree always produces the same cache layout.
package cachepath
