// Package mediatypes classifies media files.
//
// It provides two views of a file's type: extension-based tables used during
// the walk to decide whether a file is worth probing at all, and a MIME-based
// registry that selects the processing variant (photo, raw photo, video)
// once the metadata extractor has reported the real MIME type. The registry
// keys on (type, subtype) with a per-type wildcard fallback, so new raw
// subtypes only need a table entry.
package mediatypes
