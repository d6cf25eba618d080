/*
Package media models the files a scan discovers: probing them for metadata,
content-hashing them, and rendering their thumbnail sets into the cache.

An Object is created from a path plus any previously cached attributes via
Prober.FromPath, which escalates through three cost tiers: if the cached
modification time still matches, the cached attributes are reused outright;
otherwise the file is content-hashed, and only a hash mismatch triggers a
full exiftool metadata extraction. The object's MIME type selects a variant
(photo, raw photo or video) that defines the thumbnail renditions to produce.

Thumbnails are keyed by content hash, so identical files share one set of
renditions regardless of how many paths reference them.
*/
package media
