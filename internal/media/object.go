package media

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"media-scanner/internal/cachepath"
	"media-scanner/internal/filesystem"
	"media-scanner/internal/logging"
	"media-scanner/internal/mediatypes"
	"media-scanner/internal/metrics"
)

// ErrUnsupported marks files whose MIME type has no variant. Callers treat
// these as ignored rather than failed.
var ErrUnsupported = errors.New("unsupported media type")

// Attributes is the metadata bag persisted for each media file. Values come
// either from exiftool extraction or from a decoded album document, so
// numeric values may be int, int64 or float64 depending on provenance.
type Attributes map[string]interface{}

// Int64 reads a numeric attribute regardless of how it was decoded.
func (a Attributes) Int64(key string) (int64, bool) {
	switch n := a[key].(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	}
	return 0, false
}

func (a Attributes) String(key string) string {
	s, _ := a[key].(string)
	return s
}

// Hash is the salted content hash, empty if not yet computed.
func (a Attributes) Hash() string { return a.String("hash") }

// DateModified is the file mtime in epoch seconds, 0 when absent.
func (a Attributes) DateModified() int64 {
	n, _ := a.Int64("dateModified")
	return n
}

// Date is the media timestamp in naive epoch seconds.
func (a Attributes) Date() (int64, bool) { return a.Int64("date") }

// MimeType is the lowercase MIME type reported by exiftool.
func (a Attributes) MimeType() string { return a.String("mimeType") }

// Object is a single media file plus its attributes and thumbnail variant.
type Object struct {
	path      string
	attrs     Attributes
	variant   variant
	extractor Extractor
}

// Prober turns paths into Objects, consulting cached attributes to avoid
// redundant hashing and extraction.
type Prober struct {
	Extractor  Extractor
	Salt       []byte
	NoLocation bool
}

// FromPath builds an Object for path, reusing cached attributes when they
// are still valid. Work escalates in cost order: a matching mtime skips
// everything, a matching content hash skips extraction, and only genuinely
// changed content is re-extracted. Touched-but-identical files keep their
// attributes with just the mtime refreshed.
func (p *Prober) FromPath(path string, cached Attributes) (*Object, error) {
	name := filepath.Base(path)

	info, err := filesystem.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", name, err)
	}
	mtime := info.ModTime().Unix()

	attrs := cached
	var fhash string
	if attrs == nil || attrs.DateModified() < mtime {
		fhash, err = FileHash(path, p.Salt)
		if err != nil {
			return nil, fmt.Errorf("hash %s: %w", name, err)
		}
		if attrs == nil || fhash != attrs.Hash() {
			logging.Event("scanning", "%s", name)
			attrs, err = extractMetadata(p.Extractor, path, p.NoLocation)
			if err != nil {
				return nil, fmt.Errorf("extract %s: %w", name, err)
			}
		}
	}

	if attrs.Hash() == "" {
		if fhash == "" {
			if fhash, err = FileHash(path, p.Salt); err != nil {
				return nil, fmt.Errorf("hash %s: %w", name, err)
			}
		}
		attrs["hash"] = fhash
	} else {
		logging.Event("cached", "%s", name)
	}
	attrs["dateModified"] = mtime

	if attrs.MimeType() == "" {
		// exiftool occasionally reports no MIMEType; fall back to the
		// extension so the file still binds to a variant.
		attrs["mimeType"] = mediatypes.GetMimeType(strings.ToLower(filepath.Ext(name)))
	}

	obj := &Object{path: path, attrs: attrs, extractor: p.Extractor}
	if err := obj.bindVariant(); err != nil {
		return nil, err
	}
	return obj, nil
}

// FromCache rebuilds an Object from persisted attributes without touching
// the file. Used to rehydrate fully cached directories, where the document
// mtime already proves nothing changed.
func (p *Prober) FromCache(path string, attrs Attributes) (*Object, error) {
	if attrs.Hash() == "" || attrs.DateModified() == 0 || attrs.MimeType() == "" {
		return nil, fmt.Errorf("incomplete cached attributes for %s", filepath.Base(path))
	}
	obj := &Object{path: path, attrs: attrs, extractor: p.Extractor}
	if err := obj.bindVariant(); err != nil {
		return nil, err
	}
	return obj, nil
}

func (o *Object) bindVariant() error {
	switch mediatypes.KindForMime(o.attrs.MimeType()) {
	case mediatypes.KindPhoto:
		o.variant = newPhoto(o)
	case mediatypes.KindRawPhoto:
		o.variant = newRawPhoto(o)
	case mediatypes.KindVideo:
		o.variant = newVideo(o)
	default:
		return fmt.Errorf("%w: %s (%s)", ErrUnsupported, o.Name(), o.attrs.MimeType())
	}
	return nil
}

// Name is the file's base name.
func (o *Object) Name() string { return filepath.Base(o.path) }

// Path is the full path to the source file.
func (o *Object) Path() string { return o.path }

// Hash is the salted content hash.
func (o *Object) Hash() string { return o.attrs.Hash() }

// Date returns the media timestamp, falling back to 0 when unknown so that
// undated objects sort first.
func (o *Object) Date() int64 {
	d, _ := o.attrs.Date()
	return d
}

// DateModified is the source file's mtime in epoch seconds.
func (o *Object) DateModified() int64 { return o.attrs.DateModified() }

// Attributes exposes the raw attribute map for cache rehydration.
func (o *Object) Attributes() Attributes { return o.attrs }

// Specs lists the thumbnail renditions for this object, largest first.
func (o *Object) Specs() []ThumbSpec { return o.variant.specs() }

// ThumbPaths lists every rendition path under cacheRoot, in spec order.
func (o *Object) ThumbPaths(cacheRoot string) []string {
	specs := o.Specs()
	paths := make([]string, len(specs))
	for i, s := range specs {
		paths[i] = filepath.Join(cacheRoot, cachepath.Thumbnail(o.Hash(), s.Size, s.Square, s.Ext))
	}
	return paths
}

// ThumbsExist reports whether every rendition is present and at least as
// new as the source file.
func (o *Object) ThumbsExist(cacheRoot string) bool {
	mod := o.DateModified()
	for _, p := range o.ThumbPaths(cacheRoot) {
		info, err := filesystem.Stat(p)
		if err != nil || info.ModTime().Unix() < mod {
			return false
		}
	}
	return true
}

// GenerateThumbs renders any missing or outdated renditions. It is
// idempotent: a complete, fresh set is a cheap no-op.
func (o *Object) GenerateThumbs(ctx context.Context, cacheRoot string) error {
	if o.ThumbsExist(cacheRoot) {
		logging.Event("exists", "%s", o.Name())
		return nil
	}
	if err := validateSpecs(o.Specs()); err != nil {
		return err
	}
	start := time.Now()
	if err := o.variant.generate(ctx, cacheRoot); err != nil {
		metrics.ThumbnailErrors.Inc()
		return err
	}
	metrics.ThumbnailsGenerated.WithLabelValues(string(o.variant.kind())).Inc()
	metrics.ThumbnailDuration.WithLabelValues(string(o.variant.kind())).Observe(time.Since(start).Seconds())
	return nil
}

// CacheData is the JSON-ready representation stored in album documents.
// Internal attributes (underscore-prefixed) are dropped; previews lists the
// available rendition sizes, smallest first.
func (o *Object) CacheData() map[string]interface{} {
	specs := o.Specs()
	previews := make([]interface{}, 0, len(specs))
	for i := len(specs) - 1; i >= 0; i-- {
		if specs[i].Size == 0 {
			previews = append(previews, "full")
		} else {
			previews = append(previews, specs[i].Size)
		}
	}

	data := map[string]interface{}{
		"name":     o.Name(),
		"previews": previews,
	}
	if d, ok := o.attrs.Date(); ok {
		data["date"] = d
	}
	for k, v := range o.attrs {
		if len(k) > 0 && k[0] == '_' {
			continue
		}
		data[k] = v
	}
	return data
}
