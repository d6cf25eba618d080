package media

import (
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"

	"media-scanner/internal/cachepath"
	"media-scanner/internal/logging"
	"media-scanner/internal/mediatypes"

	"github.com/disintegration/imaging"

	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// ThumbSpec describes one thumbnail rendition. Size is the bounding
// dimension in pixels, 0 meaning full resolution. Quality is the JPEG
// quality for photos and the CRF for video. Square renditions are
// center-cropped.
type ThumbSpec struct {
	Size    int
	Quality int
	Square  bool
	Ext     string
}

type variant interface {
	kind() mediatypes.Kind
	specs() []ThumbSpec
	generate(ctx context.Context, cacheRoot string) error
}

// validateSpecs enforces that spec sizes never increase, since renditions
// are produced by progressively downscaling a single decoded image. A
// full-size (0) spec may only appear first.
func validateSpecs(specs []ThumbSpec) error {
	prev := 0
	for i, s := range specs {
		if i == 0 {
			prev = s.Size
			continue
		}
		if s.Size == 0 || (prev != 0 && s.Size > prev) {
			return fmt.Errorf("thumbnail specs must be ordered largest to smallest")
		}
		prev = s.Size
	}
	return nil
}

// renderSession holds one decoded image that successive renditions
// downscale in place. Rendering 1024 then 150 reuses the 1024px pixels;
// the reverse would upscale, which validateSpecs rules out.
type renderSession struct {
	img  image.Image
	name string
}

func newRenderSession(path, name string, target int, orient Orientation) (*renderSession, error) {
	img, err := decodeImage(path, target, orient)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	return &renderSession{img: img, name: name}, nil
}

func (s *renderSession) render(spec ThumbSpec, dst string) error {
	if spec.Size > 0 {
		if spec.Square {
			s.img = imaging.Fill(s.img, spec.Size, spec.Size, imaging.Center, imaging.Lanczos)
		} else {
			s.img = imaging.Fit(s.img, spec.Size, spec.Size, imaging.Lanczos)
		}
	}
	return writeJPEG(dst, s.img, spec.Quality)
}

// writeJPEG encodes to a temp file in the destination directory and
// renames it into place, so readers never observe a torn thumbnail.
func writeJPEG(dst string, img image.Image, quality int) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".thumb-*")
	if err != nil {
		return err
	}
	if err := jpeg.Encode(tmp, img, &jpeg.Options{Quality: quality}); err != nil {
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

// renderPhotoSet decodes srcPath once and writes every rendition in spec
// order. A failed rendition is logged and skipped; cancellation aborts the
// remainder.
func renderPhotoSet(ctx context.Context, obj *Object, srcPath, cacheRoot string, specs []ThumbSpec) error {
	target := 0
	if len(specs) > 0 {
		target = specs[0].Size
	}
	orient := ParseOrientation(obj.attrs.String("orientation"))
	sess, err := newRenderSession(srcPath, obj.Name(), target, orient)
	if err != nil {
		return err
	}

	var firstErr error
	for _, spec := range specs {
		if err := ctx.Err(); err != nil {
			return err
		}
		dst := filepath.Join(cacheRoot, cachepath.Thumbnail(obj.Hash(), spec.Size, spec.Square, spec.Ext))
		if err := sess.render(spec, dst); err != nil {
			logging.Warn("failed to render %dpx thumbnail of %s: %v", spec.Size, obj.Name(), err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// decodeImage loads an image for thumbnailing, upright. The vips path
// shrinks during decode and is preferred when available; otherwise imaging
// handles the common formats, with a stdlib decode and finally an ffmpeg
// pipe as fallbacks for the exotic ones. The first two paths read EXIF
// orientation themselves; the fallbacks decode bare pixels, so the
// extracted orientation attribute is applied to their output instead.
func decodeImage(path string, target int, orient Orientation) (image.Image, error) {
	if target > 0 && IsVipsAvailable() {
		if img, err := LoadImageWithVips(path, target, target); err == nil {
			return img, nil
		} else {
			logging.Debug("vips decode failed for %s: %v, falling back", path, err)
		}
	}

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err == nil {
		return img, nil
	}
	logging.Debug("imaging.Open failed for %s: %v, trying stdlib decode", path, err)

	if format, serr := sniffFormat(path); serr == nil {
		logging.Debug("sniffed format %s for %s", format, path)
	}

	if f, oerr := os.Open(path); oerr == nil {
		decoded, _, derr := image.Decode(f)
		f.Close()
		if derr == nil {
			return orient.Apply(decoded), nil
		}
		logging.Debug("stdlib decode failed for %s: %v, trying ffmpeg", path, derr)
	}

	img, ferr := decodeWithFFmpeg(path)
	if ferr != nil {
		return nil, fmt.Errorf("all decode methods failed: %w", err)
	}
	return orient.Apply(img), nil
}
