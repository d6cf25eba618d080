package media

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"media-scanner/internal/exiftool"
	"media-scanner/internal/logging"
	"media-scanner/internal/mediatypes"
)

// rawPhoto renders the same set as photo plus a full-resolution preview,
// since browsers cannot display the raw file itself.
type rawPhoto struct {
	photo
}

func newRawPhoto(o *Object) *rawPhoto {
	list := make([]ThumbSpec, 0, len(photoSpecs)+1)
	list = append(list, ThumbSpec{Size: 0, Quality: 95, Square: false, Ext: "jpg"})
	list = append(list, photoSpecs...)
	return &rawPhoto{photo{obj: o, list: list}}
}

func (r *rawPhoto) kind() mediatypes.Kind { return mediatypes.KindRawPhoto }

var binaryDataRE = regexp.MustCompile(`.*Binary data (\d+) bytes.*`)

// largestPreviewTag asks exiftool which embedded preview images the raw
// file carries and returns the tag of the biggest non-thumbnail one.
func (r *rawPhoto) largestPreviewTag() (string, error) {
	infos, err := r.obj.extractor.ProcessFiles([]string{r.obj.Path()}, []string{"preview:all"})
	if err != nil {
		return "", err
	}
	if len(infos) == 0 {
		return "", nil
	}

	best, bestSize := "", -1
	for tag, v := range infos[0] {
		if tag == "SourceFile" || strings.Contains(strings.ToLower(tag), "thumbnail") {
			continue
		}
		s, isStr := v.(string)
		if !isStr {
			continue
		}
		m := binaryDataRE.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		size, _ := strconv.Atoi(m[1])
		if size > bestSize {
			best, bestSize = tag, size
		}
	}
	return best, nil
}

// generate extracts the largest embedded JPEG preview and renders from
// that, falling back to decoding the raw directly when there is none. A
// non-normal orientation is cloned onto the extracted preview first, since
// the preview bytes carry no EXIF of their own.
func (r *rawPhoto) generate(ctx context.Context, cacheRoot string) error {
	tag, err := r.largestPreviewTag()
	if err != nil {
		logging.Warn("failed to query previews of %s: %v", r.obj.Name(), err)
	}
	if tag == "" {
		return r.photo.generate(ctx, cacheRoot)
	}

	tmp, err := os.CreateTemp("", "raw-preview-*.jpg")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	logging.Event("extracting", "preview %s from %s", tag, r.obj.Name())
	extractErr := exiftool.ExtractBinary(r.obj.Path(), tag, tmp)
	if cerr := tmp.Close(); extractErr == nil {
		extractErr = cerr
	}
	if extractErr != nil {
		return fmt.Errorf("extract preview from %s: %w", r.obj.Name(), extractErr)
	}

	if orient := r.obj.attrs.String("orientation"); orient != "" && !strings.Contains(orient, "normal") {
		logging.Debug("cloning orientation %q to extracted preview of %s", orient, r.obj.Name())
		if err := exiftool.SingleCommand("-overwrite_original", "-Orientation="+orient, tmp.Name()); err != nil {
			logging.Warn("failed to clone orientation to preview of %s: %v", r.obj.Name(), err)
		}
	}

	logging.Event("thumbing", "preview of %s", r.obj.Name())
	return renderPhotoSet(ctx, r.obj, tmp.Name(), cacheRoot, r.list)
}
