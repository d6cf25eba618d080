package media

import (
	"image"
	"strings"

	"github.com/disintegration/imaging"
)

// Orientation is the normalized EXIF orientation of an image, matching the
// eight values exiftool reports in human-readable form.
type Orientation int

const (
	OrientNormal Orientation = iota + 1
	OrientMirrorHorizontal
	OrientRotate180
	OrientMirrorVertical
	OrientMirrorHorizontalRotate270
	OrientRotate90
	OrientMirrorHorizontalRotate90
	OrientRotate270
)

// ParseOrientation maps an exiftool orientation description to the enum.
// Unknown or empty descriptions are treated as normal.
func ParseOrientation(s string) Orientation {
	switch strings.TrimSpace(s) {
	case "Horizontal (normal)":
		return OrientNormal
	case "Mirror horizontal":
		return OrientMirrorHorizontal
	case "Rotate 180":
		return OrientRotate180
	case "Mirror vertical":
		return OrientMirrorVertical
	case "Mirror horizontal and rotate 270 CW":
		return OrientMirrorHorizontalRotate270
	case "Rotate 90 CW":
		return OrientRotate90
	case "Mirror horizontal and rotate 90 CW":
		return OrientMirrorHorizontalRotate90
	case "Rotate 270 CW":
		return OrientRotate270
	}
	return OrientNormal
}

// SwapsDimensions reports whether applying the orientation turns the
// stored width/height sideways.
func (o Orientation) SwapsDimensions() bool {
	switch o {
	case OrientMirrorHorizontalRotate270, OrientRotate90,
		OrientMirrorHorizontalRotate90, OrientRotate270:
		return true
	}
	return false
}

// Apply transforms img so that it displays upright. imaging rotates
// counter-clockwise, so a "Rotate 90 CW" orientation needs Rotate270.
func (o Orientation) Apply(img image.Image) image.Image {
	switch o {
	case OrientMirrorHorizontal:
		return imaging.FlipH(img)
	case OrientRotate180:
		return imaging.Rotate180(img)
	case OrientMirrorVertical:
		return imaging.FlipV(img)
	case OrientMirrorHorizontalRotate270:
		return imaging.Rotate90(imaging.FlipH(img))
	case OrientRotate90:
		return imaging.Rotate270(img)
	case OrientMirrorHorizontalRotate90:
		return imaging.Rotate270(imaging.FlipH(img))
	case OrientRotate270:
		return imaging.Rotate90(img)
	}
	return img
}
