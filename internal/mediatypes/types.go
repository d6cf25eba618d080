package mediatypes

import "strings"

// Kind selects the handling variant for a media file. The set is closed:
// every supported MIME type maps to exactly one Kind.
type Kind string

const (
	// KindPhoto represents an ordinary raster photo.
	KindPhoto Kind = "photo"
	// KindRawPhoto represents a camera raw file with an embedded preview.
	KindRawPhoto Kind = "rawphoto"
	// KindVideo represents a video file.
	KindVideo Kind = "video"
	// KindOther represents an unsupported file type.
	KindOther Kind = "other"
)

// ImageExtensions maps file extensions to whether they are supported image formats.
var ImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
	".tiff": true,
	".tif":  true,
	".heic": true,
	".heif": true,
	".dng":  true,
	".cr2":  true,
	".cr3":  true,
	".nef":  true,
	".arw":  true,
	".orf":  true,
	".raf":  true,
	".rw2":  true,
}

// VideoExtensions maps file extensions to whether they are supported video formats.
var VideoExtensions = map[string]bool{
	".mp4":  true,
	".mkv":  true,
	".avi":  true,
	".mov":  true,
	".wmv":  true,
	".flv":  true,
	".webm": true,
	".m4v":  true,
	".mpeg": true,
	".mpg":  true,
	".3gp":  true,
	".ts":   true,
}

// MimeTypes maps file extensions to their MIME types.
var MimeTypes = map[string]string{
	// Images
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".webp": "image/webp",
	".tiff": "image/tiff",
	".tif":  "image/tiff",
	".heic": "image/heic",
	".heif": "image/heif",

	// Camera raw
	".dng": "image/x-adobe-dng",
	".cr2": "image/x-canon-cr2",
	".cr3": "image/x-canon-cr3",
	".nef": "image/x-nikon-nef",
	".arw": "image/x-sony-arw",
	".orf": "image/x-olympus-orf",
	".raf": "image/x-fujifilm-raf",
	".rw2": "image/x-panasonic-rw2",

	// Videos
	".mp4":  "video/mp4",
	".mkv":  "video/x-matroska",
	".avi":  "video/x-msvideo",
	".mov":  "video/quicktime",
	".wmv":  "video/x-ms-wmv",
	".flv":  "video/x-flv",
	".webm": "video/webm",
	".m4v":  "video/x-m4v",
	".mpeg": "video/mpeg",
	".mpg":  "video/mpeg",
	".3gp":  "video/3gpp",
	".ts":   "video/mp2t",
}

// GetMimeType returns the MIME type for a given file extension.
// The extension should be lowercase and include the leading dot (e.g., ".jpg").
// Returns "application/octet-stream" if the extension is not recognized.
func GetMimeType(ext string) string {
	if mime, ok := MimeTypes[ext]; ok {
		return mime
	}
	return "application/octet-stream"
}

// IsMediaFile returns true if the extension represents a supported media file.
func IsMediaFile(ext string) bool {
	return ImageExtensions[ext] || VideoExtensions[ext]
}

// SplitMime splits a MIME type into its lower-cased type and subtype parts.
// The second return value is false if the value has no "/" separator.
func SplitMime(mime string) (string, string, bool) {
	typ, sub, ok := strings.Cut(strings.ToLower(mime), "/")
	if !ok || typ == "" {
		return "", "", false
	}
	return typ, sub, true
}
