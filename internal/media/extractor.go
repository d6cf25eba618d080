package media

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Extractor is the metadata source for probed files. *exiftool.Tool
// satisfies it; tests substitute a fake.
type Extractor interface {
	ProcessFiles(files []string, tags []string) ([]map[string]interface{}, error)
}

// TagsToExtract is the tag set requested for every probed file.
var TagsToExtract = []string{
	"EXIF:*", "Composite:*", "File:MIMEType", "File:FileType",
	"IPTC:Keywords", "PNG:CreationTime",
}

// tagmap maps attribute names to the exiftool tags that can supply them,
// in preference order.
var tagmap = []struct {
	attr string
	tags []string
}{
	{"make", []string{"EXIF:Make"}},
	{"model", []string{"EXIF:Model"}},
	{"lens", []string{"Composite:LensID"}},

	{"aperture", []string{"Composite:Aperture"}},
	{"exposureCompensation", []string{"EXIF:ExposureCompensation"}},
	{"exposureProgram", []string{"EXIF:ExposureProgram"}},
	{"flash", []string{"EXIF:Flash"}},
	{"focalLength", []string{"Composite:FocalLength35efl"}},
	{"fov", []string{"Composite:FOV"}},
	{"iso", []string{"Composite:ISO"}},
	{"lightSource", []string{"EXIF:LightSource"}},
	{"meteringMode", []string{"EXIF:MeteringMode"}},
	{"shutter", []string{"Composite:ShutterSpeed"}},
	{"subjectDistanceRange", []string{"EXIF:SubjectDistanceRange"}},

	{"creator", []string{"Composite:Creator"}},
	{"caption", []string{"Composite:Description"}},
	{"keywords", []string{"IPTC:Keywords", "Composite:Keywords"}},
	{"gps", []string{"Composite:GPSPosition"}},

	{"orientation", []string{"Composite:Orientation"}},
	{"size", []string{"Composite:ImageSize"}},
	{"mimeType", []string{"File:MIMEType"}},
	{"fileType", []string{"File:FileType"}},
}

// Value processors. Returning nil drops the attribute.

func dropUnknown(v interface{}) interface{} {
	if s, ok := v.(string); ok && strings.HasPrefix(strings.ToLower(s), "unknown") {
		return nil
	}
	return v
}

func dropZero(v interface{}) interface{} {
	switch n := v.(type) {
	case float64:
		if n == 0 {
			return nil
		}
	case int:
		if n == 0 {
			return nil
		}
	}
	return v
}

func ensureList(v interface{}) interface{} {
	if _, ok := v.([]interface{}); ok {
		return v
	}
	return []interface{}{v}
}

var focalLengthRE = regexp.MustCompile(`.* mm \(35 mm equivalent: (.*) mm\)`)

// parseFocalLength prefers the 35mm-equivalent length when present.
func parseFocalLength(v interface{}) interface{} {
	s, ok := v.(string)
	if !ok {
		return v
	}
	if m := focalLengthRE.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return v
}

var pixel2CaptionRE = regexp.MustCompile(`^Maker:.*?,Date:.*?,Ver:.*?,Lens:.*?,Act:.*?,E-.*?$`)

// parseDescription strips whitespace and drops auto-generated captions:
// Olympus advertises in the field and the Pixel 2 fills it with technical
// noise.
func parseDescription(v interface{}) interface{} {
	s, ok := v.(string)
	if !ok {
		return v
	}
	s = strings.TrimSpace(s)
	if s == "" || s == "OLYMPUS DIGITAL CAMERA" || pixel2CaptionRE.MatchString(s) {
		return nil
	}
	return s
}

func parseGPS(v interface{}) interface{} {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	parts := strings.Split(s, ", ")
	coords := make([]float64, 0, len(parts))
	for _, p := range parts {
		f, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil
		}
		coords = append(coords, f)
	}
	return coords
}

func parseImageSize(v interface{}) interface{} {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	w, h, found := strings.Cut(s, "x")
	if !found {
		return nil
	}
	wi, err1 := strconv.Atoi(w)
	hi, err2 := strconv.Atoi(h)
	if err1 != nil || err2 != nil {
		return nil
	}
	return []int{wi, hi}
}

var processors = map[string]func(interface{}) interface{}{
	"Composite:Aperture":         dropZero,
	"Composite:Description":      parseDescription,
	"Composite:FocalLength35efl": parseFocalLength,
	"Composite:GPSPosition":      parseGPS,
	"Composite:ISO":              dropZero,
	"Composite:ImageSize":        parseImageSize,
	"Composite:Keywords":         ensureList,
	"Composite:Orientation":      dropUnknown,
	"Composite:ShutterSpeed":     dropZero,
	"EXIF:ExposureCompensation":  dropZero,
	"EXIF:ExposureProgram":       dropUnknown,
	"EXIF:Flash":                 dropUnknown,
	"EXIF:LightSource":           dropUnknown,
	"EXIF:MeteringMode":          dropUnknown,
	"EXIF:SubjectDistanceRange":  dropUnknown,
	"IPTC:Keywords":              ensureList,
}

// Date layouts exiftool produces. The zoned layout matches "Z" or an
// explicit "+hh:mm"/"-hh:mm" suffix; exiftool only emits a zone when it
// actually knows it, so a bare datetime stays naive rather than being
// stamped with the scanner host's zone.
const (
	zonedDateLayout = "2006:01:02 15:04:05.999999999Z07:00"
	naiveDateLayout = "2006:01:02 15:04:05.999999999"
)

// parseDate parses an exiftool datetime. zoned reports whether the input
// carried timezone information; naive values are parsed as UTC wall time.
func parseDate(value string) (t time.Time, zoned bool, ok bool) {
	if t, err := time.Parse(zonedDateLayout, value); err == nil {
		return t, true, true
	}
	if t, err := time.ParseInLocation(naiveDateLayout, value, time.UTC); err == nil {
		return t, false, true
	}
	return time.Time{}, false, false
}

func roundTo(x, nearest float64) float64 {
	return math.Round(x/nearest) * nearest
}

// extractMetadata probes a file with exiftool and maps the result to
// attribute keys. The effective date is stored as naive wall-clock epoch
// seconds; when a timezone can be determined (from a zoned date, or by
// differencing against the GPS UTC timestamp) it is stored separately as
// fractional hours rounded to the nearest quarter hour. EXIF:TimeZoneOffset
// is not used: it only stores whole hours.
func extractMetadata(ex Extractor, path string, noLocation bool) (Attributes, error) {
	infos, err := ex.ProcessFiles([]string{path}, TagsToExtract)
	if err != nil {
		return nil, err
	}
	if len(infos) == 0 {
		return nil, fmt.Errorf("no metadata returned for %s", path)
	}
	info := infos[0]

	attrs := Attributes{}
	for _, m := range tagmap {
		for _, tag := range m.tags {
			raw, present := info[tag]
			if !present {
				continue
			}
			if proc, hasProc := processors[tag]; hasProc {
				raw = proc(raw)
			}
			if raw != nil {
				attrs[m.attr] = raw
			}
			break
		}
	}

	if noLocation {
		delete(attrs, "gps")
	}

	var date time.Time
	var dateOK, dateZoned bool
	for _, tag := range []string{"Composite:DateTimeOriginal", "PNG:CreationTime"} {
		if s, isStr := info[tag].(string); isStr {
			if t, zoned, parsed := parseDate(s); parsed {
				date, dateZoned, dateOK = t, zoned, true
				break
			}
		}
	}

	var dateUTC time.Time
	var utcOK bool
	if s, isStr := info["Composite:GPSDateTime"].(string); isStr {
		if t, _, parsed := parseDate(s); parsed {
			dateUTC, utcOK = t.UTC(), true
		}
	}

	// Sideways orientations report sensor dimensions; store display
	// dimensions so cached documents round-trip without re-swapping.
	if ParseOrientation(attrs.String("orientation")).SwapsDimensions() {
		if sz, isInts := attrs["size"].([]int); isInts && len(sz) == 2 {
			attrs["size"] = []int{sz[1], sz[0]}
		}
	}

	if dateOK {
		var offsetHours float64
		var haveOffset bool
		switch {
		case dateZoned:
			_, secs := date.Zone()
			offsetHours = float64(secs) / 3600
			haveOffset = true
			attrs["date"] = date.Unix() + int64(secs)
		case utcOK:
			attrs["date"] = date.Unix()
			offsetHours = float64(date.Unix()-dateUTC.Unix()) / 3600
			haveOffset = true
		default:
			attrs["date"] = date.Unix()
		}
		if haveOffset {
			attrs["timezone"] = roundTo(offsetHours, 0.25)
		}
	}

	return attrs, nil
}
