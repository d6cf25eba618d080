package media

import (
	"errors"
	"reflect"
	"testing"
)

type fakeExtractor struct {
	info  map[string]interface{}
	calls int
	err   error
}

func (f *fakeExtractor) ProcessFiles(files, tags []string) ([]map[string]interface{}, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []map[string]interface{}{f.info}, nil
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in    string
		epoch int64
		zoned bool
		ok    bool
	}{
		{"2021:06:15 12:00:00", 1623758400, false, true},
		{"2021:06:15 12:00:00.25", 1623758400, false, true},
		{"2021:06:15 12:00:00Z", 1623758400, true, true},
		{"2021:06:15 12:00:00+02:00", 1623751200, true, true},
		{"2021:06:15 12:00:00-05:30", 1623778200, true, true},
		{"not a date", 0, false, false},
		{"2021-06-15 12:00:00", 0, false, false},
	}
	for _, tt := range tests {
		got, zoned, ok := parseDate(tt.in)
		if ok != tt.ok {
			t.Errorf("parseDate(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			continue
		}
		if !ok {
			continue
		}
		if got.Unix() != tt.epoch {
			t.Errorf("parseDate(%q) = %d, want %d", tt.in, got.Unix(), tt.epoch)
		}
		if zoned != tt.zoned {
			t.Errorf("parseDate(%q) zoned = %v, want %v", tt.in, zoned, tt.zoned)
		}
	}
}

func TestExtractMetadataMapping(t *testing.T) {
	ex := &fakeExtractor{info: map[string]interface{}{
		"EXIF:Make":                  "Canon",
		"EXIF:Model":                 "EOS R5",
		"Composite:Aperture":         2.8,
		"Composite:ISO":              float64(0),
		"EXIF:Flash":                 "Unknown (0x0)",
		"Composite:FocalLength35efl": "35.0 mm (35 mm equivalent: 52.5 mm)",
		"Composite:GPSPosition":      "48.858844, 2.294351",
		"Composite:ImageSize":        "4000x3000",
		"IPTC:Keywords":              "holiday",
		"File:MIMEType":              "image/jpeg",
		"File:FileType":              "JPEG",
	}}

	attrs, err := extractMetadata(ex, "/x/a.jpg", false)
	if err != nil {
		t.Fatal(err)
	}

	if attrs["make"] != "Canon" || attrs["model"] != "EOS R5" {
		t.Errorf("camera attributes wrong: %v", attrs)
	}
	if _, present := attrs["iso"]; present {
		t.Error("zero ISO should be dropped")
	}
	if _, present := attrs["flash"]; present {
		t.Error("unknown flash should be dropped")
	}
	if attrs["focalLength"] != "52.5" {
		t.Errorf("focalLength = %v, want 35mm equivalent", attrs["focalLength"])
	}
	if got, want := attrs["gps"], []float64{48.858844, 2.294351}; !reflect.DeepEqual(got, want) {
		t.Errorf("gps = %v, want %v", got, want)
	}
	if got, want := attrs["size"], []int{4000, 3000}; !reflect.DeepEqual(got, want) {
		t.Errorf("size = %v, want %v", got, want)
	}
	if got, want := attrs["keywords"], []interface{}{"holiday"}; !reflect.DeepEqual(got, want) {
		t.Errorf("keywords = %v, want %v", got, want)
	}
	if attrs.MimeType() != "image/jpeg" {
		t.Errorf("mimeType = %q", attrs.MimeType())
	}
}

func TestExtractMetadataNoLocation(t *testing.T) {
	ex := &fakeExtractor{info: map[string]interface{}{
		"Composite:GPSPosition": "1.0, 2.0",
		"File:MIMEType":         "image/jpeg",
	}}
	attrs, err := extractMetadata(ex, "/x/a.jpg", true)
	if err != nil {
		t.Fatal(err)
	}
	if _, present := attrs["gps"]; present {
		t.Error("gps should be stripped when location is disabled")
	}
}

func TestExtractMetadataDateAndTimezone(t *testing.T) {
	t.Run("zoned date", func(t *testing.T) {
		ex := &fakeExtractor{info: map[string]interface{}{
			"Composite:DateTimeOriginal": "2021:06:15 12:00:00+02:00",
			"File:MIMEType":              "image/jpeg",
		}}
		attrs, err := extractMetadata(ex, "/x/a.jpg", false)
		if err != nil {
			t.Fatal(err)
		}
		// Wall clock 12:00 stored as naive UTC epoch.
		if d, _ := attrs.Date(); d != 1623758400 {
			t.Errorf("date = %d, want 1623758400", d)
		}
		if attrs["timezone"] != 2.0 {
			t.Errorf("timezone = %v, want 2", attrs["timezone"])
		}
	})

	t.Run("timezone from gps utc", func(t *testing.T) {
		ex := &fakeExtractor{info: map[string]interface{}{
			"Composite:DateTimeOriginal": "2021:06:15 17:30:00",
			"Composite:GPSDateTime":      "2021:06:15 12:00:00Z",
			"File:MIMEType":              "image/jpeg",
		}}
		attrs, err := extractMetadata(ex, "/x/a.jpg", false)
		if err != nil {
			t.Fatal(err)
		}
		if attrs["timezone"] != 5.5 {
			t.Errorf("timezone = %v, want 5.5", attrs["timezone"])
		}
	})

	t.Run("no timezone info", func(t *testing.T) {
		ex := &fakeExtractor{info: map[string]interface{}{
			"Composite:DateTimeOriginal": "2021:06:15 12:00:00",
			"File:MIMEType":              "image/jpeg",
		}}
		attrs, err := extractMetadata(ex, "/x/a.jpg", false)
		if err != nil {
			t.Fatal(err)
		}
		if d, hasDate := attrs.Date(); !hasDate || d != 1623758400 {
			t.Errorf("date = %d", d)
		}
		if _, present := attrs["timezone"]; present {
			t.Error("timezone should be absent without zone info")
		}
	})
}

func TestExtractMetadataSizeSwap(t *testing.T) {
	ex := &fakeExtractor{info: map[string]interface{}{
		"Composite:Orientation": "Rotate 90 CW",
		"Composite:ImageSize":   "4000x3000",
		"File:MIMEType":         "image/jpeg",
	}}
	attrs, err := extractMetadata(ex, "/x/a.jpg", false)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := attrs["size"], []int{3000, 4000}; !reflect.DeepEqual(got, want) {
		t.Errorf("size = %v, want %v (swapped)", got, want)
	}
}

func TestExtractMetadataError(t *testing.T) {
	ex := &fakeExtractor{err: errors.New("boom")}
	if _, err := extractMetadata(ex, "/x/a.jpg", false); err == nil {
		t.Error("expected error from failing extractor")
	}
}

func TestParseDescription(t *testing.T) {
	tests := []struct {
		in   string
		want interface{}
	}{
		{"  a nice caption  ", "a nice caption"},
		{"OLYMPUS DIGITAL CAMERA", nil},
		{"Maker:Google,Date:2018,Ver:1,Lens:x,Act:y,E-Z", nil},
		{"", nil},
	}
	for _, tt := range tests {
		if got := parseDescription(tt.in); got != tt.want {
			t.Errorf("parseDescription(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestRoundTo(t *testing.T) {
	if got := roundTo(5.6, 0.25); got != 5.5 {
		t.Errorf("roundTo(5.6, 0.25) = %v, want 5.5", got)
	}
	if got := roundTo(-3.4, 0.25); got != -3.5 {
		t.Errorf("roundTo(-3.4, 0.25) = %v, want -3.5", got)
	}
}
