package mediatypes

import "testing"

func TestKindForMime(t *testing.T) {
	tests := []struct {
		mime string
		want Kind
	}{
		{"image/jpeg", KindPhoto},
		{"image/png", KindPhoto},
		{"IMAGE/JPEG", KindPhoto},
		{"image/x-nikon-nef", KindRawPhoto},
		{"image/x-adobe-dng", KindRawPhoto},
		{"image/x-canon-cr3", KindRawPhoto},
		{"video/mp4", KindVideo},
		{"video/x-matroska", KindVideo},
		{"video/whatever-new", KindVideo}, // wildcard fallback
		{"image/some-future-format", KindPhoto},
		{"audio/mpeg", KindOther},
		{"application/pdf", KindOther},
		{"garbage", KindOther},
		{"", KindOther},
	}

	for _, tt := range tests {
		if got := KindForMime(tt.mime); got != tt.want {
			t.Errorf("KindForMime(%q) = %q, want %q", tt.mime, got, tt.want)
		}
	}
}

func TestGetMimeType(t *testing.T) {
	tests := []struct {
		ext  string
		want string
	}{
		{".jpg", "image/jpeg"},
		{".nef", "image/x-nikon-nef"},
		{".mp4", "video/mp4"},
		{".xyz", "application/octet-stream"},
	}

	for _, tt := range tests {
		if got := GetMimeType(tt.ext); got != tt.want {
			t.Errorf("GetMimeType(%q) = %q, want %q", tt.ext, got, tt.want)
		}
	}
}

func TestIsMediaFile(t *testing.T) {
	if !IsMediaFile(".jpg") {
		t.Error("expected .jpg to be a media file")
	}
	if !IsMediaFile(".mkv") {
		t.Error("expected .mkv to be a media file")
	}
	if IsMediaFile(".txt") {
		t.Error("expected .txt to not be a media file")
	}
}

func TestSplitMime(t *testing.T) {
	typ, sub, ok := SplitMime("Image/X-Adobe-DNG")
	if !ok || typ != "image" || sub != "x-adobe-dng" {
		t.Errorf("SplitMime = (%q, %q, %v)", typ, sub, ok)
	}

	if _, _, ok := SplitMime("notamime"); ok {
		t.Error("expected SplitMime to fail without separator")
	}
}
