package album

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"media-scanner/internal/media"
)

func testObject(t *testing.T, name string, date int64) *media.Object {
	t.Helper()
	attrs := media.Attributes{
		"hash":         "hash-" + name,
		"dateModified": int64(100),
		"mimeType":     "image/jpeg",
	}
	if date != 0 {
		attrs["date"] = date
	}
	p := &media.Prober{}
	obj, err := p.FromCache("/albums/x/"+name, attrs)
	if err != nil {
		t.Fatal(err)
	}
	return obj
}

func TestMediaSortOrder(t *testing.T) {
	a := New("x")
	a.AddMedia(testObject(t, "newer.jpg", 2000))
	a.AddMedia(testObject(t, "b.jpg", 1000))
	a.AddMedia(testObject(t, "a.jpg", 1000))
	a.AddMedia(testObject(t, "undated.jpg", 0))

	var names []string
	for _, m := range a.Media() {
		names = append(names, m.Name())
	}
	want := []string{"undated.jpg", "a.jpg", "b.jpg", "newer.jpg"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Errorf("media order = %v, want %v", names, want)
	}
}

func TestAlbumSortOrder(t *testing.T) {
	old := New("x/old")
	old.AddMedia(testObject(t, "a.jpg", 1000))
	recent := New("x/recent")
	recent.AddMedia(testObject(t, "b.jpg", 5000))

	a := New("x")
	a.AddAlbum(old)
	a.AddAlbum(recent)

	subs := a.Albums()
	if subs[0].Path() != "x/recent" || subs[1].Path() != "x/old" {
		t.Errorf("sub-albums must sort newest first, got %s, %s", subs[0].Path(), subs[1].Path())
	}
}

func TestDateAggregate(t *testing.T) {
	a := New("x")
	if a.Date() != 0 {
		t.Error("empty album must have zero date")
	}

	a.AddMedia(testObject(t, "a.jpg", 1000))
	sub := New("x/sub")
	sub.AddMedia(testObject(t, "b.jpg", 9000))
	a.AddAlbum(sub)

	if d := a.Date(); d != 9000 {
		t.Errorf("date = %d, want newest in tree (9000)", d)
	}
}

func TestEmptyPropagation(t *testing.T) {
	leaf := New("a/b/c")
	mid := New("a/b")
	mid.AddAlbum(leaf)
	root := New("a")
	root.AddAlbum(mid)

	if !root.Empty() {
		t.Error("album tree with no media must be empty")
	}

	leaf.AddMedia(testObject(t, "x.jpg", 1))
	if root.Empty() {
		t.Error("media deep in the tree must make ancestors non-empty")
	}
}

func TestDocument(t *testing.T) {
	a := New("trips")
	a.AddMedia(testObject(t, "a.jpg", 1000))
	a.Ignore("broken.bin")
	a.Ignore("also-broken.bin")

	filled := New("trips/italy")
	filled.AddMedia(testObject(t, "b.jpg", 2000))
	a.AddAlbum(filled)
	a.AddAlbum(New("trips/empty"))

	doc := a.Document()
	if doc["path"] != "trips" {
		t.Errorf("path = %v", doc["path"])
	}
	if doc["date"] != int64(2000) {
		t.Errorf("date = %v, want 2000", doc["date"])
	}

	subs := doc["albums"].([]map[string]interface{})
	if len(subs) != 1 {
		t.Fatalf("empty sub-albums must be omitted, got %v", subs)
	}
	if subs[0]["path"] != "italy" {
		t.Errorf("sub-album path must be relative to parent, got %v", subs[0]["path"])
	}

	ignored := doc["ignored"].([]string)
	if len(ignored) != 2 || ignored[0] != "also-broken.bin" {
		t.Errorf("ignored must be sorted, got %v", ignored)
	}
}

func TestStoreRoundTrip(t *testing.T) {
	store := &Store{Root: t.TempDir()}

	a := New("trips/italy 2019")
	a.AddMedia(testObject(t, "a.jpg", 1000))
	a.Ignore("bad.bin")

	if err := store.Save(a); err != nil {
		t.Fatal(err)
	}

	doc, err := store.Load("trips/italy 2019")
	if err != nil {
		t.Fatal(err)
	}
	if doc.Path != "trips/italy 2019" {
		t.Errorf("path = %q", doc.Path)
	}
	if doc.Date != 1000 {
		t.Errorf("date = %d", doc.Date)
	}
	if len(doc.Media) != 1 {
		t.Fatalf("media = %v", doc.Media)
	}
	byName := doc.MediaByName()
	if byName["a.jpg"].Hash() != "hash-a.jpg" {
		t.Errorf("media index wrong: %v", byName)
	}
	if len(doc.Ignored) != 1 || doc.Ignored[0] != "bad.bin" {
		t.Errorf("ignored = %v", doc.Ignored)
	}

	if _, err := store.Mtime("trips/italy 2019"); err != nil {
		t.Errorf("Mtime: %v", err)
	}

	// No stray temp files left behind.
	entries, _ := os.ReadDir(store.Root)
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".album-") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestStoreLoadMiss(t *testing.T) {
	store := &Store{Root: t.TempDir()}
	if _, err := store.Load("nope"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("want ErrCacheMiss, got %v", err)
	}
}

func TestStoreLoadCorrupt(t *testing.T) {
	store := &Store{Root: t.TempDir()}

	write := func(rel, content string) {
		path := store.DocumentPath(rel)
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	write("garbage", "{not json")
	if _, err := store.Load("garbage"); !errors.Is(err, ErrCacheCorrupt) {
		t.Errorf("want ErrCacheCorrupt for bad JSON, got %v", err)
	}

	write("incomplete", `{"path":"incomplete","media":[{"name":"a.jpg"}]}`)
	if _, err := store.Load("incomplete"); !errors.Is(err, ErrCacheCorrupt) {
		t.Errorf("want ErrCacheCorrupt for incomplete media entry, got %v", err)
	}
}

func TestDocumentPathNaming(t *testing.T) {
	store := &Store{Root: "/cache"}
	got := store.DocumentPath("Trips/Italy (2019)")
	want := filepath.Join("/cache", "trips-italy_2019.json")
	if got != want {
		t.Errorf("DocumentPath = %q, want %q", got, want)
	}
}
