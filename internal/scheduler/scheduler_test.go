package scheduler

import (
	"context"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"

	"media-scanner/internal/media"
)

type fakeExtractor struct{}

func (fakeExtractor) ProcessFiles(files, tags []string) ([]map[string]interface{}, error) {
	return []map[string]interface{}{{"File:MIMEType": "image/jpeg"}}, nil
}

func writeJPEG(t *testing.T, path string, seed uint8) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	for i := range img.Pix {
		img.Pix[i] = seed
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := jpeg.Encode(f, img, nil); err != nil {
		t.Fatal(err)
	}
}

func probe(t *testing.T, path string) *media.Object {
	t.Helper()
	p := &media.Prober{Extractor: fakeExtractor{}}
	obj, err := p.FromPath(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	return obj
}

func TestRunGeneratesAll(t *testing.T) {
	dir := t.TempDir()
	cache := t.TempDir()

	var objs []*media.Object
	for i, name := range []string{"a.jpg", "b.jpg", "c.jpg"} {
		path := filepath.Join(dir, name)
		writeJPEG(t, path, uint8(i))
		objs = append(objs, probe(t, path))
	}

	s := &Scheduler{CacheRoot: cache, Workers: 2}
	if err := s.Run(context.Background(), objs); err != nil {
		t.Fatal(err)
	}
	for _, obj := range objs {
		if !obj.ThumbsExist(cache) {
			t.Errorf("thumbs missing for %s", obj.Name())
		}
	}
}

func TestRunDeduplicatesByHash(t *testing.T) {
	dir := t.TempDir()
	cache := t.TempDir()

	a := filepath.Join(dir, "a.jpg")
	b := filepath.Join(dir, "b.jpg")
	writeJPEG(t, a, 9)
	writeJPEG(t, b, 9)

	objA, objB := probe(t, a), probe(t, b)
	if objA.Hash() != objB.Hash() {
		t.Fatal("test setup: hashes must match")
	}

	s := &Scheduler{CacheRoot: cache, Workers: 1}
	if err := s.Run(context.Background(), []*media.Object{objA, objB}); err != nil {
		t.Fatal(err)
	}

	// One rendition set serves both objects.
	if !objA.ThumbsExist(cache) || !objB.ThumbsExist(cache) {
		t.Error("both copies must see the shared thumbnail set")
	}
	pathsA := objA.ThumbPaths(cache)
	pathsB := objB.ThumbPaths(cache)
	for i := range pathsA {
		if pathsA[i] != pathsB[i] {
			t.Errorf("thumb paths differ for identical content: %s vs %s", pathsA[i], pathsB[i])
		}
	}
}

func TestRunFailureIsolation(t *testing.T) {
	dir := t.TempDir()
	cache := t.TempDir()

	good := filepath.Join(dir, "good.jpg")
	writeJPEG(t, good, 1)
	goodObj := probe(t, good)

	// Not actually a JPEG; rendering fails but must not break the run.
	bad := filepath.Join(dir, "bad.jpg")
	if err := os.WriteFile(bad, []byte("not an image at all"), 0644); err != nil {
		t.Fatal(err)
	}
	badObj := probe(t, bad)

	s := &Scheduler{CacheRoot: cache, Workers: 1}
	if err := s.Run(context.Background(), []*media.Object{badObj, goodObj}); err != nil {
		t.Fatal(err)
	}
	if !goodObj.ThumbsExist(cache) {
		t.Error("a failing object must not prevent others from rendering")
	}
}

func TestRunCancellation(t *testing.T) {
	dir := t.TempDir()
	cache := t.TempDir()
	path := filepath.Join(dir, "a.jpg")
	writeJPEG(t, path, 1)
	obj := probe(t, path)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := &Scheduler{CacheRoot: cache, Workers: 1}
	if err := s.Run(ctx, []*media.Object{obj}); err != context.Canceled {
		t.Errorf("want context.Canceled, got %v", err)
	}
}
