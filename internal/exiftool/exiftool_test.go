package exiftool

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// writeStub writes a shell script that speaks enough of the stay-open
// protocol to test the batch plumbing without a real exiftool install.
func writeStub(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "exiftool-stub")
	script := "#!/bin/sh\n" + body
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("failed to write stub: %v", err)
	}
	return path
}

const respondingStub = `
while IFS= read -r line; do
  case "$line" in
  -execute)
    echo '[{"SourceFile":"a.jpg","File:MIMEType":"image/jpeg","EXIF:Make":"TestCam"}]'
    echo '{ready}'
    ;;
  -stay_open)
    IFS= read -r flag
    [ "$flag" = "False" ] && exit 0
    ;;
  esac
done
`

func TestProcessFiles(t *testing.T) {
	tool := New()
	tool.exe = writeStub(t, respondingStub)

	if err := tool.Acquire(); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer tool.Release()

	maps, err := tool.ProcessFiles([]string{"a.jpg"}, []string{"EXIF:*", "File:MIMEType"})
	if err != nil {
		t.Fatalf("ProcessFiles failed: %v", err)
	}
	if len(maps) != 1 {
		t.Fatalf("expected 1 result, got %d", len(maps))
	}
	if maps[0]["SourceFile"] != "a.jpg" {
		t.Errorf("SourceFile = %v", maps[0]["SourceFile"])
	}
	if maps[0]["EXIF:Make"] != "TestCam" {
		t.Errorf("EXIF:Make = %v", maps[0]["EXIF:Make"])
	}
}

func TestProcessFilesAutoStart(t *testing.T) {
	tool := New()
	tool.exe = writeStub(t, respondingStub)

	// No explicit Acquire: the call should start and stop the process itself
	if _, err := tool.ProcessFiles([]string{"a.jpg"}, nil); err != nil {
		t.Fatalf("ProcessFiles failed: %v", err)
	}
	if tool.Running() {
		t.Error("expected process to be stopped after implicit acquire/release")
	}
}

func TestProcessFilesTimeout(t *testing.T) {
	// Stub that consumes input and never answers
	tool := New()
	tool.exe = writeStub(t, "while IFS= read -r line; do :; done\n")
	tool.timeout = 100 * time.Millisecond

	if err := tool.Acquire(); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer tool.Terminate()

	_, err := tool.ProcessFiles([]string{"a.jpg"}, nil)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestProcessFilesParseError(t *testing.T) {
	stub := `
while IFS= read -r line; do
  case "$line" in
  -execute)
    echo 'this is not json'
    echo '{ready}'
    ;;
  esac
done
`
	tool := New()
	tool.exe = writeStub(t, stub)

	if err := tool.Acquire(); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer tool.Terminate()

	_, err := tool.ProcessFiles([]string{"a.jpg"}, nil)
	if err == nil {
		t.Fatal("expected parse error")
	}
	if errors.Is(err, ErrTimeout) {
		t.Fatalf("expected parse error, got timeout: %v", err)
	}
}

func TestReferenceCounting(t *testing.T) {
	tool := New()
	tool.exe = writeStub(t, respondingStub)

	if err := tool.Acquire(); err != nil {
		t.Fatalf("first Acquire failed: %v", err)
	}
	if err := tool.Acquire(); err != nil {
		t.Fatalf("nested Acquire failed: %v", err)
	}

	tool.Release()
	if !tool.Running() {
		t.Fatal("process stopped while still referenced")
	}

	tool.Release()
	if tool.Running() {
		t.Fatal("process still running after final Release")
	}
}

func TestProcessFilesConcurrent(t *testing.T) {
	tool := New()
	tool.exe = writeStub(t, respondingStub)

	if err := tool.Acquire(); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer tool.Release()

	// Worker-pool shape: many goroutines share one subprocess. Every call
	// must get back exactly its own complete response.
	const callers = 32
	errs := make(chan error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			maps, err := tool.ProcessFiles([]string{"a.jpg"}, []string{"EXIF:*"})
			if err != nil {
				errs <- err
				return
			}
			if len(maps) != 1 || maps[0]["SourceFile"] != "a.jpg" {
				errs <- fmt.Errorf("mixed-up response: %v", maps)
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent ProcessFiles: %v", err)
	}
}

func TestProcessFilesEmpty(t *testing.T) {
	tool := New()
	maps, err := tool.ProcessFiles(nil, nil)
	if err != nil {
		t.Fatalf("ProcessFiles(nil) error: %v", err)
	}
	if maps != nil {
		t.Errorf("expected nil result for empty input, got %v", maps)
	}
}
