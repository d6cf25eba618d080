// Package startup handles configuration validation, environment checks and
// the structured startup/shutdown logging around a scan.
package startup

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"media-scanner/internal/exiftool"
	"media-scanner/internal/logging"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// Config holds all scanner configuration. Flag parsing fills in the raw
// values; Finalize resolves and validates them.
type Config struct {
	AlbumRoot     string
	CacheRoot     string
	SaltFile      string
	RemoveStale   bool
	RescanIgnored bool
	NoLocation    bool

	// serve subcommand
	Port string

	// Derived by Finalize
	Salt []byte
}

// Finalize resolves paths, loads the salt file and verifies the cache root
// is usable. An uncreatable or unwritable cache root is a hard error: the
// scan cannot do anything without it.
func (c *Config) Finalize() error {
	printBanner()
	logSystemInfo()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	var err error
	c.AlbumRoot, err = filepath.Abs(c.AlbumRoot)
	if err != nil {
		return fmt.Errorf("failed to resolve album root: %w", err)
	}

	info, err := os.Stat(c.AlbumRoot)
	if err != nil {
		return fmt.Errorf("album root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("album root %s is not a directory", c.AlbumRoot)
	}

	// Default cache root is a sibling of the album root.
	if c.CacheRoot == "" {
		c.CacheRoot = filepath.Join(filepath.Dir(c.AlbumRoot), "cache")
	}
	c.CacheRoot, err = filepath.Abs(c.CacheRoot)
	if err != nil {
		return fmt.Errorf("failed to resolve cache root: %w", err)
	}

	if err := os.MkdirAll(c.CacheRoot, 0755); err != nil {
		return fmt.Errorf("cannot create cache root: %w", err)
	}
	if err := testWriteAccess(c.CacheRoot); err != nil {
		return fmt.Errorf("cache root is not writable: %w", err)
	}

	if c.SaltFile != "" {
		c.Salt, err = os.ReadFile(c.SaltFile)
		if err != nil {
			return fmt.Errorf("failed to read salt file: %w", err)
		}
		c.Salt = []byte(strings.TrimSpace(string(c.Salt)))
		if len(c.Salt) > 64 {
			return fmt.Errorf("salt file too long: at most 64 bytes after trimming")
		}
	}

	logging.Info("  Album root:      %s", c.AlbumRoot)
	logging.Info("  Cache root:      %s", c.CacheRoot)
	logging.Info("  Salted hashes:   %v", len(c.Salt) > 0)
	logging.Info("  Remove stale:    %v", c.RemoveStale)
	logging.Info("  Rescan ignored:  %v", c.RescanIgnored)
	logging.Info("  Strip location:  %v", c.NoLocation)
	logging.Info("  LOG_LEVEL:       %s", logging.GetLevel())
	logging.Info("")

	logTooling()
	return nil
}

// logTooling reports on the external programs the scan depends on. Missing
// tools degrade specific features rather than failing the whole run.
func logTooling() {
	logging.Info("------------------------------------------------------------")
	logging.Info("EXTERNAL TOOLS")
	logging.Info("------------------------------------------------------------")

	if path, err := exec.LookPath(exiftool.Executable); err == nil {
		logging.Info("  [OK] exiftool: %s", path)
	} else {
		logging.Warn("  exiftool not found in PATH; metadata extraction will fail")
	}

	if err := checkFFmpeg(); err != nil {
		logging.Warn("  ffmpeg check failed: %v", err)
		logging.Warn("  video thumbnails will not be generated")
	} else {
		logging.Info("  [OK] ffmpeg is available")
	}
	logging.Info("")
}

// LogScanPhase marks the start of one of the scan's sequential phases.
func LogScanPhase(name string) {
	logging.Info("------------------------------------------------------------")
	logging.Info("%s", strings.ToUpper(name))
	logging.Info("------------------------------------------------------------")
}

// LogScanComplete summarizes a finished run.
func LogScanComplete(albums, objects, stale int, elapsed time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SCAN COMPLETE")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Albums:         %d", albums)
	logging.Info("  Media objects:  %d", objects)
	logging.Info("  Stale entries:  %d", stale)
	logging.Info("  Elapsed:        %v", elapsed.Round(time.Millisecond))
}

// LogShutdownInitiated marks the beginning of a signal-driven shutdown.
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN (%s)", signal)
	logging.Info("------------------------------------------------------------")
}

func printBanner() {
	banner := `
------------------------------------------------------------
    __  ___         ___         _____
   /  |/  /__  ____/ (_)___ _  / ___/_________ _____  ____  ___  _____
  / /|_/ / _ \/ __  / / __ '/  \__ \/ ___/ __ '/ __ \/ __ \/ _ \/ ___/
 / /  / /  __/ /_/ / / /_/ /  ___/ / /__/ /_/ / / / / / / /  __/ /
/_/  /_/\___/\__,_/_/\__,_/  /____/\___/\__,_/_/ /_/_/ /_/\___/_/

------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		logging.Info("  (Container CPU limit detected)")
	}
	logging.Info("")
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
	}
	return nil
}

func checkFFmpeg() error {
	path, err := exec.LookPath("ffmpeg")
	if err != nil {
		return fmt.Errorf("ffmpeg not found in PATH")
	}
	logging.Debug("  ffmpeg path: %s", path)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	output, err := exec.CommandContext(ctx, "ffmpeg", "-version").Output()
	if err != nil {
		return fmt.Errorf("failed to get ffmpeg version: %w", err)
	}
	if lines := strings.Split(string(output), "\n"); len(lines) > 0 {
		logging.Debug("  ffmpeg version: %s", strings.TrimSpace(lines[0]))
	}
	return nil
}
