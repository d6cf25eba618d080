package exiftool

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"media-scanner/internal/logging"
	"media-scanner/internal/metrics"
)

// Executable is the exiftool binary name; it must be on the PATH.
const Executable = "exiftool"

// sentinel marks the end of one command batch's output in stay-open mode.
const sentinel = "{ready}"

// defaultTimeout is the per-file response budget for a batch.
const defaultTimeout = 5 * time.Second

// ErrTimeout is returned when exiftool does not produce the end-of-output
// sentinel within the allotted budget. It is recoverable: the caller should
// treat the affected files as unreadable, not abort the run.
var ErrTimeout = errors.New("exiftool: timed out waiting for output")

// ErrNotRunning is returned by low-level calls when the subprocess is not up.
var ErrNotRunning = errors.New("exiftool: process not running")

// Tool drives a single long-lived `exiftool -stay_open True` subprocess.
// One process is shared across many queries, which is far cheaper than
// launching a fresh process per file.
//
// The process lifetime is reference-counted: Acquire starts it (or bumps the
// count if already running) and Release tears it down when the count reaches
// zero. Nested acquisitions therefore share one instance. Callers must pair
// every Acquire with a Release on all exit paths.
type Tool struct {
	mu      sync.Mutex
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	lines   chan string
	refs    int
	timeout time.Duration
	exe     string

	// reqMu serializes whole write-batch/read-to-sentinel exchanges. The
	// subprocess answers on a single stream, so interleaved requests from
	// the thumbnail workers would steal each other's response lines. It is
	// separate from mu, which must never be held across a blocking read.
	reqMu sync.Mutex
}

// New returns an unstarted Tool. Call Acquire before using it.
func New() *Tool {
	return &Tool{timeout: defaultTimeout, exe: Executable}
}

// Running reports whether the subprocess is currently up.
func (t *Tool) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cmd != nil
}

// Acquire starts the exiftool subprocess in batch mode, or increments the
// reference count if it is already running.
func (t *Tool) Acquire() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cmd != nil {
		t.refs++
		return nil
	}

	cmd := exec.Command(t.exe, "-stay_open", "True", "-@", "-", "-common_args", "-G", "-j")
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("exiftool: stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("exiftool: stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("exiftool: start: %w", err)
	}

	lines := make(chan string, 64)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(stdout)
		scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	t.cmd = cmd
	t.stdin = stdin
	t.lines = lines
	t.refs = 1
	logging.Debug("exiftool started (pid %d)", cmd.Process.Pid)
	return nil
}

// Release decrements the reference count. When it reaches zero the process
// is asked to shut down gracefully; if it does not exit within a second it
// is killed.
func (t *Tool) Release() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cmd == nil {
		return
	}
	t.refs--
	if t.refs > 0 {
		return
	}
	t.shutdownLocked()
}

// Terminate force-stops the subprocess regardless of the reference count.
// Used on interrupt so a cancelled run never leaks the child.
func (t *Tool) Terminate() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cmd == nil {
		return
	}
	t.shutdownLocked()
}

func (t *Tool) shutdownLocked() {
	cmd := t.cmd

	// Ask nicely first
	fmt.Fprint(t.stdin, "-stay_open\nFalse\n")
	t.stdin.Close()

	done := make(chan struct{})
	go func() {
		cmd.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		cmd.Process.Kill()
		<-done
	}

	t.cmd = nil
	t.stdin = nil
	t.lines = nil
	t.refs = 0
	logging.Debug("exiftool stopped")
}

// rawExecute sends one batch of parameters and collects output up to the
// sentinel. Exchanges run one at a time; concurrent callers queue on
// reqMu. The watchdog raises ErrTimeout instead of hanging forever on a
// wedged subprocess.
func (t *Tool) rawExecute(timeout time.Duration, params ...string) (string, error) {
	t.reqMu.Lock()
	defer t.reqMu.Unlock()

	t.mu.Lock()
	stdin := t.stdin
	lines := t.lines
	t.mu.Unlock()

	if stdin == nil {
		return "", ErrNotRunning
	}

	if _, err := fmt.Fprint(stdin, strings.Join(params, "\n")+"\n-execute\n"); err != nil {
		return "", fmt.Errorf("exiftool: write batch: %w", err)
	}

	var buf strings.Builder
	var watchdog <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		watchdog = timer.C
	}

	for {
		select {
		case line, ok := <-lines:
			if !ok {
				return "", fmt.Errorf("exiftool: output stream closed: %w", ErrNotRunning)
			}
			if strings.TrimSpace(line) == sentinel {
				return buf.String(), nil
			}
			buf.WriteString(line)
			buf.WriteByte('\n')
		case <-watchdog:
			metrics.ExtractorTimeouts.Inc()
			return "", fmt.Errorf("%w (after %v)", ErrTimeout, timeout)
		}
	}
}

// ProcessFiles extracts the requested tags from one or more files and
// returns one tag map per input file, in input order. Tag names may use
// exiftool wildcards (e.g. "EXIF:*"). Each map includes the "SourceFile"
// key naming the file it describes.
//
// The response budget scales with the number of files. A timeout or a
// malformed response is returned as an error; both are recoverable by
// treating the files as unreadable.
//
// If the subprocess is not running it is started for this call only.
func (t *Tool) ProcessFiles(files []string, tags []string) ([]map[string]interface{}, error) {
	if len(files) == 0 {
		return nil, nil
	}

	if err := t.Acquire(); err != nil {
		return nil, err
	}
	defer t.Release()

	start := time.Now()
	defer func() {
		metrics.ExtractorDuration.Observe(time.Since(start).Seconds())
	}()
	metrics.ExtractorBatches.Inc()
	metrics.ExtractorFiles.Add(float64(len(files)))

	params := make([]string, 0, len(tags)+len(files))
	for _, tag := range tags {
		params = append(params, "-"+tag)
	}
	params = append(params, files...)

	output, err := t.rawExecute(time.Duration(len(files))*t.timeout, params...)
	if err != nil {
		return nil, err
	}

	var data []map[string]interface{}
	if err := json.Unmarshal([]byte(output), &data); err != nil {
		return nil, fmt.Errorf("exiftool: parse output: %w", err)
	}
	return data, nil
}

// ExtractBinary writes the raw bytes of a binary tag (e.g. an embedded raw
// preview image) to dst. This is a one-shot invocation, separate from the
// stay-open process, because binary output cannot share the JSON stream.
func ExtractBinary(path, tag string, dst io.Writer) error {
	cmd := exec.Command(Executable, "-b", "-"+tag, path)
	cmd.Stdout = dst
	var stderr strings.Builder
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("exiftool: extract %s from %s: %w (%s)",
			tag, path, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// SingleCommand runs a one-shot exiftool invocation with the given
// arguments, e.g. to clone an orientation tag onto an extracted preview.
func SingleCommand(args ...string) error {
	cmd := exec.Command(Executable, args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("exiftool: %v: %w (%s)", args, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}
