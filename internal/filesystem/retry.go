// Package filesystem provides stat/open wrappers with retry logic for NFS
// stale file handle errors. Media libraries frequently live on NFS mounts
// where a rename on the server side leaves clients holding ESTALE handles;
// one retry after a short backoff almost always clears it.
package filesystem

import (
	"errors"
	"os"
	"syscall"
	"time"

	"media-scanner/internal/logging"
	"media-scanner/internal/metrics"
)

// RetryConfig configures retry behavior for filesystem operations
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRetryConfig returns sensible defaults for NFS retry behavior
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 50 * time.Millisecond,
		MaxBackoff:     500 * time.Millisecond,
	}
}

// isNFSStaleError checks if an error is an NFS stale file handle error
func isNFSStaleError(err error) bool {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == syscall.ESTALE
	}
	return false
}

// retry runs op until it succeeds, fails with a non-ESTALE error, or
// exhausts the configured attempts.
func retry(name, path string, config RetryConfig, op func() error) error {
	var lastErr error
	backoff := config.InitialBackoff

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		err := op()
		if err == nil {
			if attempt > 0 {
				logging.Info("NFS %s succeeded on retry %d for %s", name, attempt, path)
				metrics.FilesystemRetrySuccess.WithLabelValues(name).Inc()
			}
			return nil
		}
		lastErr = err

		if !isNFSStaleError(err) {
			return err
		}
		metrics.FilesystemStaleErrors.WithLabelValues(name).Inc()

		if attempt < config.MaxRetries {
			logging.Debug("NFS %s stale file handle for %s, retrying in %v (attempt %d/%d)",
				name, path, backoff, attempt+1, config.MaxRetries)
			time.Sleep(backoff)
			backoff *= 2
			if backoff > config.MaxBackoff {
				backoff = config.MaxBackoff
			}
		}
	}

	logging.Warn("NFS %s failed after %d retries for %s: %v", name, config.MaxRetries, path, lastErr)
	metrics.FilesystemRetryFailures.WithLabelValues(name).Inc()
	return lastErr
}

// Stat performs os.Stat with retry logic for NFS stale file handle errors.
func Stat(path string) (os.FileInfo, error) {
	return StatWithRetry(path, DefaultRetryConfig())
}

// StatWithRetry performs os.Stat with the given retry configuration.
func StatWithRetry(path string, config RetryConfig) (os.FileInfo, error) {
	var info os.FileInfo
	err := retry("stat", path, config, func() error {
		var err error
		info, err = os.Stat(path)
		return err
	})
	return info, err
}

// Open performs os.Open with retry logic for NFS stale file handle errors.
func Open(path string) (*os.File, error) {
	return OpenWithRetry(path, DefaultRetryConfig())
}

// OpenWithRetry performs os.Open with the given retry configuration.
func OpenWithRetry(path string, config RetryConfig) (*os.File, error) {
	var file *os.File
	err := retry("open", path, config, func() error {
		var err error
		file, err = os.Open(path)
		return err
	})
	return file, err
}
