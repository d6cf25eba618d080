package media

import (
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"golang.org/x/crypto/blake2b"

	"media-scanner/internal/filesystem"
	"media-scanner/internal/metrics"
)

// FileHash returns the hex digest of the file's content, keyed with salt
// when one is configured. Salting makes hashes unguessable from content
// alone, since they end up in publicly servable cache filenames.
func FileHash(path string, salt []byte) (string, error) {
	start := time.Now()

	h, err := blake2b.New256(salt)
	if err != nil {
		return "", fmt.Errorf("bad hash salt: %w", err)
	}

	f, err := filesystem.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	buf := make([]byte, 64*1024)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}

	metrics.HashesComputed.Inc()
	metrics.HashDuration.Observe(time.Since(start).Seconds())
	return hex.EncodeToString(h.Sum(nil)), nil
}
