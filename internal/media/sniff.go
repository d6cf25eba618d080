package media

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"os/exec"
)

// sniffFormat identifies an image format from magic bytes. Decode fallbacks
// use this for diagnostics when a file's extension lies about its content.
func sniffFormat(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	header := make([]byte, 32)
	n, err := f.Read(header)
	if err != nil {
		return "", err
	}
	header = header[:n]

	switch {
	case len(header) >= 3 && header[0] == 0xFF && header[1] == 0xD8 && header[2] == 0xFF:
		return "jpeg", nil

	case len(header) >= 4 && bytes.HasPrefix(header, []byte{0x89, 'P', 'N', 'G'}):
		return "png", nil

	case len(header) >= 4 && bytes.HasPrefix(header, []byte("GIF8")):
		return "gif", nil

	case len(header) >= 12 && bytes.HasPrefix(header, []byte("RIFF")) &&
		bytes.Equal(header[8:12], []byte("WEBP")):
		return "webp", nil

	case len(header) >= 2 && header[0] == 'B' && header[1] == 'M':
		return "bmp", nil

	case len(header) >= 4 && (bytes.HasPrefix(header, []byte{'I', 'I', 0x2A, 0x00}) ||
		bytes.HasPrefix(header, []byte{'M', 'M', 0x00, 0x2A})):
		return "tiff", nil

	case len(header) >= 12 && bytes.Equal(header[4:8], []byte("ftyp")):
		switch string(header[8:12]) {
		case "heic", "heix", "hevc", "hevx", "mif1", "msf1":
			return "heif", nil
		case "avif", "avis":
			return "avif", nil
		}
		return "mp4-container", nil

	case len(header) >= 2 && header[0] == 0xFF && header[1] == 0x0A:
		return "jxl", nil
	}

	return "unknown", nil
}

// decodeWithFFmpeg pipes the first frame through ffmpeg as PNG. Last-resort
// decode path for formats none of the Go decoders handle.
func decodeWithFFmpeg(path string) (image.Image, error) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return nil, fmt.Errorf("ffmpeg not found: %w", err)
	}

	cmd := exec.Command("ffmpeg",
		"-i", path,
		"-vframes", "1",
		"-f", "image2pipe",
		"-vcodec", "png",
		"-pix_fmt", "rgb24",
		"-",
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg failed: %v, stderr: %s", err, stderr.String())
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("ffmpeg produced no output for %s", path)
	}

	img, _, err := image.Decode(&stdout)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ffmpeg output: %w", err)
	}
	return img, nil
}
