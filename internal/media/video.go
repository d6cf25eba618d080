package media

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"media-scanner/internal/cachepath"
	"media-scanner/internal/logging"
	"media-scanner/internal/mediatypes"
)

// videoSpecs: a 480p transcode plus a square 150px clip used as an animated
// thumbnail. Quality holds the x264 CRF for these.
var videoSpecs = []ThumbSpec{
	{Size: 480, Quality: 25, Square: false, Ext: "mp4"},
	{Size: 150, Quality: 30, Square: true, Ext: "mp4"},
}

type video struct {
	obj  *Object
	list []ThumbSpec
}

func newVideo(o *Object) *video {
	return &video{obj: o, list: videoSpecs}
}

func (v *video) kind() mediatypes.Kind { return mediatypes.KindVideo }

func (v *video) specs() []ThumbSpec { return v.list }

// scaleFilter scales the shortest side down to size while preserving
// aspect ratio, keeping both dimensions even as h.264 requires, and never
// upscaling.
func scaleFilter(size int) string {
	return fmt.Sprintf(
		"scale='if(gt(iw,ih),-2,min(iw+mod(iw,2),%[1]d))':'if(gt(iw,ih),min(ih+mod(ih,2),%[1]d),-2)':flags=bicubic",
		size)
}

// generate produces every rendition with a single ffmpeg invocation: the
// input stream is split and each branch gets its own scale (and for the
// thumbnail, crop and 2x speed-up) before encoding. Outputs go to temp
// paths and are renamed in only when ffmpeg succeeds.
func (v *video) generate(ctx context.Context, cacheRoot string) error {
	logging.Event("encoding", "%s", v.obj.Name())

	n := len(v.list)
	graph := make([]string, 0, n+1)

	ins := make([]string, n)
	for i := range ins {
		ins[i] = fmt.Sprintf("[in%d]", i)
	}
	graph = append(graph, fmt.Sprintf("[0:v]split=%d%s", n, strings.Join(ins, "")))

	for i, spec := range v.list {
		filters := []string{scaleFilter(spec.Size)}
		if spec.Square {
			filters = append(filters, fmt.Sprintf("crop=%d:%d", spec.Size, spec.Size))
			filters = append(filters, "setpts=0.5*PTS")
		}
		graph = append(graph, fmt.Sprintf("[in%d]%s[out%d]", i, strings.Join(filters, ","), i))
	}

	cmd := []string{"-y", "-i", v.obj.Path(), "-filter_complex", strings.Join(graph, ";")}

	tmpPaths := make([]string, n)
	finalPaths := make([]string, n)
	for i, spec := range v.list {
		dst := filepath.Join(cacheRoot, cachepath.Thumbnail(v.obj.Hash(), spec.Size, spec.Square, spec.Ext))
		if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
			return err
		}
		finalPaths[i] = dst
		tmpPaths[i] = dst + ".tmp"

		cmd = append(cmd, "-map", fmt.Sprintf("[out%d]", i))
		if spec.Square {
			cmd = append(cmd, "-t", "3")
		}
		cmd = append(cmd, "-c:v", "libx264", "-preset", "slow", "-pix_fmt", "yuv420p",
			"-crf", strconv.Itoa(spec.Quality))
		if !spec.Square {
			cmd = append(cmd, "-map", "0:a?", "-c:a", "aac", "-b:a", "160k")
		}
		cmd = append(cmd, "-f", spec.Ext, tmpPaths[i])
	}

	run := exec.CommandContext(ctx, "ffmpeg", cmd...)
	var stderr bytes.Buffer
	run.Stderr = &stderr

	if err := run.Run(); err != nil {
		for _, p := range tmpPaths {
			os.Remove(p)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("ffmpeg failed for %s: %v, stderr: %s", v.obj.Name(), err, stderr.String())
	}

	for i, p := range tmpPaths {
		if err := os.Rename(p, finalPaths[i]); err != nil {
			for _, rest := range tmpPaths[i:] {
				os.Remove(rest)
			}
			return err
		}
	}
	return nil
}
