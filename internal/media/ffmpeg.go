package media

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"thirdcoast.systems/lessonstream/internal/apperr"
	"thirdcoast.systems/lessonstream/pkg/ffmpeg"
)

const maxThumbnailAttempts = 16

// probeFunc is swapped in tests.
type probeFunc func(ctx context.Context, path string) (float64, error)

// FFprobe implements Prober on top of ffprobe.
type FFprobe struct {
	probe probeFunc
}

func NewFFprobe() *FFprobe {
	return &FFprobe{probe: ffmpeg.ProbeDuration}
}

// ProbeDuration returns the duration rounded to whole seconds, or 0 if the
// file cannot be probed.
func (p *FFprobe) ProbeDuration(ctx context.Context, path string) int {
	seconds, err := p.probe(ctx, path)
	if err != nil {
		slog.Warn("duration probe failed, defaulting to 0", "path", path, "error", apperr.Probe("media.probe_duration", err))
		return 0
	}
	if math.IsNaN(seconds) || seconds <= 0 {
		return 0
	}
	return int(math.Round(seconds))
}

// FFmpegThumbnailer implements Thumbnailer. Images land in Dir, named
// after the source file: thumbnail-<source stem>.jpg.
type FFmpegThumbnailer struct {
	Dir string
}

func NewFFmpegThumbnailer(dir string) *FFmpegThumbnailer {
	return &FFmpegThumbnailer{Dir: dir}
}

// Generate grabs one frame at offsetPercent of durationSeconds.
func (t *FFmpegThumbnailer) Generate(ctx context.Context, path string, durationSeconds int, offsetPercent float64, size Size) (string, error) {
	var offset time.Duration
	if durationSeconds > 0 {
		offset = time.Duration(float64(durationSeconds) * offsetPercent / 100 * float64(time.Second))
	}

	output, err := t.reserve(path)
	if err != nil {
		return "", apperr.IO("media.thumbnail", err)
	}
	err = ffmpeg.ExtractThumbnail(ctx, path, output, ffmpeg.ThumbnailOptions{
		Offset: offset,
		Width:  size.Width,
		Height: size.Height,
	})
	if err != nil {
		_ = os.Remove(output)
		return "", apperr.Encode("media.thumbnail", err)
	}
	return output, nil
}

// reserve creates the output file exclusively so no two sources, or two
// runs over one source, share a thumbnail. ffmpeg then overwrites it.
func (t *FFmpegThumbnailer) reserve(source string) (string, error) {
	if err := os.MkdirAll(t.Dir, 0o755); err != nil {
		return "", err
	}
	stem := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	for n := 0; n < maxThumbnailAttempts; n++ {
		name := "thumbnail-" + stem + ".jpg"
		if n > 0 {
			name = fmt.Sprintf("thumbnail-%s-%d.jpg", stem, n)
		}
		output := filepath.Join(t.Dir, name)
		f, err := os.OpenFile(output, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", err
		}
		return output, f.Close()
	}
	return "", fmt.Errorf("no free thumbnail name for %s", stem)
}

// FFmpegTranscoder implements Transcoder as a single-rendition HLS encode.
type FFmpegTranscoder struct {
	SegmentSeconds int
	// SegmentBaseURL prefixes segment URIs in the playlist so players
	// resolve them against the segment route.
	SegmentBaseURL string
}

func NewFFmpegTranscoder(segmentSeconds int, segmentBaseURL string) *FFmpegTranscoder {
	return &FFmpegTranscoder{SegmentSeconds: segmentSeconds, SegmentBaseURL: segmentBaseURL}
}

// Transcode runs the encode and logs progress roughly every 10% of the
// source duration.
func (t *FFmpegTranscoder) Transcode(ctx context.Context, path, outputDir string, durationSeconds int) (string, error) {
	total := float64(durationSeconds)

	progress := make(chan ffmpeg.Progress, 8)
	logged := make(chan struct{})
	go func() {
		defer close(logged)
		nextMark := 10.0
		for p := range progress {
			pct := p.Percent(total)
			if pct >= nextMark || p.Done() {
				slog.Info("transcode progress", "source", filepath.Base(path), "percent", math.Floor(pct), "speed", p.Speed)
				for nextMark <= pct {
					nextMark += 10
				}
			}
		}
	}()

	playlist, err := ffmpeg.TranscodeHLS(ctx, path, outputDir, ffmpeg.HLSOptions{SegmentSeconds: t.SegmentSeconds, BaseURL: t.SegmentBaseURL}, progress)
	<-logged
	if err != nil {
		return "", apperr.Encode("media.transcode", err)
	}
	return playlist, nil
}
