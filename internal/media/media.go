// Package media adapts pkg/ffmpeg to the three media capabilities the
// ingestion pipeline depends on: duration probing, poster frames and HLS
// segmentation.
package media

import (
	"context"
)

// Size is a fixed output frame size in pixels.
type Size struct {
	Width  int
	Height int
}

// Prober extracts a rounded duration in seconds. It never fails; problems
// are logged and reported as 0.
type Prober interface {
	ProbeDuration(ctx context.Context, path string) int
}

// Thumbnailer writes a still image taken at offsetPercent of
// durationSeconds, scaled to size, and returns the image path. A zero
// duration samples the first frame. Every call writes a new file.
type Thumbnailer interface {
	Generate(ctx context.Context, path string, durationSeconds int, offsetPercent float64, size Size) (string, error)
}

// Transcoder converts a source file into an HLS playlist plus segments inside
// outputDir and returns the playlist path. Cancelling ctx aborts the encode.
// durationSeconds is the probed length, used only for progress reporting.
type Transcoder interface {
	Transcode(ctx context.Context, path, outputDir string, durationSeconds int) (string, error)
}
