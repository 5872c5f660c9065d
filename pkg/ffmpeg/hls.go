package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultPlaylistName is the media playlist written into each output dir.
	DefaultPlaylistName = "playlist.m3u8"
	// DefaultSegmentPattern names MPEG-TS segments segment_000.ts, segment_001.ts, ...
	DefaultSegmentPattern = "segment_%03d.ts"
	// DefaultSegmentSeconds is the target segment length.
	DefaultSegmentSeconds = 10
)

// HLSOptions configures single-rendition HLS segmentation.
type HLSOptions struct {
	SegmentSeconds int    // target segment length (default 10)
	PlaylistName   string // default playlist.m3u8
	SegmentPattern string // printf-style segment file pattern (default segment_%03d.ts)
	BaseURL        string // prefix written before each segment URI in the playlist
}

func (o HLSOptions) withDefaults() HLSOptions {
	if o.SegmentSeconds <= 0 {
		o.SegmentSeconds = DefaultSegmentSeconds
	}
	if o.PlaylistName == "" {
		o.PlaylistName = DefaultPlaylistName
	}
	if o.SegmentPattern == "" {
		o.SegmentPattern = DefaultSegmentPattern
	}
	return o
}

// HLSCommand builds an H.264 baseline / AAC encode into an MPEG-TS VOD
// playlist inside outputDir. Every segment is listed (hls_list_size 0) and
// numbering starts at 0.
func HLSCommand(input, outputDir string, opts HLSOptions) *Command {
	opts = opts.withDefaults()
	extra := []string{
		"-start_number", "0",
		"-hls_time", itoa(opts.SegmentSeconds),
		"-hls_list_size", "0",
		"-hls_segment_filename", filepath.Join(outputDir, opts.SegmentPattern),
	}
	if opts.BaseURL != "" {
		extra = append(extra, "-hls_base_url", opts.BaseURL)
	}
	return NewCommand(input, filepath.Join(outputDir, opts.PlaylistName),
		VideoCodec("libx264"),
		Profile("baseline"),
		Level("3.0"),
		PixelFormat("yuv420p"),
		AudioCodec("aac"),
		ExtraArgs(extra...),
		Format("hls"),
	)
}

// TranscodeHLS segments input into outputDir and returns the playlist path.
// progress may be nil; when set it is closed once ffmpeg exits.
func TranscodeHLS(ctx context.Context, input, outputDir string, opts HLSOptions, progress chan<- Progress) (string, error) {
	opts = opts.withDefaults()
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		if progress != nil {
			close(progress)
		}
		return "", fmt.Errorf("hls: mkdir %s: %w", outputDir, err)
	}

	cmd := HLSCommand(input, outputDir, opts)

	var err error
	if progress != nil {
		err = cmd.RunWithProgress(ctx, progress)
	} else {
		err = cmd.Run(ctx)
	}
	if err != nil {
		return "", err
	}

	playlist := filepath.Join(outputDir, opts.PlaylistName)
	if _, err := os.Stat(playlist); err != nil {
		return "", fmt.Errorf("hls: playlist missing after encode: %w", err)
	}
	return playlist, nil
}
