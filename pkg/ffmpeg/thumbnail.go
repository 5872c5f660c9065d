package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ThumbnailOptions configures poster frame extraction.
type ThumbnailOptions struct {
	Offset  time.Duration // position of the frame in the source
	Width   int           // output width in pixels (default 320)
	Height  int           // output height in pixels (default 240)
	Quality int           // JPEG quality 1-31, lower is better (default 4)
}

// ThumbnailCommand builds a single-frame JPEG grab scaled to a fixed size.
func ThumbnailCommand(input, output string, opts ThumbnailOptions) *Command {
	if opts.Width <= 0 {
		opts.Width = 320
	}
	if opts.Height <= 0 {
		opts.Height = 240
	}
	if opts.Quality <= 0 {
		opts.Quality = 4
	}

	return NewCommand(input, output,
		Seek(opts.Offset),
		Scale(opts.Width, opts.Height),
		Frames(1),
		Quality(opts.Quality),
		NoAudio,
	)
}

// ExtractThumbnail writes one frame of input to output. The output directory
// is created if needed. A missing or empty output file after a clean exit
// is an error, which happens when the offset lies past the end of the stream.
func ExtractThumbnail(ctx context.Context, input, output string, opts ThumbnailOptions) error {
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return fmt.Errorf("thumbnail: mkdir: %w", err)
	}
	if err := ThumbnailCommand(input, output, opts).Run(ctx); err != nil {
		return err
	}
	st, err := os.Stat(output)
	if err != nil {
		return fmt.Errorf("thumbnail: no frame written at %s: %w", formatDuration(opts.Offset), err)
	}
	if st.Size() == 0 {
		return fmt.Errorf("thumbnail: empty frame written at %s", formatDuration(opts.Offset))
	}
	return nil
}

// Scale stretches the frame to exactly width x height. A dimension of -2
// follows the aspect ratio and rounds to an even size.
func Scale(width, height int) Option {
	return Filter(fmt.Sprintf("scale=%d:%d", width, height))
}
