package media

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"thirdcoast.systems/lessonstream/internal/apperr"
	"thirdcoast.systems/lessonstream/pkg/ffmpeg"
)

func stubProbe(seconds float64, err error) probeFunc {
	return func(context.Context, string) (float64, error) { return seconds, err }
}

func TestFFprobe_ProbeDuration(t *testing.T) {
	tests := []struct {
		name    string
		seconds float64
		err     error
		want    int
	}{
		{"rounds down", 199.4, nil, 199},
		{"rounds up", 199.6, nil, 200},
		{"zero", 0, nil, 0},
		{"nan", math.NaN(), nil, 0},
		{"failure is soft", 0, errors.New("moov atom not found"), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &FFprobe{probe: stubProbe(tt.seconds, tt.err)}
			assert.Equal(t, tt.want, p.ProbeDuration(context.Background(), "/tmp/x.mp4"))
		})
	}
}

// fakeFFmpeg points ffmpeg.Binary at a script that copies its -i input to
// the output path, so each thumbnail holds the bytes of its source.
func fakeFFmpeg(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script stand-in needs a POSIX shell")
	}
	script := filepath.Join(t.TempDir(), "ffmpeg")
	body := `#!/bin/sh
in=""; out=""; prev=""
for a in "$@"; do
  if [ "$prev" = "-i" ]; then in="$a"; fi
  prev="$a"; out="$a"
done
cat "$in" > "$out"
`
	require.NoError(t, os.WriteFile(script, []byte(body), 0o755))
	prev := ffmpeg.Binary
	ffmpeg.Binary = script
	t.Cleanup(func() { ffmpeg.Binary = prev })
}

func TestFFmpegThumbnailer_FailureIsEncodeError(t *testing.T) {
	dir := t.TempDir()
	th := NewFFmpegThumbnailer(dir)

	_, err := th.Generate(context.Background(), filepath.Join(dir, "missing.mp4"), 0, 10, Size{320, 240})
	require.Error(t, err)
	require.ErrorIs(t, err, apperr.ErrEncode)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "reserved thumbnail must be removed on failure")
}

func TestFFmpegThumbnailer_NamesNeverCollide(t *testing.T) {
	fakeFFmpeg(t)
	uploads := t.TempDir()
	th := NewFFmpegThumbnailer(uploads)
	ctx := context.Background()

	a := filepath.Join(uploads, "1700000000000-a.mp4")
	b := filepath.Join(uploads, "1700000000000-b.mp4")
	require.NoError(t, os.WriteFile(a, []byte("video-A"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("video-B"), 0o644))

	thumbA, err := th.Generate(ctx, a, 200, 10, Size{320, 240})
	require.NoError(t, err)
	thumbB, err := th.Generate(ctx, b, 200, 10, Size{320, 240})
	require.NoError(t, err)
	again, err := th.Generate(ctx, a, 200, 10, Size{320, 240})
	require.NoError(t, err)

	assert.Equal(t, "thumbnail-1700000000000-a.jpg", filepath.Base(thumbA))
	assert.NotEqual(t, thumbA, thumbB)
	assert.NotEqual(t, thumbA, again)

	got, err := os.ReadFile(thumbA)
	require.NoError(t, err)
	assert.Equal(t, "video-A", string(got))
	got, err = os.ReadFile(thumbB)
	require.NoError(t, err)
	assert.Equal(t, "video-B", string(got))
}

func TestFFmpegTranscoder_FailureIsEncodeError(t *testing.T) {
	dir := t.TempDir()
	tr := NewFFmpegTranscoder(10, "segment/")

	_, err := tr.Transcode(context.Background(), filepath.Join(dir, "missing.mp4"), filepath.Join(dir, "out"), 0)
	require.Error(t, err)
	require.ErrorIs(t, err, apperr.ErrEncode)
}
