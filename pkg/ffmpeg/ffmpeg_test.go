package ffmpeg

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keepFiles = flag.Bool("keep", false, "keep generated test files for inspection")

func TestCommandBuild(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		output   string
		opts     []Option
		wantArgs []string
	}{
		{
			name:   "no options",
			input:  "in.mp4",
			output: "out.mp4",
			wantArgs: []string{
				"-hide_banner", "-y",
				"-i", "in.mp4",
				"out.mp4",
			},
		},
		{
			name:   "seek goes before input",
			input:  "in.mp4",
			output: "out.jpg",
			opts:   []Option{Frames(1), Seek(12500 * time.Millisecond)},
			wantArgs: []string{
				"-hide_banner", "-y",
				"-ss", "12.500",
				"-i", "in.mp4",
				"-frames:v", "1",
				"out.jpg",
			},
		},
		{
			name:   "filters are joined",
			input:  "in.mp4",
			output: "out.mp4",
			opts:   []Option{Scale(320, 240), Filter("fps=1")},
			wantArgs: []string{
				"-hide_banner", "-y",
				"-i", "in.mp4",
				"-vf", "scale=320:240,fps=1",
				"out.mp4",
			},
		},
		{
			name:   "loglevel is first",
			input:  "in.mp4",
			output: "out.mp4",
			opts:   []Option{Seek(time.Second), LogLevel("error")},
			wantArgs: []string{
				"-hide_banner", "-y",
				"-loglevel", "error",
				"-ss", "1.000",
				"-i", "in.mp4",
				"out.mp4",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewCommand(tt.input, tt.output, tt.opts...).Build()
			assert.Equal(t, tt.wantArgs, got)
		})
	}
}

func TestHLSCommand(t *testing.T) {
	got := HLSCommand("/uploads/lecture.mp4", "/hls/abc", HLSOptions{}).Build()

	assert.Equal(t, []string{
		"-hide_banner", "-y",
		"-i", "/uploads/lecture.mp4",
		"-c:v", "libx264",
		"-profile:v", "baseline",
		"-level", "3.0",
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-start_number", "0",
		"-hls_time", "10",
		"-hls_list_size", "0",
		"-hls_segment_filename", filepath.Join("/hls/abc", "segment_%03d.ts"),
		"-f", "hls",
		filepath.Join("/hls/abc", "playlist.m3u8"),
	}, got)

	custom := HLSCommand("in.mp4", "out", HLSOptions{SegmentSeconds: 4, PlaylistName: "index.m3u8"}).Build()
	assert.Contains(t, strings.Join(custom, " "), "-hls_time 4")
	assert.NotContains(t, got, "-hls_base_url")

	based := HLSCommand("in.mp4", "out", HLSOptions{BaseURL: "segment/"}).Build()
	assert.Contains(t, strings.Join(based, " "), "-hls_base_url segment/")
	assert.Equal(t, filepath.Join("out", "index.m3u8"), custom[len(custom)-1])
}

func TestThumbnailCommand(t *testing.T) {
	got := ThumbnailCommand("in.mp4", "thumb.jpg", ThumbnailOptions{Offset: 30 * time.Second}).Build()

	assert.Equal(t, []string{
		"-hide_banner", "-y",
		"-ss", "30.000",
		"-i", "in.mp4",
		"-frames:v", "1",
		"-q:v", "4",
		"-an",
		"-vf", "scale=320:240",
		"thumb.jpg",
	}, got)
}

func TestWithProgressArgs(t *testing.T) {
	args := withProgressArgs([]string{"-hide_banner", "-y", "-i", "in", "out"})
	assert.Equal(t, []string{"-hide_banner", "-y", "-progress", "pipe:1", "-nostats", "-i", "in", "out"}, args)
}

func TestProgressParsing(t *testing.T) {
	parser := NewProgressParser()

	lines := []string{
		"frame=100",
		"fps=30.5",
		"total_size=12345678",
		"out_time_us=5000000",
		"speed=2.5x",
		"progress=continue",
	}

	var complete bool
	for _, line := range lines {
		if parser.ParseLine(line) {
			complete = true
		}
	}
	require.True(t, complete, "Expected complete progress update")

	p := parser.Current()
	assert.Equal(t, int64(100), p.Frame)
	assert.Equal(t, 30.5, p.FPS)
	assert.Equal(t, int64(12345678), p.TotalSize)
	assert.Equal(t, 5.0, p.OutTimeSeconds())
	assert.Equal(t, "2.5x", p.Speed)
	assert.False(t, p.Done())
	assert.InDelta(t, 50.0, p.Percent(10), 0.001)
	assert.Equal(t, 100.0, p.Percent(2))
	assert.Equal(t, 0.0, p.Percent(0))
}

func TestParseProgressOutput(t *testing.T) {
	input := strings.Join([]string{
		"frame=1", "out_time_us=1000000", "progress=continue",
		"frame=2", "out_time_us=2000000", "progress=end",
		"frame=3", "progress=continue",
	}, "\n")

	ch := make(chan Progress, 10)
	ParseProgressOutput(bufio.NewScanner(strings.NewReader(input)), ch)
	close(ch)

	var got []Progress
	for p := range ch {
		got = append(got, p)
	}
	require.Len(t, got, 2)
	assert.Equal(t, int64(2), got[1].Frame)
	assert.True(t, got[1].Done())
}

func TestParseProbeOutput(t *testing.T) {
	raw := []byte(`{
		"format": {"format_name": "mov,mp4,m4a,3gp,3g2,mj2", "duration": "199.6", "size": "1048576"},
		"streams": [
			{"codec_type": "video", "codec_name": "h264", "width": 1280, "height": 720},
			{"codec_type": "audio", "codec_name": "aac"}
		]
	}`)

	r, err := parseProbeOutput(raw)
	require.NoError(t, err)
	assert.InDelta(t, 199.6, r.Duration, 0.0001)
	assert.Equal(t, int64(1048576), r.Size)
	assert.Equal(t, 1280, r.Width)
	assert.Equal(t, "aac", r.AudioCodec)
	assert.True(t, r.HasVideo())

	streamOnly, err := parseProbeOutput([]byte(`{"format": {}, "streams": [{"codec_type": "video", "duration": "12.5"}]}`))
	require.NoError(t, err)
	assert.Equal(t, 12.5, streamOnly.Duration)

	_, err = parseProbeOutput([]byte("not json"))
	require.Error(t, err)
}

func TestErrorTail(t *testing.T) {
	e := &Error{
		Args:   []string{"-i", "x"},
		Stderr: "line1\nline2\nline3\nline4\n",
		Err:    errors.New("exit status 1"),
	}
	assert.Equal(t, "ffmpeg: exit status 1: line2\nline3\nline4", e.Error())
	assert.Equal(t, "line4", e.Tail(1))
	assert.Equal(t, "ffmpeg -i x", e.Command())
}

func TestTailBuffer(t *testing.T) {
	b := &tailBuffer{limit: 8}
	_, _ = b.Write([]byte("hello "))
	_, _ = b.Write([]byte("world!"))
	assert.Equal(t, "o world!", b.String())
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0.000"},
		{1 * time.Second, "1.000"},
		{1500 * time.Millisecond, "1.500"},
		{time.Hour + 30*time.Minute + 45*time.Second + 500*time.Millisecond, "5445.500"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, formatDuration(tt.d))
	}
}

// =============================================================================
// Integration tests - require ffmpeg to be installed
// =============================================================================

func requireFFmpeg(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	if _, err := exec.LookPath(Binary); err != nil {
		t.Skip("ffmpeg not installed")
	}
	if _, err := exec.LookPath(ProbeBinary); err != nil {
		t.Skip("ffprobe not installed")
	}
}

func testDir(t *testing.T) string {
	t.Helper()
	if !*keepFiles {
		return t.TempDir()
	}
	dir := filepath.Join(".", "testdata", "artifacts", t.Name())
	require.NoError(t, os.MkdirAll(dir, 0o755))
	t.Logf("Keeping test files in: %s", dir)
	return dir
}

// generateTestVideo creates a test pattern video with a sine tone.
func generateTestVideo(t *testing.T, duration time.Duration) string {
	t.Helper()

	output := filepath.Join(testDir(t), "test_input.mp4")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	durStr := formatDuration(duration)
	args := []string{
		"-hide_banner", "-y",
		"-f", "lavfi", "-i", "testsrc2=duration=" + durStr + ":size=320x240:rate=30",
		"-f", "lavfi", "-i", "sine=frequency=440:duration=" + durStr,
		"-c:v", "libx264", "-preset", "ultrafast",
		"-c:a", "aac", "-b:a", "64k",
		"-pix_fmt", "yuv420p",
		"-shortest",
		output,
	}

	proc, err := Start(ctx, args, nil)
	require.NoError(t, err, "failed to generate test video")
	require.NoError(t, proc.Wait(), "failed to generate test video, stderr: %s", proc.Stderr())

	return output
}

func TestIntegration_Probe(t *testing.T) {
	requireFFmpeg(t)

	input := generateTestVideo(t, 2*time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := Probe(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, 320, result.Width)
	assert.Equal(t, 240, result.Height)
	assert.InDelta(t, 2.0, result.Duration, 0.5)
	assert.Equal(t, "h264", result.VideoCodec)
	assert.Equal(t, "aac", result.AudioCodec)

	_, err = Probe(ctx, filepath.Join(t.TempDir(), "missing.mp4"))
	require.Error(t, err)
}

func TestIntegration_ExtractThumbnail(t *testing.T) {
	requireFFmpeg(t)

	input := generateTestVideo(t, 3*time.Second)
	output := filepath.Join(testDir(t), "thumbs", "thumb.jpg")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err := ExtractThumbnail(ctx, input, output, ThumbnailOptions{Offset: 300 * time.Millisecond, Width: 160, Height: 120})
	require.NoError(t, err)

	info, err := os.Stat(output)
	require.NoError(t, err, "thumbnail not created")
	assert.Greater(t, info.Size(), int64(0))
}

func TestIntegration_TranscodeHLS(t *testing.T) {
	requireFFmpeg(t)

	input := generateTestVideo(t, 5*time.Second)
	outDir := filepath.Join(testDir(t), "asset")

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	progress := make(chan Progress, 16)
	var updates int
	done := make(chan struct{})
	go func() {
		defer close(done)
		for range progress {
			updates++
		}
	}()

	playlist, err := TranscodeHLS(ctx, input, outDir, HLSOptions{SegmentSeconds: 2}, progress)
	require.NoError(t, err)
	<-done

	assert.Equal(t, filepath.Join(outDir, DefaultPlaylistName), playlist)
	assert.Greater(t, updates, 0)

	data, err := os.ReadFile(playlist)
	require.NoError(t, err)
	assert.Contains(t, string(data), "#EXTM3U")
	assert.Contains(t, string(data), "segment_000.ts")

	_, err = os.Stat(filepath.Join(outDir, "segment_000.ts"))
	require.NoError(t, err)
}

func TestIntegration_CancelKillsProcess(t *testing.T) {
	requireFFmpeg(t)

	output := filepath.Join(testDir(t), "never_finish.mp4")

	ctx, cancel := context.WithCancel(context.Background())
	args := []string{
		"-hide_banner", "-y",
		"-f", "lavfi", "-i", "testsrc2=duration=600:size=640x480:rate=30",
		"-c:v", "libx264", "-preset", "veryslow",
		"-pix_fmt", "yuv420p",
		output,
	}

	proc, err := Start(ctx, args, nil)
	require.NoError(t, err)
	require.NotZero(t, proc.PID())

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case <-proc.Done():
	case <-time.After(10 * time.Second):
		t.Fatal("ffmpeg did not exit after cancellation")
	}

	err = proc.Wait()
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
