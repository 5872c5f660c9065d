package ffmpeg

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// ProbeBinary is the ffprobe executable, resolved through PATH.
var ProbeBinary = "ffprobe"

// ProbeResult contains the media metadata the pipeline cares about.
type ProbeResult struct {
	Duration   float64 // seconds
	FormatName string  // container, e.g. "mov,mp4,m4a,3gp,3g2,mj2"
	Size       int64   // bytes

	Width      int
	Height     int
	VideoCodec string
	AudioCodec string

	VideoStreams int
	AudioStreams int
}

// HasVideo reports whether at least one video stream was found.
func (r *ProbeResult) HasVideo() bool {
	return r.VideoStreams > 0
}

type ffprobeOutput struct {
	Format struct {
		FormatName string `json:"format_name"`
		Duration   string `json:"duration"`
		Size       string `json:"size"`
	} `json:"format"`
	Streams []struct {
		CodecType string `json:"codec_type"`
		CodecName string `json:"codec_name"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
		Duration  string `json:"duration"`
	} `json:"streams"`
}

// Probe runs ffprobe on a file and returns its metadata.
func Probe(ctx context.Context, path string) (*ProbeResult, error) {
	cmd := exec.CommandContext(ctx, ProbeBinary,
		"-hide_banner",
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffprobe: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	return parseProbeOutput(stdout.Bytes())
}

func parseProbeOutput(raw []byte) (*ProbeResult, error) {
	var output ffprobeOutput
	if err := json.Unmarshal(raw, &output); err != nil {
		return nil, fmt.Errorf("ffprobe: failed to parse output: %w", err)
	}

	result := &ProbeResult{FormatName: output.Format.FormatName}
	if output.Format.Duration != "" {
		result.Duration, _ = strconv.ParseFloat(output.Format.Duration, 64)
	}
	if output.Format.Size != "" {
		result.Size, _ = strconv.ParseInt(output.Format.Size, 10, 64)
	}

	for _, stream := range output.Streams {
		switch stream.CodecType {
		case "video":
			result.VideoStreams++
			if result.VideoCodec == "" {
				result.Width = stream.Width
				result.Height = stream.Height
				result.VideoCodec = stream.CodecName
			}
			// Some containers only report duration per stream.
			if result.Duration == 0 && stream.Duration != "" {
				result.Duration, _ = strconv.ParseFloat(stream.Duration, 64)
			}
		case "audio":
			result.AudioStreams++
			if result.AudioCodec == "" {
				result.AudioCodec = stream.CodecName
			}
		}
	}

	return result, nil
}

// ProbeDuration returns just the container duration in seconds.
func ProbeDuration(ctx context.Context, path string) (float64, error) {
	result, err := Probe(ctx, path)
	if err != nil {
		return 0, err
	}
	return result.Duration, nil
}
