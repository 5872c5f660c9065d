package ffmpeg

import (
	"bufio"
	"strconv"
	"strings"
)

// Progress represents ffmpeg encoding progress.
type Progress struct {
	Frame     int64   // Current frame number
	FPS       float64 // Current encoding speed in frames per second
	TotalSize int64   // Current output size in bytes
	OutTimeUS int64   // Output timestamp in microseconds
	Speed     string  // Encoding speed multiplier (e.g., "2.5x")
	Progress  string  // "continue" or "end"
}

// OutTimeSeconds returns the output time in seconds.
func (p Progress) OutTimeSeconds() float64 {
	return float64(p.OutTimeUS) / 1_000_000
}

// Percent returns how much of a source of totalSeconds has been encoded,
// clamped to 0..100. Unknown durations report 0.
func (p Progress) Percent(totalSeconds float64) float64 {
	if totalSeconds <= 0 {
		return 0
	}
	pct := p.OutTimeSeconds() / totalSeconds * 100
	switch {
	case pct < 0:
		return 0
	case pct > 100:
		return 100
	}
	return pct
}

// Done reports whether ffmpeg signalled the final progress block.
func (p Progress) Done() bool {
	return p.Progress == "end"
}

// ParseProgressLine parses a single key=value line from ffmpeg -progress output.
func ParseProgressLine(line string) (key, value string, ok bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", "", false
	}
	key, value, ok = strings.Cut(line, "=")
	return key, value, ok
}

// ProgressParser accumulates progress updates from ffmpeg output.
type ProgressParser struct {
	current Progress
}

// NewProgressParser creates a new progress parser.
func NewProgressParser() *ProgressParser {
	return &ProgressParser{}
}

// ParseLine parses a line and updates internal state.
// Returns true once a block is complete (on the "progress=" line).
func (p *ProgressParser) ParseLine(line string) bool {
	key, value, ok := ParseProgressLine(line)
	if !ok {
		return false
	}

	switch key {
	case "frame":
		p.current.Frame, _ = strconv.ParseInt(value, 10, 64)
	case "fps":
		p.current.FPS, _ = strconv.ParseFloat(value, 64)
	case "total_size":
		p.current.TotalSize, _ = strconv.ParseInt(value, 10, 64)
	case "out_time_us":
		p.current.OutTimeUS, _ = strconv.ParseInt(value, 10, 64)
	case "speed":
		p.current.Speed = value
	case "progress":
		p.current.Progress = value
		return true
	}

	return false
}

// Current returns the current progress state.
func (p *ProgressParser) Current() Progress {
	return p.current
}

// ParseProgressOutput reads ffmpeg -progress output and sends one update per
// completed block. It returns after the "end" block or when input ends.
func ParseProgressOutput(scanner *bufio.Scanner, progress chan<- Progress) {
	parser := NewProgressParser()

	for scanner.Scan() {
		if parser.ParseLine(scanner.Text()) {
			progress <- parser.Current()
			if parser.Current().Done() {
				return
			}
		}
	}
}
