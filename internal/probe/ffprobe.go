package probe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
)

// Result represents the parsed output from an ffprobe inspection
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream describes a single stream in the media container
type Stream struct {
	Index         int               `json:"index"`
	CodecName     string            `json:"codec_name"`
	CodecType     string            `json:"codec_type"`
	PixFmt        string            `json:"pix_fmt"`
	Width         int               `json:"width"`
	Height        int               `json:"height"`
	AvgFrameRate  string            `json:"avg_frame_rate"`
	RFrameRate    string            `json:"r_frame_rate"`
	Duration      string            `json:"duration"`
	SampleRate    string            `json:"sample_rate"`
	Channels      int               `json:"channels"`
	ChannelLayout string            `json:"channel_layout"`
	Tags          map[string]string `json:"tags"`
}

// Format captures container-level metadata
type Format struct {
	Filename   string            `json:"filename"`
	FormatName string            `json:"format_name"`
	Duration   string            `json:"duration"`
	Size       string            `json:"size"`
	BitRate    string            `json:"bit_rate"`
	Tags       map[string]string `json:"tags"`
}

// Inspect executes ffprobe against path and decodes the JSON response
func Inspect(ctx context.Context, binary, path string) (*Result, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("ffprobe inspect: empty path")
	}

	cmd := exec.CommandContext(ctx, binary, "-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path)
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe inspect: %w%s", err, stderrSuffix(err))
	}
	return ParseJSON(output)
}

// ParseJSON decodes raw ffprobe JSON output
func ParseJSON(data []byte) (*Result, error) {
	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("ffprobe parse: %w", err)
	}
	return &result, nil
}

// Duration asks ffprobe for the container duration only. Unknown or
// unparsable values yield 0.
func Duration(ctx context.Context, binary, path string) (float64, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	cmd := exec.CommandContext(ctx, binary, "-v", "error", "-show_entries", "format=duration", "-of", "default=nw=1:nk=1", "--", path)
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe duration: %w%s", err, stderrSuffix(err))
	}
	return positive(parseFloat(string(output))), nil
}

// DurationSeconds returns the container duration, falling back to the
// longest stream duration, or 0 when unknown
func (r *Result) DurationSeconds() float64 {
	if d := positive(parseFloat(r.Format.Duration)); d > 0 {
		return d
	}
	var longest float64
	for _, s := range r.Streams {
		if d := positive(parseFloat(s.Duration)); d > longest {
			longest = d
		}
	}
	return longest
}

// VideoStream returns the first video stream that is not a cover image
func (r *Result) VideoStream() (Stream, bool) {
	for _, s := range r.Streams {
		if strings.EqualFold(s.CodecType, "video") && !isAttachedPicture(s) {
			return s, true
		}
	}
	return Stream{}, false
}

// AudioStream returns the first audio stream
func (r *Result) AudioStream() (Stream, bool) {
	for _, s := range r.Streams {
		if strings.EqualFold(s.CodecType, "audio") {
			return s, true
		}
	}
	return Stream{}, false
}

// FrameRate returns the video frame rate, or 0 when unknown
func (r *Result) FrameRate() float64 {
	v, ok := r.VideoStream()
	if !ok {
		return 0
	}
	if fps := ParseRate(v.AvgFrameRate); fps > 0 {
		return fps
	}
	return ParseRate(v.RFrameRate)
}

// AudioChannels returns the channel count of the first audio stream
func (r *Result) AudioChannels() int {
	a, ok := r.AudioStream()
	if !ok {
		return 0
	}
	return a.Channels
}

// Width returns the video width in pixels
func (r *Result) Width() int {
	v, _ := r.VideoStream()
	return v.Width
}

// Height returns the video height in pixels
func (r *Result) Height() int {
	v, _ := r.VideoStream()
	return v.Height
}

// VideoCodec returns the codec name of the video stream
func (r *Result) VideoCodec() string {
	v, _ := r.VideoStream()
	return v.CodecName
}

// Timecode returns the start timecode from format or stream tags
func (r *Result) Timecode() string {
	if tc := r.Format.Tags["timecode"]; tc != "" {
		return tc
	}
	for _, s := range r.Streams {
		if tc := s.Tags["timecode"]; tc != "" {
			return tc
		}
	}
	return ""
}

// ParseRate parses "30000/1001" or "25" into frames per second
func ParseRate(value string) float64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	num, den, found := strings.Cut(value, "/")
	if !found {
		return positive(parseFloat(value))
	}
	n := parseFloat(num)
	d := parseFloat(den)
	if d == 0 || math.IsNaN(n) || math.IsNaN(d) {
		return 0
	}
	return positive(n / d)
}

func isAttachedPicture(s Stream) bool {
	switch strings.ToLower(s.CodecName) {
	case "mjpeg", "png", "bmp":
		return ParseRate(s.AvgFrameRate) == 0
	}
	return false
}

func parseFloat(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0
	}
	if parsed, err := strconv.ParseFloat(cleaned, 64); err == nil {
		return parsed
	}
	return math.NaN()
}

func positive(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

func stderrSuffix(err error) string {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if msg := strings.TrimSpace(string(exitErr.Stderr)); msg != "" {
			return ": " + msg
		}
	}
	return ""
}
