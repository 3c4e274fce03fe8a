package probe

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

const sampleJSON = `{
	"streams": [
		{"index": 0, "codec_name": "h264", "codec_type": "video", "width": 1920, "height": 1080,
		 "avg_frame_rate": "30000/1001", "r_frame_rate": "30000/1001", "pix_fmt": "yuv420p",
		 "tags": {"timecode": "01:00:00;00"}},
		{"index": 1, "codec_name": "aac", "codec_type": "audio", "channels": 2, "sample_rate": "44100"},
		{"index": 2, "codec_name": "mjpeg", "codec_type": "video", "avg_frame_rate": "0/0"}
	],
	"format": {"filename": "in.mp4", "format_name": "mov,mp4,m4a,3gp,3g2,mj2", "duration": "12.345", "size": "1000"}
}`

func TestParseJSON(t *testing.T) {
	result, err := ParseJSON([]byte(sampleJSON))
	if err != nil {
		t.Fatalf("ParseJSON() error = %v", err)
	}
	if result.DurationSeconds() != 12.345 {
		t.Errorf("DurationSeconds() = %v, expected 12.345", result.DurationSeconds())
	}
	if math.Abs(result.FrameRate()-29.97) > 0.001 {
		t.Errorf("FrameRate() = %v, expected ~29.97", result.FrameRate())
	}
	if result.Width() != 1920 || result.Height() != 1080 {
		t.Errorf("Resolution = %dx%d", result.Width(), result.Height())
	}
	if result.VideoCodec() != "h264" {
		t.Errorf("VideoCodec() = %s", result.VideoCodec())
	}
	if result.AudioChannels() != 2 {
		t.Errorf("AudioChannels() = %d", result.AudioChannels())
	}
	if result.Timecode() != "01:00:00;00" {
		t.Errorf("Timecode() = %q", result.Timecode())
	}
}

func TestParseJSON_Invalid(t *testing.T) {
	if _, err := ParseJSON([]byte("not json")); err == nil {
		t.Error("Expected error for invalid JSON")
	}
}

func TestResult_DurationFallbacks(t *testing.T) {
	tests := []struct {
		name     string
		result   Result
		expected float64
	}{
		{"format", Result{Format: Format{Duration: "10.5"}}, 10.5},
		{"stream fallback", Result{Format: Format{Duration: "N/A"}, Streams: []Stream{{Duration: "3"}, {Duration: "7.25"}}}, 7.25},
		{"unknown", Result{}, 0},
		{"negative", Result{Format: Format{Duration: "-1"}}, 0},
	}

	for _, test := range tests {
		if got := test.result.DurationSeconds(); got != test.expected {
			t.Errorf("%s: DurationSeconds() = %v, expected %v", test.name, got, test.expected)
		}
	}
}

func TestResult_NoStreams(t *testing.T) {
	r := &Result{}
	if r.FrameRate() != 0 || r.AudioChannels() != 0 || r.Width() != 0 || r.VideoCodec() != "" || r.Timecode() != "" {
		t.Errorf("Empty result should report zero values")
	}
}

func TestParseRate(t *testing.T) {
	tests := map[string]float64{
		"25":         25,
		"25/1":       25,
		"24000/1001": 24000.0 / 1001.0,
		"0/0":        0,
		"":           0,
		"bad":        0,
	}
	for input, expected := range tests {
		if got := ParseRate(input); got != expected {
			t.Errorf("ParseRate(%q) = %v, expected %v", input, got, expected)
		}
	}
}

func writeStub(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell stubs require a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "ffprobe")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

func TestInspect_Stub(t *testing.T) {
	bin := writeStub(t, "cat <<'JSON'\n"+sampleJSON+"\nJSON")
	result, err := Inspect(context.Background(), bin, "in.mp4")
	if err != nil {
		t.Fatalf("Inspect() error = %v", err)
	}
	if result.DurationSeconds() != 12.345 {
		t.Errorf("DurationSeconds() = %v", result.DurationSeconds())
	}
}

func TestInspect_Errors(t *testing.T) {
	if _, err := Inspect(context.Background(), "ffprobe", " "); err == nil {
		t.Error("Expected error for empty path")
	}
	bin := writeStub(t, `echo "in.mp4: No such file or directory" >&2; exit 1`)
	if _, err := Inspect(context.Background(), bin, "in.mp4"); err == nil {
		t.Error("Expected error for failing ffprobe")
	}
}

func TestDuration_Stub(t *testing.T) {
	tests := []struct {
		output   string
		expected float64
	}{
		{"42.000000", 42},
		{"N/A", 0},
		{"", 0},
	}
	for _, test := range tests {
		bin := writeStub(t, "echo '"+test.output+"'")
		got, err := Duration(context.Background(), bin, "in.mp4")
		if err != nil {
			t.Errorf("Duration() error = %v", err)
			continue
		}
		if got != test.expected {
			t.Errorf("Duration() with %q = %v, expected %v", test.output, got, test.expected)
		}
	}
}
