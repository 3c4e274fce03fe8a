package ffmpeg

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"
)

const progressBlock = `frame=250
fps=50.00
stream_0_0_q=-0.0
bitrate=184320.0kbits/s
total_size=230686720
out_time_us=10000000
out_time_ms=10000000
out_time=00:00:10.000000
dup_frames=0
drop_frames=0
speed=2.0x
progress=continue
`

func collect(t *testing.T, input string, duration float64) []Progress {
	t.Helper()
	var updates []Progress
	if err := ParseProgress(strings.NewReader(input), duration, func(p Progress) {
		updates = append(updates, p)
	}); err != nil {
		t.Fatalf("ParseProgress() error = %v", err)
	}
	return updates
}

func TestParseProgress_SingleTimeLine(t *testing.T) {
	updates := collect(t, "out_time_us=5000000\n", 10)
	if len(updates) != 1 {
		t.Fatalf("Expected 1 update, got %d", len(updates))
	}
	if updates[0].Fraction != 0.5 {
		t.Errorf("Fraction = %v, expected 0.5", updates[0].Fraction)
	}
}

func TestParseProgress_Block(t *testing.T) {
	updates := collect(t, progressBlock, 40)
	if len(updates) != 2 {
		t.Fatalf("Expected a time update and a block update, got %d", len(updates))
	}
	last := updates[1]
	if last.Fraction != 0.25 {
		t.Errorf("Fraction = %v, expected 0.25", last.Fraction)
	}
	if last.Frame != 250 || last.FPS != 50 || last.TotalSize != 230686720 {
		t.Errorf("Block fields not decoded: %+v", last)
	}
	if last.Speed != 2 || last.SpeedText() != "2x" {
		t.Errorf("Speed = %v (%s), expected 2x", last.Speed, last.SpeedText())
	}
	// 30 s of media left at 2x
	if last.ETA != 15*time.Second {
		t.Errorf("ETA = %v, expected 15s", last.ETA)
	}
}

func TestParseProgress_TimePreference(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected float64
	}{
		{"out_time_us wins", "out_time_us=2000000\nout_time_ms=9000000\nout_time=00:00:09.000000\n", 0.2},
		{"out_time_ms is microseconds", "out_time_ms=3000000\n", 0.3},
		{"out_time fallback", "out_time_us=N/A\nout_time_ms=N/A\nout_time=00:00:04.000000\n", 0.4},
	}

	for _, test := range tests {
		updates := collect(t, test.input, 10)
		if len(updates) != 1 {
			t.Errorf("%s: expected 1 update, got %d", test.name, len(updates))
			continue
		}
		if math.Abs(updates[0].Fraction-test.expected) > 1e-9 {
			t.Errorf("%s: Fraction = %v, expected %v", test.name, updates[0].Fraction, test.expected)
		}
	}
}

func TestParseProgress_Clamp(t *testing.T) {
	updates := collect(t, "out_time_us=12000000\n", 10)
	if updates[0].Fraction != 0.999 {
		t.Errorf("Fraction = %v, expected clamp to 0.999", updates[0].Fraction)
	}
	updates = collect(t, "out_time_us=-40000\n", 10)
	if updates[0].Fraction != 0 {
		t.Errorf("Fraction = %v, expected clamp to 0", updates[0].Fraction)
	}
}

func TestParseProgress_End(t *testing.T) {
	updates := collect(t, progressBlock+strings.Replace(progressBlock, "progress=continue", "progress=end", 1), 40)
	last := updates[len(updates)-1]
	if !last.Done || last.Fraction != 1 {
		t.Errorf("Last update = %+v, expected Done with fraction 1", last)
	}
}

func TestParseProgress_UnknownDuration(t *testing.T) {
	input := progressBlock + progressBlock + "progress=end\n"
	updates := collect(t, input, 0)
	if len(updates) != 2 {
		t.Fatalf("Expected one indeterminate update and the end, got %d: %+v", len(updates), updates)
	}
	if !updates[0].Indeterminate || updates[0].Fraction != -1 {
		t.Errorf("First update = %+v, expected indeterminate", updates[0])
	}
	if !updates[1].Done || updates[1].Fraction != 1 {
		t.Errorf("Second update = %+v, expected end", updates[1])
	}
}

func TestParseProgress_MalformedLinesIgnored(t *testing.T) {
	updates := collect(t, "garbage\nout_time_us=abc\nout_time_us=1000000\n", 10)
	if len(updates) != 1 || updates[0].Fraction != 0.1 {
		t.Errorf("Updates = %+v, expected a single 0.1 update", updates)
	}
}

func TestParseProgress_Unparsable(t *testing.T) {
	err := ParseProgress(strings.NewReader("this is not\nprogress output\n"), 10, nil)
	if !errors.Is(err, ErrUnparsableProgress) {
		t.Errorf("ParseProgress() error = %v, expected ErrUnparsableProgress", err)
	}
	if err := ParseProgress(strings.NewReader(""), 10, nil); err != nil {
		t.Errorf("Empty stream should not fail, got %v", err)
	}
}

func TestParseOutTime(t *testing.T) {
	tests := []struct {
		input    string
		expected time.Duration
		ok       bool
	}{
		{"00:00:10.500000", 10500 * time.Millisecond, true},
		{"01:02:03.000000", time.Hour + 2*time.Minute + 3*time.Second, true},
		{"-00:00:00.040000", -40 * time.Millisecond, true},
		{"N/A", 0, false},
		{"10.5", 0, false},
	}

	for _, test := range tests {
		got, ok := parseOutTime(test.input)
		if ok != test.ok || got != test.expected {
			t.Errorf("parseOutTime(%q) = %v, %v, expected %v, %v", test.input, got, ok, test.expected, test.ok)
		}
	}
}

func TestParseSpeed(t *testing.T) {
	tests := map[string]float64{
		"2.5x":   2.5,
		" 0.98x": 0.98,
		"N/A":    0,
		"":       0,
	}
	for input, expected := range tests {
		if got := parseSpeed(input); got != expected {
			t.Errorf("parseSpeed(%q) = %v, expected %v", input, got, expected)
		}
	}
}
