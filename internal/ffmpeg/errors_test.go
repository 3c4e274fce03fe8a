package ffmpeg

import (
	"fmt"
	"testing"
)

func TestExitError_Error(t *testing.T) {
	tests := []struct {
		err      *ExitError
		expected string
	}{
		{&ExitError{Code: 1, Pass: PassEncode}, "ffmpeg returned error code: 1"},
		{&ExitError{Code: 1, Pass: PassEncode, Normalized: true}, "ffmpeg returned error code on normalization pass: 1"},
		{&ExitError{Code: 8, Pass: PassMeasure}, "loudness measurement failed: ffmpeg returned error code: 8"},
		{&ExitError{Code: 1, Pass: PassEncode, StderrTail: "out.mov: Permission denied"}, "ffmpeg returned error code: 1 (permission denied)"},
	}

	for _, test := range tests {
		if got := test.err.Error(); got != test.expected {
			t.Errorf("Error() = %q, expected %q", got, test.expected)
		}
	}
}

func TestExitCode(t *testing.T) {
	wrapped := fmt.Errorf("encode: %w", &ExitError{Code: 69})
	if got := ExitCode(wrapped); got != 69 {
		t.Errorf("ExitCode() = %d, expected 69", got)
	}
	if got := ExitCode(fmt.Errorf("plain")); got != 0 {
		t.Errorf("ExitCode() = %d, expected 0", got)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		stderr   string
		expected string
	}{
		{"", ""},
		{"in.mov: No such file or directory", "input file not found"},
		{"moov atom not found", "input is damaged or not a video"},
		{"[dnxhd @ 0x1] Video parameters incompatible with DNxHR", "resolution not supported by the DNxHR profile"},
		{"Unknown encoder 'dnxhd'", "ffmpeg lacks the dnxhd encoder"},
		{"Error writing trailer: No space left on device", "disk full"},
		{"all good", ""},
	}

	for _, test := range tests {
		if got := Classify(test.stderr); got != test.expected {
			t.Errorf("Classify(%q) = %q, expected %q", test.stderr, got, test.expected)
		}
	}
}
