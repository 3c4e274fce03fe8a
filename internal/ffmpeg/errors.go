package ffmpeg

import (
	"errors"
	"fmt"
	"regexp"
)

var (
	// ErrNoLoudnessData is returned when the analysis pass printed no JSON block
	ErrNoLoudnessData = errors.New("loudnorm measurement produced no data")
	// ErrBinaryNotFound is returned when a required tool cannot be located
	ErrBinaryNotFound = errors.New("binary not found")
	// ErrUnparsableProgress is returned when ffmpeg wrote nothing the progress parser understood
	ErrUnparsableProgress = errors.New("unparsable progress output from ffmpeg")
)

// ExitError reports a non-zero ffmpeg exit
type ExitError struct {
	Code       int
	Pass       string
	Normalized bool
	StderrTail string
}

func (e *ExitError) Error() string {
	var msg string
	switch {
	case e.Pass == PassMeasure:
		msg = fmt.Sprintf("loudness measurement failed: ffmpeg returned error code: %d", e.Code)
	case e.Normalized:
		msg = fmt.Sprintf("ffmpeg returned error code on normalization pass: %d", e.Code)
	default:
		msg = fmt.Sprintf("ffmpeg returned error code: %d", e.Code)
	}
	if hint := Classify(e.StderrTail); hint != "" {
		msg += " (" + hint + ")"
	}
	return msg
}

// ExitCode extracts the ffmpeg exit code from err, or 0
func ExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return 0
}

var stderrHints = []struct {
	pattern *regexp.Regexp
	hint    string
}{
	{regexp.MustCompile(`(?i)No such file or directory`), "input file not found"},
	{regexp.MustCompile(`(?i)Permission denied`), "permission denied"},
	{regexp.MustCompile(`(?i)Invalid data found when processing input|moov atom not found`), "input is damaged or not a video"},
	{regexp.MustCompile(`(?i)(width|height) must be|Video parameters incompatible with DNxHR|incompatible pixel format`), "resolution not supported by the DNxHR profile"},
	{regexp.MustCompile(`(?i)Unknown encoder|Encoder not found|Unrecognized option 'profile`), "ffmpeg lacks the dnxhd encoder"},
	{regexp.MustCompile(`(?i)Unsupported (codec|audio|sample rate)|not supported in container|Could not write header`), "stream not supported by the output container"},
	{regexp.MustCompile(`(?i)frame rate|Invalid timecode|timecode`), "frame rate or timecode rejected"},
	{regexp.MustCompile(`(?i)No space left on device`), "disk full"},
}

// Classify maps ffmpeg stderr to a short user hint, or "" if nothing matches
func Classify(stderr string) string {
	if stderr == "" {
		return ""
	}
	for _, h := range stderrHints {
		if h.pattern.MatchString(stderr) {
			return h.hint
		}
	}
	return ""
}
