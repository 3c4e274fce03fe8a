package ffmpeg

import (
	"fmt"
	"strconv"

	"github.com/davinciconvert/dnxhd-transcoder/internal/model"
)

// BuildEncodeArgs returns the ffmpeg arguments for one DNxHR encode.
// A non-nil loud adds the second loudnorm pass filter ahead of the output.
func BuildEncodeArgs(input, output string, opts model.EncodeOptions, loud *LoudnessParams) []string {
	opts = opts.Normalize()
	rules := opts.Rules()

	args := []string{"-hide_banner", "-nostdin", "-y", "-i", input}
	args = append(args,
		"-c:v", "dnxhd",
		"-profile:v", string(opts.Profile),
		"-pix_fmt", opts.Profile.PixelFormat(),
	)
	args = append(args,
		"-c:a", opts.AudioDepth.Codec(),
		"-ac", strconv.Itoa(opts.AudioChannels),
	)
	if rules.SampleRate > 0 {
		args = append(args, "-ar", strconv.Itoa(rules.SampleRate))
	}
	if !opts.PreserveFPS {
		args = append(args, "-r", fmt.Sprintf("%.3f", opts.TargetFPS))
	}
	if opts.SetTimecode {
		args = append(args, "-timecode", opts.Timecode)
	}
	if loud != nil {
		args = append(args, "-af", loud.Filter())
	}
	args = append(args, "-progress", "pipe:1", "-nostats", output)
	return args
}

// BuildMeasureArgs returns the arguments of the loudnorm analysis pass.
// Video is skipped since only the audio graph is measured.
func BuildMeasureArgs(input string) []string {
	return []string{
		"-hide_banner", "-nostdin", "-nostats",
		"-i", input,
		"-vn",
		"-af", MeasureFilter(),
		"-progress", "pipe:1",
		"-f", "null", "-",
	}
}
