package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// EBU R128 targets
const (
	TargetIntegrated = -23.0
	TargetTruePeak   = -2.0
	TargetLRA        = 7.0
)

// Values assumed when the analysis omits a field
const (
	defaultMeasuredI      = -23.0
	defaultMeasuredLRA    = 7.0
	defaultMeasuredTP     = -2.0
	defaultMeasuredThresh = -34.0
)

// LoudnessParams holds the first pass measurement fed to the second pass
type LoudnessParams struct {
	InputI      float64
	InputLRA    float64
	InputTP     float64
	InputThresh float64
}

// MeasureFilter returns the analysis-pass loudnorm filter
func MeasureFilter() string {
	return fmt.Sprintf("loudnorm=I=%s:TP=%s:LRA=%s:print_format=json",
		formatFloat(TargetIntegrated), formatFloat(TargetTruePeak), formatFloat(TargetLRA))
}

// Filter renders the second pass loudnorm filter with measured values
func (p *LoudnessParams) Filter() string {
	return fmt.Sprintf(
		"loudnorm=I=%s:TP=%s:LRA=%s:measured_I=%s:measured_LRA=%s:measured_TP=%s:measured_thresh=%s:print_format=summary",
		formatFloat(TargetIntegrated), formatFloat(TargetTruePeak), formatFloat(TargetLRA),
		formatFloat(p.InputI), formatFloat(p.InputLRA), formatFloat(p.InputTP), formatFloat(p.InputThresh),
	)
}

// MeasureLoudness runs the analysis pass over input and parses the JSON
// block loudnorm prints on stderr. onProgress may be nil.
func (r *Runner) MeasureLoudness(ctx context.Context, input string, duration float64, onProgress func(Progress)) (*LoudnessParams, error) {
	res, err := r.Run(ctx, RunRequest{
		Args:          BuildMeasureArgs(input),
		Duration:      duration,
		Pass:          PassMeasure,
		CaptureStderr: true,
		OnProgress:    onProgress,
	})
	if err != nil {
		return nil, err
	}
	return ParseLoudness(res.Stderr)
}

// MeasureLoudness is a convenience wrapper for a one-off measurement
func MeasureLoudness(ctx context.Context, ffmpegBin, input string) (*LoudnessParams, error) {
	return NewRunner(ffmpegBin, nil).MeasureLoudness(ctx, input, 0, nil)
}

var loudnessFieldPattern = regexp.MustCompile(`"([A-Za-z_]+)"\s*:\s*"?\s*([-+]?(?:inf|[0-9]*\.?[0-9]+))`)

// ParseLoudness extracts measured values from loudnorm output. The text
// between the first '{' and the last '}' is read as JSON; values may be
// strings or numbers. Missing or non-finite values take defaults.
func ParseLoudness(output string) (*LoudnessParams, error) {
	start := strings.IndexByte(output, '{')
	end := strings.LastIndexByte(output, '}')
	if start < 0 || end <= start {
		return nil, ErrNoLoudnessData
	}
	block := output[start : end+1]

	values := make(map[string]float64)
	var raw map[string]any
	if err := json.Unmarshal([]byte(block), &raw); err == nil {
		for key, v := range raw {
			if f, ok := toFloat(v); ok {
				values[key] = f
			}
		}
	} else {
		for _, m := range loudnessFieldPattern.FindAllStringSubmatch(block, -1) {
			if f, err := strconv.ParseFloat(m[2], 64); err == nil {
				values[m[1]] = f
			}
		}
	}
	if len(values) == 0 {
		return nil, ErrNoLoudnessData
	}

	pick := func(fallback float64, keys ...string) float64 {
		for _, key := range keys {
			if v, ok := values[key]; ok && !math.IsInf(v, 0) && !math.IsNaN(v) {
				return v
			}
		}
		return fallback
	}
	return &LoudnessParams{
		InputI:      pick(defaultMeasuredI, "input_i", "measured_I"),
		InputLRA:    pick(defaultMeasuredLRA, "input_lra", "measured_LRA"),
		InputTP:     pick(defaultMeasuredTP, "input_tp", "measured_TP"),
		InputThresh: pick(defaultMeasuredThresh, "input_thresh", "measured_thresh"),
	}, nil
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
