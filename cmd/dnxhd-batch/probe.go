package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/davinciconvert/dnxhd-transcoder/internal/probe"
)

const probeTimeout = 30 * time.Second

func newProbeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "probe <files...>",
		Short: "Show duration, frame rate and audio layout of files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bins := ctx.binaries()
			rows := make([][]string, 0, len(args))
			var errs []error
			for _, path := range args {
				probeCtx, cancel := context.WithTimeout(cmd.Context(), probeTimeout)
				result, err := probe.Inspect(probeCtx, bins.FFprobe, path)
				cancel()
				if err != nil {
					errs = append(errs, fmt.Errorf("%s: %w", path, err))
					rows = append(rows, []string{filepath.Base(path), "error", "", "", "", "", ""})
					continue
				}
				rows = append(rows, probeRow(path, result))
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"File", "Duration", "FPS", "Resolution", "Video", "Audio", "Timecode"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignLeft, alignRight, alignLeft},
			))
			return errors.Join(errs...)
		},
	}
}

func probeRow(path string, result *probe.Result) []string {
	resolution := "-"
	if w, h := result.Width(), result.Height(); w > 0 && h > 0 {
		resolution = fmt.Sprintf("%dx%d", w, h)
	}
	channels := "-"
	if n := result.AudioChannels(); n > 0 {
		channels = fmt.Sprintf("%d ch", n)
	}
	return []string{
		filepath.Base(path),
		formatSeconds(result.DurationSeconds()),
		formatRate(result.FrameRate()),
		resolution,
		dashIfEmpty(result.VideoCodec()),
		channels,
		dashIfEmpty(result.Timecode()),
	}
}

func formatSeconds(seconds float64) string {
	if seconds <= 0 {
		return "-"
	}
	return (time.Duration(seconds * float64(time.Second))).Round(time.Millisecond).String()
}

func formatRate(fps float64) string {
	if fps <= 0 {
		return "-"
	}
	return strconv.FormatFloat(math.Round(fps*1000)/1000, 'f', -1, 64)
}

func dashIfEmpty(value string) string {
	if value == "" {
		return "-"
	}
	return value
}
