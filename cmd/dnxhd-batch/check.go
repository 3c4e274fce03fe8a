package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/davinciconvert/dnxhd-transcoder/internal/ffmpeg"
)

const checkTimeout = 15 * time.Second

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify ffmpeg and ffprobe are usable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			checkCtx, cancel := context.WithTimeout(cmd.Context(), checkTimeout)
			defer cancel()

			statuses := ffmpeg.CheckTools(checkCtx, ctx.binaries())
			fmt.Fprintln(cmd.OutOrStdout(), renderToolTable(statuses))
			return toolsError(statuses)
		},
	}
}

func renderToolTable(statuses []ffmpeg.ToolStatus) string {
	rows := make([][]string, 0, len(statuses))
	for _, st := range statuses {
		state := "ok"
		if !st.Available {
			state = "missing"
		}
		dnxhd := "-"
		if st.Name == ffmpeg.FFmpegName && st.Available {
			dnxhd = "no"
			if st.HasDNxHD {
				dnxhd = "yes"
			}
		}
		version := st.Version
		if version == "" {
			version = st.Detail
		}
		rows = append(rows, []string{st.Name, state, st.Command, dnxhd, version})
	}
	return renderTable([]string{"Tool", "Status", "Path", "DNxHD", "Version"}, rows, nil)
}

func toolsError(statuses []ffmpeg.ToolStatus) error {
	var errs []error
	for _, st := range statuses {
		switch {
		case !st.Available:
			errs = append(errs, fmt.Errorf("%s not usable at %q", st.Name, st.Command))
		case st.Name == ffmpeg.FFmpegName && !st.HasDNxHD:
			errs = append(errs, fmt.Errorf("%s at %q has no dnxhd encoder", st.Name, st.Command))
		}
	}
	return errors.Join(errs...)
}
