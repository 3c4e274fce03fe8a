package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "dnxhd-batch",
		Short:         "Batch DNxHR transcoding with ffmpeg",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return ctx.init(cmd.ErrOrStderr())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&ctx.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flags.StringVar(&ctx.logFormat, "log-format", "console", "Log format (console or json)")
	flags.StringVar(&ctx.ffmpegPath, "ffmpeg", "", "Path to the ffmpeg binary")
	flags.StringVar(&ctx.ffprobePath, "ffprobe", "", "Path to the ffprobe binary")

	rootCmd.AddCommand(newEncodeCommand(ctx))
	rootCmd.AddCommand(newProbeCommand(ctx))
	rootCmd.AddCommand(newCheckCommand(ctx))
	rootCmd.AddCommand(newPresetsCommand())
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}
