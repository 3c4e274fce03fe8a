package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/davinciconvert/dnxhd-transcoder/internal/config"
	"github.com/davinciconvert/dnxhd-transcoder/internal/model"
)

func newPresetsCommand() *cobra.Command {
	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "List or create encode presets",
	}
	presetsCmd.AddCommand(newPresetsListCommand())
	presetsCmd.AddCommand(newPresetsInitCommand())
	return presetsCmd
}

func newPresetsListCommand() *cobra.Command {
	var presetsFile string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show available presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			presets, err := config.LoadPresets(presetsFile)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if presets.Loaded {
				fmt.Fprintf(out, "Presets from %s\n", presets.Path)
			} else {
				fmt.Fprintf(out, "No presets file at %s, showing built-in presets\n", presets.Path)
			}
			fmt.Fprintln(out, renderPresetTable(presets))
			return nil
		},
	}
	cmd.Flags().StringVar(&presetsFile, "presets-file", "", "Presets file (default ~/.config/dnxhd-transcoder/presets.toml)")
	return cmd
}

func renderPresetTable(presets *config.PresetFile) string {
	rows := make([][]string, 0, len(presets.Presets))
	for _, name := range presets.Names() {
		preset, _ := presets.Lookup(name)
		opts, err := preset.Options()
		if err != nil {
			rows = append(rows, []string{name, "invalid", "", "", "", err.Error()})
			continue
		}
		rows = append(rows, []string{
			name,
			opts.Profile.Label(),
			strings.ToUpper(string(opts.Container)),
			fmt.Sprintf("%s, %s", opts.AudioDepth.Label(), model.ChannelLabel(opts.AudioChannels)),
			presetFPS(opts),
			preset.Description,
		})
	}
	return renderTable([]string{"Name", "Profile", "Container", "Audio", "FPS", "Description"}, rows, nil)
}

func presetFPS(opts model.EncodeOptions) string {
	if opts.PreserveFPS {
		return "source"
	}
	return formatRate(opts.TargetFPS)
}

func newPresetsInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init [path]",
		Short: "Write a sample presets file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				target string
				err    error
			)
			if len(args) == 1 {
				target, err = config.ExpandPath(strings.TrimSpace(args[0]))
			} else {
				target, err = config.DefaultPresetsPath()
			}
			if err != nil {
				return fmt.Errorf("resolve presets path: %w", err)
			}
			if err := config.WriteSamplePresets(target); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote sample presets to %s\n", target)
			return nil
		},
	}
}
