package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/davinciconvert/dnxhd-transcoder/internal/config"
	"github.com/davinciconvert/dnxhd-transcoder/internal/model"
	"github.com/davinciconvert/dnxhd-transcoder/internal/platform"
	"github.com/davinciconvert/dnxhd-transcoder/internal/transcode"
)

type encodeFlags struct {
	profile     string
	container   string
	audioDepth  int
	channels    int
	fps         float64
	timecode    string
	normalize   bool
	outputDir   string
	parallel    int
	preset      string
	presetsFile string
}

func newEncodeCommand(ctx *commandContext) *cobra.Command {
	var flags encodeFlags

	cmd := &cobra.Command{
		Use:   "encode <files...>",
		Short: "Convert files to DNxHR",
		Long: "Convert video files to DNxHR in a MOV or MXF container.\n" +
			"Outputs go to <output-dir>/transcoded, or next to the first input when no output directory is given.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEncode(cmd, ctx, flags, args)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.profile, "profile", "p", string(model.DefaultProfile), "DNxHR profile (lb, sq, hq, hqx, 444)")
	f.StringVarP(&flags.container, "container", "c", string(model.DefaultContainer), "Output container (mov or mxf)")
	f.IntVar(&flags.audioDepth, "audio-depth", int(model.DefaultAudioDepth), "PCM bit depth (16 or 24)")
	f.IntVar(&flags.channels, "channels", model.DefaultAudioChannels, "Audio channels (2, 4 or 8)")
	f.Float64Var(&flags.fps, "fps", 0, "Output frame rate, keeps the source rate when unset")
	f.StringVar(&flags.timecode, "timecode", "", "Start timecode HH:MM:SS:FF")
	f.BoolVar(&flags.normalize, "normalize", false, "Normalize loudness to EBU R128 (two pass)")
	f.StringVarP(&flags.outputDir, "output-dir", "o", "", "Base output directory")
	f.IntVarP(&flags.parallel, "parallel", "j", transcode.DefaultMaxParallel, fmt.Sprintf("Files converted at once (%d-%d)", transcode.MinParallel, transcode.MaxParallel))
	f.StringVar(&flags.preset, "preset", "", "Start from a named preset, other flags override it")
	f.StringVar(&flags.presetsFile, "presets-file", "", "Presets file (default ~/.config/dnxhd-transcoder/presets.toml)")

	return cmd
}

func runEncode(cmd *cobra.Command, ctx *commandContext, flags encodeFlags, args []string) error {
	logger := ctx.log().With("component", "cli")

	inputs, skipped := platform.FilterVideoFiles(args)
	for _, path := range skipped {
		logger.Warn("skipping unsupported file", "path", path)
	}
	if len(inputs) == 0 {
		return errors.New("no supported video files given")
	}

	opts, err := resolveOptions(flags, cmd.Flags().Changed)
	if err != nil {
		return err
	}
	if flags.parallel < transcode.MinParallel || flags.parallel > transcode.MaxParallel {
		return fmt.Errorf("--parallel must be between %d and %d", transcode.MinParallel, transcode.MaxParallel)
	}

	svc := transcode.NewService(ctx.binaries(), flags.parallel, ctx.log())

	stderr := cmd.ErrOrStderr()
	var bar *batchBar
	if isTerminal(stderr) {
		bar = newBatchBar(stderr)
	} else {
		svc.SetUpdateCallback(newProgressLog(logger).observe)
	}

	batch, err := svc.StartBatch(inputs, flags.outputDir, opts)
	if err != nil {
		return err
	}

	sigCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	done := make(chan error, 1)
	go func() { done <- svc.Wait(context.Background()) }()

	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()

	interrupted := sigCtx.Done()
	cancelled := false
wait:
	for {
		select {
		case <-interrupted:
			interrupted = nil
			cancelled = true
			logger.Warn("interrupted, stopping jobs")
			svc.StopAll()
		case <-ticker.C:
			if snapshot, ok := svc.GetBatch(batch.ID); ok {
				bar.update(snapshot)
			}
		case err := <-done:
			if err != nil {
				return err
			}
			break wait
		}
	}

	final, ok := svc.GetBatch(batch.ID)
	if !ok {
		return transcode.ErrJobNotFound
	}
	bar.update(final)
	bar.finish()

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, renderBatchSummary(final))
	stats := svc.Stats()
	fmt.Fprintln(out, summaryLine(stats))

	if cancelled {
		return context.Canceled
	}
	if stats.Failed > 0 {
		return fmt.Errorf("%d of %d files failed", stats.Failed, stats.Total())
	}
	return nil
}

// resolveOptions starts from the preset, or the defaults, and applies every
// flag the user set explicitly
func resolveOptions(flags encodeFlags, changed func(string) bool) (model.EncodeOptions, error) {
	opts := model.DefaultEncodeOptions()
	if name := strings.TrimSpace(flags.preset); name != "" {
		presets, err := config.LoadPresets(flags.presetsFile)
		if err != nil {
			return opts, err
		}
		preset, ok := presets.Lookup(name)
		if !ok {
			return opts, fmt.Errorf("unknown preset %q (available: %s)", name, strings.Join(presets.Names(), ", "))
		}
		if opts, err = preset.Options(); err != nil {
			return opts, err
		}
	}

	var errs []error
	if changed("profile") {
		profile, err := model.ParseProfile(flags.profile)
		errs = append(errs, err)
		opts.Profile = profile
	}
	if changed("container") {
		container, err := model.ParseContainer(flags.container)
		errs = append(errs, err)
		opts.Container = container
	}
	if changed("audio-depth") {
		opts.AudioDepth = model.AudioDepth(flags.audioDepth)
	}
	if changed("channels") {
		opts.AudioChannels = flags.channels
	}
	if changed("fps") {
		opts.PreserveFPS = false
		opts.TargetFPS = flags.fps
	}
	if changed("timecode") {
		opts.SetTimecode = true
		opts.Timecode = strings.TrimSpace(flags.timecode)
	}
	if changed("normalize") {
		opts.NormalizeLoudness = flags.normalize
	}
	if err := errors.Join(errs...); err != nil {
		return opts, err
	}
	if err := opts.Validate(); err != nil {
		return opts, fmt.Errorf("invalid options: %w", err)
	}
	return opts, nil
}

func renderBatchSummary(batch *model.Batch) string {
	rows := make([][]string, 0, len(batch.Jobs))
	for _, job := range batch.Jobs {
		size := "-"
		detail := strings.TrimSpace(job.LastError)
		if job.Status == model.TaskStatusCompleted {
			size = humanize.Bytes(uint64(job.OutputSize))
			detail = filepath.Base(job.OutputPath)
		}
		rows = append(rows, []string{
			filepath.Base(job.InputPath),
			job.Status.String(),
			size,
			job.Elapsed().Round(time.Second).String(),
			detail,
		})
	}
	return renderTable(
		[]string{"File", "Status", "Size", "Time", "Output"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft},
	)
}

func summaryLine(stats transcode.RunStats) string {
	return fmt.Sprintf("%d completed, %d failed, %d stopped · %s in, %s out",
		stats.Completed, stats.Failed, stats.Stopped,
		humanize.Bytes(uint64(stats.InputBytes)), humanize.Bytes(uint64(stats.OutputBytes)))
}
