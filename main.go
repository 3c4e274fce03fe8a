package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"

	"github.com/davinciconvert/dnxhd-transcoder/internal/config"
	"github.com/davinciconvert/dnxhd-transcoder/internal/ffmpeg"
	"github.com/davinciconvert/dnxhd-transcoder/internal/logging"
	"github.com/davinciconvert/dnxhd-transcoder/internal/platform"
	"github.com/davinciconvert/dnxhd-transcoder/internal/transcode"
	"github.com/davinciconvert/dnxhd-transcoder/internal/ui"
)

// Version is set during build via -ldflags "-X main.version=X.Y.Z"
var version = "dev"

const (
	AppID   = "com.davinciconvert.DNxHDTranscoder"
	AppName = "DNxHD Transcoder"

	toolCheckTimeout = 10 * time.Second
)

func main() {
	logger := newLogger()
	logger.Info("starting", slog.String("app", AppName), slog.String("version", version))

	myApp := app.NewWithID(AppID)
	settings := config.NewSettings(myApp)
	ui.ApplyTheme(myApp, settings)

	myWindow := myApp.NewWindow(AppName)

	presets := loadPresets(logger)

	bins := ffmpeg.ResolveBinaries()
	logger.Info("resolved binaries", slog.String("ffmpeg", bins.FFmpeg), slog.String("ffprobe", bins.FFprobe))

	svc := transcode.NewService(bins, settings.GetMaxParallel(), logger)
	root := ui.NewRootUI(myWindow, myApp, svc, settings, presets, logger)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), toolCheckTimeout)
		defer cancel()
		statuses := ffmpeg.CheckTools(ctx, bins)
		fyne.Do(func() { root.ReportTools(statuses) })
	}()

	myWindow.ShowAndRun()

	svc.StopAll()
	waitCtx, waitCancel := context.WithTimeout(context.Background(), ffmpeg.DefaultWaitDelay)
	defer waitCancel()
	if err := svc.Wait(waitCtx); err != nil {
		logger.Warn("jobs still running at exit", slog.Any("error", err))
	}
}

// newLogger logs to stderr and to the log file in the user cache directory
func newLogger() *slog.Logger {
	outputs := []string{"stderr"}
	if path, err := platform.DefaultLogPath(); err == nil {
		outputs = append(outputs, path)
	}
	logger, err := logging.New(logging.Options{Level: os.Getenv("DNXHD_LOG_LEVEL"), Format: "console", OutputPaths: outputs})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		return logging.Default()
	}
	return logger
}

func loadPresets(logger *slog.Logger) *config.PresetFile {
	path, err := config.DefaultPresetsPath()
	if err != nil {
		logger.Warn("presets path unavailable", slog.Any("error", err))
		return &config.PresetFile{Presets: config.BuiltinPresets()}
	}
	presets, err := config.LoadPresets(path)
	if err != nil {
		logger.Warn("presets file ignored", slog.String("path", path), slog.Any("error", err))
		return &config.PresetFile{Presets: config.BuiltinPresets()}
	}
	return presets
}
