package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/davinciconvert/dnxhd-transcoder/internal/ffmpeg"
	"github.com/davinciconvert/dnxhd-transcoder/internal/logging"
)

type commandContext struct {
	logLevel    string
	logFormat   string
	ffmpegPath  string
	ffprobePath string

	logger *slog.Logger
}

func (c *commandContext) init(stderr io.Writer) error {
	logger, err := logging.NewWithWriter(stderr, logging.Options{Level: c.logLevel, Format: c.logFormat})
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	c.logger = logger
	return nil
}

func (c *commandContext) log() *slog.Logger {
	if c.logger == nil {
		return logging.Discard()
	}
	return c.logger
}

// binaries prefers the --ffmpeg and --ffprobe flags over the usual lookup
func (c *commandContext) binaries() ffmpeg.Binaries {
	bins := ffmpeg.Binaries{
		FFmpeg:  strings.TrimSpace(c.ffmpegPath),
		FFprobe: strings.TrimSpace(c.ffprobePath),
	}
	if bins.FFmpeg == "" {
		bins.FFmpeg = ffmpeg.ResolveBinary(ffmpeg.FFmpegName)
	}
	if bins.FFprobe == "" {
		bins.FFprobe = ffmpeg.ResolveBinary(ffmpeg.FFprobeName)
	}
	return bins
}
