package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/davinciconvert/dnxhd-transcoder/internal/model"
	"github.com/davinciconvert/dnxhd-transcoder/internal/transcode"
)

func changedSet(names ...string) func(string) bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return func(name string) bool { return set[name] }
}

func TestResolveOptions(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "presets.toml")

	tests := []struct {
		name    string
		flags   encodeFlags
		changed []string
		check   func(t *testing.T, opts model.EncodeOptions)
		wantErr string
	}{
		{
			name:  "defaults",
			flags: encodeFlags{profile: "lb", presetsFile: missing},
			check: func(t *testing.T, opts model.EncodeOptions) {
				if opts != model.DefaultEncodeOptions() {
					t.Errorf("unchanged flags should keep defaults, got %+v", opts)
				}
			},
		},
		{
			name:    "explicit flags",
			flags:   encodeFlags{profile: "hqx", audioDepth: 24, channels: 4, fps: 25, timecode: "01:00:00:00", normalize: true, presetsFile: missing},
			changed: []string{"profile", "audio-depth", "channels", "fps", "timecode", "normalize"},
			check: func(t *testing.T, opts model.EncodeOptions) {
				if opts.Profile != model.ProfileHQX || opts.AudioDepth != model.AudioDepth24 || opts.AudioChannels != 4 {
					t.Errorf("flags not applied: %+v", opts)
				}
				if opts.PreserveFPS || opts.TargetFPS != 25 {
					t.Errorf("--fps should disable PreserveFPS: %+v", opts)
				}
				if !opts.SetTimecode || opts.Timecode != "01:00:00:00" || !opts.NormalizeLoudness {
					t.Errorf("timecode/normalize not applied: %+v", opts)
				}
			},
		},
		{
			name:    "preset with override",
			flags:   encodeFlags{preset: "broadcast-mxf", profile: "hqx", presetsFile: missing},
			changed: []string{"profile"},
			check: func(t *testing.T, opts model.EncodeOptions) {
				if opts.Container != model.ContainerMXF || opts.Profile != model.ProfileHQX || !opts.NormalizeLoudness {
					t.Errorf("preset not merged with flags: %+v", opts)
				}
			},
		},
		{
			name:    "unknown preset",
			flags:   encodeFlags{preset: "nope", presetsFile: missing},
			wantErr: "unknown preset",
		},
		{
			name:    "bad profile",
			flags:   encodeFlags{profile: "prores", presetsFile: missing},
			changed: []string{"profile"},
			wantErr: "prores",
		},
		{
			name:    "bad channels",
			flags:   encodeFlags{channels: 6, presetsFile: missing},
			changed: []string{"channels"},
			wantErr: "audio_channels",
		},
		{
			name:    "fps out of range",
			flags:   encodeFlags{fps: 500, presetsFile: missing},
			changed: []string{"fps"},
			wantErr: "target_fps",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := resolveOptions(tt.flags, changedSet(tt.changed...))
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("resolveOptions: %v", err)
			}
			tt.check(t, opts)
		})
	}
}

func TestEncodeRejectsUnsupportedFiles(t *testing.T) {
	input := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(input, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, stderr, err := runCLI(t, "encode", input)
	if err == nil || !strings.Contains(err.Error(), "no supported video files") {
		t.Fatalf("expected unsupported file error, got %v", err)
	}
	if !strings.Contains(stderr, "skipping unsupported file") {
		t.Errorf("skipped file should be logged: %q", stderr)
	}
}

func TestEncodeRejectsParallelOutOfRange(t *testing.T) {
	input := filepath.Join(t.TempDir(), "clip.mov")
	if err := os.WriteFile(input, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, _, err := runCLI(t, "encode", "--parallel", "0", input)
	if err == nil || !strings.Contains(err.Error(), "--parallel") {
		t.Fatalf("expected parallel error, got %v", err)
	}
}

func TestEncodeReportsFailedJobs(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "clip.mp4")
	if err := os.WriteFile(input, []byte("not a video"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, stderr, err := runCLI(t,
		"--ffmpeg", filepath.Join(dir, "no-ffmpeg"),
		"--ffprobe", filepath.Join(dir, "no-ffprobe"),
		"encode", "--output-dir", filepath.Join(dir, "out"), input,
	)
	if err == nil || !strings.Contains(err.Error(), "1 of 1 files failed") {
		t.Fatalf("expected failed job error, got %v", err)
	}
	if !strings.Contains(out, "clip.mp4") || !strings.Contains(out, string(model.TaskStatusError)) {
		t.Errorf("summary should list the failed file: %q", out)
	}
	if !strings.Contains(out, "0 completed, 1 failed") {
		t.Errorf("summary line missing: %q", out)
	}
	if !strings.Contains(stderr, "progress") {
		t.Errorf("non-terminal stderr should receive progress log lines: %q", stderr)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "out", transcode.OutputSubdir)); statErr != nil {
		t.Errorf("output directory should be created: %v", statErr)
	}
}

func TestRenderBatchSummary(t *testing.T) {
	now := time.Now()
	batch := model.NewBatch("batch-1", "/out/transcoded", model.DefaultEncodeOptions())
	batch.AddJob(&model.TranscodeJob{
		ID: "a", InputPath: "/in/a.mp4", OutputPath: "/out/transcoded/a.mov",
		Status: model.TaskStatusCompleted, OutputSize: 2_000_000,
		StartedAt: now.Add(-90 * time.Second), FinishedAt: now,
	})
	batch.AddJob(&model.TranscodeJob{
		ID: "b", InputPath: "/in/b.mp4", Status: model.TaskStatusError, LastError: "exit code 1",
	})

	out := renderBatchSummary(batch)
	for _, want := range []string{"a.mp4", "a.mov", "2.0 MB", "1m30s", "b.mp4", "exit code 1"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestSummaryLine(t *testing.T) {
	got := summaryLine(transcode.RunStats{Completed: 2, Failed: 1, InputBytes: 3_000_000, OutputBytes: 9_000_000})
	want := "2 completed, 1 failed, 0 stopped · 3.0 MB in, 9.0 MB out"
	if got != want {
		t.Errorf("summaryLine = %q, expected %q", got, want)
	}
}
