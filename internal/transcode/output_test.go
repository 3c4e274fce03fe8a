package transcode

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/davinciconvert/dnxhd-transcoder/internal/ffmpeg"
	"github.com/davinciconvert/dnxhd-transcoder/internal/model"
)

func TestOutputDir(t *testing.T) {
	tests := []struct {
		outputDir string
		inputs    []string
		expected  string
	}{
		{"", []string{"/media/in/a.mp4", "/other/b.mp4"}, filepath.Join("/media/in", OutputSubdir)},
		{"/exports", []string{"/media/in/a.mp4"}, filepath.Join("/exports", OutputSubdir)},
		{"  ", nil, OutputSubdir},
	}

	for _, test := range tests {
		if got := OutputDir(test.outputDir, test.inputs); got != test.expected {
			t.Errorf("OutputDir(%q, %v) = %s, expected %s", test.outputDir, test.inputs, got, test.expected)
		}
	}
}

func TestPlanOutputs(t *testing.T) {
	dir := "/out/transcoded"
	reserved := map[string]bool{filepath.Join(dir, "taken.mov"): true}
	inputs := []string{"/a/clip.mp4", "/b/clip.mov", "/c/clip.mkv", "/d/taken.mp4", "/e/noext"}

	got, err := planOutputs(dir, inputs, model.ContainerMOV, reserved)
	if err != nil {
		t.Fatalf("planOutputs() error = %v", err)
	}
	expected := []string{
		filepath.Join(dir, "clip.mov"),
		filepath.Join(dir, "clip_2.mov"),
		filepath.Join(dir, "clip_3.mov"),
		filepath.Join(dir, "taken_2.mov"),
		filepath.Join(dir, "noext.mov"),
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("planOutputs()[%d] = %s, expected %s", i, got[i], expected[i])
		}
	}
}

func TestPlanOutputs_RejectsOverwritingInput(t *testing.T) {
	dir := "/out/transcoded"
	_, err := planOutputs(dir, []string{filepath.Join(dir, "clip.mov")}, model.ContainerMOV, nil)
	if err == nil {
		t.Error("Expected error when output equals input")
	}
}

func TestDirLock(t *testing.T) {
	dir := t.TempDir()
	first := NewService(ffmpeg.Binaries{}, 1, nil)
	second := NewService(ffmpeg.Binaries{}, 1, nil)

	if err := first.acquireDirLocked(dir, 2); err != nil {
		t.Fatalf("acquireDirLocked() error = %v", err)
	}
	if err := second.acquireDirLocked(dir, 1); !errors.Is(err, ErrOutputDirLocked) {
		t.Errorf("Second service error = %v, expected ErrOutputDirLocked", err)
	}

	first.releaseDirLocked(dir)
	if _, held := first.dirLocks[dir]; !held {
		t.Error("Lock released while a reference remains")
	}
	first.releaseDirLocked(dir)
	if _, held := first.dirLocks[dir]; held {
		t.Error("Lock not released after the last reference")
	}

	if err := second.acquireDirLocked(dir, 1); err != nil {
		t.Errorf("acquireDirLocked() after release error = %v", err)
	}
	second.releaseDirLocked(dir)
}
