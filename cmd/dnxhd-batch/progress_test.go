package main

import (
	"strings"
	"testing"

	"github.com/davinciconvert/dnxhd-transcoder/internal/logging"
	"github.com/davinciconvert/dnxhd-transcoder/internal/model"
)

func TestDescribeBatch(t *testing.T) {
	batch := model.NewBatch("batch-1", "/out", model.DefaultEncodeOptions())
	batch.AddJob(&model.TranscodeJob{ID: "a", InputPath: "/in/a.mp4", Status: model.TaskStatusCompleted})
	batch.AddJob(&model.TranscodeJob{ID: "b", InputPath: "/in/b.mp4", Status: model.TaskStatusEncoding, Percent: 40})
	batch.AddJob(&model.TranscodeJob{ID: "c", InputPath: "/in/c.mov", Status: model.TaskStatusMeasuring})
	batch.AddJob(&model.TranscodeJob{ID: "d", InputPath: "/in/d.mov", Status: model.TaskStatusPending})

	if got, want := describeBatch(batch), "1/4 b.mp4 40%, c.mov"; got != want {
		t.Errorf("describeBatch = %q, expected %q", got, want)
	}

	idle := model.NewBatch("batch-2", "/out", model.DefaultEncodeOptions())
	idle.AddJob(&model.TranscodeJob{ID: "e", InputPath: "/in/e.mp4", Status: model.TaskStatusPending})
	if got := describeBatch(idle); got != "0/1" {
		t.Errorf("describeBatch(idle) = %q", got)
	}
}

func TestProgressLogSkipsRepeats(t *testing.T) {
	var buf strings.Builder
	logger, err := logging.NewWithWriter(&buf, logging.Options{Format: "json"})
	if err != nil {
		t.Fatal(err)
	}
	p := newProgressLog(logger)

	job := &model.TranscodeJob{ID: "a", InputPath: "/in/a.mp4", Status: model.TaskStatusEncoding, ETASec: -1}
	for _, percent := range []int{0, 3, 9, 10, 14, 25} {
		job.Percent = percent
		p.observe(job)
	}
	job.Status = model.TaskStatusCompleted
	job.Percent = 100
	p.observe(job)
	p.observe(job)

	lines := strings.Count(buf.String(), "\n")
	// 0%, 10%, 20%, completed
	if lines != 4 {
		t.Errorf("expected 4 progress lines, got %d:\n%s", lines, buf.String())
	}
}

func TestProgressLogIgnoresOlderUpdates(t *testing.T) {
	var buf strings.Builder
	logger, err := logging.NewWithWriter(&buf, logging.Options{Format: "json"})
	if err != nil {
		t.Fatal(err)
	}
	p := newProgressLog(logger)

	p.observe(&model.TranscodeJob{ID: "a", InputPath: "/in/a.mp4", Status: model.TaskStatusStopped, Seq: 9})
	p.observe(&model.TranscodeJob{ID: "a", InputPath: "/in/a.mp4", Status: model.TaskStatusStopping, Seq: 8})

	out := buf.String()
	if strings.Count(out, "\n") != 1 {
		t.Errorf("expected only the stopped line, got:\n%s", out)
	}
	if strings.Contains(out, string(model.TaskStatusStopping)) {
		t.Errorf("late stopping update was logged:\n%s", out)
	}
}
