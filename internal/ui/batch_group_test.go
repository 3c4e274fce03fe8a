package ui

import (
	"testing"

	"fyne.io/fyne/v2/test"

	"github.com/davinciconvert/dnxhd-transcoder/internal/model"
)

func newTestBatch(id string, n int) *model.Batch {
	batch := model.NewBatch(id, "/videos/transcoded", model.DefaultEncodeOptions())
	for i := 0; i < n; i++ {
		batch.AddJob(&model.TranscodeJob{
			ID:        id + "-job-" + string(rune('a'+i)),
			BatchID:   id,
			InputPath: "/videos/clip.mp4",
			Status:    model.TaskStatusPending,
			ETASec:    -1,
		})
	}
	return batch
}

func TestBatchGroupAddAndUpdate(t *testing.T) {
	app := test.NewApp()
	defer app.Quit()

	bg := NewBatchGroup(NewLocalization())
	batch := newTestBatch("batch-1", 2)
	bg.AddBatch(batch)

	if bg.BatchCount() != 1 || bg.JobCount() != 2 {
		t.Fatalf("expected 1 batch with 2 jobs, got %d/%d", bg.BatchCount(), bg.JobCount())
	}
	if !bg.HasActiveJobs() {
		t.Error("pending jobs count as active")
	}

	view := bg.findBatch("batch-1")
	if view.header.Text != "transcoded  0/2 completed" {
		t.Errorf("header = %q", view.header.Text)
	}

	done := batch.Jobs[0].Clone()
	done.Status = model.TaskStatusCompleted
	bg.UpdateJob(done)

	if view.header.Text != "transcoded  1/2 completed" {
		t.Errorf("header after update = %q", view.header.Text)
	}
	if view.progress.Value != 0.5 {
		t.Errorf("batch progress = %v", view.progress.Value)
	}

	unknown := &model.TranscodeJob{ID: "x", BatchID: "other", Status: model.TaskStatusCompleted}
	bg.UpdateJob(unknown)
	if bg.JobCount() != 2 {
		t.Error("updates for unknown batches should be ignored")
	}
}

func TestBatchGroupDropsStaleUpdates(t *testing.T) {
	app := test.NewApp()
	defer app.Quit()

	bg := NewBatchGroup(NewLocalization())
	batch := newTestBatch("batch-1", 1)
	bg.AddBatch(batch)

	stopped := batch.Jobs[0].Clone()
	stopped.Status = model.TaskStatusStopped
	stopped.Seq = 5
	bg.UpdateJob(stopped)

	stopping := stopped.Clone()
	stopping.Status = model.TaskStatusStopping
	stopping.Seq = 4
	bg.UpdateJob(stopping)

	got, ok := bg.Batch("batch-1")
	if !ok {
		t.Fatal("batch missing")
	}
	if got.Jobs[0].Status != model.TaskStatusStopped {
		t.Errorf("late Stopping overwrote Stopped: %s", got.Jobs[0].Status)
	}
	if bg.HasActiveJobs() {
		t.Error("stopped job should not count as active")
	}
	if row := bg.rows[stopped.ID]; row.Job().Status != model.TaskStatusStopped {
		t.Errorf("row shows %s", row.Job().Status)
	}
}

func TestBatchGroupRemoveAndClear(t *testing.T) {
	app := test.NewApp()
	defer app.Quit()

	bg := NewBatchGroup(NewLocalization())
	first := newTestBatch("batch-1", 1)
	second := newTestBatch("batch-2", 2)
	bg.AddBatch(first)
	bg.AddBatch(second)

	if bg.batches[0].batch.ID != "batch-2" {
		t.Error("newest batch should be listed first")
	}

	bg.RemoveJob(first.Jobs[0].ID)
	if bg.BatchCount() != 1 {
		t.Errorf("emptied batch should disappear, have %d", bg.BatchCount())
	}

	for _, job := range second.Jobs {
		finished := job.Clone()
		finished.Status = model.TaskStatusStopped
		bg.UpdateJob(finished)
	}
	if bg.HasActiveJobs() {
		t.Error("stopped jobs are not active")
	}

	bg.ClearFinished()
	if bg.BatchCount() != 0 || bg.JobCount() != 0 {
		t.Errorf("ClearFinished left %d batches, %d jobs", bg.BatchCount(), bg.JobCount())
	}
}
