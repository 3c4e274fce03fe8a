package ui

import (
	"context"
	"errors"
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"

	"github.com/davinciconvert/dnxhd-transcoder/internal/config"
	"github.com/davinciconvert/dnxhd-transcoder/internal/logging"
	"github.com/davinciconvert/dnxhd-transcoder/internal/model"
	"github.com/davinciconvert/dnxhd-transcoder/internal/transcode"
)

type fakeTranscoder struct {
	onUpdate    func(*model.TranscodeJob)
	started     [][]string
	startOpts   model.EncodeOptions
	startErr    error
	stopAll     int
	removed     []string
	maxParallel int
	jobs        map[string]*model.TranscodeJob

	// statusAfterStart moves jobs on once the returned batch is built,
	// like the service scheduling them before StartBatch returns
	statusAfterStart model.TaskStatus
}

var _ transcode.Transcoder = (*fakeTranscoder)(nil)

func (f *fakeTranscoder) SetUpdateCallback(fn func(*model.TranscodeJob)) { f.onUpdate = fn }

func (f *fakeTranscoder) StartBatch(inputs []string, outputDir string, opts model.EncodeOptions) (*model.Batch, error) {
	if f.startErr != nil {
		return nil, f.startErr
	}
	f.started = append(f.started, append([]string(nil), inputs...))
	f.startOpts = opts
	batch := model.NewBatch("batch-1", "/out", opts)
	if f.jobs == nil {
		f.jobs = make(map[string]*model.TranscodeJob)
	}
	for i, in := range inputs {
		job := &model.TranscodeJob{ID: "job-" + string(rune('a'+i)), BatchID: batch.ID, InputPath: in, Status: model.TaskStatusPending, Seq: 1}
		f.jobs[job.ID] = job
		batch.AddJob(job.Clone())
		if f.statusAfterStart != "" {
			job.Status = f.statusAfterStart
			job.Seq++
		}
	}
	return batch, nil
}

func (f *fakeTranscoder) AddJob(string, string, model.EncodeOptions) (*model.TranscodeJob, error) {
	return nil, errors.New("not implemented")
}
func (f *fakeTranscoder) StopJob(string) error { return nil }
func (f *fakeTranscoder) StopAll() { f.stopAll++ }
func (f *fakeTranscoder) RemoveJob(id string) error {
	f.removed = append(f.removed, id)
	return nil
}
func (f *fakeTranscoder) RestartJob(string) error { return nil }
func (f *fakeTranscoder) GetJob(id string) (*model.TranscodeJob, bool) {
	job, ok := f.jobs[id]
	return job.Clone(), ok
}
func (f *fakeTranscoder) GetAllJobs() []*model.TranscodeJob { return nil }
func (f *fakeTranscoder) GetBatch(string) (*model.Batch, bool) { return nil, false }
func (f *fakeTranscoder) SetMaxParallel(n int) { f.maxParallel = n }
func (f *fakeTranscoder) Stats() transcode.RunStats { return transcode.RunStats{} }
func (f *fakeTranscoder) Wait(context.Context) error { return nil }

func newTestRootUI(t *testing.T) (*RootUI, *fakeTranscoder, fyne.App) {
	t.Helper()
	app := test.NewApp()
	t.Cleanup(app.Quit)
	t.Setenv("LANG", "en_US.UTF-8")

	window := app.NewWindow("test")
	svc := &fakeTranscoder{}
	ui := NewRootUI(window, app, svc, config.NewSettings(app), nil, logging.Discard())
	return ui, svc, app
}

func TestRootUIRegistersCallback(t *testing.T) {
	_, svc, _ := newTestRootUI(t)
	if svc.onUpdate == nil {
		t.Fatal("update callback should be registered")
	}
}

func TestRootUIAddInputsFiltersAndStarts(t *testing.T) {
	ui, svc, _ := newTestRootUI(t)

	if !ui.startBtn.Disabled() {
		t.Error("Start should be disabled without inputs")
	}

	ui.addInputs([]string{"/v/a.mov", "/v/notes.txt", "/v/b.MP4", "/v/a.mov"})
	if len(ui.inputs) != 2 {
		t.Fatalf("expected 2 inputs, got %v", ui.inputs)
	}
	if !ui.notificationContainer.Visible() {
		t.Error("skipped files should be reported")
	}
	if ui.startBtn.Disabled() {
		t.Error("Start should be enabled with inputs")
	}

	ui.onStart()

	if len(svc.started) != 1 || len(svc.started[0]) != 2 {
		t.Fatalf("StartBatch not called with inputs: %v", svc.started)
	}
	if svc.maxParallel != config.DefaultMaxParallel {
		t.Errorf("max parallel = %d", svc.maxParallel)
	}
	if ui.batchGroup.JobCount() != 2 || len(ui.inputs) != 0 {
		t.Errorf("expected batch shown and selection cleared, jobs=%d inputs=%d", ui.batchGroup.JobCount(), len(ui.inputs))
	}
	if ui.stopAllBtn.Disabled() {
		t.Error("Stop all should be enabled while jobs are pending")
	}
}

func TestRootUIBatchFinishedNotifiesOnce(t *testing.T) {
	ui, svc, _ := newTestRootUI(t)
	ui.addInputs([]string{"/v/a.mov"})
	ui.onStart()

	job := svc.jobs["job-a"].Clone()
	job.Status = model.TaskStatusCompleted
	job.OutputPath = "/out/a.mov"

	ui.applyJobUpdate(job)
	ui.applyJobUpdate(job)

	if !ui.notifiedBatches["batch-1"] {
		t.Error("finished batch should be marked as notified")
	}
	if !ui.stopAllBtn.Disabled() {
		t.Error("Stop all should be disabled when nothing runs")
	}
}

func TestRootUIWindowTitleIsLocalized(t *testing.T) {
	ui, _, _ := newTestRootUI(t)
	if got := ui.window.Title(); got != "DNxHD Transcoder" {
		t.Errorf("window title = %q", got)
	}
}

func TestRootUIStartShowsStateReachedDuringStart(t *testing.T) {
	ui, svc, _ := newTestRootUI(t)
	svc.statusAfterStart = model.TaskStatusProbing

	ui.addInputs([]string{"/v/a.mov"})
	ui.onStart()

	batch, ok := ui.batchGroup.Batch("batch-1")
	if !ok {
		t.Fatal("batch should be shown")
	}
	job, _ := batch.Job("job-a")
	if job.Status != model.TaskStatusProbing {
		t.Fatalf("status = %s, expected the state reached inside StartBatch", job.Status)
	}

	stale := job.Clone()
	stale.Status = model.TaskStatusPending
	stale.Seq = 1
	ui.applyJobUpdate(stale)

	job, _ = batch.Job("job-a")
	if job.Status != model.TaskStatusProbing {
		t.Errorf("stale update overwrote the job: %s", job.Status)
	}
}

func TestRootUIDroppedURIs(t *testing.T) {
	ui, _, _ := newTestRootUI(t)

	ui.onDropped(fyne.NewPos(0, 0), []fyne.URI{
		storageURI(t, "/clips/one.mxf"),
		storageURI(t, "/clips/two.wav"),
	})
	if len(ui.inputs) != 1 || ui.inputs[0] != "/clips/one.mxf" {
		t.Errorf("unexpected inputs %v", ui.inputs)
	}
}

func TestRootUIStartErrorKeepsSelection(t *testing.T) {
	ui, svc, _ := newTestRootUI(t)
	svc.startErr = errors.New("transcode already in progress for file: /v/a.mov")

	ui.addInputs([]string{"/v/a.mov"})
	ui.onStart()

	if len(ui.inputs) != 1 {
		t.Error("selection should be kept when the batch could not start")
	}
	if ui.batchGroup.BatchCount() != 0 {
		t.Error("no batch should be shown")
	}
}

func TestRootUIPresetAppliesOptions(t *testing.T) {
	ui, _, _ := newTestRootUI(t)

	ui.presetSelect.SetSelected("broadcast-mxf")

	opts, err := ui.optionsPanel.Options()
	if err != nil {
		t.Fatalf("Options returned error: %v", err)
	}
	if opts.Container != model.ContainerMXF || !opts.NormalizeLoudness {
		t.Errorf("preset not applied: %+v", opts)
	}
	if ui.settings.GetLastPreset() != "broadcast-mxf" {
		t.Errorf("last preset = %q", ui.settings.GetLastPreset())
	}
}
