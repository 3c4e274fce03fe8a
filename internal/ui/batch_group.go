package ui

import (
	"fmt"
	"path/filepath"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"github.com/davinciconvert/dnxhd-transcoder/internal/model"
)

// BatchGroup shows every batch of the session with its job rows
type BatchGroup struct {
	localization *Localization

	batches []*batchView
	rows    map[string]*JobRow

	list      *fyne.Container
	container *fyne.Container

	onStopRestart func(jobID string)
	onReveal      func(filePath string)
	onOpen        func(filePath string)
	onCopyPath    func(filePath string)
	onRemove      func(jobID string)
}

type batchView struct {
	batch    *model.Batch
	header   *widget.Label
	progress *widget.ProgressBar
	jobs     *fyne.Container
	card     *fyne.Container
}

// NewBatchGroup creates an empty batch group
func NewBatchGroup(localization *Localization) *BatchGroup {
	bg := &BatchGroup{
		localization: localization,
		rows:         make(map[string]*JobRow),
	}
	bg.list = container.NewVBox()
	bg.container = container.NewBorder(nil, nil, nil, nil, container.NewVScroll(bg.list))
	return bg
}

// Container returns the root object
func (bg *BatchGroup) Container() *fyne.Container {
	return bg.container
}

// SetJobRowCallbacks sets the callbacks shared by every job row
func (bg *BatchGroup) SetJobRowCallbacks(
	onStopRestart func(jobID string),
	onReveal func(filePath string),
	onOpen func(filePath string),
	onCopyPath func(filePath string),
	onRemove func(jobID string),
) {
	bg.onStopRestart = onStopRestart
	bg.onReveal = onReveal
	bg.onOpen = onOpen
	bg.onCopyPath = onCopyPath
	bg.onRemove = onRemove
	for _, row := range bg.rows {
		row.SetCallbacks(onStopRestart, onReveal, onOpen, onCopyPath, onRemove)
	}
}

// AddBatch appends a batch and its jobs. Newest batches are listed first.
func (bg *BatchGroup) AddBatch(batch *model.Batch) {
	if batch == nil {
		return
	}
	view := &batchView{
		batch:    batch,
		header:   widget.NewLabel(""),
		progress: widget.NewProgressBar(),
		jobs:     container.NewVBox(),
	}
	view.header.TextStyle = fyne.TextStyle{Bold: true}
	view.card = container.NewVBox(
		container.NewBorder(nil, nil, view.header, nil, view.progress),
		view.jobs,
	)

	for _, job := range batch.Jobs {
		view.jobs.Add(bg.newRow(job))
	}
	bg.batches = append([]*batchView{view}, bg.batches...)
	bg.list.Objects = append([]fyne.CanvasObject{view.card}, bg.list.Objects...)
	bg.refreshHeader(view)
	bg.list.Refresh()
}

func (bg *BatchGroup) newRow(job *model.TranscodeJob) *JobRow {
	row := NewJobRow(job, bg.localization)
	row.SetCallbacks(bg.onStopRestart, bg.onReveal, bg.onOpen, bg.onCopyPath, bg.onRemove)
	bg.rows[job.ID] = row
	return row
}

// UpdateJob refreshes the row and batch header of job. Updates for jobs of
// unknown batches are ignored.
func (bg *BatchGroup) UpdateJob(job *model.TranscodeJob) {
	if job == nil {
		return
	}
	view := bg.findBatch(job.BatchID)
	if view == nil {
		return
	}
	if !view.batch.UpdateJob(job) {
		return
	}
	if row, ok := bg.rows[job.ID]; ok {
		row.UpdateJob(job)
	}
	bg.refreshHeader(view)
}

// RemoveJob drops the job row; an emptied batch disappears
func (bg *BatchGroup) RemoveJob(jobID string) {
	row, ok := bg.rows[jobID]
	if !ok {
		return
	}
	delete(bg.rows, jobID)

	view := bg.findBatch(row.Job().BatchID)
	if view == nil {
		return
	}
	view.batch.RemoveJob(jobID)
	view.jobs.Remove(row)
	if len(view.batch.Jobs) == 0 {
		bg.removeBatch(view)
		return
	}
	bg.refreshHeader(view)
}

// ClearFinished removes batches whose jobs all reached a final state
func (bg *BatchGroup) ClearFinished() {
	for _, view := range append([]*batchView(nil), bg.batches...) {
		if view.batch.IsFinished() {
			for _, job := range view.batch.Jobs {
				delete(bg.rows, job.ID)
			}
			bg.removeBatch(view)
		}
	}
}

// Batch returns the displayed copy of a batch
func (bg *BatchGroup) Batch(batchID string) (*model.Batch, bool) {
	if view := bg.findBatch(batchID); view != nil {
		return view.batch, true
	}
	return nil, false
}

// JobCount returns the number of rows shown
func (bg *BatchGroup) JobCount() int {
	return len(bg.rows)
}

// BatchCount returns the number of batches shown
func (bg *BatchGroup) BatchCount() int {
	return len(bg.batches)
}

// HasActiveJobs reports whether any shown job is pending or running
func (bg *BatchGroup) HasActiveJobs() bool {
	for _, row := range bg.rows {
		if !row.Job().Status.IsFinished() {
			return true
		}
	}
	return false
}

// RefreshTexts re-renders rows and headers after a language change
func (bg *BatchGroup) RefreshTexts() {
	for _, view := range bg.batches {
		bg.refreshHeader(view)
	}
	for _, row := range bg.rows {
		row.UpdateJob(row.Job())
	}
}

func (bg *BatchGroup) findBatch(batchID string) *batchView {
	for _, view := range bg.batches {
		if view.batch.ID == batchID {
			return view
		}
	}
	return nil
}

func (bg *BatchGroup) removeBatch(view *batchView) {
	for i, v := range bg.batches {
		if v == view {
			bg.batches = append(bg.batches[:i], bg.batches[i+1:]...)
			break
		}
	}
	bg.list.Remove(view.card)
}

func (bg *BatchGroup) refreshHeader(view *batchView) {
	view.header.SetText(fmt.Sprintf("%s  %s", filepath.Base(view.batch.OutputDir), BatchSummary(view.batch, bg.localization)))
	view.progress.SetValue(view.batch.Progress())
}

// BatchSummary returns "2/5 completed" style text
func BatchSummary(batch *model.Batch, localization *Localization) string {
	counts := batch.Counts()
	return fmt.Sprintf("%d/%d %s", counts.Completed, counts.Total, localization.GetText(KeyBatchProgress))
}
