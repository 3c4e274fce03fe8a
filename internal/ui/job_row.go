package ui

import (
	"fmt"
	"image/color"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"github.com/dustin/go-humanize"

	"github.com/davinciconvert/dnxhd-transcoder/internal/model"
)

// Progress display constants
const (
	MaxProgressPercent = 100
	MaxErrorTextLength = 120
)

// JobRow renders one transcode job: file name, status, progress and actions
type JobRow struct {
	widget.BaseWidget

	job          *model.TranscodeJob
	localization *Localization

	titleLabel   *widget.Label
	statusLabel  *widget.Label
	detailLabel  *widget.Label
	percentLabel *widget.Label
	progressBar  *widget.ProgressBar
	infiniteBar  *widget.ProgressBarInfinite

	stopRestartBtn *widget.Button
	revealBtn      *widget.Button
	openBtn        *widget.Button
	copyBtn        *widget.Button
	removeBtn      *widget.Button

	onStopRestart func(jobID string)
	onReveal      func(filePath string)
	onOpen        func(filePath string)
	onCopyPath    func(filePath string)
	onRemove      func(jobID string)
}

// NewJobRow creates a row for job
func NewJobRow(job *model.TranscodeJob, localization *Localization) *JobRow {
	if job == nil {
		job = &model.TranscodeJob{ID: "template", Status: model.TaskStatusPending, ETASec: -1}
	}

	jr := &JobRow{
		job:          job,
		localization: localization,
	}
	jr.ExtendBaseWidget(jr)
	jr.createUI()
	jr.updateFromJob()
	return jr
}

// SetCallbacks sets the action callbacks
func (jr *JobRow) SetCallbacks(
	onStopRestart func(jobID string),
	onReveal func(filePath string),
	onOpen func(filePath string),
	onCopyPath func(filePath string),
	onRemove func(jobID string),
) {
	jr.onStopRestart = onStopRestart
	jr.onReveal = onReveal
	jr.onOpen = onOpen
	jr.onCopyPath = onCopyPath
	jr.onRemove = onRemove
}

// UpdateJob updates the row with new job data
func (jr *JobRow) UpdateJob(job *model.TranscodeJob) {
	if job == nil {
		return
	}
	jr.job = job
	jr.updateFromJob()
	jr.Refresh()
}

// Job returns the job currently shown
func (jr *JobRow) Job() *model.TranscodeJob {
	return jr.job
}

func (jr *JobRow) createUI() {
	jr.titleLabel = widget.NewLabel("")
	jr.titleLabel.TextStyle = fyne.TextStyle{Bold: true}
	jr.titleLabel.Truncation = fyne.TextTruncateEllipsis

	jr.statusLabel = widget.NewLabel("")
	jr.statusLabel.Alignment = fyne.TextAlignLeading
	jr.percentLabel = widget.NewLabel("")
	jr.percentLabel.Alignment = fyne.TextAlignTrailing
	jr.detailLabel = widget.NewLabel("")
	jr.detailLabel.TextStyle = fyne.TextStyle{Monospace: true}
	jr.detailLabel.Truncation = fyne.TextTruncateEllipsis

	jr.progressBar = widget.NewProgressBar()
	jr.progressBar.TextFormatter = func() string { return "" }
	jr.infiniteBar = widget.NewProgressBarInfinite()
	jr.infiniteBar.Hide()

	jr.stopRestartBtn = widget.NewButton(jr.localization.GetText(KeyStop), func() {
		if jr.onStopRestart != nil {
			jr.onStopRestart(jr.job.ID)
		}
	})
	jr.revealBtn = widget.NewButton(jr.localization.GetText(KeyReveal), func() {
		if jr.onReveal != nil && jr.hasOutput() {
			jr.onReveal(jr.job.OutputPath)
		}
	})
	jr.openBtn = widget.NewButton(jr.localization.GetText(KeyOpen), func() {
		if jr.onOpen != nil && jr.hasOutput() {
			jr.onOpen(jr.job.OutputPath)
		}
	})
	jr.copyBtn = widget.NewButton(jr.localization.GetText(KeyCopyPath), func() {
		if jr.onCopyPath != nil && jr.job.OutputPath != "" {
			jr.onCopyPath(jr.job.OutputPath)
		}
	})
	jr.removeBtn = widget.NewButton(IconClose, func() {
		if jr.onRemove != nil {
			jr.onRemove(jr.job.ID)
		}
	})
	jr.removeBtn.Importance = widget.LowImportance
}

func (jr *JobRow) hasOutput() bool {
	return jr.job.Status == model.TaskStatusCompleted && jr.job.OutputPath != ""
}

// updateFromJob updates UI components based on job state
func (jr *JobRow) updateFromJob() {
	job := jr.job

	jr.titleLabel.SetText(sanitizeLine(job.GetDisplayTitle()))

	status := jr.localization.StatusText(job)
	switch job.Status {
	case model.TaskStatusError:
		jr.statusLabel.Importance = widget.DangerImportance
		status = IconError + " " + status
	case model.TaskStatusCompleted:
		jr.statusLabel.Importance = widget.SuccessImportance
		status = IconDone + " " + status
	case model.TaskStatusProbing, model.TaskStatusMeasuring, model.TaskStatusEncoding:
		jr.statusLabel.Importance = widget.HighImportance
		status = IconPlay + " " + status
	case model.TaskStatusStopping, model.TaskStatusStopped:
		jr.statusLabel.Importance = widget.MediumImportance
		status = IconStop + " " + status
	default:
		jr.statusLabel.Importance = widget.MediumImportance
		status = IconPending + " " + status
	}
	jr.statusLabel.SetText(status)

	if job.Indeterminate && job.Status.IsActive() {
		jr.progressBar.Hide()
		jr.infiniteBar.Show()
		jr.infiniteBar.Start()
		jr.percentLabel.SetText("")
	} else {
		jr.infiniteBar.Stop()
		jr.infiniteBar.Hide()
		jr.progressBar.Show()
		percent := displayPercent(job)
		jr.progressBar.SetValue(float64(percent) / MaxProgressPercent)
		jr.percentLabel.SetText(fmt.Sprintf(ProgressLabelFormat, percent))
	}

	jr.detailLabel.SetText(jobDetailText(job))
	jr.updateButtons()
}

func (jr *JobRow) updateButtons() {
	job := jr.job

	switch {
	case job.Status.IsFinished():
		jr.stopRestartBtn.SetText(jr.localization.GetText(KeyRestart))
		jr.stopRestartBtn.Enable()
	case job.Status == model.TaskStatusStopping:
		jr.stopRestartBtn.SetText(jr.localization.GetText(KeyStop))
		jr.stopRestartBtn.Disable()
	default:
		jr.stopRestartBtn.SetText(jr.localization.GetText(KeyStop))
		jr.stopRestartBtn.Enable()
	}

	for _, btn := range []*widget.Button{jr.revealBtn, jr.openBtn, jr.copyBtn} {
		if jr.hasOutput() {
			btn.Enable()
		} else {
			btn.Disable()
		}
	}

	if job.Status.IsActive() {
		jr.removeBtn.Disable()
	} else {
		jr.removeBtn.Enable()
	}
}

// displayPercent returns the bar value in percent. Completed jobs show full.
func displayPercent(job *model.TranscodeJob) int {
	if job.Status == model.TaskStatusCompleted {
		return MaxProgressPercent
	}
	percent := job.Percent
	if percent <= 0 && job.Progress > 0 {
		percent = int(job.Progress * MaxProgressPercent)
	}
	if percent < 0 {
		return 0
	}
	if percent > MaxProgressPercent {
		return MaxProgressPercent
	}
	return percent
}

// jobDetailText returns the secondary line: speed and ETA while running,
// the failure reason, or the output size once done
func jobDetailText(job *model.TranscodeJob) string {
	switch {
	case job.Status == model.TaskStatusEncoding || job.Status == model.TaskStatusMeasuring:
		parts := make([]string, 0, 2)
		if job.Speed != "" {
			parts = append(parts, job.Speed)
		}
		if job.ETASec > 0 {
			parts = append(parts, job.GetETAString())
		}
		if len(parts) == 0 {
			return DashPlaceholder
		}
		return strings.Join(parts, MiddleDotSeparator)
	case job.Status == model.TaskStatusError:
		return truncate(sanitizeLine(job.LastError), MaxErrorTextLength)
	case job.Status == model.TaskStatusCompleted:
		parts := []string{}
		if job.OutputSize > 0 {
			parts = append(parts, humanize.Bytes(uint64(job.OutputSize)))
		}
		if elapsed := job.Elapsed(); elapsed > 0 {
			parts = append(parts, elapsed.Round(time.Second).String())
		}
		return strings.Join(parts, MiddleDotSeparator)
	default:
		return ""
	}
}

func sanitizeLine(s string) string {
	s = strings.NewReplacer("\n", " ", "\r", " ", "\t", " ").Replace(s)
	return strings.TrimSpace(s)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}

// CreateRenderer creates the widget renderer
func (jr *JobRow) CreateRenderer() fyne.WidgetRenderer {
	return &jobRowRenderer{jobRow: jr}
}

type jobRowRenderer struct {
	jobRow *JobRow
	layout *fyne.Container
}

func (r *jobRowRenderer) Layout(size fyne.Size) {
	if r.layout == nil {
		r.createLayout()
	}
	r.layout.Resize(size)
}

func (r *jobRowRenderer) MinSize() fyne.Size {
	if r.layout == nil {
		r.createLayout()
	}
	min := r.layout.MinSize()
	return fyne.NewSize(fyne.Max(min.Width, RowMinWidth), fyne.Max(min.Height, RowMinHeight))
}

func (r *jobRowRenderer) Refresh() {
	if r.layout == nil {
		r.createLayout()
	}
	r.layout.Refresh()
}

func (r *jobRowRenderer) Objects() []fyne.CanvasObject {
	if r.layout == nil {
		r.createLayout()
	}
	return []fyne.CanvasObject{r.layout}
}

func (r *jobRowRenderer) Destroy() {
	r.jobRow.infiniteBar.Stop()
}

func (r *jobRowRenderer) createLayout() {
	jr := r.jobRow

	fixedWidth := func(w float32, obj fyne.CanvasObject) fyne.CanvasObject {
		spacer := canvas.NewRectangle(color.Transparent)
		spacer.SetMinSize(fyne.NewSize(w, obj.MinSize().Height))
		return container.NewStack(spacer, obj)
	}

	bars := container.NewStack(jr.progressBar, jr.infiniteBar)
	progressRow := container.NewHBox(
		fixedWidth(ProgressBarWidth, bars),
		fixedWidth(PercentLabelWidth, jr.percentLabel),
		fixedWidth(StatusLabelWidth, jr.statusLabel),
	)

	info := container.NewVBox(
		jr.titleLabel,
		container.NewBorder(nil, nil, progressRow, nil, jr.detailLabel),
	)

	actions := container.NewHBox(jr.stopRestartBtn, jr.revealBtn, jr.openBtn, jr.copyBtn, jr.removeBtn)

	r.layout = container.NewVBox(
		container.NewBorder(nil, nil, nil, container.NewCenter(actions), info),
		widget.NewSeparator(),
	)
}
