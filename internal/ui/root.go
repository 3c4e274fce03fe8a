package ui

import (
	"fmt"
	"image/color"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

	"github.com/davinciconvert/dnxhd-transcoder/internal/config"
	"github.com/davinciconvert/dnxhd-transcoder/internal/ffmpeg"
	"github.com/davinciconvert/dnxhd-transcoder/internal/model"
	"github.com/davinciconvert/dnxhd-transcoder/internal/platform"
	"github.com/davinciconvert/dnxhd-transcoder/internal/transcode"
)

// RootUI represents the main window
type RootUI struct {
	window       fyne.Window
	app          fyne.App
	svc          transcode.Transcoder
	settings     *config.Settings
	presets      *config.PresetFile
	localization *Localization
	logger       *slog.Logger

	selectFilesBtn *widget.Button
	outputBtn      *widget.Button
	startBtn       *widget.Button
	stopAllBtn     *widget.Button
	clearBtn       *widget.Button
	presetSelect   *widget.Select
	dropZoneBtn    *widget.Button
	inputsLabel    *widget.Label
	outputLabel    *widget.Label
	optionsPanel   *OptionsPanel
	batchGroup     *BatchGroup

	notificationContainer *fyne.Container
	notificationLabel     *widget.Label

	inputs          []string
	outputDir       string
	notifiedBatches map[string]bool
}

// NewRootUI creates and initializes the main UI
func NewRootUI(window fyne.Window, app fyne.App, svc transcode.Transcoder, settings *config.Settings, presets *config.PresetFile, logger *slog.Logger) *RootUI {
	if logger == nil {
		logger = slog.Default()
	}
	if presets == nil {
		presets = &config.PresetFile{Presets: config.BuiltinPresets()}
	}

	localization := NewLocalization()
	localization.SetLanguage(settings.GetLanguage())

	ui := &RootUI{
		window:          window,
		app:             app,
		svc:             svc,
		settings:        settings,
		presets:         presets,
		localization:    localization,
		logger:          logger.With(slog.String("component", "ui")),
		outputDir:       settings.GetOutputDirectory(),
		notifiedBatches: make(map[string]bool),
	}

	ui.batchGroup = NewBatchGroup(localization)
	ui.batchGroup.SetJobRowCallbacks(
		ui.onStopRestartJob,
		ui.onRevealFile,
		ui.onOpenFile,
		ui.onCopyPath,
		ui.onRemoveJob,
	)

	window.SetTitle(localization.GetText(KeyAppTitle))
	window.Resize(fyne.NewSize(WindowWidth, WindowHeight))
	window.SetOnDropped(ui.onDropped)

	ui.svc.SetUpdateCallback(ui.onJobUpdate)

	ui.setupUI()
	return ui
}

// ApplyTheme installs the compact theme with the configured variant
func ApplyTheme(app fyne.App, settings *config.Settings) {
	app.Settings().SetTheme(NewCompactThemeWithVariant(settings.GetThemeVariant()))
}

// setupUI creates and arranges all UI components
func (ui *RootUI) setupUI() {
	l := ui.localization
	ui.createMenu()

	ui.selectFilesBtn = widget.NewButton(l.GetText(KeySelectFiles), ui.onSelectFiles)
	ui.outputBtn = widget.NewButton(l.GetText(KeyOutputFolder), ui.onSelectOutput)
	ui.startBtn = widget.NewButton(l.GetText(KeyStart), ui.onStart)
	ui.startBtn.Importance = widget.HighImportance
	ui.stopAllBtn = widget.NewButton(l.GetText(KeyStopAll), ui.onStopAll)
	ui.stopAllBtn.Importance = widget.DangerImportance
	ui.clearBtn = widget.NewButton(l.GetText(KeyClear), ui.onClear)

	settingsBtn := widget.NewButton(IconSettings, ui.onShowSettings)
	settingsBtn.Importance = widget.LowImportance

	ui.presetSelect = widget.NewSelect(ui.presetOptions(), ui.onPresetSelected)
	ui.presetSelect.PlaceHolder = l.GetText(KeyPreset)

	topBar := container.NewBorder(nil, nil,
		container.NewHBox(settingsBtn, ui.selectFilesBtn, ui.outputBtn),
		container.NewHBox(ui.presetSelect, ui.startBtn, ui.stopAllBtn, ui.clearBtn),
	)

	ui.notificationLabel = widget.NewLabel("")
	ui.notificationLabel.Wrapping = fyne.TextWrapWord
	ui.notificationContainer = container.NewPadded(ui.notificationLabel)
	ui.notificationContainer.Hide()

	ui.dropZoneBtn = widget.NewButton(l.GetText(KeyDropHint), ui.onSelectFiles)
	ui.dropZoneBtn.Importance = widget.LowImportance
	dropSpacer := canvas.NewRectangle(color.Transparent)
	dropSpacer.SetMinSize(fyne.NewSize(0, DropZoneHeight))
	dropZone := container.NewStack(dropSpacer, widget.NewCard("", "", ui.dropZoneBtn))

	ui.inputsLabel = widget.NewLabel("")
	ui.inputsLabel.Truncation = fyne.TextTruncateEllipsis
	ui.outputLabel = widget.NewLabel("")
	ui.outputLabel.Truncation = fyne.TextTruncateEllipsis

	opts := ui.settings.LoadEncodeOptions()
	if ui.optionsPanel != nil {
		if current, err := ui.optionsPanel.Options(); err == nil {
			opts = current
		}
	}
	ui.optionsPanel = NewOptionsPanel(l, opts)
	ui.optionsPanel.SetOnChanged(ui.onOptionsChanged)

	if last := ui.settings.GetLastPreset(); last != "" {
		if _, ok := ui.presets.Lookup(last); ok {
			ui.presetSelect.Selected = last
		}
	}

	left := container.NewVBox(
		dropZone,
		ui.inputsLabel,
		ui.outputLabel,
		widget.NewSeparator(),
		ui.optionsPanel.Container(),
	)

	top := container.NewVBox(topBar, ui.notificationContainer)
	split := container.NewHSplit(container.NewVScroll(left), ui.batchGroup.Container())
	split.Offset = 0.38

	ui.window.SetContent(container.NewBorder(top, nil, nil, nil, split))
	ui.updateInputLabels()
	ui.updateControls()
}

// createMenu creates the application menu
func (ui *RootUI) createMenu() {
	l := ui.localization

	fileMenu := fyne.NewMenu(l.GetText(KeyFile),
		fyne.NewMenuItem(l.GetText(KeySelectFiles), ui.onSelectFiles),
		fyne.NewMenuItem(l.GetText(KeyOutputFolder), ui.onSelectOutput),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem(l.GetText(KeySettings), ui.onShowSettings),
	)

	languageMenu := fyne.NewMenu(l.GetText(KeyLanguage))
	languages := l.GetAvailableLanguages()
	codes := make([]string, 0, len(languages))
	for code := range languages {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		langCode := code
		item := fyne.NewMenuItem(languages[code], func() { ui.onLanguageChange(langCode) })
		item.Checked = l.GetCurrentLanguage() == code
		languageMenu.Items = append(languageMenu.Items, item)
	}

	ui.window.SetMainMenu(fyne.NewMainMenu(fileMenu, languageMenu))
}

// onLanguageChange handles language change
func (ui *RootUI) onLanguageChange(langCode string) {
	ui.localization.SetLanguage(langCode)
	ui.settings.SetLanguage(langCode)
	ui.refreshUITexts()
}

// refreshUITexts rebuilds the window content in the current language
func (ui *RootUI) refreshUITexts() {
	ui.window.SetTitle(ui.localization.GetText(KeyAppTitle))
	ui.setupUI()
	ui.batchGroup.RefreshTexts()
}

// ReportTools warns when ffmpeg is missing or lacks the dnxhd encoder
func (ui *RootUI) ReportTools(statuses []ffmpeg.ToolStatus) {
	for _, st := range statuses {
		if st.Name != ffmpeg.FFmpegName {
			continue
		}
		if !st.Available || !st.HasDNxHD {
			ui.logger.Warn("ffmpeg unusable", slog.String("command", st.Command), slog.String("detail", st.Detail))
			ui.showNotification(ui.localization.GetText(KeyToolsMissing))
		}
	}
}

func (ui *RootUI) presetOptions() []string {
	return append([]string{ui.localization.GetText(KeyPresetCustom)}, ui.presets.Names()...)
}

func (ui *RootUI) onPresetSelected(name string) {
	preset, ok := ui.presets.Lookup(name)
	if !ok {
		ui.settings.SetLastPreset("")
		return
	}
	opts, err := preset.Options()
	if err != nil {
		ui.showNotification(ui.localization.GetText(KeyInvalidOptions) + ": " + err.Error())
		return
	}
	ui.optionsPanel.SetOptions(opts)
	ui.settings.SetLastPreset(name)
	ui.settings.SaveEncodeOptions(opts)
}

func (ui *RootUI) onOptionsChanged(opts model.EncodeOptions) {
	ui.settings.SaveEncodeOptions(opts)
	if ui.presetSelect.Selected != "" && ui.presetSelect.Selected != ui.localization.GetText(KeyPresetCustom) {
		ui.presetSelect.SetSelected(ui.localization.GetText(KeyPresetCustom))
	}
}

// onSelectFiles opens a file dialog; each chosen file is added to the selection
func (ui *RootUI) onSelectFiles() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			dialog.ShowError(err, ui.window)
			return
		}
		if reader == nil {
			return
		}
		path := reader.URI().Path()
		_ = reader.Close()
		ui.addInputs([]string{path})
	}, ui.window)

	exts := make([]string, 0, len(platform.SupportedVideoExtensions)*2)
	for _, ext := range platform.SupportedVideoExtensions {
		exts = append(exts, ext, strings.ToUpper(ext))
	}
	fd.SetFilter(storage.NewExtensionFileFilter(exts))
	if dir, err := platform.GetHomeVideosDir(); err == nil {
		if lister, err := storage.ListerForURI(storage.NewFileURI(dir)); err == nil {
			fd.SetLocation(lister)
		}
	}
	fd.Show()
}

// onDropped handles files dropped on the window
func (ui *RootUI) onDropped(_ fyne.Position, uris []fyne.URI) {
	raw := make([]string, 0, len(uris))
	for _, uri := range uris {
		raw = append(raw, uri.String())
	}
	ui.addInputs(platform.PathsFromURIs(raw))
}

func (ui *RootUI) addInputs(paths []string) {
	videos, skipped := platform.FilterVideoFiles(append(append([]string(nil), ui.inputs...), paths...))
	ui.inputs = videos
	if len(skipped) > 0 {
		ui.logger.Info("skipped unsupported files", slog.Int("count", len(skipped)))
		ui.showNotification(fmt.Sprintf("%s: %d", ui.localization.GetText(KeySkippedFiles), len(skipped)))
	} else {
		ui.hideNotification()
	}
	ui.updateInputLabels()
	ui.updateControls()
}

func (ui *RootUI) onSelectOutput() {
	dialog.ShowFolderOpen(func(uri fyne.ListableURI, err error) {
		if err != nil || uri == nil {
			return
		}
		ui.outputDir = uri.Path()
		ui.updateInputLabels()
	}, ui.window)
}

func (ui *RootUI) updateInputLabels() {
	l := ui.localization
	switch len(ui.inputs) {
	case 0:
		ui.dropZoneBtn.SetText(l.GetText(KeyDropHint))
		ui.inputsLabel.SetText("")
	default:
		ui.dropZoneBtn.SetText(fmt.Sprintf("%d %s", len(ui.inputs), l.GetText(KeyFilesSelected)))
		names := make([]string, 0, len(ui.inputs))
		for _, in := range ui.inputs {
			names = append(names, filepath.Base(in))
		}
		ui.inputsLabel.SetText(strings.Join(names, ", "))
	}

	output := l.GetText(KeyOutputNotSelected)
	if ui.outputDir != "" {
		output = ui.outputDir
	}
	ui.outputLabel.SetText(l.GetText(KeyOutputLabel) + ": " + output)
}

func (ui *RootUI) updateControls() {
	if len(ui.inputs) > 0 {
		ui.startBtn.Enable()
	} else {
		ui.startBtn.Disable()
	}
	if ui.batchGroup.HasActiveJobs() {
		ui.stopAllBtn.Enable()
	} else {
		ui.stopAllBtn.Disable()
	}
}

// onStart validates the options and starts a batch over the selected files
func (ui *RootUI) onStart() {
	if len(ui.inputs) == 0 {
		ui.showNotification(ui.localization.GetText(KeyNoFiles))
		return
	}
	opts, err := ui.optionsPanel.Options()
	if err != nil {
		dialog.ShowError(fmt.Errorf("%s: %w", ui.localization.GetText(KeyInvalidOptions), err), ui.window)
		return
	}

	ui.svc.SetMaxParallel(ui.settings.GetMaxParallel())
	batch, err := ui.svc.StartBatch(ui.inputs, ui.outputDir, opts)
	if err != nil {
		ui.logger.Error("failed to start batch", slog.Any("error", err))
		dialog.ShowError(fmt.Errorf("%s: %w", ui.localization.GetText(KeyStartFailed), err), ui.window)
		return
	}

	ui.logger.Info("batch started",
		slog.String("batch_id", batch.ID),
		slog.Int("jobs", len(batch.Jobs)),
		slog.String("output_dir", batch.OutputDir),
	)
	ui.settings.SaveEncodeOptions(opts)
	ui.batchGroup.AddBatch(batch)
	ui.syncBatch(batch)
	ui.inputs = nil
	ui.hideNotification()
	ui.updateInputLabels()
	ui.updateControls()
}

// syncBatch applies state the jobs reached before their batch was shown
func (ui *RootUI) syncBatch(batch *model.Batch) {
	for _, job := range batch.Jobs {
		if current, ok := ui.svc.GetJob(job.ID); ok {
			ui.applyJobUpdate(current)
		}
	}
}

func (ui *RootUI) onStopAll() {
	ui.svc.StopAll()
}

func (ui *RootUI) onClear() {
	ui.inputs = nil
	ui.batchGroup.ClearFinished()
	ui.hideNotification()
	ui.updateInputLabels()
	ui.updateControls()
}

// onJobUpdate receives service callbacks from worker goroutines
func (ui *RootUI) onJobUpdate(job *model.TranscodeJob) {
	fyne.Do(func() {
		ui.applyJobUpdate(job)
	})
}

func (ui *RootUI) applyJobUpdate(job *model.TranscodeJob) {
	ui.batchGroup.UpdateJob(job)
	ui.updateControls()

	batch, ok := ui.batchGroup.Batch(job.BatchID)
	if !ok {
		return
	}
	if !batch.IsFinished() {
		delete(ui.notifiedBatches, batch.ID)
		return
	}
	if ui.notifiedBatches[batch.ID] {
		return
	}
	ui.notifiedBatches[batch.ID] = true
	ui.onBatchFinished(batch)
}

func (ui *RootUI) onBatchFinished(batch *model.Batch) {
	counts := batch.Counts()
	ui.logger.Info("batch finished",
		slog.String("batch_id", batch.ID),
		slog.Int("completed", counts.Completed),
		slog.Int("failed", counts.Failed),
		slog.Int("stopped", counts.Stopped),
	)

	title := ui.localization.GetText(KeyBatchCompleted)
	if batch.HasErrors() {
		title = ui.localization.GetText(KeyBatchFailed)
	}
	summary := BatchSummary(batch, ui.localization)

	if ui.settings.GetNotifyOnComplete() {
		ui.app.SendNotification(fyne.NewNotification(title, summary))
	}
	ui.showToastNotification(batch, title, summary)

	if ui.settings.GetAutoRevealOnComplete() && counts.Completed > 0 {
		if path := firstCompletedOutput(batch); path != "" {
			ui.onRevealFile(path)
		}
	}
}

func firstCompletedOutput(batch *model.Batch) string {
	for _, job := range batch.Jobs {
		if job.Status == model.TaskStatusCompleted && job.OutputPath != "" {
			return job.OutputPath
		}
	}
	return ""
}

// showToastNotification shows an in-app toast with Reveal and Open actions
func (ui *RootUI) showToastNotification(batch *model.Batch, title, summary string) {
	titleLabel := widget.NewLabel(title)
	titleLabel.TextStyle = fyne.TextStyle{Bold: true}
	messageLabel := widget.NewLabel(summary)
	messageLabel.Truncation = fyne.TextTruncateEllipsis

	output := firstCompletedOutput(batch)

	revealBtn := widget.NewButton(ui.localization.GetText(KeyReveal), func() {
		if output != "" {
			ui.onRevealFile(output)
		} else {
			ui.onRevealFile(batch.OutputDir)
		}
	})
	revealBtn.Importance = widget.HighImportance

	openBtn := widget.NewButton(ui.localization.GetText(KeyOpen), func() {
		ui.onOpenFile(output)
	})
	if output == "" {
		openBtn.Disable()
	}

	var toastPopup *widget.PopUp
	closeBtn := widget.NewButton(IconClose, func() {
		if toastPopup != nil {
			toastPopup.Hide()
		}
	})
	closeBtn.Importance = widget.LowImportance

	content := container.NewVBox(
		container.NewBorder(nil, nil, titleLabel, closeBtn),
		messageLabel,
		container.NewHBox(revealBtn, openBtn),
	)

	toastPopup = widget.NewPopUp(content, ui.window.Canvas())
	canvasSize := ui.window.Canvas().Size()
	toastPopup.Resize(fyne.NewSize(ToastWidth, ToastHeight))
	toastPopup.ShowAtPosition(fyne.NewPos(canvasSize.Width-ToastWidth-ToastMargin, ToastMargin))

	time.AfterFunc(ToastAutoHide, func() {
		fyne.Do(toastPopup.Hide)
	})
}

func (ui *RootUI) onStopRestartJob(jobID string) {
	job, ok := ui.svc.GetJob(jobID)
	if !ok {
		return
	}
	var err error
	if job.Status.IsFinished() {
		err = ui.svc.RestartJob(jobID)
	} else {
		err = ui.svc.StopJob(jobID)
	}
	if err != nil {
		ui.logger.Warn("job action failed", slog.String("job_id", jobID), slog.Any("error", err))
		ui.showNotification(ui.localization.GetText(KeyErrorStoppingJob) + ": " + err.Error())
	}
}

func (ui *RootUI) onRevealFile(filePath string) {
	if filePath == "" {
		return
	}
	if err := platform.OpenFileInManager(filePath); err != nil {
		ui.logger.Warn("reveal failed", slog.String("path", filePath), slog.Any("error", err))
		ui.showNotification(ui.localization.GetText(KeyErrorOpeningFile) + ": " + err.Error())
	}
}

func (ui *RootUI) onOpenFile(filePath string) {
	if filePath == "" {
		return
	}
	if err := platform.OpenFileWithDefaultApp(filePath); err != nil {
		ui.logger.Warn("open failed", slog.String("path", filePath), slog.Any("error", err))
		ui.showNotification(ui.localization.GetText(KeyErrorOpeningFile) + ": " + err.Error())
	}
}

func (ui *RootUI) onCopyPath(filePath string) {
	if filePath == "" {
		return
	}
	ui.app.Clipboard().SetContent(filePath)
	ui.showNotification(ui.localization.GetText(KeyPathCopied))
}

func (ui *RootUI) onRemoveJob(jobID string) {
	if err := ui.svc.RemoveJob(jobID); err != nil {
		ui.logger.Warn("remove failed", slog.String("job_id", jobID), slog.Any("error", err))
		ui.showNotification(err.Error())
		return
	}
	ui.batchGroup.RemoveJob(jobID)
	ui.updateControls()
}

func (ui *RootUI) onShowSettings() {
	ShowSettingsDialog(ui.window, ui.settings, ui.localization, func() {
		ui.outputDir = ui.settings.GetOutputDirectory()
		ui.svc.SetMaxParallel(ui.settings.GetMaxParallel())
		ApplyTheme(ui.app, ui.settings)
		ui.localization.SetLanguage(ui.settings.GetLanguage())
		ui.refreshUITexts()
	})
}

// showNotification displays a message under the top bar
func (ui *RootUI) showNotification(message string) {
	if ui.notificationLabel == nil {
		return
	}
	ui.notificationLabel.SetText(message)
	ui.notificationContainer.Show()
}

func (ui *RootUI) hideNotification() {
	if ui.notificationContainer == nil {
		return
	}
	ui.notificationContainer.Hide()
}
