package ui

import (
	"sort"
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/davinciconvert/dnxhd-transcoder/internal/config"
	"github.com/davinciconvert/dnxhd-transcoder/internal/transcode"
)

// SettingsDialog represents the settings configuration dialog
type SettingsDialog struct {
	settings     *config.Settings
	localization *Localization
	window       fyne.Window
	dialog       *dialog.ConfirmDialog
	onSaved      func()

	outputDirEntry   *widget.Entry
	maxParallelEntry *widget.Entry
	languageSelect   *widget.Select
	themeSelect      *widget.Select
	autoRevealCheck  *widget.Check
	notifyCheck      *widget.Check

	languageCodes map[string]string // display name -> code
}

// NewSettingsDialog creates a new settings dialog
func NewSettingsDialog(settings *config.Settings, localization *Localization, window fyne.Window, onSaved func()) *SettingsDialog {
	sd := &SettingsDialog{
		settings:     settings,
		localization: localization,
		window:       window,
		onSaved:      onSaved,
	}

	sd.createUI()
	return sd
}

// ShowSettingsDialog builds and shows the dialog
func ShowSettingsDialog(window fyne.Window, settings *config.Settings, localization *Localization, onSaved func()) {
	NewSettingsDialog(settings, localization, window, onSaved).Show()
}

// Show displays the settings dialog
func (sd *SettingsDialog) Show() {
	sd.loadCurrentSettings()
	sd.dialog.Show()
}

func (sd *SettingsDialog) createUI() {
	l := sd.localization

	sd.outputDirEntry = widget.NewEntry()
	sd.outputDirEntry.SetPlaceHolder(l.GetText(KeyOutputNotSelected))
	browseDirBtn := widget.NewButton(l.GetText(KeyBrowse), sd.onBrowseDirectory)
	outputDirRow := container.NewBorder(nil, nil, nil, browseDirBtn, sd.outputDirEntry)

	sd.maxParallelEntry = widget.NewEntry()
	sd.maxParallelEntry.SetPlaceHolder(strconv.Itoa(transcode.MinParallel) + "-" + strconv.Itoa(transcode.MaxParallel))
	sd.maxParallelEntry.Validator = func(text string) error {
		_, err := parseParallel(text)
		return err
	}

	sd.languageCodes = make(map[string]string)
	names := make([]string, 0)
	for code, name := range sd.settings.GetLanguageOptions() {
		sd.languageCodes[name] = code
		names = append(names, name)
	}
	sort.Strings(names)
	sd.languageSelect = widget.NewSelect(names, nil)

	themes := make([]string, 0)
	for _, v := range sd.settings.GetThemeVariantOptions() {
		themes = append(themes, string(v))
	}
	sd.themeSelect = widget.NewSelect(themes, nil)

	sd.autoRevealCheck = widget.NewCheck(l.GetText(KeyAutoReveal), nil)
	sd.notifyCheck = widget.NewCheck(l.GetText(KeyNotifyComplete), nil)

	form := widget.NewForm(
		widget.NewFormItem(l.GetText(KeyOutputDirectory), outputDirRow),
		widget.NewFormItem(l.GetText(KeyMaxParallel), sd.maxParallelEntry),
		widget.NewFormItem(l.GetText(KeyLanguage), sd.languageSelect),
		widget.NewFormItem(l.GetText(KeyTheme), sd.themeSelect),
	)
	content := container.NewVBox(form, sd.autoRevealCheck, sd.notifyCheck)

	sd.dialog = dialog.NewCustomConfirm(
		l.GetText(KeySettings),
		l.GetText(KeySave),
		l.GetText(KeyCancel),
		content,
		sd.onSave,
		sd.window,
	)
	sd.dialog.Resize(fyne.NewSize(SettingsDialogWidth, SettingsDialogHeight))
}

func (sd *SettingsDialog) loadCurrentSettings() {
	sd.outputDirEntry.SetText(sd.settings.GetOutputDirectory())
	sd.maxParallelEntry.SetText(strconv.Itoa(sd.settings.GetMaxParallel()))
	sd.languageSelect.SetSelected(sd.settings.GetLanguageOptions()[sd.settings.GetLanguage()])
	sd.themeSelect.SetSelected(string(sd.settings.GetThemeVariant()))
	sd.autoRevealCheck.SetChecked(sd.settings.GetAutoRevealOnComplete())
	sd.notifyCheck.SetChecked(sd.settings.GetNotifyOnComplete())
}

func (sd *SettingsDialog) onBrowseDirectory() {
	dialog.ShowFolderOpen(func(uri fyne.ListableURI, err error) {
		if err != nil || uri == nil {
			return
		}
		sd.outputDirEntry.SetText(uri.Path())
	}, sd.window)
}

func (sd *SettingsDialog) onSave(confirmed bool) {
	if !confirmed {
		return
	}
	sd.apply()
	dialog.ShowInformation(sd.localization.GetText(KeySettings), sd.localization.GetText(KeySettingsSaved), sd.window)
	if sd.onSaved != nil {
		sd.onSaved()
	}
}

// apply stores the widget values. An empty output directory means "next to
// the first input".
func (sd *SettingsDialog) apply() {
	sd.settings.SetOutputDirectory(sd.outputDirEntry.Text)

	if n, err := parseParallel(sd.maxParallelEntry.Text); err == nil {
		sd.settings.SetMaxParallel(n)
	}
	if code, ok := sd.languageCodes[sd.languageSelect.Selected]; ok {
		sd.settings.SetLanguage(code)
	}
	if sd.themeSelect.Selected != "" {
		sd.settings.SetThemeVariant(config.ThemeVariant(sd.themeSelect.Selected))
	}
	sd.settings.SetAutoRevealOnComplete(sd.autoRevealCheck.Checked)
	sd.settings.SetNotifyOnComplete(sd.notifyCheck.Checked)
}

func parseParallel(text string) (int, error) {
	n, err := strconv.Atoi(text)
	if err != nil {
		return 0, err
	}
	if n < transcode.MinParallel || n > transcode.MaxParallel {
		return 0, strconv.ErrRange
	}
	return n, nil
}
