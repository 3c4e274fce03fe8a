package ui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"github.com/davinciconvert/dnxhd-transcoder/internal/model"
)

var errFPSRange = fmt.Errorf("fps must be between %.0f and %.0f", model.MinTargetFPS, model.MaxTargetFPS)

// OptionsPanel holds the encode option widgets shared by every file of a batch
type OptionsPanel struct {
	localization *Localization

	profileSelect   *widget.Select
	containerSelect *widget.Select
	depthSelect     *widget.Select
	channelsSelect  *widget.Select
	preserveFPS     *widget.Check
	fpsEntry        *widget.Entry
	timecodeCheck   *widget.Check
	timecodeEntry   *widget.Entry
	normalizeCheck  *widget.Check
	mxfNote         *widget.Label

	container *fyne.Container

	opts      model.EncodeOptions
	updating  bool
	onChanged func(model.EncodeOptions)
}

// NewOptionsPanel creates the panel showing opts
func NewOptionsPanel(localization *Localization, opts model.EncodeOptions) *OptionsPanel {
	p := &OptionsPanel{localization: localization}
	p.createUI()
	p.SetOptions(opts)
	return p
}

// Container returns the panel's root object
func (p *OptionsPanel) Container() *fyne.Container {
	return p.container
}

// SetOnChanged registers a callback fired after every user edit that leaves
// the options valid
func (p *OptionsPanel) SetOnChanged(fn func(model.EncodeOptions)) {
	p.onChanged = fn
}

func (p *OptionsPanel) createUI() {
	p.profileSelect = widget.NewSelect(profileLabels(), func(label string) {
		if profile, ok := model.ProfileFromLabel(label); ok {
			p.edit(func(o *model.EncodeOptions) { o.Profile = profile })
		}
	})
	p.containerSelect = widget.NewSelect(containerLabels(), func(label string) {
		if c, err := model.ParseContainer(label); err == nil {
			p.edit(func(o *model.EncodeOptions) { o.Container = c })
		}
	})
	p.depthSelect = widget.NewSelect(depthLabels(), func(label string) {
		for _, d := range model.AudioDepths() {
			if d.Label() == label {
				p.edit(func(o *model.EncodeOptions) { o.AudioDepth = d })
				return
			}
		}
	})
	p.channelsSelect = widget.NewSelect(channelLabels(), func(label string) {
		if ch, ok := parseChannelLabel(label); ok {
			p.edit(func(o *model.EncodeOptions) { o.AudioChannels = ch })
		}
	})

	p.preserveFPS = widget.NewCheck("", func(checked bool) {
		p.edit(func(o *model.EncodeOptions) { o.PreserveFPS = checked })
	})
	p.fpsEntry = widget.NewEntry()
	p.fpsEntry.Validator = func(text string) error {
		_, err := ParseFPS(text)
		return err
	}
	p.fpsEntry.OnChanged = func(text string) {
		if fps, err := ParseFPS(text); err == nil {
			p.edit(func(o *model.EncodeOptions) { o.TargetFPS = fps })
		}
	}

	p.timecodeCheck = widget.NewCheck("", func(checked bool) {
		p.edit(func(o *model.EncodeOptions) { o.SetTimecode = checked })
	})
	p.timecodeEntry = widget.NewEntry()
	p.timecodeEntry.SetPlaceHolder(model.DefaultTimecode)
	p.timecodeEntry.Validator = func(text string) error {
		return model.ValidateTimecode(strings.TrimSpace(text), 0)
	}
	p.timecodeEntry.OnChanged = func(text string) {
		text = strings.TrimSpace(text)
		if model.ValidateTimecode(text, 0) == nil {
			p.edit(func(o *model.EncodeOptions) { o.Timecode = text })
		}
	}

	p.normalizeCheck = widget.NewCheck("", func(checked bool) {
		p.edit(func(o *model.EncodeOptions) { o.NormalizeLoudness = checked })
	})

	p.mxfNote = widget.NewLabel("")
	p.mxfNote.Importance = widget.WarningImportance
	p.mxfNote.Hide()

	form := widget.NewForm()
	form.Append(p.localization.GetText(KeyProfile), p.profileSelect)
	form.Append(p.localization.GetText(KeyContainer), p.containerSelect)
	form.Append(p.localization.GetText(KeyAudioDepth), container.NewGridWithColumns(2, p.depthSelect, p.channelsSelect))
	form.Append(p.localization.GetText(KeyFPS), container.NewBorder(nil, nil, p.preserveFPS, nil, p.fpsEntry))
	form.Append(p.localization.GetText(KeyTimecode), container.NewBorder(nil, nil, p.timecodeCheck, nil, p.timecodeEntry))

	p.container = container.NewVBox(form, p.normalizeCheck, p.mxfNote)
	p.RefreshTexts()
}

// RefreshTexts re-applies localized labels
func (p *OptionsPanel) RefreshTexts() {
	p.preserveFPS.Text = p.localization.GetText(KeyPreserveFPS)
	p.preserveFPS.Refresh()
	p.timecodeCheck.Text = p.localization.GetText(KeyDefineTimecode)
	p.timecodeCheck.Refresh()
	p.normalizeCheck.Text = p.localization.GetText(KeyNormalize)
	p.normalizeCheck.Refresh()
	p.mxfNote.SetText(p.localization.GetText(KeyMXFNote))
}

// SetOptions replaces the panel state
func (p *OptionsPanel) SetOptions(opts model.EncodeOptions) {
	p.opts = opts.Normalize()
	p.render()
}

// Options returns the current options after validating the free-text fields
func (p *OptionsPanel) Options() (model.EncodeOptions, error) {
	opts := p.opts
	var errs []error
	if !opts.PreserveFPS {
		fps, err := ParseFPS(p.fpsEntry.Text)
		if err != nil {
			errs = append(errs, err)
		} else {
			opts.TargetFPS = fps
		}
	}
	if opts.SetTimecode {
		opts.Timecode = strings.TrimSpace(p.timecodeEntry.Text)
	}
	if err := errors.Join(errs...); err != nil {
		return opts, err
	}
	opts = opts.Normalize()
	if err := opts.Validate(); err != nil {
		return opts, err
	}
	return opts, nil
}

func (p *OptionsPanel) edit(mutate func(*model.EncodeOptions)) {
	if p.updating {
		return
	}
	mutate(&p.opts)
	p.opts = p.opts.Normalize()
	p.render()
	if p.onChanged != nil {
		p.onChanged(p.opts)
	}
}

func (p *OptionsPanel) render() {
	p.updating = true
	defer func() { p.updating = false }()

	p.profileSelect.SetSelected(p.opts.Profile.Label())
	p.channelsSelect.SetSelected(model.ChannelLabel(p.opts.AudioChannels))

	p.containerSelect.SetSelected(containerLabel(p.opts.Container))
	p.depthSelect.SetSelected(p.opts.AudioDepth.Label())

	p.preserveFPS.SetChecked(p.opts.PreserveFPS)
	if fps, err := ParseFPS(p.fpsEntry.Text); err != nil || fps != p.opts.TargetFPS {
		p.fpsEntry.SetText(formatFPS(p.opts.TargetFPS))
	}
	p.timecodeCheck.SetChecked(p.opts.SetTimecode)
	if p.timecodeEntry.Text != p.opts.Timecode {
		p.timecodeEntry.SetText(p.opts.Timecode)
	}
	p.normalizeCheck.SetChecked(p.opts.NormalizeLoudness)

	if p.opts.Rules().SampleRate > 0 {
		p.mxfNote.Show()
	} else {
		p.mxfNote.Hide()
	}
	p.syncEntries()
}

func (p *OptionsPanel) syncEntries() {
	if !p.opts.PreserveFPS {
		p.fpsEntry.Enable()
	} else {
		p.fpsEntry.Disable()
	}
	if p.opts.SetTimecode {
		p.timecodeEntry.Enable()
	} else {
		p.timecodeEntry.Disable()
	}
}

// ParseFPS parses a frame rate entry limited to the supported range
func ParseFPS(text string) (float64, error) {
	text = strings.TrimSpace(strings.ReplaceAll(text, ",", "."))
	if text == "" {
		return 0, errFPSRange
	}
	fps, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid fps %q", text)
	}
	if fps < model.MinTargetFPS || fps > model.MaxTargetFPS {
		return 0, errFPSRange
	}
	return fps, nil
}

func formatFPS(fps float64) string {
	return strconv.FormatFloat(fps, 'f', -1, 64)
}

func containerLabels() []string {
	labels := make([]string, 0, len(model.Containers()))
	for _, c := range model.Containers() {
		labels = append(labels, containerLabel(c))
	}
	return labels
}

func containerLabel(c model.Container) string {
	return strings.ToUpper(string(c))
}

func profileLabels() []string {
	labels := make([]string, 0, len(model.Profiles()))
	for _, profile := range model.Profiles() {
		labels = append(labels, profile.Label())
	}
	return labels
}

func channelLabels() []string {
	labels := make([]string, 0, len(model.AudioChannelOptions))
	for _, ch := range model.AudioChannelOptions {
		labels = append(labels, model.ChannelLabel(ch))
	}
	return labels
}

func depthLabels() []string {
	labels := make([]string, 0, len(model.AudioDepths()))
	for _, d := range model.AudioDepths() {
		labels = append(labels, d.Label())
	}
	return labels
}

func parseChannelLabel(label string) (int, bool) {
	for _, ch := range model.AudioChannelOptions {
		if model.ChannelLabel(ch) == label {
			return ch, true
		}
	}
	return 0, false
}
