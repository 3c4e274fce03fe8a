package config

import (
	"fyne.io/fyne/v2"

	"github.com/davinciconvert/dnxhd-transcoder/internal/model"
)

// ThemeVariant selects the light or dark palette
type ThemeVariant string

const (
	ThemeSystem ThemeVariant = "system"
	ThemeLight  ThemeVariant = "light"
	ThemeDark   ThemeVariant = "dark"
)

// Settings keys for Fyne preferences
const (
	KeyOutputDir          = "output_directory"
	KeyMaxParallel        = "max_parallel_jobs"
	KeyLanguage           = "app_language"
	KeyAutoRevealComplete = "auto_reveal_on_complete"
	KeyNotifyComplete     = "notify_on_complete"
	KeyThemeVariant       = "theme_variant"
	KeyLastPreset         = "last_preset"

	KeyProfile           = "encode_profile"
	KeyContainer         = "encode_container"
	KeyAudioDepth        = "encode_audio_depth"
	KeyAudioChannels     = "encode_audio_channels"
	KeyPreserveFPS       = "encode_preserve_fps"
	KeyTargetFPS         = "encode_target_fps"
	KeySetTimecode       = "encode_set_timecode"
	KeyTimecode          = "encode_timecode"
	KeyNormalizeLoudness = "encode_normalize_loudness"
)

// Default values
const (
	DefaultMaxParallel        = 1
	MinMaxParallel            = 1
	MaxMaxParallel            = 8
	DefaultLanguage           = "system"
	DefaultAutoRevealComplete = false
	DefaultNotifyComplete     = true
	DefaultThemeVariant       = ThemeSystem
)

// Settings manages application configuration
type Settings struct {
	app fyne.App
}

// NewSettings creates a new settings manager
func NewSettings(app fyne.App) *Settings {
	return &Settings{app: app}
}

// GetOutputDirectory returns the configured output directory.
// An empty value means next to the first input.
func (s *Settings) GetOutputDirectory() string {
	return s.app.Preferences().String(KeyOutputDir)
}

// SetOutputDirectory sets the output directory
func (s *Settings) SetOutputDirectory(dir string) {
	s.app.Preferences().SetString(KeyOutputDir, dir)
}

// GetMaxParallel returns the maximum number of parallel jobs
func (s *Settings) GetMaxParallel() int {
	value := s.app.Preferences().Int(KeyMaxParallel)
	if value <= 0 {
		s.SetMaxParallel(DefaultMaxParallel)
		return DefaultMaxParallel
	}
	return value
}

// SetMaxParallel sets the maximum number of parallel jobs
func (s *Settings) SetMaxParallel(count int) {
	if count < MinMaxParallel {
		count = MinMaxParallel
	}
	if count > MaxMaxParallel {
		count = MaxMaxParallel
	}
	s.app.Preferences().SetInt(KeyMaxParallel, count)
}

// GetLanguage returns the configured language
func (s *Settings) GetLanguage() string {
	lang := s.app.Preferences().String(KeyLanguage)
	if lang == "" {
		s.SetLanguage(DefaultLanguage)
		return DefaultLanguage
	}
	return lang
}

// SetLanguage sets the application language
func (s *Settings) SetLanguage(lang string) {
	s.app.Preferences().SetString(KeyLanguage, lang)
}

// GetLanguageOptions returns available language options
func (s *Settings) GetLanguageOptions() map[string]string {
	return map[string]string{
		"system": "System Default",
		"en":     "English",
		"ru":     "Русский",
		"pt":     "Português",
	}
}

// GetAutoRevealOnComplete returns whether to reveal outputs once a batch completes
func (s *Settings) GetAutoRevealOnComplete() bool {
	return s.app.Preferences().BoolWithFallback(KeyAutoRevealComplete, DefaultAutoRevealComplete)
}

// SetAutoRevealOnComplete sets whether to reveal outputs once a batch completes
func (s *Settings) SetAutoRevealOnComplete(autoReveal bool) {
	s.app.Preferences().SetBool(KeyAutoRevealComplete, autoReveal)
}

// GetNotifyOnComplete returns whether to send a desktop notification per batch
func (s *Settings) GetNotifyOnComplete() bool {
	return s.app.Preferences().BoolWithFallback(KeyNotifyComplete, DefaultNotifyComplete)
}

// SetNotifyOnComplete sets whether to send a desktop notification per batch
func (s *Settings) SetNotifyOnComplete(notify bool) {
	s.app.Preferences().SetBool(KeyNotifyComplete, notify)
}

// GetThemeVariant returns the selected theme variant
func (s *Settings) GetThemeVariant() ThemeVariant {
	switch v := ThemeVariant(s.app.Preferences().String(KeyThemeVariant)); v {
	case ThemeLight, ThemeDark, ThemeSystem:
		return v
	default:
		return DefaultThemeVariant
	}
}

// SetThemeVariant sets the theme variant
func (s *Settings) SetThemeVariant(v ThemeVariant) {
	s.app.Preferences().SetString(KeyThemeVariant, string(v))
}

// GetThemeVariantOptions returns the selectable theme variants
func (s *Settings) GetThemeVariantOptions() []ThemeVariant {
	return []ThemeVariant{ThemeSystem, ThemeLight, ThemeDark}
}

// GetLastPreset returns the preset selected last, or ""
func (s *Settings) GetLastPreset() string {
	return s.app.Preferences().String(KeyLastPreset)
}

// SetLastPreset remembers the selected preset
func (s *Settings) SetLastPreset(name string) {
	s.app.Preferences().SetString(KeyLastPreset, name)
}

// LoadEncodeOptions returns the options used last. Stored values that no
// longer parse fall back to defaults, and the result is normalized.
func (s *Settings) LoadEncodeOptions() model.EncodeOptions {
	prefs := s.app.Preferences()
	opts := model.DefaultEncodeOptions()

	if p, err := model.ParseProfile(prefs.String(KeyProfile)); err == nil {
		opts.Profile = p
	}
	if c, err := model.ParseContainer(prefs.String(KeyContainer)); err == nil {
		opts.Container = c
	}
	if d := model.AudioDepth(prefs.IntWithFallback(KeyAudioDepth, int(model.DefaultAudioDepth))); d.Valid() {
		opts.AudioDepth = d
	}
	channels := prefs.IntWithFallback(KeyAudioChannels, model.DefaultAudioChannels)
	for _, c := range model.AudioChannelOptions {
		if c == channels {
			opts.AudioChannels = channels
		}
	}
	opts.PreserveFPS = prefs.BoolWithFallback(KeyPreserveFPS, model.DefaultPreserveFPS)
	fps := prefs.FloatWithFallback(KeyTargetFPS, model.DefaultTargetFPS)
	if fps >= model.MinTargetFPS && fps <= model.MaxTargetFPS {
		opts.TargetFPS = fps
	}
	opts.SetTimecode = prefs.BoolWithFallback(KeySetTimecode, false)
	if tc := prefs.String(KeyTimecode); model.ValidateTimecode(tc, 0) == nil {
		opts.Timecode = tc
	}
	opts.NormalizeLoudness = prefs.BoolWithFallback(KeyNormalizeLoudness, false)
	return opts.Normalize()
}

// SaveEncodeOptions stores the options for the next session
func (s *Settings) SaveEncodeOptions(opts model.EncodeOptions) {
	prefs := s.app.Preferences()
	prefs.SetString(KeyProfile, string(opts.Profile))
	prefs.SetString(KeyContainer, string(opts.Container))
	prefs.SetInt(KeyAudioDepth, int(opts.AudioDepth))
	prefs.SetInt(KeyAudioChannels, opts.AudioChannels)
	prefs.SetBool(KeyPreserveFPS, opts.PreserveFPS)
	prefs.SetFloat(KeyTargetFPS, opts.TargetFPS)
	prefs.SetBool(KeySetTimecode, opts.SetTimecode)
	prefs.SetString(KeyTimecode, opts.Timecode)
	prefs.SetBool(KeyNormalizeLoudness, opts.NormalizeLoudness)
}
