package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/davinciconvert/dnxhd-transcoder/internal/model"
)

//go:embed sample_presets.toml
var samplePresets string

// Preset is a named set of encode options
type Preset struct {
	Name              string  `toml:"name" yaml:"name"`
	Description       string  `toml:"description" yaml:"description"`
	Profile           string  `toml:"profile" yaml:"profile"`
	Container         string  `toml:"container" yaml:"container"`
	AudioDepth        int     `toml:"audio_depth" yaml:"audio_depth"`
	AudioChannels     int     `toml:"audio_channels" yaml:"audio_channels"`
	FPS               float64 `toml:"fps" yaml:"fps"`
	Timecode          string  `toml:"timecode" yaml:"timecode"`
	NormalizeLoudness bool    `toml:"normalize_loudness" yaml:"normalize_loudness"`
}

// PresetFile holds the presets file merged over the built-ins
type PresetFile struct {
	Path    string
	Loaded  bool // false when the file is missing and only built-ins apply
	Presets []Preset
}

type presetDocument struct {
	Presets []Preset `toml:"preset" yaml:"presets"`
}

// BuiltinPresets returns the presets available without a presets file
func BuiltinPresets() []Preset {
	return []Preset{
		{Name: "offline-edit", Description: "Small proxies for offline editing", Profile: "lb", Container: "mov", AudioDepth: 16, AudioChannels: 2},
		{Name: "mastering", Description: "10-bit 4:2:2 with 24-bit audio", Profile: "hqx", Container: "mov", AudioDepth: 24, AudioChannels: 2},
		{Name: "broadcast-mxf", Description: "HQ in MXF, loudness normalized to EBU R128", Profile: "hq", Container: "mxf", AudioDepth: 24, AudioChannels: 2, NormalizeLoudness: true},
	}
}

// Options converts the preset to validated encode options.
// Zero fields take the defaults.
func (p Preset) Options() (model.EncodeOptions, error) {
	opts := model.DefaultEncodeOptions()
	var errs []error

	profile, err := model.ParseProfile(p.Profile)
	if err != nil {
		errs = append(errs, fmt.Errorf("profile: %w", err))
	}
	opts.Profile = profile
	container, err := model.ParseContainer(p.Container)
	if err != nil {
		errs = append(errs, fmt.Errorf("container: %w", err))
	}
	opts.Container = container
	if p.AudioDepth != 0 {
		opts.AudioDepth = model.AudioDepth(p.AudioDepth)
	}
	if p.AudioChannels != 0 {
		opts.AudioChannels = p.AudioChannels
	}
	if p.FPS != 0 {
		opts.PreserveFPS = false
		opts.TargetFPS = p.FPS
	}
	if tc := strings.TrimSpace(p.Timecode); tc != "" {
		opts.SetTimecode = true
		opts.Timecode = tc
	}
	opts.NormalizeLoudness = p.NormalizeLoudness

	if len(errs) == 0 {
		if err := opts.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return model.EncodeOptions{}, fmt.Errorf("preset %q: %w", p.Name, errors.Join(errs...))
	}
	return opts, nil
}

// LoadPresets reads path, or the default presets path when empty.
// A missing file yields the built-in presets. Files ending in .yaml or
// .yml are read as YAML, everything else as TOML.
func LoadPresets(path string) (*PresetFile, error) {
	resolved := path
	var err error
	if strings.TrimSpace(resolved) == "" {
		resolved, err = DefaultPresetsPath()
	} else {
		resolved, err = ExpandPath(resolved)
	}
	if err != nil {
		return nil, err
	}

	pf := &PresetFile{Path: resolved}
	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			pf.Presets = BuiltinPresets()
			return pf, nil
		}
		return nil, fmt.Errorf("open presets: %w", err)
	}
	defer file.Close()

	var decoded presetDocument
	if err := decodePresets(file, resolved, &decoded); err != nil {
		return nil, err
	}
	if err := validatePresets(decoded.Presets); err != nil {
		return nil, err
	}
	pf.Loaded = true
	pf.Presets = mergePresets(BuiltinPresets(), decoded.Presets)
	return pf, nil
}

func decodePresets(r io.Reader, path string, out *presetDocument) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		decoder := yaml.NewDecoder(r)
		decoder.KnownFields(true)
		if err := decoder.Decode(out); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("parse presets: %w", err)
		}
	default:
		decoder := toml.NewDecoder(r)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(out); err != nil {
			return fmt.Errorf("parse presets: %w", err)
		}
	}
	return nil
}

func validatePresets(presets []Preset) error {
	var errs []error
	seen := make(map[string]bool, len(presets))
	for i, p := range presets {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			errs = append(errs, fmt.Errorf("preset #%d: name is required", i+1))
			continue
		}
		if seen[name] {
			errs = append(errs, fmt.Errorf("preset %q: defined more than once", name))
		}
		seen[name] = true
		if _, err := p.Options(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// mergePresets keeps base order and lets overrides replace same-named entries
func mergePresets(base, overrides []Preset) []Preset {
	merged := make([]Preset, 0, len(base)+len(overrides))
	index := make(map[string]int, len(base))
	for _, p := range base {
		index[p.Name] = len(merged)
		merged = append(merged, p)
	}
	for _, p := range overrides {
		p.Name = strings.TrimSpace(p.Name)
		if i, ok := index[p.Name]; ok {
			merged[i] = p
			continue
		}
		index[p.Name] = len(merged)
		merged = append(merged, p)
	}
	return merged
}

// Lookup returns the preset with the given name
func (pf *PresetFile) Lookup(name string) (Preset, bool) {
	name = strings.TrimSpace(name)
	for _, p := range pf.Presets {
		if p.Name == name {
			return p, true
		}
	}
	return Preset{}, false
}

// Names returns preset names sorted alphabetically
func (pf *PresetFile) Names() []string {
	names := make([]string, 0, len(pf.Presets))
	for _, p := range pf.Presets {
		names = append(names, p.Name)
	}
	sort.Strings(names)
	return names
}

// WriteSamplePresets writes the sample presets file to path.
// An existing file is left untouched.
func WriteSamplePresets(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("presets file already exists: %s", path)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create presets directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(samplePresets), 0o644); err != nil {
		return fmt.Errorf("write sample presets: %w", err)
	}
	return nil
}
