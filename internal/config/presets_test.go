package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/davinciconvert/dnxhd-transcoder/internal/model"
)

func TestLoadPresets_MissingFileUsesBuiltins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.toml")
	pf, err := LoadPresets(path)
	if err != nil {
		t.Fatalf("LoadPresets() error = %v", err)
	}
	if pf.Loaded {
		t.Error("Missing file should not be reported as loaded")
	}
	expected := []string{"broadcast-mxf", "mastering", "offline-edit"}
	if !reflect.DeepEqual(pf.Names(), expected) {
		t.Errorf("Names() = %v, expected %v", pf.Names(), expected)
	}
}

func TestLoadPresets_TOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.toml")
	content := `
[[preset]]
name = "mastering"
profile = "444"
audio_depth = 24
audio_channels = 8

[[preset]]
name = "dailies"
profile = "sq"
fps = 24
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	pf, err := LoadPresets(path)
	if err != nil {
		t.Fatalf("LoadPresets() error = %v", err)
	}
	if !pf.Loaded || pf.Path != path {
		t.Errorf("PresetFile = %+v", pf)
	}

	mastering, ok := pf.Lookup("mastering")
	if !ok {
		t.Fatal("mastering preset missing")
	}
	opts, err := mastering.Options()
	if err != nil {
		t.Fatalf("Options() error = %v", err)
	}
	if opts.Profile != model.Profile444 || opts.AudioChannels != 8 {
		t.Errorf("File preset should override the built-in, got %+v", opts)
	}

	dailies, ok := pf.Lookup("dailies")
	if !ok {
		t.Fatal("dailies preset missing")
	}
	opts, err = dailies.Options()
	if err != nil {
		t.Fatalf("Options() error = %v", err)
	}
	if opts.PreserveFPS || opts.TargetFPS != 24 || opts.Profile != model.ProfileSQ {
		t.Errorf("dailies options = %+v", opts)
	}
	if len(pf.Presets) != 4 {
		t.Errorf("Expected 3 built-ins plus 1 new preset, got %d", len(pf.Presets))
	}
}

func TestLoadPresets_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.yaml")
	content := `presets:
  - name: archive
    profile: hqx
    container: mxf
    audio_depth: 24
    audio_channels: 4
    timecode: "01:00:00:00"
    normalize_loudness: true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	pf, err := LoadPresets(path)
	if err != nil {
		t.Fatalf("LoadPresets() error = %v", err)
	}
	archive, ok := pf.Lookup("archive")
	if !ok {
		t.Fatal("archive preset missing")
	}
	opts, err := archive.Options()
	if err != nil {
		t.Fatalf("Options() error = %v", err)
	}
	expected := model.EncodeOptions{
		Profile:           model.ProfileHQX,
		Container:         model.ContainerMXF,
		AudioDepth:        model.AudioDepth24,
		AudioChannels:     4,
		PreserveFPS:       true,
		TargetFPS:         model.DefaultTargetFPS,
		SetTimecode:       true,
		Timecode:          "01:00:00:00",
		NormalizeLoudness: true,
	}
	if opts != expected {
		t.Errorf("Options() = %+v, expected %+v", opts, expected)
	}
}

func TestLoadPresets_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		wantSub string
	}{
		{"bad profile", "p.toml", "[[preset]]\nname = \"x\"\nprofile = \"prores\"\n", "profile"},
		{"bad channels", "p.toml", "[[preset]]\nname = \"x\"\naudio_channels = 6\n", "audio_channels"},
		{"missing name", "p.toml", "[[preset]]\nprofile = \"hq\"\n", "name is required"},
		{"duplicate", "p.toml", "[[preset]]\nname = \"x\"\n[[preset]]\nname = \"x\"\n", "more than once"},
		{"unknown field", "p.toml", "[[preset]]\nname = \"x\"\nbitrate = 10\n", "parse presets"},
		{"bad yaml", "p.yml", "presets: [\n", "parse presets"},
	}

	for _, test := range tests {
		path := filepath.Join(t.TempDir(), test.file)
		if err := os.WriteFile(path, []byte(test.content), 0o644); err != nil {
			t.Fatal(err)
		}
		_, err := LoadPresets(path)
		if err == nil {
			t.Errorf("%s: expected error", test.name)
			continue
		}
		if !strings.Contains(err.Error(), test.wantSub) {
			t.Errorf("%s: error %q does not mention %q", test.name, err, test.wantSub)
		}
	}
}

func TestBuiltinPresetsAreValid(t *testing.T) {
	for _, p := range BuiltinPresets() {
		if _, err := p.Options(); err != nil {
			t.Errorf("Built-in preset %s invalid: %v", p.Name, err)
		}
	}
}

func TestWriteSamplePresets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "presets.toml")
	if err := WriteSamplePresets(path); err != nil {
		t.Fatalf("WriteSamplePresets() error = %v", err)
	}
	if err := WriteSamplePresets(path); err == nil {
		t.Error("Second write should refuse to overwrite")
	}

	pf, err := LoadPresets(path)
	if err != nil {
		t.Fatalf("Sample presets should load: %v", err)
	}
	if _, ok := pf.Lookup("resolve-25p"); !ok {
		t.Error("Sample preset resolve-25p missing")
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	got, err := ExpandPath("~/presets.toml")
	if err != nil {
		t.Fatalf("ExpandPath() error = %v", err)
	}
	if got != filepath.Join(home, "presets.toml") {
		t.Errorf("ExpandPath() = %s", got)
	}

	if got, _ := ExpandPath(""); got != "" {
		t.Errorf("ExpandPath(\"\") = %q, expected empty", got)
	}
	if got, _ := ExpandPath("relative/dir"); !filepath.IsAbs(got) {
		t.Errorf("ExpandPath() should return an absolute path, got %s", got)
	}
}
