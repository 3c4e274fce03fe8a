package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// AppDirName is the per-user config directory name
const AppDirName = "dnxhd-transcoder"

// DefaultPresetsPath returns ~/.config/dnxhd-transcoder/presets.toml
func DefaultPresetsPath() (string, error) {
	return ExpandPath("~/.config/" + AppDirName + "/presets.toml")
}

// ExpandPath resolves a leading ~ and returns an absolute, cleaned path
func ExpandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}
