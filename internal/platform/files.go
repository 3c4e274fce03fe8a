package platform

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// Operating system constants
const (
	OSDarwin  = "darwin"
	OSWindows = "windows"
	OSLinux   = "linux"
)

// File permissions
const (
	DefaultDirPermissions = 0755
)

// Command constants
const (
	OpenCommand     = "open"
	ExplorerCommand = "explorer"
	XDGOpenCommand  = "xdg-open"
	CmdCommand      = "cmd"
	StartCommand    = "start"
)

// Command parameters
const (
	MacOSSelectFlag    = "-R"
	WindowsSelectParam = "/select,"
	WindowsCmdFlag     = "/c"
)

// Application directory and log file names
const (
	AppDirName  = "dnxhd-transcoder"
	LogFileName = "dnxhd-transcoder.log"
)

// File manager names
var (
	LinuxFileManagers = []string{"nautilus", "dolphin", "thunar", "nemo", "pcmanfm"}
)

// ErrUnsupportedOS is returned when no open/reveal command exists for the OS
var ErrUnsupportedOS = errors.New("unsupported operating system")

// execCommand starts a detached helper process. Replaced in tests.
var execCommand = func(name string, args ...string) error {
	return exec.Command(name, args...).Run()
}

// OpenFileInManager opens the file in the system file manager and highlights it.
// Directories are opened directly.
func OpenFileInManager(filePath string) error {
	absPath, err := existingAbsPath(filePath)
	if err != nil {
		return err
	}

	switch runtime.GOOS {
	case OSDarwin:
		return execCommand(OpenCommand, MacOSSelectFlag, absPath)
	case OSWindows:
		return execCommand(ExplorerCommand, WindowsSelectParam+absPath)
	case OSLinux:
		return openInManagerLinux(absPath)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedOS, runtime.GOOS)
	}
}

// openInManagerLinux opens the directory containing the file.
// Selection is not standardized on Linux.
func openInManagerLinux(path string) error {
	dir := path
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		dir = filepath.Dir(path)
	}

	if err := execCommand(XDGOpenCommand, dir); err == nil {
		return nil
	}

	for _, fm := range LinuxFileManagers {
		if _, err := exec.LookPath(fm); err == nil {
			return execCommand(fm, dir)
		}
	}

	return fmt.Errorf("no suitable file manager found")
}

// OpenFileWithDefaultApp opens the file with the default system application
func OpenFileWithDefaultApp(filePath string) error {
	absPath, err := existingAbsPath(filePath)
	if err != nil {
		return err
	}

	switch runtime.GOOS {
	case OSDarwin:
		return execCommand(OpenCommand, absPath)
	case OSWindows:
		return execCommand(CmdCommand, WindowsCmdFlag, StartCommand, "", absPath)
	case OSLinux:
		return execCommand(XDGOpenCommand, absPath)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedOS, runtime.GOOS)
	}
}

func existingAbsPath(filePath string) (string, error) {
	if filePath == "" {
		return "", fmt.Errorf("file path is empty")
	}
	if _, err := os.Stat(filePath); err != nil {
		return "", fmt.Errorf("file does not exist: %v", err)
	}
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}
	return absPath, nil
}

// CreateDirectoryIfNotExists creates directory if it doesn't exist
func CreateDirectoryIfNotExists(dirPath string) error {
	if _, err := os.Stat(dirPath); os.IsNotExist(err) {
		return os.MkdirAll(dirPath, DefaultDirPermissions)
	}
	return nil
}

// DefaultLogPath returns the log file location inside the user cache directory
func DefaultLogPath() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user cache directory: %w", err)
	}
	return filepath.Join(cacheDir, AppDirName, LogFileName), nil
}

// GetHomeVideosDir returns the user's Videos directory, used as the initial
// location of file dialogs
func GetHomeVideosDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	for _, name := range []string{"Videos", "Movies"} {
		dir := filepath.Join(homeDir, name)
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir, nil
		}
	}
	return homeDir, nil
}
