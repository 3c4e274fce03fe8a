package ffmpeg

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// Binary names
const (
	FFmpegName  = "ffmpeg"
	FFprobeName = "ffprobe"
)

// BundledBinDir is where sandboxed installs ship their own tools
const BundledBinDir = "/app/bin"

const checkTimeout = 10 * time.Second

var (
	bundledDir     = BundledBinDir
	executablePath = os.Executable
)

// Binaries holds resolved tool paths
type Binaries struct {
	FFmpeg  string
	FFprobe string
}

// ResolveBinaries resolves ffmpeg and ffprobe once
func ResolveBinaries() Binaries {
	return Binaries{
		FFmpeg:  ResolveBinary(FFmpegName),
		FFprobe: ResolveBinary(FFprobeName),
	}
}

// ResolveBinary looks for name in the bundled bin directory, next to the
// running executable, then on PATH. The bare name is returned when nothing
// matches so the error surfaces when the tool is first executed.
func ResolveBinary(name string) string {
	file := executableName(name)
	candidates := []string{filepath.Join(bundledDir, file)}
	if self, err := executablePath(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(self), file))
	}
	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && isExecutable(info) {
			return candidate
		}
	}
	if path, err := exec.LookPath(name); err == nil {
		return path
	}
	return name
}

// ToolStatus reports whether a resolved binary is usable
type ToolStatus struct {
	Name      string
	Command   string
	Version   string
	Available bool
	HasDNxHD  bool
	Detail    string
}

// CheckTools reports availability and version of ffmpeg and ffprobe, and
// whether ffmpeg was built with the dnxhd encoder.
func CheckTools(ctx context.Context, bins Binaries) []ToolStatus {
	ffmpegStatus := checkTool(ctx, FFmpegName, bins.FFmpeg)
	if ffmpegStatus.Available {
		ffmpegStatus.HasDNxHD = hasEncoder(ctx, bins.FFmpeg, "dnxhd")
		if !ffmpegStatus.HasDNxHD {
			ffmpegStatus.Detail = "dnxhd encoder not available"
		}
	}
	return []ToolStatus{ffmpegStatus, checkTool(ctx, FFprobeName, bins.FFprobe)}
}

func checkTool(ctx context.Context, name, command string) ToolStatus {
	status := ToolStatus{Name: name, Command: strings.TrimSpace(command)}
	if status.Command == "" {
		status.Detail = "command not configured"
		return status
	}
	path, err := exec.LookPath(status.Command)
	if err != nil {
		status.Detail = fmt.Sprintf("binary %q not found", status.Command)
		return status
	}
	status.Command = path

	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, path, "-hide_banner", "-version").Output()
	if err != nil {
		status.Detail = fmt.Sprintf("version check failed: %v", err)
		return status
	}
	status.Available = true
	status.Version = firstLine(out)
	return status
}

func hasEncoder(ctx context.Context, ffmpegBin, encoder string) bool {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, ffmpegBin, "-hide_banner", "-h", "encoder="+encoder).CombinedOutput()
	if err != nil {
		return false
	}
	return bytes.Contains(out, []byte("Encoder "+encoder))
}

func firstLine(out []byte) string {
	scanner := bufio.NewScanner(bytes.NewReader(out))
	if scanner.Scan() {
		return strings.TrimSpace(scanner.Text())
	}
	return ""
}

func executableName(name string) string {
	if runtime.GOOS == "windows" && !strings.HasSuffix(strings.ToLower(name), ".exe") {
		return name + ".exe"
	}
	return name
}

func isExecutable(info os.FileInfo) bool {
	if info == nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
