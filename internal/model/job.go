package model

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Pass labels reported while a job runs
const (
	PassMeasure = "measure"
	PassEncode  = "encode"
)

// TranscodeJob represents a single input file converted to DNxHR
type TranscodeJob struct {
	ID            string
	BatchID       string
	InputPath     string
	OutputPath    string
	Options       EncodeOptions
	Status        TaskStatus
	Progress      float64 // 0.0 to 1.0
	Percent       int     // 0 to 100
	Indeterminate bool    // duration unknown, progress cannot be computed
	Pass          string  // PassMeasure or PassEncode while active
	Duration      float64 // probed duration in seconds, 0 if unknown
	FrameRate     float64 // probed frame rate, 0 if unknown
	Speed         string  // ffmpeg speed, e.g. "2.5x"
	ETASec        int     // ETA in seconds, -1 if unknown
	ExitCode      int     // ffmpeg exit code when it failed
	LastError     string  // last error message if any
	InputSize     int64   // input file size in bytes
	OutputSize    int64   // output file size in bytes once completed
	StartedAt     time.Time
	FinishedAt    time.Time
	Seq           uint64 // bumped by the service on every published change
}

// Clone returns a copy that can be handed to another goroutine
func (j *TranscodeJob) Clone() *TranscodeJob {
	if j == nil {
		return nil
	}
	c := *j
	return &c
}

// SetProgress stores a fraction and keeps Percent in sync
func (j *TranscodeJob) SetProgress(fraction float64) {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	j.Progress = fraction
	j.Percent = int(fraction * 100)
}

// GetETAString returns ETA formatted as hh:mm:ss, or "—" if unknown
func (j *TranscodeJob) GetETAString() string {
	if j.ETASec <= 0 {
		return "—"
	}

	hours := j.ETASec / 3600
	minutes := (j.ETASec % 3600) / 60
	seconds := j.ETASec % 60

	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}

// GetDisplayTitle returns the input file name
func (j *TranscodeJob) GetDisplayTitle() string {
	if j.InputPath == "" {
		return "(no name)"
	}
	return filepath.Base(j.InputPath)
}

// StatusText returns the text shown next to the progress bar
func (j *TranscodeJob) StatusText() string {
	switch j.Status {
	case TaskStatusPending:
		return "Waiting"
	case TaskStatusProbing:
		return "Starting..."
	case TaskStatusMeasuring:
		return "Measuring loudness..."
	case TaskStatusEncoding:
		return "Converting..."
	case TaskStatusStopping:
		return "Stopping..."
	case TaskStatusStopped:
		return "Stopped"
	case TaskStatusCompleted:
		return "Completed"
	case TaskStatusError:
		msg := strings.TrimSpace(j.LastError)
		if msg == "" {
			return "Error"
		}
		return "Error: " + msg
	default:
		return j.Status.String()
	}
}

// Elapsed returns how long the job ran, or has been running
func (j *TranscodeJob) Elapsed() time.Duration {
	if j.StartedAt.IsZero() {
		return 0
	}
	if j.FinishedAt.IsZero() {
		return time.Since(j.StartedAt)
	}
	return j.FinishedAt.Sub(j.StartedAt)
}
