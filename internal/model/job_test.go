package model

import (
	"testing"
	"time"
)

func TestTranscodeJob_GetETAString(t *testing.T) {
	tests := []struct {
		etaSec   int
		expected string
	}{
		{-1, "—"},
		{0, "—"},
		{30, "00:30"},
		{90, "01:30"},
		{3600, "01:00:00"},
		{3661, "01:01:01"},
		{7323, "02:02:03"},
	}

	for _, test := range tests {
		job := &TranscodeJob{ETASec: test.etaSec}
		result := job.GetETAString()
		if result != test.expected {
			t.Errorf("GetETAString() with ETASec=%d = %s, expected %s", test.etaSec, result, test.expected)
		}
	}
}

func TestTranscodeJob_GetDisplayTitle(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"/media/card/A001_C002.mov", "A001_C002.mov"},
		{"clip.mp4", "clip.mp4"},
		{"", "(no name)"},
	}

	for _, test := range tests {
		job := &TranscodeJob{InputPath: test.input}
		result := job.GetDisplayTitle()
		if result != test.expected {
			t.Errorf("GetDisplayTitle() with input='%s' = '%s', expected '%s'", test.input, result, test.expected)
		}
	}
}

func TestTranscodeJob_StatusText(t *testing.T) {
	tests := []struct {
		status   TaskStatus
		lastErr  string
		expected string
	}{
		{TaskStatusPending, "", "Waiting"},
		{TaskStatusProbing, "", "Starting..."},
		{TaskStatusMeasuring, "", "Measuring loudness..."},
		{TaskStatusEncoding, "", "Converting..."},
		{TaskStatusStopping, "", "Stopping..."},
		{TaskStatusStopped, "", "Stopped"},
		{TaskStatusCompleted, "", "Completed"},
		{TaskStatusError, "ffmpeg returned error code: 1", "Error: ffmpeg returned error code: 1"},
		{TaskStatusError, "", "Error"},
	}

	for _, test := range tests {
		job := &TranscodeJob{Status: test.status, LastError: test.lastErr}
		if got := job.StatusText(); got != test.expected {
			t.Errorf("StatusText() for %s = %q, expected %q", test.status, got, test.expected)
		}
	}
}

func TestTranscodeJob_SetProgress(t *testing.T) {
	job := &TranscodeJob{}

	job.SetProgress(0.456)
	if job.Percent != 45 {
		t.Errorf("Expected percent 45, got %d", job.Percent)
	}

	job.SetProgress(1.7)
	if job.Progress != 1 || job.Percent != 100 {
		t.Errorf("Expected progress clamped to 1, got %v (%d%%)", job.Progress, job.Percent)
	}

	job.SetProgress(-0.2)
	if job.Progress != 0 || job.Percent != 0 {
		t.Errorf("Expected progress clamped to 0, got %v (%d%%)", job.Progress, job.Percent)
	}
}

func TestTranscodeJob_Clone(t *testing.T) {
	now := time.Now()
	job := &TranscodeJob{ID: "job-1", Status: TaskStatusEncoding, StartedAt: now}

	clone := job.Clone()
	clone.Status = TaskStatusCompleted

	if job.Status != TaskStatusEncoding {
		t.Errorf("Clone should not alias the original, status changed to %s", job.Status)
	}
	if clone.ID != job.ID || !clone.StartedAt.Equal(now) {
		t.Errorf("Clone lost fields: %+v", clone)
	}

	var nilJob *TranscodeJob
	if nilJob.Clone() != nil {
		t.Error("Clone of nil job should be nil")
	}
}
