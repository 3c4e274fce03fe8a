package transcode

import (
	"time"

	"github.com/davinciconvert/dnxhd-transcoder/internal/model"
)

// RunStats summarises finished jobs
type RunStats struct {
	Completed   int
	Failed      int
	Stopped     int
	InputBytes  int64
	OutputBytes int64
	Elapsed     time.Duration
}

// Total returns the number of finished jobs
func (s RunStats) Total() int {
	return s.Completed + s.Failed + s.Stopped
}

func (s *RunStats) add(job *model.TranscodeJob) {
	switch job.Status {
	case model.TaskStatusCompleted:
		s.Completed++
		s.InputBytes += job.InputSize
		s.OutputBytes += job.OutputSize
	case model.TaskStatusError:
		s.Failed++
	case model.TaskStatusStopped:
		s.Stopped++
	default:
		return
	}
	s.Elapsed += job.Elapsed()
}
