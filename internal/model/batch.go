package model

import (
	"time"
)

// Batch groups the jobs started together with one set of options
type Batch struct {
	ID        string
	OutputDir string
	Options   EncodeOptions
	Jobs      []*TranscodeJob
	CreatedAt time.Time
	UpdatedAt time.Time
}

// BatchCounts summarises job states in a batch
type BatchCounts struct {
	Total     int
	Pending   int
	Active    int
	Completed int
	Failed    int
	Stopped   int
}

// NewBatch creates an empty batch
func NewBatch(id, outputDir string, opts EncodeOptions) *Batch {
	now := time.Now()
	return &Batch{
		ID:        id,
		OutputDir: outputDir,
		Options:   opts,
		Jobs:      make([]*TranscodeJob, 0),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AddJob appends a job to the batch
func (b *Batch) AddJob(job *TranscodeJob) {
	b.Jobs = append(b.Jobs, job)
	b.UpdatedAt = time.Now()
}

// RemoveJob removes a job from the batch by ID
func (b *Batch) RemoveJob(jobID string) bool {
	for i, job := range b.Jobs {
		if job.ID == jobID {
			b.Jobs = append(b.Jobs[:i], b.Jobs[i+1:]...)
			b.UpdatedAt = time.Now()
			return true
		}
	}
	return false
}

// UpdateJob replaces the job with the same ID. A copy with a lower Seq
// than the stored one is stale and ignored.
func (b *Batch) UpdateJob(job *TranscodeJob) bool {
	if job == nil {
		return false
	}
	for i, existing := range b.Jobs {
		if existing.ID == job.ID {
			if job.Seq < existing.Seq {
				return false
			}
			b.Jobs[i] = job
			b.UpdatedAt = time.Now()
			return true
		}
	}
	return false
}

// Job returns the job with the given ID
func (b *Batch) Job(jobID string) (*TranscodeJob, bool) {
	for _, job := range b.Jobs {
		if job.ID == jobID {
			return job, true
		}
	}
	return nil, false
}

// Counts returns the number of jobs per state
func (b *Batch) Counts() BatchCounts {
	c := BatchCounts{Total: len(b.Jobs)}
	for _, job := range b.Jobs {
		switch {
		case job.Status == TaskStatusPending:
			c.Pending++
		case job.Status.IsActive():
			c.Active++
		case job.Status == TaskStatusCompleted:
			c.Completed++
		case job.Status == TaskStatusError:
			c.Failed++
		case job.Status == TaskStatusStopped:
			c.Stopped++
		}
	}
	return c
}

// Progress returns the overall batch progress from 0 to 1.
// Finished jobs count as done regardless of outcome.
func (b *Batch) Progress() float64 {
	if len(b.Jobs) == 0 {
		return 0
	}
	var sum float64
	for _, job := range b.Jobs {
		if job.Status.IsFinished() {
			sum++
			continue
		}
		if job.Indeterminate {
			continue
		}
		sum += job.Progress
	}
	return sum / float64(len(b.Jobs))
}

// IsFinished reports whether every job reached a final state
func (b *Batch) IsFinished() bool {
	if len(b.Jobs) == 0 {
		return false
	}
	for _, job := range b.Jobs {
		if !job.Status.IsFinished() {
			return false
		}
	}
	return true
}

// HasErrors checks if any job failed
func (b *Batch) HasErrors() bool {
	for _, job := range b.Jobs {
		if job.Status == TaskStatusError {
			return true
		}
	}
	return false
}
