package transcode

import (
	"context"

	"github.com/davinciconvert/dnxhd-transcoder/internal/model"
)

// Transcoder defines the interface for the transcode service.
type Transcoder interface {
	SetUpdateCallback(func(*model.TranscodeJob))
	StartBatch(inputs []string, outputDir string, opts model.EncodeOptions) (*model.Batch, error)
	AddJob(input, outputDir string, opts model.EncodeOptions) (*model.TranscodeJob, error)
	StopJob(id string) error
	StopAll()
	RemoveJob(id string) error
	RestartJob(id string) error
	GetJob(id string) (*model.TranscodeJob, bool)
	GetAllJobs() []*model.TranscodeJob
	GetBatch(id string) (*model.Batch, bool)
	SetMaxParallel(max int)
	Stats() RunStats

	// Wait blocks until no job is pending or active
	Wait(ctx context.Context) error
}
