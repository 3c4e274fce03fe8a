package transcode

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/davinciconvert/dnxhd-transcoder/internal/ffmpeg"
	"github.com/davinciconvert/dnxhd-transcoder/internal/model"
	"github.com/davinciconvert/dnxhd-transcoder/internal/platform"
	"github.com/davinciconvert/dnxhd-transcoder/internal/probe"
)

// Scheduling limits
const (
	DefaultMaxParallel = 1
	MinParallel        = 1
	MaxParallel        = 8
)

// ID prefixes
const (
	JobIDPrefix   = "job-"
	BatchIDPrefix = "batch-"
)

// ErrJobNotFound is returned for unknown job IDs
var ErrJobNotFound = errors.New("job not found")

var _ Transcoder = (*Service)(nil)

// Service handles transcode operations
type Service struct {
	bins   ffmpeg.Binaries
	runner *ffmpeg.Runner
	logger *slog.Logger

	jobs        map[string]*model.TranscodeJob
	order       []string
	batches     map[string]*model.Batch
	cancels     map[string]context.CancelFunc
	dirLocks    map[string]*dirLock
	jobsMutex   sync.RWMutex
	maxParallel int
	activeCount int
	seq         uint64
	changed     chan struct{}
	onUpdate    func(*model.TranscodeJob) // callback for UI updates
}

// NewService creates a new transcode service
func NewService(bins ffmpeg.Binaries, maxParallel int, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	logger = logger.With(slog.String("component", "transcode"))
	return &Service{
		bins:        bins,
		runner:      ffmpeg.NewRunner(bins.FFmpeg, logger),
		logger:      logger,
		jobs:        make(map[string]*model.TranscodeJob),
		batches:     make(map[string]*model.Batch),
		cancels:     make(map[string]context.CancelFunc),
		dirLocks:    make(map[string]*dirLock),
		maxParallel: clampParallel(maxParallel),
		changed:     make(chan struct{}),
	}
}

// SetUpdateCallback sets the callback function for job updates.
// The callback receives a copy of the job and runs on the worker goroutine.
// Copies may arrive out of order; a higher Seq is the newer state.
func (s *Service) SetUpdateCallback(callback func(*model.TranscodeJob)) {
	s.jobsMutex.Lock()
	s.onUpdate = callback
	s.jobsMutex.Unlock()
}

// SetMaxParallel sets how many jobs may run at once
func (s *Service) SetMaxParallel(max int) {
	s.jobsMutex.Lock()
	s.maxParallel = clampParallel(max)
	s.jobsMutex.Unlock()
	s.schedule()
}

// AddJob queues a single file as its own batch
func (s *Service) AddJob(input, outputDir string, opts model.EncodeOptions) (*model.TranscodeJob, error) {
	batch, err := s.StartBatch([]string{input}, outputDir, opts)
	if err != nil {
		return nil, err
	}
	return batch.Jobs[0], nil
}

// StartBatch validates inputs, reserves output paths and queues one job per input
func (s *Service) StartBatch(inputs []string, outputDir string, opts model.EncodeOptions) (*model.Batch, error) {
	if len(inputs) == 0 {
		return nil, errors.New("no input files")
	}
	opts = opts.Normalize()
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	sizes := make([]int64, len(inputs))
	for i, input := range inputs {
		info, err := os.Stat(input)
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("input file does not exist: %s", input)
		}
		if err != nil {
			return nil, fmt.Errorf("stat input: %w", err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("input is a directory: %s", input)
		}
		sizes[i] = info.Size()
	}

	dir := OutputDir(outputDir, inputs)
	if err := platform.CreateDirectoryIfNotExists(dir); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	s.jobsMutex.Lock()

	seen := make(map[string]bool, len(inputs))
	for _, input := range inputs {
		key := filepath.Clean(input)
		if seen[key] || s.hasQueuedInputLocked(key) {
			s.jobsMutex.Unlock()
			return nil, fmt.Errorf("transcode already in progress for file: %s", input)
		}
		seen[key] = true
	}

	outputs, err := planOutputs(dir, inputs, opts.Container, s.reservedOutputsLocked())
	if err != nil {
		s.jobsMutex.Unlock()
		return nil, err
	}
	if err := s.acquireDirLocked(dir, len(inputs)); err != nil {
		s.jobsMutex.Unlock()
		return nil, err
	}

	batch := model.NewBatch(generateID(BatchIDPrefix), dir, opts)
	for i, input := range inputs {
		job := &model.TranscodeJob{
			ID:         generateID(JobIDPrefix),
			BatchID:    batch.ID,
			InputPath:  input,
			OutputPath: outputs[i],
			Options:    opts,
			Status:     model.TaskStatusPending,
			ETASec:     -1,
			InputSize:  sizes[i],
		}
		batch.AddJob(job)
		s.jobs[job.ID] = job
		s.order = append(s.order, job.ID)
	}
	s.batches[batch.ID] = batch
	for _, job := range batch.Jobs {
		s.stampLocked(job)
	}
	snapshot := cloneBatch(batch)
	s.jobsMutex.Unlock()

	s.logger.Info("batch queued",
		slog.String("batch_id", batch.ID),
		slog.Int("jobs", len(inputs)),
		slog.String("output_dir", dir),
		slog.String("profile", string(opts.Profile)),
		slog.String("container", string(opts.Container)),
	)
	for _, job := range snapshot.Jobs {
		s.notifyUpdate(job)
	}
	s.schedule()
	return snapshot, nil
}

// StopJob stops a running or pending job
func (s *Service) StopJob(id string) error {
	s.jobsMutex.Lock()
	job, exists := s.jobs[id]
	if !exists {
		s.jobsMutex.Unlock()
		return fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}

	switch {
	case job.Status == model.TaskStatusPending:
		s.markStoppedLocked(job)
	case job.Status.IsActive():
		if job.Status != model.TaskStatusStopping {
			job.Status = model.TaskStatusStopping
			if cancel, ok := s.cancels[id]; ok {
				cancel()
			}
		}
	default:
		s.jobsMutex.Unlock()
		return fmt.Errorf("job is not active: %s", job.Status)
	}
	snapshot := s.snapshotLocked(job)
	s.jobsMutex.Unlock()

	s.notifyUpdate(snapshot)
	return nil
}

// StopAll cancels every active job and drops pending ones
func (s *Service) StopAll() {
	s.jobsMutex.Lock()
	var snapshots []*model.TranscodeJob
	for _, id := range s.order {
		job := s.jobs[id]
		switch {
		case job.Status == model.TaskStatusPending:
			s.markStoppedLocked(job)
		case job.Status.IsActive() && job.Status != model.TaskStatusStopping:
			job.Status = model.TaskStatusStopping
			if cancel, ok := s.cancels[id]; ok {
				cancel()
			}
		default:
			continue
		}
		snapshots = append(snapshots, s.snapshotLocked(job))
	}
	s.jobsMutex.Unlock()

	if len(snapshots) > 0 {
		s.logger.Info("stopping all jobs", slog.Int("jobs", len(snapshots)))
	}
	for _, snapshot := range snapshots {
		s.notifyUpdate(snapshot)
	}
}

// RemoveJob forgets a job that is not running
func (s *Service) RemoveJob(id string) error {
	s.jobsMutex.Lock()
	defer s.jobsMutex.Unlock()

	job, exists := s.jobs[id]
	if !exists {
		return fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	if job.Status.IsActive() {
		return fmt.Errorf("cannot remove active job: %s", job.Status)
	}
	if job.Status == model.TaskStatusPending {
		s.releaseDirLocked(filepath.Dir(job.OutputPath))
	}

	delete(s.jobs, id)
	for i, queued := range s.order {
		if queued == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	if batch, ok := s.batches[job.BatchID]; ok {
		batch.RemoveJob(id)
		if len(batch.Jobs) == 0 {
			delete(s.batches, batch.ID)
		}
	}
	s.signalLocked()
	return nil
}

// RestartJob queues a finished job again with the same output path.
// The path stays reserved while the job is tracked, so no other job can hold it.
func (s *Service) RestartJob(id string) error {
	s.jobsMutex.Lock()
	job, exists := s.jobs[id]
	if !exists {
		s.jobsMutex.Unlock()
		return fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	if !job.Status.IsFinished() {
		s.jobsMutex.Unlock()
		return fmt.Errorf("job is still %s", job.Status)
	}
	if s.hasQueuedInputLocked(filepath.Clean(job.InputPath)) {
		s.jobsMutex.Unlock()
		return fmt.Errorf("transcode already in progress for file: %s", job.InputPath)
	}
	if _, err := os.Stat(job.InputPath); os.IsNotExist(err) {
		s.jobsMutex.Unlock()
		return fmt.Errorf("input file does not exist: %s", job.InputPath)
	}
	if err := s.acquireDirLocked(filepath.Dir(job.OutputPath), 1); err != nil {
		s.jobsMutex.Unlock()
		return err
	}

	job.Status = model.TaskStatusPending
	job.SetProgress(0)
	job.Indeterminate = false
	job.Pass = ""
	job.Speed = ""
	job.ETASec = -1
	job.ExitCode = 0
	job.LastError = ""
	job.OutputSize = 0
	job.StartedAt = time.Time{}
	job.FinishedAt = time.Time{}

	// back of the queue
	for i, queued := range s.order {
		if queued == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.order = append(s.order, id)
	snapshot := s.snapshotLocked(job)
	s.jobsMutex.Unlock()

	s.notifyUpdate(snapshot)
	s.schedule()
	return nil
}

// GetJob returns a copy of the job
func (s *Service) GetJob(id string) (*model.TranscodeJob, bool) {
	s.jobsMutex.RLock()
	defer s.jobsMutex.RUnlock()
	job, exists := s.jobs[id]
	if !exists {
		return nil, false
	}
	return job.Clone(), true
}

// GetAllJobs returns copies of all jobs in queue order
func (s *Service) GetAllJobs() []*model.TranscodeJob {
	s.jobsMutex.RLock()
	defer s.jobsMutex.RUnlock()

	jobs := make([]*model.TranscodeJob, 0, len(s.order))
	for _, id := range s.order {
		jobs = append(jobs, s.jobs[id].Clone())
	}
	return jobs
}

// GetBatch returns a copy of the batch and its jobs
func (s *Service) GetBatch(id string) (*model.Batch, bool) {
	s.jobsMutex.RLock()
	defer s.jobsMutex.RUnlock()
	batch, exists := s.batches[id]
	if !exists {
		return nil, false
	}
	return cloneBatch(batch), true
}

// Stats summarises finished jobs
func (s *Service) Stats() RunStats {
	s.jobsMutex.RLock()
	defer s.jobsMutex.RUnlock()

	var stats RunStats
	for _, id := range s.order {
		stats.add(s.jobs[id])
	}
	return stats
}

// Wait blocks until no job is pending or active, or ctx is done
func (s *Service) Wait(ctx context.Context) error {
	for {
		s.jobsMutex.RLock()
		idle := true
		for _, job := range s.jobs {
			if !job.Status.IsFinished() {
				idle = false
				break
			}
		}
		changed := s.changed
		s.jobsMutex.RUnlock()

		if idle {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-changed:
		}
	}
}

// schedule starts pending jobs in FIFO order while capacity allows
func (s *Service) schedule() {
	s.jobsMutex.Lock()
	var started []*model.TranscodeJob
	for _, id := range s.order {
		if s.activeCount >= s.maxParallel {
			break
		}
		job := s.jobs[id]
		if job.Status != model.TaskStatusPending {
			continue
		}
		ctx, cancel := context.WithCancel(context.Background())
		s.cancels[id] = cancel
		s.activeCount++
		job.Status = model.TaskStatusProbing
		job.StartedAt = time.Now()
		started = append(started, s.snapshotLocked(job))
		go s.runJob(ctx, job)
	}
	s.jobsMutex.Unlock()

	for _, snapshot := range started {
		s.notifyUpdate(snapshot)
	}
}

// runJob performs probing, optional loudness measurement and the encode
func (s *Service) runJob(ctx context.Context, job *model.TranscodeJob) {
	logger := s.logger.With(slog.String("job_id", job.ID), slog.String("input", job.InputPath))

	defer func() {
		s.jobsMutex.Lock()
		s.activeCount--
		if cancel, ok := s.cancels[job.ID]; ok {
			cancel()
			delete(s.cancels, job.ID)
		}
		s.jobsMutex.Unlock()

		// Try to start next pending job
		s.schedule()
	}()

	duration, fps := s.probe(ctx, job.InputPath, logger)
	s.update(job, func(j *model.TranscodeJob) {
		j.Duration = duration
		j.FrameRate = fps
		j.Indeterminate = duration <= 0
	})
	if ctx.Err() != nil {
		s.finish(job, ctx.Err(), logger)
		return
	}

	opts := job.Options
	if opts.SetTimecode && opts.PreserveFPS && fps > 0 {
		if err := model.ValidateTimecode(opts.Timecode, int(math.Ceil(fps))); err != nil {
			s.finish(job, fmt.Errorf("timecode: %w", err), logger)
			return
		}
	}

	var loud *ffmpeg.LoudnessParams
	if opts.NormalizeLoudness {
		s.setPhase(job, model.TaskStatusMeasuring, ffmpeg.PassMeasure)
		params, err := s.runner.MeasureLoudness(ctx, job.InputPath, duration, s.progressHandler(job))
		switch {
		case ctx.Err() != nil:
			s.finish(job, ctx.Err(), logger)
			return
		case err != nil:
			logger.Warn("loudness measurement failed, encoding without normalization", "error", err)
		default:
			loud = params
			logger.Info("loudness measured",
				slog.Float64("input_i", params.InputI),
				slog.Float64("input_tp", params.InputTP),
				slog.Float64("input_lra", params.InputLRA),
			)
		}
	}

	s.setPhase(job, model.TaskStatusEncoding, ffmpeg.PassEncode)
	args := ffmpeg.BuildEncodeArgs(job.InputPath, job.OutputPath, opts, loud)
	_, err := s.runner.Run(ctx, ffmpeg.RunRequest{
		Args:       args,
		Duration:   duration,
		Pass:       ffmpeg.PassEncode,
		Normalized: loud != nil,
		OnProgress: s.progressHandler(job),
	})
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	s.finish(job, err, logger)
}

func (s *Service) probe(ctx context.Context, path string, logger *slog.Logger) (float64, float64) {
	result, err := probe.Inspect(ctx, s.bins.FFprobe, path)
	if err == nil {
		return result.DurationSeconds(), result.FrameRate()
	}
	if ctx.Err() != nil {
		return 0, 0
	}
	logger.Warn("ffprobe inspect failed, falling back to duration probe", "error", err)

	duration, err := probe.Duration(ctx, s.bins.FFprobe, path)
	if err != nil {
		logger.Warn("duration unknown, progress will be indeterminate", "error", err)
		return 0, 0
	}
	return duration, 0
}

// progressHandler applies ffmpeg progress to the job
func (s *Service) progressHandler(job *model.TranscodeJob) func(ffmpeg.Progress) {
	return func(p ffmpeg.Progress) {
		s.jobsMutex.Lock()
		if job.Status == model.TaskStatusStopping || !job.Status.IsActive() {
			s.jobsMutex.Unlock()
			return
		}
		switch {
		case p.Done:
			job.Indeterminate = false
			job.SetProgress(1)
		case p.Indeterminate:
			job.Indeterminate = true
			job.SetProgress(0)
		default:
			job.Indeterminate = false
			job.SetProgress(p.Fraction)
		}
		job.Speed = p.SpeedText()
		job.ETASec = -1
		if p.ETA > 0 {
			job.ETASec = int(p.ETA.Seconds())
		}
		snapshot := s.snapshotLocked(job)
		s.jobsMutex.Unlock()

		s.notifyUpdate(snapshot)
	}
}

func (s *Service) setPhase(job *model.TranscodeJob, status model.TaskStatus, pass string) {
	s.update(job, func(j *model.TranscodeJob) {
		if j.Status == model.TaskStatusStopping {
			return
		}
		j.Status = status
		j.Pass = pass
		j.SetProgress(0)
		j.Speed = ""
		j.ETASec = -1
	})
}

func (s *Service) update(job *model.TranscodeJob, mutate func(*model.TranscodeJob)) {
	s.jobsMutex.Lock()
	mutate(job)
	snapshot := s.snapshotLocked(job)
	s.jobsMutex.Unlock()
	s.notifyUpdate(snapshot)
}

// finish records the final state and removes partial output on failure
func (s *Service) finish(job *model.TranscodeJob, err error, logger *slog.Logger) {
	s.jobsMutex.Lock()
	job.FinishedAt = time.Now()
	job.Pass = ""
	job.Speed = ""
	job.ETASec = -1
	switch {
	case errors.Is(err, context.Canceled):
		job.Status = model.TaskStatusStopped
		removePartial(job.OutputPath, logger)
	case err != nil:
		job.Status = model.TaskStatusError
		job.LastError = err.Error()
		job.ExitCode = ffmpeg.ExitCode(err)
		removePartial(job.OutputPath, logger)
	default:
		job.Status = model.TaskStatusCompleted
		job.Indeterminate = false
		job.SetProgress(1)
		if info, statErr := os.Stat(job.OutputPath); statErr == nil {
			job.OutputSize = info.Size()
		}
	}
	s.releaseDirLocked(filepath.Dir(job.OutputPath))
	s.signalLocked()
	snapshot := s.snapshotLocked(job)
	s.jobsMutex.Unlock()

	switch snapshot.Status {
	case model.TaskStatusCompleted:
		logger.Info("transcode completed",
			slog.String("output", snapshot.OutputPath),
			slog.Duration("elapsed", snapshot.Elapsed()),
		)
	case model.TaskStatusStopped:
		logger.Info("transcode stopped")
	default:
		logger.Error("transcode failed", "error", err, slog.Int("exit_code", snapshot.ExitCode))
	}
	s.notifyUpdate(snapshot)
}

func (s *Service) markStoppedLocked(job *model.TranscodeJob) {
	job.Status = model.TaskStatusStopped
	job.FinishedAt = time.Now()
	s.releaseDirLocked(filepath.Dir(job.OutputPath))
	s.signalLocked()
}

func (s *Service) hasQueuedInputLocked(cleanInput string) bool {
	for _, job := range s.jobs {
		if !job.Status.IsFinished() && filepath.Clean(job.InputPath) == cleanInput {
			return true
		}
	}
	return false
}

// reservedOutputsLocked returns the output path of every tracked job.
// Finished jobs keep theirs so a restart never shares a path with a newer job.
func (s *Service) reservedOutputsLocked() map[string]bool {
	reserved := make(map[string]bool, len(s.jobs))
	for _, job := range s.jobs {
		reserved[job.OutputPath] = true
	}
	return reserved
}

// stampLocked marks a state change of job with the next sequence number
func (s *Service) stampLocked(job *model.TranscodeJob) {
	s.seq++
	job.Seq = s.seq
}

// snapshotLocked stamps job and returns a copy for notifyUpdate
func (s *Service) snapshotLocked(job *model.TranscodeJob) *model.TranscodeJob {
	s.stampLocked(job)
	return job.Clone()
}

// signalLocked wakes Wait callers
func (s *Service) signalLocked() {
	close(s.changed)
	s.changed = make(chan struct{})
}

// notifyUpdate calls the update callback if set
func (s *Service) notifyUpdate(job *model.TranscodeJob) {
	s.jobsMutex.RLock()
	callback := s.onUpdate
	s.jobsMutex.RUnlock()
	if callback != nil {
		callback(job)
	}
}

func removePartial(path string, logger *slog.Logger) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logger.Warn("failed to remove partial output", "path", path, "error", err)
	}
}

func cloneBatch(batch *model.Batch) *model.Batch {
	c := *batch
	c.Jobs = make([]*model.TranscodeJob, len(batch.Jobs))
	for i, job := range batch.Jobs {
		c.Jobs[i] = job.Clone()
	}
	return &c
}

func clampParallel(n int) int {
	if n < MinParallel {
		return MinParallel
	}
	if n > MaxParallel {
		return MaxParallel
	}
	return n
}

// generateID generates a unique ID using UUID v7 for time ordering
func generateID(prefix string) string {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to timestamp if UUID generation fails
		return fmt.Sprintf("%s%d", prefix, time.Now().UnixNano())
	}
	return prefix + id.String()
}
