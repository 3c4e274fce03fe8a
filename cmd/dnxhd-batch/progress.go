package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"github.com/davinciconvert/dnxhd-transcoder/internal/model"
)

const (
	progressInterval = 250 * time.Millisecond
	progressScale    = 1000
	logStepPercent   = 10
)

func isTerminal(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// batchBar draws overall batch progress on a terminal
type batchBar struct {
	bar *progressbar.ProgressBar
}

func newBatchBar(w io.Writer) *batchBar {
	bar := progressbar.NewOptions(progressScale,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetDescription("starting"),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionThrottle(progressInterval),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(w) }),
	)
	return &batchBar{bar: bar}
}

func (b *batchBar) update(batch *model.Batch) {
	if b == nil || batch == nil {
		return
	}
	b.bar.Describe(describeBatch(batch))
	_ = b.bar.Set(int(batch.Progress() * progressScale))
}

func (b *batchBar) finish() {
	if b == nil {
		return
	}
	_ = b.bar.Finish()
}

// describeBatch names the running files, e.g. "2/5 a.mp4 40%, b.mov"
func describeBatch(batch *model.Batch) string {
	counts := batch.Counts()
	done := counts.Completed + counts.Failed + counts.Stopped
	var active []string
	for _, job := range batch.Jobs {
		if !job.Status.IsActive() {
			continue
		}
		name := filepath.Base(job.InputPath)
		if !job.Indeterminate && job.Status == model.TaskStatusEncoding {
			name = fmt.Sprintf("%s %d%%", name, job.Percent)
		}
		active = append(active, name)
	}
	if len(active) == 0 {
		return fmt.Sprintf("%d/%d", done, counts.Total)
	}
	return fmt.Sprintf("%d/%d %s", done, counts.Total, strings.Join(active, ", "))
}

// progressLog writes a log line on every status change and every
// logStepPercent of encode progress. It is used when stderr is not a terminal.
type progressLog struct {
	logger *slog.Logger

	mu   sync.Mutex
	last map[string]progressMark
}

type progressMark struct {
	status model.TaskStatus
	step   int
	seq    uint64
}

func newProgressLog(logger *slog.Logger) *progressLog {
	return &progressLog{logger: logger, last: make(map[string]progressMark)}
}

func (p *progressLog) observe(job *model.TranscodeJob) {
	if job == nil {
		return
	}
	mark := progressMark{status: job.Status, step: job.Percent / logStepPercent, seq: job.Seq}

	p.mu.Lock()
	prev, seen := p.last[job.ID]
	if seen && mark.seq < prev.seq {
		p.mu.Unlock()
		return
	}
	p.last[job.ID] = mark
	p.mu.Unlock()

	if seen && prev.status == mark.status && prev.step == mark.step {
		return
	}
	attrs := []any{
		slog.String("file", filepath.Base(job.InputPath)),
		slog.String("status", job.Status.String()),
	}
	if job.Status == model.TaskStatusEncoding && !job.Indeterminate {
		attrs = append(attrs, slog.Int("percent", job.Percent), slog.String("eta", job.GetETAString()))
	}
	p.logger.Info("progress", attrs...)
}
