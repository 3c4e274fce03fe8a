package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/davinciconvert/dnxhd-transcoder/internal/model"
)

// Pass labels
const (
	PassMeasure = model.PassMeasure
	PassEncode  = model.PassEncode
)

const (
	// StderrTailLines bounds the stderr kept for error reports
	StderrTailLines = 20
	// DefaultWaitDelay is how long an interrupted ffmpeg may take to finalise
	DefaultWaitDelay = 5 * time.Second
)

// RunRequest describes one ffmpeg invocation
type RunRequest struct {
	Args       []string
	Duration   float64 // seconds, 0 if unknown
	Pass       string
	Normalized bool // encode pass carries the loudnorm filter
	// CaptureStderr keeps the whole stderr instead of the tail
	CaptureStderr bool
	OnProgress    func(Progress)
}

// Result is what a successful run leaves behind
type Result struct {
	Stderr  string
	Elapsed time.Duration
}

// Runner executes ffmpeg with progress reporting
type Runner struct {
	Binary    string
	WaitDelay time.Duration
	logger    *slog.Logger
}

// NewRunner creates a runner for the given ffmpeg binary
func NewRunner(binary string, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Runner{Binary: binary, WaitDelay: DefaultWaitDelay, logger: logger}
}

// Run starts ffmpeg, streams -progress output to req.OnProgress and waits.
// Cancelling ctx interrupts ffmpeg and Run returns ctx.Err().
func (r *Runner) Run(ctx context.Context, req RunRequest) (*Result, error) {
	cmd := exec.CommandContext(ctx, r.Binary, req.Args...)
	cmd.Cancel = func() error { return interrupt(cmd.Process) }
	cmd.WaitDelay = r.WaitDelay

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	var stderr stderrSink
	if req.CaptureStderr {
		stderr = &lockedBuffer{}
	} else {
		stderr = newTailBuffer(StderrTailLines)
	}
	cmd.Stderr = stderr

	r.logger.Debug("starting ffmpeg",
		slog.String("pass", req.Pass),
		slog.String("args", strings.Join(req.Args, " ")),
	)
	started := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start ffmpeg: %w", err)
	}

	parseErr := ParseProgress(stdout, req.Duration, req.OnProgress)
	if parseErr != nil {
		// keep ffmpeg from blocking on a full pipe
		_, _ = io.Copy(io.Discard, stdout)
	}
	waitErr := cmd.Wait()
	elapsed := time.Since(started)

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			tail := stderr.String()
			if req.CaptureStderr {
				tail = lastLines(tail, StderrTailLines)
			}
			return nil, &ExitError{
				Code:       exitErr.ExitCode(),
				Pass:       req.Pass,
				Normalized: req.Normalized,
				StderrTail: tail,
			}
		}
		return nil, fmt.Errorf("wait ffmpeg: %w", waitErr)
	}
	if parseErr != nil {
		return nil, parseErr
	}

	r.logger.Debug("ffmpeg finished",
		slog.String("pass", req.Pass),
		slog.Duration("elapsed", elapsed),
	)
	return &Result{Stderr: stderr.String(), Elapsed: elapsed}, nil
}

func interrupt(p *os.Process) error {
	if p == nil {
		return os.ErrProcessDone
	}
	if runtime.GOOS == "windows" {
		return p.Kill()
	}
	return p.Signal(os.Interrupt)
}

type stderrSink interface {
	io.Writer
	String() string
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// tailBuffer keeps the last n complete lines written to it
type tailBuffer struct {
	mu      sync.Mutex
	max     int
	lines   []string
	partial []byte
}

func newTailBuffer(n int) *tailBuffer {
	return &tailBuffer{max: n}
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	data := append(t.partial, p...)
	for {
		idx := bytes.IndexAny(data, "\r\n")
		if idx < 0 {
			break
		}
		if line := strings.TrimSpace(string(data[:idx])); line != "" {
			t.push(line)
		}
		data = data[idx+1:]
	}
	t.partial = append([]byte(nil), data...)
	return len(p), nil
}

func (t *tailBuffer) push(line string) {
	t.lines = append(t.lines, line)
	if len(t.lines) > t.max {
		t.lines = t.lines[len(t.lines)-t.max:]
	}
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	lines := t.lines
	if rest := strings.TrimSpace(string(t.partial)); rest != "" {
		lines = append(append([]string(nil), lines...), rest)
		if len(lines) > t.max {
			lines = lines[len(lines)-t.max:]
		}
	}
	return strings.Join(lines, "\n")
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\r\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
