package ffmpeg

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	progressBufferSize = 1024 * 1024
	maxRunningFraction = 0.999
)

// Progress is one update decoded from ffmpeg's -progress stream
type Progress struct {
	Frame         int64
	FPS           float64
	Bitrate       string
	TotalSize     int64
	OutTime       time.Duration
	Speed         float64 // 0 when ffmpeg reports N/A
	Fraction      float64 // -1 when Indeterminate
	Indeterminate bool
	ETA           time.Duration // 0 when unknown
	Done          bool
}

// SpeedText returns ffmpeg style speed such as "2.5x", or "" when unknown
func (p Progress) SpeedText() string {
	if p.Speed <= 0 {
		return ""
	}
	return strconv.FormatFloat(p.Speed, 'f', -1, 64) + "x"
}

// ProgressParser turns key=value lines into Progress updates.
// duration is the probed media length in seconds; 0 means unknown.
type ProgressParser struct {
	duration float64
	emit     func(Progress)

	current           Progress
	blockHasTime      bool
	sentIndeterminate bool
	recognized        int
	malformed         int
}

// NewProgressParser creates a parser. emit may be nil.
func NewProgressParser(duration float64, emit func(Progress)) *ProgressParser {
	if emit == nil {
		emit = func(Progress) {}
	}
	return &ProgressParser{duration: duration, emit: emit}
}

// ParseProgress reads r until EOF, calling fn for every update
func ParseProgress(r io.Reader, duration float64, fn func(Progress)) error {
	parser := NewProgressParser(duration, fn)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), progressBufferSize)
	for scanner.Scan() {
		parser.Feed(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read progress: %w", err)
	}
	if parser.Unparsable() {
		return ErrUnparsableProgress
	}
	return nil
}

// Unparsable reports whether lines were seen but none could be decoded
func (p *ProgressParser) Unparsable() bool {
	return p.recognized == 0 && p.malformed > 0
}

// Feed processes a single line
func (p *ProgressParser) Feed(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	key, value, ok := strings.Cut(line, "=")
	if !ok {
		p.malformed++
		return
	}
	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)

	switch key {
	case "frame":
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			p.current.Frame = n
		}
	case "fps":
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			p.current.FPS = f
		}
	case "bitrate":
		p.current.Bitrate = value
	case "total_size":
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			p.current.TotalSize = n
		}
	case "out_time_us", "out_time_ms":
		// out_time_ms carries microseconds as well
		if us, err := strconv.ParseInt(value, 10, 64); err == nil {
			p.onTime(time.Duration(us) * time.Microsecond)
		}
	case "out_time":
		if d, ok := parseOutTime(value); ok {
			p.onTime(d)
		}
	case "speed":
		p.current.Speed = parseSpeed(value)
	case "progress":
		p.onBlockEnd(value)
	default:
		// stream_0_0_q, dup_frames and similar
	}
	p.recognized++
}

// onTime handles the first time key of a block; ffmpeg writes out_time_us,
// out_time_ms and out_time in that order.
func (p *ProgressParser) onTime(d time.Duration) {
	if p.blockHasTime {
		return
	}
	p.blockHasTime = true
	if d < 0 {
		d = 0
	}
	p.current.OutTime = d

	if p.duration <= 0 {
		if p.sentIndeterminate {
			return
		}
		p.sentIndeterminate = true
		update := p.current
		update.Indeterminate = true
		update.Fraction = -1
		p.emit(update)
		return
	}
	update := p.current
	update.Fraction = p.fraction()
	p.emit(update)
}

func (p *ProgressParser) onBlockEnd(state string) {
	defer func() { p.blockHasTime = false }()

	if state == "end" {
		update := p.current
		update.Fraction = 1
		update.Done = true
		update.ETA = 0
		if p.duration > 0 {
			update.OutTime = time.Duration(p.duration * float64(time.Second))
		}
		p.emit(update)
		return
	}
	if p.duration <= 0 || !p.blockHasTime {
		return
	}
	update := p.current
	update.Fraction = p.fraction()
	update.ETA = p.eta()
	p.emit(update)
}

func (p *ProgressParser) fraction() float64 {
	f := p.current.OutTime.Seconds() / p.duration
	if math.IsNaN(f) || f < 0 {
		return 0
	}
	if f > maxRunningFraction {
		return maxRunningFraction
	}
	return f
}

func (p *ProgressParser) eta() time.Duration {
	if p.current.Speed <= 0 {
		return 0
	}
	remaining := p.duration - p.current.OutTime.Seconds()
	if remaining <= 0 {
		return 0
	}
	return time.Duration(remaining / p.current.Speed * float64(time.Second))
}

// parseOutTime parses HH:MM:SS.micro, optionally negative
func parseOutTime(value string) (time.Duration, bool) {
	negative := strings.HasPrefix(value, "-")
	value = strings.TrimPrefix(value, "-")
	parts := strings.Split(value, ":")
	if len(parts) != 3 {
		return 0, false
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, false
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, false
	}
	seconds, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return 0, false
	}
	d := time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds*float64(time.Second))
	if negative {
		d = -d
	}
	return d, true
}

func parseSpeed(value string) float64 {
	v := strings.TrimSuffix(strings.TrimSpace(value), "x")
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		return 0
	}
	return f
}
