package transcode

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gofrs/flock"

	"github.com/davinciconvert/dnxhd-transcoder/internal/model"
)

// Output layout
const (
	OutputSubdir = "transcoded"
	LockFileName = ".dnxhd-transcoder.lock"
)

// ErrOutputDirLocked is returned when another process writes to the same output directory
var ErrOutputDirLocked = errors.New("output directory is in use by another transcoder")

// OutputDir returns the directory a batch writes to: the transcoded
// subdirectory of outputDir, or of the first input's directory.
func OutputDir(outputDir string, inputs []string) string {
	base := strings.TrimSpace(outputDir)
	if base == "" {
		if len(inputs) > 0 {
			base = filepath.Dir(inputs[0])
		} else {
			base = "."
		}
	}
	return filepath.Join(base, OutputSubdir)
}

// planOutputs assigns one output path per input. Stems already taken by
// reserved paths or earlier inputs get _2, _3 suffixes.
func planOutputs(dir string, inputs []string, container model.Container, reserved map[string]bool) ([]string, error) {
	taken := make(map[string]bool, len(reserved)+len(inputs))
	for path := range reserved {
		taken[filepath.Clean(path)] = true
	}

	outputs := make([]string, 0, len(inputs))
	for _, input := range inputs {
		stem := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
		if stem == "" || stem == "." {
			stem = "output"
		}
		candidate := filepath.Join(dir, stem+container.Extension())
		for n := 2; taken[candidate]; n++ {
			candidate = filepath.Join(dir, stem+"_"+strconv.Itoa(n)+container.Extension())
		}
		if samePath(candidate, input) {
			return nil, fmt.Errorf("output would overwrite input: %s", input)
		}
		taken[candidate] = true
		outputs = append(outputs, candidate)
	}
	return outputs, nil
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}

// dirLock is an advisory lock on an output directory shared by every
// unfinished job writing there
type dirLock struct {
	lock *flock.Flock
	refs int
}

func (s *Service) acquireDirLocked(dir string, refs int) error {
	if held, ok := s.dirLocks[dir]; ok {
		held.refs += refs
		return nil
	}
	fl := flock.New(filepath.Join(dir, LockFileName))
	locked, err := fl.TryLock()
	if err != nil {
		return fmt.Errorf("lock output directory: %w", err)
	}
	if !locked {
		return fmt.Errorf("%w: %s", ErrOutputDirLocked, dir)
	}
	s.dirLocks[dir] = &dirLock{lock: fl, refs: refs}
	return nil
}

func (s *Service) releaseDirLocked(dir string) {
	held, ok := s.dirLocks[dir]
	if !ok {
		return
	}
	held.refs--
	if held.refs > 0 {
		return
	}
	if err := held.lock.Unlock(); err != nil {
		s.logger.Warn("failed to release output directory lock", "dir", dir, "error", err)
	}
	delete(s.dirLocks, dir)
}
