// Package snapshot names the numbered image files written by the display loops.
package snapshot

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Sequence produces dir/fmt(pattern, n) for n = 0, 1, 2, ...
type Sequence struct {
	dir     string
	pattern string
	next    int
}

// LabelPattern is the pattern for labelled snapshots, "<label>.000.png".
func LabelPattern(label string) string {
	return strings.ReplaceAll(label, "%", "%%") + ".%03d.png"
}

// NewSequence validates that pattern holds exactly one integer verb.
func NewSequence(dir, pattern string) (*Sequence, error) {
	if strings.Count(strings.ReplaceAll(pattern, "%%", ""), "%") != 1 {
		return nil, errors.Errorf("snapshot pattern %q must contain exactly one counter", pattern)
	}
	if name := fmt.Sprintf(pattern, 0); strings.Contains(name, "%!") {
		return nil, errors.Errorf("snapshot pattern %q is not an integer format", pattern)
	}
	return &Sequence{dir: dir, pattern: pattern}, nil
}

// Next returns the next file name and advances the counter.
func (s *Sequence) Next() string {
	name := s.Peek()
	s.next++
	return name
}

// Peek returns the next file name without advancing.
func (s *Sequence) Peek() string {
	return filepath.Join(s.dir, fmt.Sprintf(s.pattern, s.next))
}

// Count is the number of names handed out.
func (s *Sequence) Count() int {
	return s.next
}

// CalibrationFrame names the frame saved with the n-th recorded sample.
func CalibrationFrame(dir string, n int) string {
	return filepath.Join(dir, fmt.Sprintf("calib%d.png", n))
}
