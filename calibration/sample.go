// Package calibration accumulates chessboard observations, gates and runs the
// intrinsics solve, and persists the resulting camera parameters.
package calibration

import (
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

var (
	// ErrEmptySample is returned when a record carries no points.
	ErrEmptySample = errors.New("calibration sample has no points")
	// ErrMismatchedSample is returned when observed and reference lists differ in length.
	ErrMismatchedSample = errors.New("calibration sample point lists differ in length")
)

// Sample pairs the image corners detected in one frame with the known board
// positions of the same corners, in the same order.
type Sample struct {
	Observed  []r2.Point
	Reference []r3.Vector
}

// NewSample copies the two lists into a Sample after checking they pair up.
func NewSample(observed []r2.Point, reference []r3.Vector) (Sample, error) {
	if len(observed) == 0 || len(reference) == 0 {
		return Sample{}, ErrEmptySample
	}
	if len(observed) != len(reference) {
		return Sample{}, errors.Wrapf(ErrMismatchedSample, "observed %d, reference %d", len(observed), len(reference))
	}
	s := Sample{
		Observed:  make([]r2.Point, len(observed)),
		Reference: make([]r3.Vector, len(reference)),
	}
	copy(s.Observed, observed)
	copy(s.Reference, reference)
	return s, nil
}

// Len is the number of corner correspondences in the sample.
func (s Sample) Len() int {
	return len(s.Observed)
}

// SampleSet is an append-only, ordered list of samples.
type SampleSet struct {
	samples []Sample
}

// Add appends one sample.
func (ss *SampleSet) Add(s Sample) {
	ss.samples = append(ss.samples, s)
}

// Len is the number of recorded samples.
func (ss *SampleSet) Len() int {
	return len(ss.samples)
}

// Samples returns the recorded samples in record order. The slice is shared;
// callers must not modify it.
func (ss *SampleSet) Samples() []Sample {
	return ss.samples
}

// PointCounts returns the number of correspondences per sample.
func (ss *SampleSet) PointCounts() []float64 {
	counts := make([]float64, 0, len(ss.samples))
	for _, s := range ss.samples {
		counts = append(counts, float64(s.Len()))
	}
	return counts
}
