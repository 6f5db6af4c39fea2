package calibration

import (
	"fmt"
	"image"
	"io"
	"strings"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
)

// DefaultMinSamples is the number of recorded samples required before a solve runs.
const DefaultMinSamples = 5

// ErrNotEnoughSamples is returned by Solve when too few samples are recorded.
var ErrNotEnoughSamples = errors.New("not enough calibration samples")

// debugMsgFunc is set by the main package to route messages through the shared logger
var debugMsgFunc func(component, message string)

// SetDebugFunction allows main package to provide the debug logger
func SetDebugFunction(fn func(component, message string)) {
	debugMsgFunc = fn
}

func debugMsg(component, message string) {
	if debugMsgFunc != nil {
		debugMsgFunc(component, message)
	}
}

// Solver computes intrinsics from a set of samples. initial is the current
// estimate and may be used as a starting guess.
type Solver interface {
	Solve(samples []Sample, frameSize image.Point, initial Intrinsics) (Intrinsics, float64, error)
}

// Store persists and reloads intrinsics.
type Store interface {
	Save(in Intrinsics) error
	Load() (Intrinsics, error)
}

// Result describes one completed solve.
type Result struct {
	Intrinsics       Intrinsics
	ReprojectionErr  float64
	SampleCount      int
	FrameSize        image.Point
	MeanPointsPerObs float64
}

// Calibrator owns the sample set and the current intrinsics estimate.
type Calibrator struct {
	samples    SampleSet
	minSamples int
	solver     Solver
	store      Store
	intrinsics Intrinsics
}

// NewCalibrator creates a calibrator. minSamples below 1 is raised to 1.
func NewCalibrator(solver Solver, store Store, minSamples int, initial Intrinsics) *Calibrator {
	if minSamples < 1 {
		minSamples = 1
	}
	return &Calibrator{
		minSamples: minSamples,
		solver:     solver,
		store:      store,
		intrinsics: initial.Clone(),
	}
}

// Record appends one (observed, reference) pair. It must only be called for
// frames in which the pattern was actually found.
func (c *Calibrator) Record(observed []r2.Point, reference []r3.Vector) error {
	s, err := NewSample(observed, reference)
	if err != nil {
		return err
	}
	c.samples.Add(s)
	debugMsg("CALIB", fmt.Sprintf("recorded sample %d (%d corners)", c.samples.Len(), s.Len()))
	return nil
}

// Len is the number of recorded samples.
func (c *Calibrator) Len() int {
	return c.samples.Len()
}

// MinSamples is the configured solve threshold.
func (c *Calibrator) MinSamples() int {
	return c.minSamples
}

// Samples exposes the recorded samples in order.
func (c *Calibrator) Samples() []Sample {
	return c.samples.Samples()
}

// Intrinsics returns a copy of the current estimate.
func (c *Calibrator) Intrinsics() Intrinsics {
	return c.intrinsics.Clone()
}

// Ready reports whether enough samples are recorded to solve.
func (c *Calibrator) Ready() bool {
	return c.samples.Len() >= c.minSamples
}

// Solve runs the solver over every recorded sample, adopts the result and
// persists it. Below the sample threshold it does nothing and returns
// ErrNotEnoughSamples. Samples are kept after a solve.
func (c *Calibrator) Solve(frameSize image.Point) (*Result, error) {
	if !c.Ready() {
		return nil, errors.Wrapf(ErrNotEnoughSamples, "have %d, need %d", c.samples.Len(), c.minSamples)
	}

	debugMsg("CALIB", fmt.Sprintf("calibrating with %d samples at %dx%d", c.samples.Len(), frameSize.X, frameSize.Y))
	in, rms, err := c.solver.Solve(c.samples.Samples(), frameSize, c.intrinsics.Clone())
	if err != nil {
		return nil, errors.Wrap(err, "calibration solve failed")
	}

	if c.store != nil {
		if err := c.store.Save(in); err != nil {
			return nil, errors.Wrap(err, "failed to persist intrinsics")
		}
	}
	c.intrinsics = in.Clone()

	// stats.Mean only errors on empty input, which Ready rules out
	mean, _ := stats.Mean(c.samples.PointCounts())
	return &Result{
		Intrinsics:       in.Clone(),
		ReprojectionErr:  rms,
		SampleCount:      c.samples.Len(),
		FrameSize:        frameSize,
		MeanPointsPerObs: mean,
	}, nil
}

// PrintResult writes a human-readable summary of a solve.
func PrintResult(w io.Writer, res *Result) {
	fmt.Fprintf(w, "📊 CALIBRATION RESULTS\n")
	fmt.Fprintf(w, "=====================\n")
	fmt.Fprintf(w, "   Samples: %d (%.1f corners each)\n", res.SampleCount, res.MeanPointsPerObs)
	fmt.Fprintf(w, "   Frame: %d × %d pixels\n", res.FrameSize.X, res.FrameSize.Y)
	fmt.Fprintf(w, "   🎯 Reprojection error: %.6f\n\n", res.ReprojectionErr)

	k := res.Intrinsics.CameraMatrix
	fmt.Fprintf(w, "📋 CAMERA MATRIX\n")
	fmt.Fprintf(w, "┌%s┐\n", strings.Repeat("─", 50))
	for i := 0; i < 3; i++ {
		fmt.Fprintf(w, "│ %15.6f %15.6f %15.6f  │\n", k.At(i, 0), k.At(i, 1), k.At(i, 2))
	}
	fmt.Fprintf(w, "└%s┘\n", strings.Repeat("─", 50))

	fmt.Fprintf(w, "\n📋 DISTORTION COEFFICIENTS\n")
	for i, d := range res.Intrinsics.Distortion {
		fmt.Fprintf(w, "   d%d = %.10g\n", i, d)
	}
	fmt.Fprintf(w, "\n   Principal point: (%.2f, %.2f), frame centre: (%d, %d)\n",
		res.Intrinsics.Cx(), res.Intrinsics.Cy(), res.FrameSize.X/2, res.FrameSize.Y/2)
}
