package calibration

import (
	"bytes"
	"image"
	"path/filepath"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"
)

type fakeSolver struct {
	calls   int
	lastLen int
	lastFS  image.Point
	out     Intrinsics
	rms     float64
	err     error
}

func (s *fakeSolver) Solve(samples []Sample, frameSize image.Point, initial Intrinsics) (Intrinsics, float64, error) {
	s.calls++
	s.lastLen = len(samples)
	s.lastFS = frameSize
	if s.err != nil {
		return Intrinsics{}, 0, s.err
	}
	return s.out.Clone(), s.rms, nil
}

type memStore struct {
	saves int
	saved Intrinsics
	err   error
}

func (m *memStore) Save(in Intrinsics) error {
	if m.err != nil {
		return m.err
	}
	m.saves++
	m.saved = in.Clone()
	return nil
}

func (m *memStore) Load() (Intrinsics, error) {
	if m.saves == 0 {
		return Intrinsics{}, errors.New("nothing saved")
	}
	return m.saved.Clone(), nil
}

// boardObservation fabricates a detection of a cols x rows board laid out on
// a regular pixel grid.
func boardObservation(cols, rows int, offset float64) ([]r2.Point, []r3.Vector) {
	observed := make([]r2.Point, 0, cols*rows)
	reference := make([]r3.Vector, 0, cols*rows)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			observed = append(observed, r2.Point{X: offset + float64(j)*30, Y: offset + float64(i)*30})
			reference = append(reference, r3.Vector{X: float64(j), Y: float64(-i)})
		}
	}
	return observed, reference
}

func solvedIntrinsics() Intrinsics {
	return NewIntrinsics(812.5, 812.5, 319.75, 241.125, []float64{-0.21, 0.093, 0.0012, -0.0004, 0.0175})
}

func TestRecordCountsSamples(t *testing.T) {
	c := NewCalibrator(&fakeSolver{}, &memStore{}, DefaultMinSamples, DefaultIntrinsics(image.Point{640, 480}))
	for n := 1; n <= 7; n++ {
		obs, ref := boardObservation(9, 6, float64(n))
		test.That(t, c.Record(obs, ref), test.ShouldBeNil)
		test.That(t, c.Len(), test.ShouldEqual, n)
	}
	for _, s := range c.Samples() {
		test.That(t, len(s.Observed), test.ShouldEqual, len(s.Reference))
		test.That(t, s.Len(), test.ShouldEqual, 54)
	}
}

func TestRecordRejectsBadSamples(t *testing.T) {
	c := NewCalibrator(&fakeSolver{}, &memStore{}, 1, DefaultIntrinsics(image.Point{640, 480}))

	obs, ref := boardObservation(9, 6, 0)
	err := c.Record(obs[:10], ref)
	test.That(t, errors.Is(err, ErrMismatchedSample), test.ShouldBeTrue)

	err = c.Record(nil, nil)
	test.That(t, errors.Is(err, ErrEmptySample), test.ShouldBeTrue)
	test.That(t, c.Len(), test.ShouldEqual, 0)
}

func TestRecordCopiesInput(t *testing.T) {
	c := NewCalibrator(&fakeSolver{}, &memStore{}, 1, DefaultIntrinsics(image.Point{640, 480}))
	obs, ref := boardObservation(3, 3, 0)
	test.That(t, c.Record(obs, ref), test.ShouldBeNil)
	obs[0] = r2.Point{X: -1, Y: -1}
	test.That(t, c.Samples()[0].Observed[0], test.ShouldResemble, r2.Point{})
}

func TestSolveBelowThresholdIsNoop(t *testing.T) {
	solver := &fakeSolver{out: solvedIntrinsics()}
	store := &memStore{}
	initial := DefaultIntrinsics(image.Point{640, 480})
	c := NewCalibrator(solver, store, 5, initial)

	for i := 0; i < 4; i++ {
		obs, ref := boardObservation(9, 6, float64(i))
		test.That(t, c.Record(obs, ref), test.ShouldBeNil)
	}
	res, err := c.Solve(image.Point{640, 480})
	test.That(t, res, test.ShouldBeNil)
	test.That(t, errors.Is(err, ErrNotEnoughSamples), test.ShouldBeTrue)
	test.That(t, solver.calls, test.ShouldEqual, 0)
	test.That(t, store.saves, test.ShouldEqual, 0)
	test.That(t, c.Intrinsics().Equal(initial), test.ShouldBeTrue)
}

func TestSolveUsesAllSamplesAndPersists(t *testing.T) {
	solver := &fakeSolver{out: solvedIntrinsics(), rms: 0.42}
	store := &memStore{}
	c := NewCalibrator(solver, store, 5, DefaultIntrinsics(image.Point{640, 480}))

	for i := 0; i < 6; i++ {
		obs, ref := boardObservation(9, 6, float64(i))
		test.That(t, c.Record(obs, ref), test.ShouldBeNil)
	}
	res, err := c.Solve(image.Point{640, 480})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, solver.calls, test.ShouldEqual, 1)
	test.That(t, solver.lastLen, test.ShouldEqual, 6)
	test.That(t, solver.lastFS, test.ShouldResemble, image.Point{640, 480})
	test.That(t, res.ReprojectionErr, test.ShouldEqual, 0.42)
	test.That(t, res.SampleCount, test.ShouldEqual, 6)
	test.That(t, res.MeanPointsPerObs, test.ShouldEqual, 54.0)
	test.That(t, store.saves, test.ShouldEqual, 1)
	test.That(t, store.saved.Equal(solvedIntrinsics()), test.ShouldBeTrue)
	test.That(t, c.Intrinsics().Equal(solvedIntrinsics()), test.ShouldBeTrue)

	// samples are consumed, not cleared
	test.That(t, c.Len(), test.ShouldEqual, 6)
}

func TestSolveSolverFailure(t *testing.T) {
	solver := &fakeSolver{err: errors.New("did not converge")}
	store := &memStore{}
	c := NewCalibrator(solver, store, 1, DefaultIntrinsics(image.Point{640, 480}))
	obs, ref := boardObservation(9, 6, 0)
	test.That(t, c.Record(obs, ref), test.ShouldBeNil)

	_, err := c.Solve(image.Point{640, 480})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "did not converge")
	test.That(t, store.saves, test.ShouldEqual, 0)
}

func TestSolvePersistFailureKeepsIntrinsics(t *testing.T) {
	errDenied := errors.New("permission denied")
	initial := DefaultIntrinsics(image.Point{640, 480})
	solver := &fakeSolver{out: solvedIntrinsics(), rms: 0.3}
	store := &memStore{err: errDenied}
	c := NewCalibrator(solver, store, 1, initial)
	obs, ref := boardObservation(9, 6, 0)
	test.That(t, c.Record(obs, ref), test.ShouldBeNil)

	res, err := c.Solve(image.Point{640, 480})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, errors.Is(err, errDenied), test.ShouldBeTrue)
	test.That(t, res, test.ShouldBeNil)
	test.That(t, solver.calls, test.ShouldEqual, 1)
	test.That(t, c.Intrinsics().Equal(initial), test.ShouldBeTrue)

	// a later successful persist adopts the result
	store.err = nil
	_, err = c.Solve(image.Point{640, 480})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, c.Intrinsics().Equal(solvedIntrinsics()), test.ShouldBeTrue)
}

func TestMinSamplesFloor(t *testing.T) {
	c := NewCalibrator(&fakeSolver{}, nil, 0, DefaultIntrinsics(image.Point{640, 480}))
	test.That(t, c.MinSamples(), test.ShouldEqual, 1)
	test.That(t, c.Ready(), test.ShouldBeFalse)
}

func TestFiveSampleScenarioRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(filepath.Join(dir, DefaultCameraMatrixFile), filepath.Join(dir, DefaultDistCoeffsFile))
	solver := &fakeSolver{out: solvedIntrinsics(), rms: 0.31}
	c := NewCalibrator(solver, store, DefaultMinSamples, DefaultIntrinsics(image.Point{640, 480}))

	for i := 0; i < 5; i++ {
		obs, ref := boardObservation(9, 6, float64(i))
		test.That(t, c.Record(obs, ref), test.ShouldBeNil)
	}
	res, err := c.Solve(image.Point{640, 480})
	test.That(t, err, test.ShouldBeNil)

	loaded, err := store.Load()
	test.That(t, err, test.ShouldBeNil)
	r, col := loaded.CameraMatrix.Dims()
	test.That(t, r, test.ShouldEqual, 3)
	test.That(t, col, test.ShouldEqual, 3)
	test.That(t, len(loaded.Distortion), test.ShouldEqual, len(res.Intrinsics.Distortion))
	test.That(t, loaded.Equal(res.Intrinsics), test.ShouldBeTrue)

	// reloading again yields the same values
	again, err := store.Load()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, again.Equal(loaded), test.ShouldBeTrue)
}

func TestPrintResult(t *testing.T) {
	var buf bytes.Buffer
	PrintResult(&buf, &Result{
		Intrinsics:       solvedIntrinsics(),
		ReprojectionErr:  0.25,
		SampleCount:      5,
		FrameSize:        image.Point{640, 480},
		MeanPointsPerObs: 54,
	})
	out := buf.String()
	test.That(t, out, test.ShouldContainSubstring, "Reprojection error: 0.250000")
	test.That(t, out, test.ShouldContainSubstring, "812.500000")
	test.That(t, out, test.ShouldContainSubstring, "d4 = 0.0175")
	test.That(t, out, test.ShouldContainSubstring, "frame centre: (320, 240)")
}
