package vision

import (
	"image"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gocv.io/x/gocv"

	"checkercam/calibration"
	"checkercam/pose"
)

var (
	_ calibration.Solver = (*Solver)(nil)
	_ pose.Estimator     = PnP{}
)

// gocv names no CALIB_FIX_ASPECT_RATIO and its CalibFlag values follow the
// fisheye layout. calibrateCamera takes the raw int, where 2 fixes fx/fy.
const calibFixAspectRatio gocv.CalibFlag = 2

// Solver runs OpenCV's calibrateCamera with a fixed aspect ratio.
type Solver struct {
	Flags gocv.CalibFlag
}

// NewSolver returns a solver that keeps fx/fy at the ratio of the initial guess.
func NewSolver() *Solver {
	return &Solver{Flags: calibFixAspectRatio}
}

// Solve implements calibration.Solver.
func (s *Solver) Solve(samples []calibration.Sample, frameSize image.Point, initial calibration.Intrinsics) (calibration.Intrinsics, float64, error) {
	if len(samples) == 0 {
		return calibration.Intrinsics{}, 0, calibration.ErrNotEnoughSamples
	}
	objPts := make([][]gocv.Point3f, len(samples))
	imgPts := make([][]gocv.Point2f, len(samples))
	for i, smp := range samples {
		objPts[i] = toPoint3f(smp.Reference)
		imgPts[i] = toPoint2f(smp.Observed)
	}
	obj := gocv.NewPoints3fVectorFromPoints(objPts)
	defer obj.Close()
	img := gocv.NewPoints2fVectorFromPoints(imgPts)
	defer img.Close()

	k, d, err := intrinsicsToMats(initial)
	if err != nil {
		return calibration.Intrinsics{}, 0, errors.Wrap(err, "bad initial intrinsics")
	}
	rvecs, tvecs := gocv.NewMat(), gocv.NewMat()
	defer func() {
		// close errors are not actionable here
		_ = multierr.Combine(k.Close(), d.Close(), rvecs.Close(), tvecs.Close())
	}()

	rms := gocv.CalibrateCamera(obj, img, frameSize, &k, &d, &rvecs, &tvecs, s.Flags)
	out, err := intrinsicsFromMats(k, d)
	if err != nil {
		return calibration.Intrinsics{}, 0, errors.Wrap(err, "calibrateCamera returned unusable intrinsics")
	}
	return out, rms, nil
}

// PnP estimates the board pose with OpenCV's iterative solvePnP.
type PnP struct{}

// Estimate implements pose.Estimator.
func (PnP) Estimate(reference []r3.Vector, observed []r2.Point, in calibration.Intrinsics) (pose.Pose, error) {
	if len(reference) != len(observed) || len(reference) < 4 {
		return pose.Pose{}, errors.Errorf("need at least 4 matched points, got %d reference and %d observed", len(reference), len(observed))
	}
	obj := gocv.NewPoint3fVectorFromPoints(toPoint3f(reference))
	defer obj.Close()
	img := gocv.NewPoint2fVectorFromPoints(toPoint2f(observed))
	defer img.Close()

	k, d, err := intrinsicsToMats(in)
	if err != nil {
		return pose.Pose{}, err
	}
	rvec, tvec := gocv.NewMat(), gocv.NewMat()
	defer func() {
		_ = multierr.Combine(k.Close(), d.Close(), rvec.Close(), tvec.Close())
	}()

	if !gocv.SolvePnP(obj, img, k, d, &rvec, &tvec, false, 0) || rvec.Empty() || tvec.Empty() {
		return pose.Pose{}, pose.ErrNoPose
	}
	return pose.Pose{Rotation: vec3(rvec), Translation: vec3(tvec)}, nil
}
