// Package vision connects the calibration and pose packages to the OpenCV
// solvers.
package vision

import (
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"checkercam/calibration"
)

func toPoint3f(points []r3.Vector) []gocv.Point3f {
	out := make([]gocv.Point3f, len(points))
	for i, p := range points {
		out[i] = gocv.Point3f{X: float32(p.X), Y: float32(p.Y), Z: float32(p.Z)}
	}
	return out
}

func toPoint2f(points []r2.Point) []gocv.Point2f {
	out := make([]gocv.Point2f, len(points))
	for i, p := range points {
		out[i] = gocv.Point2f{X: float32(p.X), Y: float32(p.Y)}
	}
	return out
}

// intrinsicsToMats returns the camera matrix (3x3) and distortion (1xN) as
// CV_64F mats. The caller closes both.
func intrinsicsToMats(in calibration.Intrinsics) (gocv.Mat, gocv.Mat, error) {
	if err := in.CheckValid(); err != nil {
		return gocv.Mat{}, gocv.Mat{}, err
	}
	k := gocv.NewMatWithSize(3, 3, gocv.MatTypeCV64F)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			k.SetDoubleAt(i, j, in.CameraMatrix.At(i, j))
		}
	}
	n := len(in.Distortion)
	if n == 0 {
		n = calibration.DefaultDistortionLen
	}
	d := gocv.NewMatWithSize(1, n, gocv.MatTypeCV64F)
	for i := 0; i < n; i++ {
		var v float64
		if i < len(in.Distortion) {
			v = in.Distortion[i]
		}
		d.SetDoubleAt(0, i, v)
	}
	return k, d, nil
}

func intrinsicsFromMats(k, d gocv.Mat) (calibration.Intrinsics, error) {
	if k.Rows() != 3 || k.Cols() != 3 {
		return calibration.Intrinsics{}, errors.Errorf("camera matrix is %dx%d, want 3x3", k.Rows(), k.Cols())
	}
	out := calibration.NewIntrinsics(k.GetDoubleAt(0, 0), k.GetDoubleAt(1, 1), k.GetDoubleAt(0, 2), k.GetDoubleAt(1, 2), nil)
	out.CameraMatrix.Set(0, 1, k.GetDoubleAt(0, 1))

	dist := make([]float64, 0, d.Rows()*d.Cols())
	for i := 0; i < d.Rows(); i++ {
		for j := 0; j < d.Cols(); j++ {
			dist = append(dist, d.GetDoubleAt(i, j))
		}
	}
	out.Distortion = dist
	return out, out.CheckValid()
}

func vec3(m gocv.Mat) r3.Vector {
	if m.Rows() == 1 {
		return r3.Vector{X: m.GetDoubleAt(0, 0), Y: m.GetDoubleAt(0, 1), Z: m.GetDoubleAt(0, 2)}
	}
	return r3.Vector{X: m.GetDoubleAt(0, 0), Y: m.GetDoubleAt(1, 0), Z: m.GetDoubleAt(2, 0)}
}
